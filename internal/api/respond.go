package api

import (
	"net/http"

	"alignbench/domain/compare"
	"alignbench/domain/core"
	"alignbench/domain/stats"
	"alignbench/internal/errors"
	"alignbench/ports"

	"github.com/gin-gonic/gin"
)

func statusFor(code string) int {
	switch code {
	case errors.CodeMalformedReport:
		return http.StatusUnprocessableEntity
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError maps err onto an HTTP status through its error code
func (h *Handler) respondError(c *gin.Context, err error) {
	code := errors.GetCode(errors.Wrap(err, "request failed"))
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		h.logger.Debug("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func (h *Handler) reportData(c *gin.Context) ([]stats.Summary, []compare.Evaluation, error) {
	ctx := c.Request.Context()
	a, b := h.frameworks(c)
	var summaries []stats.Summary
	for _, fw := range []core.Framework{a, b} {
		s, err := h.service.Summarize(ctx, ports.RunFilter{Framework: fw})
		if err != nil {
			return nil, nil, err
		}
		summaries = append(summaries, s...)
	}
	evaluations, err := h.service.EvaluateHypotheses(ctx, compare.Catalog(), a, b, h.options)
	if err != nil {
		return nil, nil, err
	}
	return summaries, evaluations, nil
}
