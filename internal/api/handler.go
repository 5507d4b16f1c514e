package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"alignbench/adapters/excel"
	"alignbench/adapters/report"
	"alignbench/app"
	"alignbench/domain/benchmark"
	"alignbench/domain/compare"
	"alignbench/domain/core"
	"alignbench/internal"
	"alignbench/ports"

	"github.com/gin-gonic/gin"
)

// Handler serves scored runs, summaries, hypothesis results and progress
type Handler struct {
	service    *app.BenchmarkService
	options    compare.Options
	frameworkA core.Framework
	frameworkB core.Framework
	logger     *internal.Logger
}

// NewHandler creates a new API handler comparing frameworkA against frameworkB
func NewHandler(service *app.BenchmarkService, options compare.Options, frameworkA, frameworkB core.Framework, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{
		service:    service,
		options:    options,
		frameworkA: frameworkA,
		frameworkB: frameworkB,
		logger:     logger.With("api"),
	}
}

// NewRouter builds the gin engine with every route registered
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.Register(r)
	return r
}

// Register mounts the routes on r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/runs", h.ListRuns)
	api.POST("/runs/:framework/:branch/:kind/:run", h.ScoreRun)
	api.GET("/summaries", h.Summaries)
	api.GET("/hypotheses", h.Hypotheses)
	api.GET("/progress/:framework", h.Progress)
	api.GET("/report.html", h.ReportHTML)
	api.GET("/export.xlsx", h.ExportWorkbook)
}

func filterFrom(c *gin.Context) (ports.RunFilter, error) {
	filter := ports.RunFilter{
		Framework: core.Framework(c.Query("framework")),
		Branch:    core.Branch(c.Query("branch")),
	}
	if k := c.Query("kind"); k != "" {
		kind, err := benchmark.ParseKind(k)
		if err != nil {
			return ports.RunFilter{}, err
		}
		filter.Kind = kind
	}
	return filter, nil
}

// ListRuns returns stored run records matching framework, branch and kind query parameters
func (h *Handler) ListRuns(c *gin.Context) {
	filter, err := filterFrom(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	records, err := h.service.Runs(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": records, "count": len(records)})
}

// ScoreRun scores the report document in the request body.
// The kind segment "combined" accepts a document carrying all three kinds.
func (h *Handler) ScoreRun(c *gin.Context) {
	runNumber, err := strconv.Atoi(c.Param("run"))
	if err != nil {
		h.respondError(c, core.NewValidationError("run", "must be an integer"))
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		h.respondError(c, core.NewValidationError("body", err.Error()))
		return
	}
	framework := core.Framework(c.Param("framework"))
	branch := core.Branch(c.Param("branch"))

	if strings.EqualFold(c.Param("kind"), "combined") {
		doc, err := benchmark.DecodeCombinedReport(body)
		if err != nil {
			h.respondError(c, err)
			return
		}
		combined, err := h.service.ScoreCombined(c.Request.Context(), framework, branch, runNumber, doc)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, combined)
		return
	}

	kind, err := benchmark.ParseKind(c.Param("kind"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	doc, err := benchmark.DecodeReport(body, kind)
	if err != nil {
		h.respondError(c, err)
		return
	}
	key := benchmark.RunKey{Framework: framework, Branch: branch, Kind: kind, Run: runNumber}
	record, err := h.service.ScoreReport(c.Request.Context(), key, doc)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Summaries returns per-series distributions and pooled overall views
func (h *Handler) Summaries(c *gin.Context) {
	filter, err := filterFrom(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	summaries, err := h.service.Summarize(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

// hypothesesFrom resolves the comma-separated id query parameter, defaulting to the whole catalog
func hypothesesFrom(c *gin.Context) ([]compare.Hypothesis, error) {
	ids := c.Query("id")
	if ids == "" {
		return compare.Catalog(), nil
	}
	var out []compare.Hypothesis
	for _, id := range strings.Split(ids, ",") {
		h, err := compare.FindHypothesis(core.HypothesisID(strings.TrimSpace(id)))
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (h *Handler) frameworks(c *gin.Context) (core.Framework, core.Framework) {
	a, b := h.frameworkA, h.frameworkB
	if v := c.Query("a"); v != "" {
		a = core.Framework(v)
	}
	if v := c.Query("b"); v != "" {
		b = core.Framework(v)
	}
	return a, b
}

// Hypotheses evaluates the requested hypotheses as one family
func (h *Handler) Hypotheses(c *gin.Context) {
	hypotheses, err := hypothesesFrom(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	a, b := h.frameworks(c)
	evaluations, err := h.service.EvaluateHypotheses(c.Request.Context(), hypotheses, a, b, h.options)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"framework_a": a, "framework_b": b, "evaluations": evaluations})
}

// Progress returns completed and next run numbers per branch and kind
func (h *Handler) Progress(c *gin.Context) {
	target, err := strconv.Atoi(c.DefaultQuery("target", "0"))
	if err != nil {
		h.respondError(c, core.NewValidationError("target", "must be an integer"))
		return
	}
	var branches []core.Branch
	if b := c.Query("branch"); b != "" {
		branches = []core.Branch{core.Branch(b)}
	}
	progress, err := h.service.Progress(c.Request.Context(), core.Framework(c.Param("framework")), branches, target)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// ReportHTML renders summaries and the full hypothesis catalog as an HTML page
func (h *Handler) ReportHTML(c *gin.Context) {
	summaries, evaluations, err := h.reportData(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	page := report.HTML(fmt.Sprintf("%s vs %s", h.frameworkA, h.frameworkB), summaries, evaluations)
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// ExportWorkbook streams the same data as an xlsx workbook
func (h *Handler) ExportWorkbook(c *gin.Context) {
	summaries, evaluations, err := h.reportData(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="alignbench.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := excel.WriteWorkbook(c.Writer, summaries, evaluations); err != nil {
		h.logger.Error("workbook export failed: %v", err)
	}
}
