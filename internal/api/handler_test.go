package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"alignbench/adapters/excel"
	"alignbench/app"
	"alignbench/domain/benchmark"
	"alignbench/domain/compare"
	"alignbench/domain/run"
	"alignbench/domain/scoring"
	"alignbench/domain/stats"
	"alignbench/internal"
	"alignbench/internal/errors"
	"alignbench/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, scored bool) *gin.Engine {
	t.Helper()
	groundTruth := testkit.NewInMemoryGroundTruth()
	reports := testkit.NewInMemoryReports()
	testkit.NewRunGenerator(testkit.DefaultGeneratorConfig()).Populate(groundTruth, reports)

	logger := internal.NewLogger(internal.LogLevelError)
	service := app.NewBenchmarkService(groundTruth, reports, testkit.NewInMemoryRunRepository(), 2, logger)
	if scored {
		_, err := service.ScoreAll(context.Background(), "")
		require.NoError(t, err)
	}
	return NewRouter(NewHandler(service, compare.DefaultOptions(), "cursor", "claude-code", logger))
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(t, false), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestScoreRun(t *testing.T) {
	r := newTestRouter(t, false)

	w := do(r, http.MethodPost, "/api/runs/cursor/baseline_balanced/missing/7", `[{"key":"2.1"},"2.2","9.9"]`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var record run.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, benchmark.RunKey{Framework: "cursor", Branch: "baseline_balanced", Kind: benchmark.KindMissing, Run: 7}, record.Key)
	assert.Len(t, record.Metrics.TP, 2)
	assert.Len(t, record.Metrics.FP, 1)
	assert.Len(t, record.Metrics.FN, 4)

	w = do(r, http.MethodGet, "/api/runs?framework=cursor", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestScoreRun_Errors(t *testing.T) {
	r := newTestRouter(t, false)

	cases := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"invalid json", "/api/runs/cursor/baseline_balanced/missing/1", `{"missing": [`, http.StatusUnprocessableEntity, errors.CodeMalformedReport},
		{"files missing", "/api/runs/cursor/baseline_balanced/incorrect/1", `[{"key":"3.1"}]`, http.StatusUnprocessableEntity, errors.CodeMalformedReport},
		{"unknown kind", "/api/runs/cursor/baseline_balanced/sideways/1", `[]`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"bad run number", "/api/runs/cursor/baseline_balanced/missing/one", `[]`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"dot-dot framework", "/api/runs/../baseline_balanced/missing/1", `[]`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"backslash branch", "/api/runs/cursor/a%5Cb/missing/1", `[]`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"combined dot-dot branch", "/api/runs/cursor/../combined/1", `{}`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"incorrect report with empty files", "/api/runs/cursor/baseline_balanced/incorrect/1", `[{"key": "3.1", "files": []}]`, http.StatusCreated, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, tc.target, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, w))
			}
		})
	}
}

func TestScoreRun_Combined(t *testing.T) {
	r := newTestRouter(t, false)

	body := `{"missing": ["2.1"], "type2_incorrect": [{"key": "3.1", "files": ["src/incorrect/module_1.ts"]}], "extraneous": []}`
	w := do(r, http.MethodPost, "/api/runs/aider/baseline_balanced/combined/1", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var combined scoring.CombinedMetrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &combined))
	assert.Len(t, combined.PerKind, 3)
	assert.Len(t, combined.PerKind[benchmark.KindIncorrect].TP, 1)

	w = do(r, http.MethodGet, "/api/runs?framework=aider", "")
	assert.Contains(t, w.Body.String(), `"count":3`)
}

func TestListRuns(t *testing.T) {
	r := newTestRouter(t, true)

	w := do(r, http.MethodGet, "/api/runs?framework=cursor&kind=incorrect", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Runs  []run.Record `json:"runs"`
		Count int          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 5, body.Count)
	for i, rec := range body.Runs {
		assert.Equal(t, benchmark.KindIncorrect, rec.Key.Kind)
		assert.Equal(t, i+1, rec.Key.Run)
	}

	w = do(r, http.MethodGet, "/api/runs?kind=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummaries(t *testing.T) {
	r := newTestRouter(t, true)

	w := do(r, http.MethodGet, "/api/summaries?framework=cursor", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Summaries []stats.Summary `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Summaries, 4, "three kinds plus the overall view")
}

func TestHypotheses(t *testing.T) {
	r := newTestRouter(t, true)

	w := do(r, http.MethodGet, "/api/hypotheses?id=H1,H5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Evaluations []compare.Evaluation `json:"evaluations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Evaluations, 2)
	assert.Equal(t, 2, body.Evaluations[0].Result.FamilySize)
	assert.Equal(t, stats.StatusInsufficientSample, body.Evaluations[1].Result.Status)

	w = do(r, http.MethodGet, "/api/hypotheses?id=H9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.CodeNotFound, errorCode(t, w))
}

func TestProgress(t *testing.T) {
	r := newTestRouter(t, true)

	w := do(r, http.MethodGet, "/api/progress/cursor?target=7", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Progress []run.Progress `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Progress, 3)
	for _, p := range body.Progress {
		assert.Equal(t, 6, p.NextRun)
		assert.Equal(t, 2, p.Needed)
	}

	w = do(r, http.MethodGet, "/api/progress/cursor?target=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportAndExport(t *testing.T) {
	r := newTestRouter(t, true)

	w := do(r, http.MethodGet, "/api/report.html", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<table>")
	assert.Contains(t, w.Body.String(), "cursor vs claude-code")

	w = do(r, http.MethodGet, "/api/export.xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(excel.SummarySheet)
	require.NoError(t, err)
	assert.Greater(t, len(rows), 8, "header plus at least one row per summary")
	hyps, err := f.GetRows(excel.HypothesisSheet)
	require.NoError(t, err)
	assert.Len(t, hyps, 1+len(compare.Catalog()))
}
