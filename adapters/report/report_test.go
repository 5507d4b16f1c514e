package report

import (
	"strings"
	"testing"

	"alignbench/domain/benchmark"
	"alignbench/domain/compare"
	"alignbench/domain/stats"

	"github.com/stretchr/testify/assert"
)

func fixtures() ([]stats.Summary, []compare.Evaluation) {
	summaries := []stats.Summary{{
		Framework: "cursor",
		Branch:    "baseline_balanced",
		Kind:      benchmark.KindMissing,
		Runs:      5,
		Metrics: map[stats.Metric]stats.MetricSummary{
			stats.MetricF1:        {Status: stats.StatusOK, DistributionStats: &stats.DistributionStats{N: 5, Mean: 0.8, StdDev: 0.1}},
			stats.MetricPrecision: {Status: stats.StatusInsufficientSample, Excluded: 5},
		},
	}}
	p, d := 0.0123, 1.2
	evaluations := []compare.Evaluation{
		{
			Hypothesis: compare.Hypothesis{ID: "H2a", Description: "A detects missing items better than B"},
			Result:     compare.HypothesisResult{Status: stats.StatusOK, TestUsed: compare.TestPairedT, PValue: &p, EffectSize: &d, EffectMagnitude: compare.MagnitudeLarge, Direction: compare.DirectionA},
			Supported:  true,
		},
		{
			Hypothesis: compare.Hypothesis{ID: "H1", Description: "overall"},
			Result:     compare.HypothesisResult{Status: stats.StatusInsufficientSample, Direction: compare.DirectionNone},
		},
	}
	return summaries, evaluations
}

func TestMarkdown(t *testing.T) {
	summaries, evaluations := fixtures()
	md := Markdown("Benchmark results", summaries, evaluations)

	assert.True(t, strings.HasPrefix(md, "# Benchmark results\n"))
	assert.Contains(t, md, "| cursor | baseline_balanced | missing | 5 | n/a | n/a | 0.800 ± 0.100 (5) | n/a |")
	assert.Contains(t, md, "| H2a | A detects missing items better than B | paired_t | 0.0123 | n/a | 1.2 (large) | a | yes |")
	assert.Contains(t, md, "| H1 | overall | insufficient_sample | n/a | n/a | n/a | none | no |")
}

func TestHTML(t *testing.T) {
	summaries, evaluations := fixtures()
	out := string(HTML("Benchmark results", summaries, evaluations))

	assert.Contains(t, out, "<title>Benchmark results</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>paired_t</td>")
}

func TestMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "# Empty\n\n", Markdown("Empty", nil, nil))
}
