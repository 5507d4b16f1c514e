package scoring

import (
	"testing"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCombined(t *testing.T) {
	bundle := benchmark.GroundTruthBundle{
		benchmark.KindMissing:   {Kind: benchmark.KindMissing, Items: gtKeys(benchmark.KindMissing, "2.1", "3.3")},
		benchmark.KindIncorrect: {Kind: benchmark.KindIncorrect, Items: []benchmark.GroundTruthItem{{Key: "3.1", Files: []string{"a.ts"}}}},
	}
	report := benchmark.CombinedReport{
		benchmark.KindMissing:    {Kind: benchmark.KindMissing, Items: repKeys(benchmark.KindMissing, "2.1", "4.4")},
		benchmark.KindIncorrect:  {Kind: benchmark.KindIncorrect, Items: []benchmark.ReportedItem{{Key: "3.1", Files: []string{"a.ts"}}}},
		benchmark.KindExtraneous: {Kind: benchmark.KindExtraneous, Items: repKeys(benchmark.KindExtraneous, "analytics")},
	}

	c, err := ScoreCombined(bundle, report)
	require.NoError(t, err)
	require.Len(t, c.PerKind, 3)

	assert.Equal(t, 0.75, c.PerKind[benchmark.KindMissing].PointScore)
	assert.Equal(t, 1.0, c.PerKind[benchmark.KindIncorrect].PointScore)
	assert.Equal(t, -0.25, c.PerKind[benchmark.KindExtraneous].PointScore)
	assert.Equal(t, 1.5, c.TotalPointScore)
	assert.Equal(t, Counts{TP: 2, FP: 2, FN: 1}, c.Counts)

	// extraneous has no ground truth so its recall is skipped, not averaged in as zero
	require.NotNil(t, c.MeanRecall)
	assert.InDelta(t, 0.75, *c.MeanRecall, 1e-12)
	require.NotNil(t, c.MeanPrecision)
	assert.InDelta(t, 0.5, *c.MeanPrecision, 1e-12)
	assert.InDelta(t, 0.5, c.MeanF1, 1e-12)
}

func TestScoreCombined_MalformedKindFailsRun(t *testing.T) {
	report := benchmark.CombinedReport{
		benchmark.KindIncorrect: {Kind: benchmark.KindIncorrect, Items: repKeys(benchmark.KindIncorrect, "3.1")},
	}
	_, err := ScoreCombined(benchmark.GroundTruthBundle{}, report)
	assert.True(t, core.IsMalformedReport(err))
}

func TestValidateReportCollectsAllProblems(t *testing.T) {
	r := benchmark.Report{Kind: benchmark.KindIncorrect, Items: []benchmark.ReportedItem{
		{Key: "3.1"},
		{Key: "3.2", Files: []string{"a.ts"}},
		{Key: "", Files: []string{"b.ts"}},
	}}
	problems := ValidateReport(r)
	assert.Len(t, problems, 2)

	set := benchmark.GroundTruthSet{Kind: benchmark.KindMissing, Items: gtKeys(benchmark.KindMissing, "2.1", "2.1", "2.1")}
	assert.Len(t, ValidateGroundTruth(set), 2)
}
