package stats

import (
	"encoding/json"
	"math"
	"testing"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
	"alignbench/domain/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_SingleRun(t *testing.T) {
	ds, err := Aggregate([]float64{0.75})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.N)
	assert.Equal(t, 0.75, ds.Mean)
	assert.Equal(t, 0.75, ds.Median)
	assert.Equal(t, 0.0, ds.StdDev)
	assert.Equal(t, 0.0, ds.IQR)
	assert.Equal(t, 0.75, ds.Min)
	assert.Equal(t, 0.75, ds.Max)
}

func TestAggregate_SampleStatistics(t *testing.T) {
	ds, err := Aggregate([]float64{4, 1, 3, 2, 5})
	require.NoError(t, err)
	assert.Equal(t, 5, ds.N)
	assert.InDelta(t, 3.0, ds.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2.5), ds.StdDev, 1e-12, "sample std divides by n-1")
	assert.InDelta(t, 3.0, ds.Median, 1e-12)
	assert.InDelta(t, 2.0, ds.IQR, 1e-12)
	assert.Equal(t, 1.0, ds.Min)
	assert.Equal(t, 5.0, ds.Max)
}

func TestAggregate_Errors(t *testing.T) {
	_, err := Aggregate(nil)
	assert.True(t, core.IsInsufficientSample(err))

	_, err = Aggregate([]float64{1, math.NaN()})
	assert.ErrorIs(t, err, core.ErrInvalidNumeric)

	_, err = Aggregate([]float64{math.Inf(-1)})
	assert.ErrorIs(t, err, core.ErrInvalidNumeric)
}

func TestQuantile_LinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	cases := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, Quantile(sorted, tc.q), 1e-12, "q=%v", tc.q)
	}
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.9))
}

func TestAggregate_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	_, err := Aggregate(in)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func run(kind benchmark.Kind, gt []benchmark.GroundTruthItem, rep []benchmark.ReportedItem) scoring.RunMetrics {
	m, err := scoring.Evaluate(kind, gt, rep)
	if err != nil {
		panic(err)
	}
	return m
}

func missing(keys ...string) []benchmark.GroundTruthItem {
	out := make([]benchmark.GroundTruthItem, len(keys))
	for i, k := range keys {
		out[i] = benchmark.GroundTruthItem{Key: k}
	}
	return out
}

func reported(keys ...string) []benchmark.ReportedItem {
	out := make([]benchmark.ReportedItem, len(keys))
	for i, k := range keys {
		out[i] = benchmark.ReportedItem{Key: k}
	}
	return out
}

func TestAggregateRuns_NullsAreExcluded(t *testing.T) {
	runs := []scoring.RunMetrics{
		run(benchmark.KindMissing, missing("2.1"), nil),             // precision undefined
		run(benchmark.KindMissing, missing("2.1"), reported("2.1")), // precision 1
		run(benchmark.KindMissing, missing("2.1"), reported("9.9")), // precision 0
	}

	summary, err := AggregateRuns(runs)
	require.NoError(t, err)

	p := summary[MetricPrecision]
	assert.Equal(t, StatusOK, p.Status)
	assert.Equal(t, 2, p.N)
	assert.Equal(t, 1, p.Excluded)
	assert.InDelta(t, 0.5, p.Mean, 1e-12, "undefined precision is not averaged in as zero")

	r := summary[MetricRecall]
	assert.Equal(t, 3, r.N)
	assert.Equal(t, 0, r.Excluded)

	fp := summary[MetricFP]
	assert.InDelta(t, 1.0/3.0, fp.Mean, 1e-12)
}

func TestAggregateRuns_ControlBranchHasNoRecall(t *testing.T) {
	runs := []scoring.RunMetrics{
		run(benchmark.KindMissing, nil, reported("x")),
		run(benchmark.KindMissing, nil, nil),
	}
	summary, err := AggregateRuns(runs)
	require.NoError(t, err)

	recall := summary[MetricRecall]
	assert.Equal(t, StatusInsufficientSample, recall.Status)
	assert.Nil(t, recall.DistributionStats)
	assert.Equal(t, 2, recall.Excluded)

	raw, err := json.Marshal(recall)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"insufficient_sample","excluded":2}`, string(raw))

	pts := summary[MetricPointScore]
	assert.InDelta(t, -0.125, pts.Mean, 1e-12)
}

func TestAggregateRuns_Empty(t *testing.T) {
	_, err := AggregateRuns(nil)
	var ise *core.InsufficientSampleError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 1, ise.Need)
}

func TestSummarizeSeries_RejectsForeignKind(t *testing.T) {
	series := benchmark.SeriesKey{Framework: "cursor", Branch: "b", Kind: benchmark.KindIncorrect}
	_, err := SummarizeSeries(series, []scoring.RunMetrics{run(benchmark.KindMissing, nil, nil)})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSummarizeOverall_PoolsKinds(t *testing.T) {
	byKind := map[benchmark.Kind][]scoring.RunMetrics{
		benchmark.KindMissing:    {run(benchmark.KindMissing, missing("2.1"), reported("2.1"))},
		benchmark.KindExtraneous: {run(benchmark.KindExtraneous, nil, reported("x")), run(benchmark.KindExtraneous, nil, nil)},
	}
	s, err := SummarizeOverall("cursor", "baseline_balanced", byKind)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Runs)
	assert.Empty(t, s.Kind)
	assert.Equal(t, 3, s.Metrics[MetricPointScore].N)
	assert.InDelta(t, 0.25, s.Metrics[MetricPointScore].Mean, 1e-12)
	assert.Equal(t, 1, s.Metrics[MetricRecall].N)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("f1")
	require.NoError(t, err)
	assert.Equal(t, MetricF1, m)
	_, err = ParseMetric("accuracy")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
