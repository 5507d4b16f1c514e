package stats

import (
	"fmt"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
	"alignbench/domain/scoring"
)

// Metric names one per-run scalar
type Metric string

const (
	MetricPrecision  Metric = "precision"
	MetricRecall     Metric = "recall"
	MetricF1         Metric = "f1"
	MetricPointScore Metric = "point_score"
	MetricTP         Metric = "tp"
	MetricFP         Metric = "fp"
	MetricFN         Metric = "fn"
)

// Metrics returns every summarized metric in report order
func Metrics() []Metric {
	return []Metric{MetricPrecision, MetricRecall, MetricF1, MetricPointScore, MetricTP, MetricFP, MetricFN}
}

// ParseMetric validates a metric name
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", core.NewValidationError("metric", fmt.Sprintf("unknown metric %q", s))
}

// Value extracts metric from m; ok is false when the value is undefined for that run
func Value(m scoring.RunMetrics, metric Metric) (v float64, ok bool) {
	switch metric {
	case MetricPrecision:
		if m.Precision == nil {
			return 0, false
		}
		return *m.Precision, true
	case MetricRecall:
		if m.Recall == nil {
			return 0, false
		}
		return *m.Recall, true
	case MetricF1:
		return m.F1, true
	case MetricPointScore:
		return m.PointScore, true
	case MetricTP:
		return float64(m.Counts.TP), true
	case MetricFP:
		return float64(m.Counts.FP), true
	case MetricFN:
		return float64(m.Counts.FN), true
	}
	return 0, false
}

// Status tells a computed summary apart from one with too little data
type Status string

const (
	StatusOK                 Status = "ok"
	StatusInsufficientSample Status = "insufficient_sample"
)

// MetricSummary is the distribution of one metric. Runs where the metric is
// undefined are counted in Excluded and left out of the distribution.
type MetricSummary struct {
	Status Status `json:"status"`
	*DistributionStats
	Excluded int `json:"excluded,omitempty"`
}

// Summary aggregates the runs of one series, or a pooled view across kinds
type Summary struct {
	Framework core.Framework           `json:"framework"`
	Branch    core.Branch              `json:"branch"`
	Kind      benchmark.Kind           `json:"kind,omitempty"` // empty for pooled views
	Runs      int                      `json:"runs"`
	Metrics   map[Metric]MetricSummary `json:"metrics"`
}

// AggregateRuns summarizes every metric over runs.
// An empty run list is an InsufficientSample error; a metric undefined in every run
// gets StatusInsufficientSample while the rest of the summary is still computed.
func AggregateRuns(runs []scoring.RunMetrics) (map[Metric]MetricSummary, error) {
	if len(runs) == 0 {
		return nil, core.NewInsufficientSample("runs", 0, 1)
	}

	out := make(map[Metric]MetricSummary, len(Metrics()))
	for _, metric := range Metrics() {
		values := make([]float64, 0, len(runs))
		excluded := 0
		for _, r := range runs {
			if v, ok := Value(r, metric); ok {
				values = append(values, v)
			} else {
				excluded++
			}
		}

		if len(values) == 0 {
			out[metric] = MetricSummary{Status: StatusInsufficientSample, Excluded: excluded}
			continue
		}
		ds, err := aggregateSeries(string(metric), values)
		if err != nil {
			return nil, err
		}
		out[metric] = MetricSummary{Status: StatusOK, DistributionStats: &ds, Excluded: excluded}
	}
	return out, nil
}

// SummarizeSeries aggregates the runs of one (framework, branch, kind) series
func SummarizeSeries(series benchmark.SeriesKey, runs []scoring.RunMetrics) (Summary, error) {
	for _, r := range runs {
		if r.Kind != series.Kind {
			return Summary{}, core.NewValidationError("runs", fmt.Sprintf("run of kind %q in %s series", r.Kind, series))
		}
	}
	metrics, err := AggregateRuns(runs)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Framework: series.Framework,
		Branch:    series.Branch,
		Kind:      series.Kind,
		Runs:      len(runs),
		Metrics:   metrics,
	}, nil
}

// SummarizeOverall pools the runs of every kind of one framework and branch.
// Runs are concatenated in canonical kind order so the result does not depend on map iteration.
func SummarizeOverall(framework core.Framework, branch core.Branch, byKind map[benchmark.Kind][]scoring.RunMetrics) (Summary, error) {
	var pooled []scoring.RunMetrics
	for _, kind := range benchmark.Kinds() {
		pooled = append(pooled, byKind[kind]...)
	}
	metrics, err := AggregateRuns(pooled)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Framework: framework,
		Branch:    branch,
		Runs:      len(pooled),
		Metrics:   metrics,
	}, nil
}
