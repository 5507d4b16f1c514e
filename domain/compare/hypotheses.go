package compare

import (
	"fmt"
	"sort"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
	"alignbench/domain/run"
	"alignbench/domain/stats"
)

// Hypothesis is one fixed prediction about framework A versus framework B
type Hypothesis struct {
	ID          core.HypothesisID `json:"id"`
	Description string            `json:"description"`
	Branch      core.Branch       `json:"branch"`
	Kind        benchmark.Kind    `json:"kind,omitempty"` // empty pools every kind
	Metric      stats.Metric      `json:"metric"`
	Expected    Direction         `json:"expected"`
}

// Branch names used by the catalog
const (
	BranchBaselineBalanced core.Branch = "baseline_balanced"
	BranchControlPerfect   core.Branch = "control_perfect"
)

// Catalog returns the fixed hypothesis set, evaluated together as one family
func Catalog() []Hypothesis {
	return []Hypothesis{
		{ID: "H1", Description: "B achieves a higher overall F1 than A", Branch: BranchBaselineBalanced, Metric: stats.MetricF1, Expected: DirectionB},
		{ID: "H2a", Description: "A detects missing items better than B", Branch: BranchBaselineBalanced, Kind: benchmark.KindMissing, Metric: stats.MetricF1, Expected: DirectionA},
		{ID: "H2b", Description: "B detects incorrect items better than A", Branch: BranchBaselineBalanced, Kind: benchmark.KindIncorrect, Metric: stats.MetricF1, Expected: DirectionB},
		{ID: "H2c", Description: "A detects extraneous items better than B", Branch: BranchBaselineBalanced, Kind: benchmark.KindExtraneous, Metric: stats.MetricF1, Expected: DirectionA},
		{ID: "H5", Description: "A reports more false positives than B on the control branch", Branch: BranchControlPerfect, Metric: stats.MetricFP, Expected: DirectionA},
	}
}

// FindHypothesis looks a hypothesis up by ID
func FindHypothesis(id core.HypothesisID) (Hypothesis, error) {
	for _, h := range Catalog() {
		if h.ID == id {
			return h, nil
		}
	}
	return Hypothesis{}, fmt.Errorf("%w: hypothesis %s", core.ErrNotFound, id)
}

// Matches reports whether key falls under the hypothesis for some framework
func (h Hypothesis) Matches(key benchmark.RunKey) bool {
	if key.Branch != h.Branch {
		return false
	}
	return h.Kind == "" || key.Kind == h.Kind
}

// Group collects framework's values of h.Metric, ordered by kind then run number and
// labelled with the run's pair label. Runs where the metric is undefined are left out.
func (h Hypothesis) Group(records []run.Record, framework core.Framework) (Group, error) {
	selected := make([]run.Record, 0, len(records))
	for _, r := range records {
		if r.Key.Framework == framework && h.Matches(r.Key) {
			selected = append(selected, r)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		ki, kj := selected[i].Key.Kind.Ordinal(), selected[j].Key.Kind.Ordinal()
		if ki != kj {
			return ki < kj
		}
		return selected[i].Key.Run < selected[j].Key.Run
	})

	values := make([]float64, 0, len(selected))
	labels := make([]string, 0, len(selected))
	for _, r := range selected {
		v, ok := stats.Value(r.Metrics, h.Metric)
		if !ok {
			continue
		}
		values = append(values, v)
		labels = append(labels, r.Key.PairLabel())
	}
	return NewGroup(values, labels)
}

// Evaluation is a hypothesis with its comparison outcome.
// Supported requires a significant result in the expected direction.
type Evaluation struct {
	Hypothesis Hypothesis       `json:"hypothesis"`
	FrameworkA core.Framework   `json:"framework_a"`
	FrameworkB core.Framework   `json:"framework_b"`
	Result     HypothesisResult `json:"result"`
	Supported  bool             `json:"supported"`
}

// EvaluateHypotheses compares frameworkA against frameworkB for every hypothesis as one family
func EvaluateHypotheses(hypotheses []Hypothesis, records []run.Record, frameworkA, frameworkB core.Framework, opts Options) ([]Evaluation, error) {
	requests := make([]Request, 0, len(hypotheses))
	for _, h := range hypotheses {
		a, err := h.Group(records, frameworkA)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", h.ID, err)
		}
		b, err := h.Group(records, frameworkB)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", h.ID, err)
		}
		requests = append(requests, Request{ID: h.ID, A: a, B: b})
	}

	results, err := CompareFamily(requests, opts)
	if err != nil {
		return nil, err
	}

	out := make([]Evaluation, len(hypotheses))
	for i, h := range hypotheses {
		res := results[i]
		out[i] = Evaluation{
			Hypothesis: h,
			FrameworkA: frameworkA,
			FrameworkB: frameworkB,
			Result:     res,
			Supported:  res.Status == stats.StatusOK && res.Significant && res.Direction == h.Expected,
		}
	}
	return out, nil
}
