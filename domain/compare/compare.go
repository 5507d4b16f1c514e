package compare

import (
	"fmt"
	"math"

	"alignbench/domain/core"
	"alignbench/domain/stats"

	"gonum.org/v1/gonum/stat"
)

// TestKind names the statistical test behind a result
type TestKind string

const (
	TestPairedT     TestKind = "paired_t"
	TestUnpairedT   TestKind = "unpaired_t"
	TestMannWhitney TestKind = "mann_whitney"
)

// Direction records which group has the higher mean
type Direction string

const (
	DirectionA    Direction = "a"
	DirectionB    Direction = "b"
	DirectionNone Direction = "none"
)

// tieEpsilon is the largest mean difference still reported as DirectionNone
const tieEpsilon = 1e-9

// Defaults used when Options fields are zero
const (
	DefaultAlpha          = 0.05
	DefaultMinParametricN = 8
	DefaultNormalityAlpha = 0.05
)

// minCompareN is the smallest group any test here accepts
const minCompareN = 2

// Options control test selection and significance
type Options struct {
	Alpha          float64 // significance threshold before correction
	Bonferroni     bool    // divide Alpha by FamilySize
	FamilySize     int     // hypotheses evaluated together; < 1 means 1
	MinParametricN int     // below this per group, Mann–Whitney is primary
	NormalityAlpha float64 // normality check threshold
}

// DefaultOptions returns the standard settings for a single comparison
func DefaultOptions() Options {
	return Options{
		Alpha:          DefaultAlpha,
		Bonferroni:     true,
		FamilySize:     1,
		MinParametricN: DefaultMinParametricN,
		NormalityAlpha: DefaultNormalityAlpha,
	}
}

func (o Options) withDefaults() Options {
	if o.Alpha <= 0 || o.Alpha >= 1 {
		o.Alpha = DefaultAlpha
	}
	if o.FamilySize < 1 {
		o.FamilySize = 1
	}
	if o.MinParametricN < minCompareN {
		o.MinParametricN = DefaultMinParametricN
	}
	if o.NormalityAlpha <= 0 || o.NormalityAlpha >= 1 {
		o.NormalityAlpha = DefaultNormalityAlpha
	}
	return o
}

func (o Options) correction() int {
	if !o.Bonferroni {
		return 1
	}
	return o.FamilySize
}

// Group is one condition's raw per-run values with their distribution.
// Labels name the test condition of each value; equal labels across groups mark pairs.
type Group struct {
	Stats  stats.DistributionStats
	Values []float64
	Labels []string
}

// NewGroup aggregates values into a Group. labels may be nil (unpaired data).
func NewGroup(values []float64, labels []string) (Group, error) {
	if labels != nil && len(labels) != len(values) {
		return Group{}, core.NewValidationError("labels", fmt.Sprintf("have %d labels for %d values", len(labels), len(values)))
	}
	ds, err := stats.Aggregate(values)
	if err != nil && !core.IsInsufficientSample(err) {
		return Group{}, err
	}
	return Group{Stats: ds, Values: values, Labels: labels}, nil
}

// TestOutcome is the result of one test
type TestOutcome struct {
	Test      TestKind `json:"test"`
	Statistic *float64 `json:"statistic"`
	PValue    *float64 `json:"p_value"`
	DF        *float64 `json:"df,omitempty"`
	Exact     bool     `json:"exact,omitempty"`
}

// HypothesisResult compares group A against group B for one hypothesis.
// Undefined quantities are nil and serialize as null.
type HypothesisResult struct {
	HypothesisID    core.HypothesisID `json:"hypothesis_id"`
	Status          stats.Status      `json:"status"`
	TestUsed        TestKind          `json:"test_used,omitempty"`
	Statistic       *float64          `json:"statistic"`
	PValue          *float64          `json:"p_value"`
	PValueCorrected *float64          `json:"p_value_corrected"`
	EffectSize      *float64          `json:"effect_size"`
	EffectMagnitude Magnitude         `json:"effect_magnitude,omitempty"`
	Significant     bool              `json:"significant"`
	Direction       Direction         `json:"direction"`

	Alpha          float64 `json:"alpha"`
	AlphaCorrected float64 `json:"alpha_corrected"`
	FamilySize     int     `json:"family_size"`
	Paired         bool    `json:"paired"`
	NormalityOK    bool    `json:"normality_ok"`
	NA             int     `json:"n_a"`
	NB             int     `json:"n_b"`
	MeanA          float64 `json:"mean_a"`
	MeanB          float64 `json:"mean_b"`

	// Parametric is the t-test reported alongside a rank-test primary result
	Parametric *TestOutcome `json:"parametric,omitempty"`
}

// Compare tests group a against group b.
//
// Test selection: a paired t-test when both groups have equal length and identical
// labels in the same positions, Welch's t otherwise. Mann–Whitney U replaces it as the
// primary test when either group is below MinParametricN or fails the normality check;
// the t-test is then kept in Parametric.
//
// Fewer than 2 values in either group yields a result with StatusInsufficientSample
// together with a *core.InsufficientSampleError. NaN or infinite values fail with core.ErrInvalidNumeric.
func Compare(id core.HypothesisID, a, b Group, opts Options) (HypothesisResult, error) {
	opts = opts.withDefaults()
	res := HypothesisResult{
		HypothesisID:   id,
		Direction:      DirectionNone,
		Alpha:          opts.Alpha,
		FamilySize:     opts.correction(),
		AlphaCorrected: opts.Alpha / float64(opts.correction()),
		NA:             len(a.Values),
		NB:             len(b.Values),
	}

	if err := checkFinite("a", a.Values); err != nil {
		return HypothesisResult{}, err
	}
	if err := checkFinite("b", b.Values); err != nil {
		return HypothesisResult{}, err
	}
	if res.NA < minCompareN || res.NB < minCompareN {
		res.Status = stats.StatusInsufficientSample
		if res.NA < minCompareN {
			return res, core.NewInsufficientSample("a", res.NA, minCompareN)
		}
		return res, core.NewInsufficientSample("b", res.NB, minCompareN)
	}

	res.Status = stats.StatusOK
	res.MeanA = groupMean(a)
	res.MeanB = groupMean(b)
	res.Direction = directionOf(res.MeanA, res.MeanB)
	res.EffectSize = CohensD(a.Values, b.Values)
	res.EffectMagnitude = MagnitudeOf(res.EffectSize)
	res.Paired = isPaired(a, b)

	parametric := runParametric(a.Values, b.Values, res.Paired)
	if res.Paired {
		res.NormalityOK = looksNormal(opts.NormalityAlpha, differences(a.Values, b.Values))
	} else {
		res.NormalityOK = looksNormal(opts.NormalityAlpha, a.Values, b.Values)
	}

	primary := parametric
	if res.NA < opts.MinParametricN || res.NB < opts.MinParametricN || !res.NormalityOK {
		mw := mannWhitney(a.Values, b.Values)
		primary = TestOutcome{Test: TestMannWhitney, Statistic: floatPtr(mw.u), PValue: floatPtr(mw.p), Exact: mw.exact}
		res.Parametric = &parametric
	}

	res.TestUsed = primary.Test
	res.Statistic = primary.Statistic
	res.PValue = primary.PValue
	if res.PValue != nil {
		corrected := math.Min(1, *res.PValue*float64(res.FamilySize))
		res.PValueCorrected = &corrected
		res.Significant = *res.PValue < res.AlphaCorrected
	}
	return res, nil
}

func runParametric(a, b []float64, paired bool) TestOutcome {
	out := TestOutcome{Test: TestUnpairedT}
	var t tOutcome
	if paired {
		out.Test = TestPairedT
		t = pairedT(a, b)
	} else {
		t = welchT(a, b)
	}
	if t.defined {
		out.Statistic = floatPtr(t.t)
		out.PValue = floatPtr(t.p)
		out.DF = floatPtr(t.df)
	}
	return out
}

// isPaired requires equal lengths and the same condition label at every index
func isPaired(a, b Group) bool {
	if len(a.Values) != len(b.Values) || len(a.Labels) != len(a.Values) || len(b.Labels) != len(b.Values) {
		return false
	}
	for i := range a.Labels {
		if a.Labels[i] == "" || a.Labels[i] != b.Labels[i] {
			return false
		}
	}
	return true
}

func directionOf(meanA, meanB float64) Direction {
	diff := meanA - meanB
	switch {
	case math.Abs(diff) <= tieEpsilon:
		return DirectionNone
	case diff > 0:
		return DirectionA
	default:
		return DirectionB
	}
}

func differences(a, b []float64) []float64 {
	d := make([]float64, len(a))
	for i := range a {
		d[i] = a[i] - b[i]
	}
	return d
}

// groupMean prefers the aggregated mean and recomputes it when Stats was not built from Values
func groupMean(g Group) float64 {
	if g.Stats.N == len(g.Values) {
		return g.Stats.Mean
	}
	return stat.Mean(g.Values, nil)
}

func checkFinite(group string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewInvalidNumericError(group, i, v)
		}
	}
	return nil
}

func floatPtr(v float64) *float64 { return &v }
