package stats

import (
	"math"
	"sort"

	"alignbench/domain/core"

	mstats "github.com/montanaflynn/stats"
)

// DistributionStats summarizes one metric over repeated runs.
// Always rebuilt from the full run list, never updated incrementally.
type DistributionStats struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // sample (n-1); 0 when n == 1
	Median float64 `json:"median"`
	IQR    float64 `json:"iqr"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Aggregate computes the distribution of values.
// Needs at least one value; NaN or infinite values abort with core.ErrInvalidNumeric.
func Aggregate(values []float64) (DistributionStats, error) {
	return aggregateSeries("values", values)
}

func aggregateSeries(series string, values []float64) (DistributionStats, error) {
	if len(values) == 0 {
		return DistributionStats{}, core.NewInsufficientSample(series, 0, 1)
	}
	if err := checkFinite(series, values); err != nil {
		return DistributionStats{}, err
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	data := mstats.Float64Data(sorted)

	mean, err := data.Mean()
	if err != nil {
		return DistributionStats{}, err
	}
	median, err := data.Median()
	if err != nil {
		return DistributionStats{}, err
	}
	lo, err := data.Min()
	if err != nil {
		return DistributionStats{}, err
	}
	hi, err := data.Max()
	if err != nil {
		return DistributionStats{}, err
	}

	out := DistributionStats{
		N:      len(sorted),
		Mean:   mean,
		Median: median,
		Min:    lo,
		Max:    hi,
	}
	if out.N > 1 {
		sd, err := data.StandardDeviationSample()
		if err != nil {
			return DistributionStats{}, err
		}
		out.StdDev = sd
		out.IQR = Quantile(sorted, 0.75) - Quantile(sorted, 0.25)
	}
	return out, nil
}

// Quantile returns the q-th quantile of ascending-sorted data by linear
// interpolation between closest ranks (Hyndman-Fan type 7).
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * q
	lo := int(math.Floor(h))
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

func checkFinite(series string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewInvalidNumericError(series, i, v)
		}
	}
	return nil
}
