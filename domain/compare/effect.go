package compare

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Magnitude buckets |d| on Cohen's conventional scale
type Magnitude string

const (
	MagnitudeNegligible Magnitude = "negligible"
	MagnitudeSmall      Magnitude = "small"
	MagnitudeMedium     Magnitude = "medium"
	MagnitudeLarge      Magnitude = "large"
)

// CohensD is (mean(a) − mean(b)) / pooled standard deviation.
// Returns nil when either group has fewer than 2 values or the pooled deviation is zero.
func CohensD(a, b []float64) *float64 {
	na, nb := float64(len(a)), float64(len(b))
	if na < 2 || nb < 2 {
		return nil
	}
	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)

	pooled := math.Sqrt(((na-1)*varA + (nb-1)*varB) / (na + nb - 2))
	if pooled == 0 || math.IsNaN(pooled) {
		return nil
	}
	d := (meanA - meanB) / pooled
	return &d
}

// MagnitudeOf labels an effect size; nil d has no label
func MagnitudeOf(d *float64) Magnitude {
	if d == nil {
		return ""
	}
	switch abs := math.Abs(*d); {
	case abs < 0.2:
		return MagnitudeNegligible
	case abs < 0.5:
		return MagnitudeSmall
	case abs < 0.8:
		return MagnitudeMedium
	default:
		return MagnitudeLarge
	}
}
