package compare

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// minNormalityN is the smallest sample whose excess kurtosis is defined
const minNormalityN = 4

// jarqueBeraP returns the Jarque–Bera p-value of x.
// ok is false when the sample is too small or has zero variance; such a sample
// cannot be shown to be normal.
func jarqueBeraP(x []float64) (p float64, ok bool) {
	n := len(x)
	if n < minNormalityN {
		return 0, false
	}
	_, variance := stat.MeanVariance(x, nil)
	if variance == 0 || math.IsNaN(variance) {
		return 0, false
	}

	s := stat.Skew(x, nil)
	k := stat.ExKurtosis(x, nil)
	if math.IsNaN(s) || math.IsNaN(k) || math.IsInf(s, 0) || math.IsInf(k, 0) {
		return 0, false
	}
	jb := float64(n) / 6 * (s*s + k*k/4)
	return distuv.ChiSquared{K: 2}.Survival(jb), true
}

// looksNormal reports whether every sample passes the normality check at alpha
func looksNormal(alpha float64, samples ...[]float64) bool {
	for _, x := range samples {
		p, ok := jarqueBeraP(x)
		if !ok || p < alpha {
			return false
		}
	}
	return true
}
