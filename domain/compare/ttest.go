package compare

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// tOutcome is a t statistic with its two-sided p-value.
// defined is false when the standard error is zero, where t has no finite value.
type tOutcome struct {
	t       float64
	df      float64
	p       float64
	defined bool
}

// pairedT tests the mean of the per-pair differences a[i]-b[i] against zero
func pairedT(a, b []float64) tOutcome {
	n := len(a)
	mean, variance := stat.MeanVariance(differences(a, b), nil)
	se := math.Sqrt(variance / float64(n))
	df := float64(n - 1)
	return studentT(mean, se, df)
}

// welchT is the unequal-variance two-sample t-test with Welch–Satterthwaite degrees of freedom
func welchT(a, b []float64) tOutcome {
	na, nb := float64(len(a)), float64(len(b))
	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)

	qa, qb := varA/na, varB/nb
	se := math.Sqrt(qa + qb)
	if se == 0 {
		return tOutcome{}
	}
	df := (qa + qb) * (qa + qb) / (qa*qa/(na-1) + qb*qb/(nb-1))
	return studentT(meanA-meanB, se, df)
}

func studentT(diff, se, df float64) tOutcome {
	if se == 0 || math.IsNaN(se) || df <= 0 {
		return tOutcome{}
	}
	t := diff / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return tOutcome{t: t, df: df, p: math.Min(1, p), defined: true}
}
