package compare

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// exactMaxN bounds each group for the exact U distribution
const exactMaxN = 25

// mwOutcome is the Mann–Whitney U of group a (pairs where a beats b, ties counting half)
// with its two-sided p-value.
type mwOutcome struct {
	u     float64
	p     float64
	exact bool
}

func mannWhitney(a, b []float64) mwOutcome {
	na, nb := len(a), len(b)
	ranks, tieTerm := midranks(a, b)

	var rankSumA float64
	for i := 0; i < na; i++ {
		rankSumA += ranks[i]
	}
	u := rankSumA - float64(na*(na+1))/2

	if tieTerm == 0 && na <= exactMaxN && nb <= exactMaxN {
		return mwOutcome{u: u, p: exactUPValue(na, nb, u), exact: true}
	}
	return mwOutcome{u: u, p: normalUPValue(na, nb, u, tieTerm)}
}

// midranks ranks the pooled sample, a first then b, giving tied values their average rank.
// tieTerm is Σ(t³−t) over tie groups.
func midranks(a, b []float64) ([]float64, float64) {
	type obs struct {
		v   float64
		idx int
	}
	pooled := make([]obs, 0, len(a)+len(b))
	for _, v := range a {
		pooled = append(pooled, obs{v, len(pooled)})
	}
	for _, v := range b {
		pooled = append(pooled, obs{v, len(pooled)})
	}
	sort.SliceStable(pooled, func(i, j int) bool { return pooled[i].v < pooled[j].v })

	ranks := make([]float64, len(pooled))
	var tieTerm float64
	for i := 0; i < len(pooled); {
		j := i
		for j+1 < len(pooled) && pooled[j+1].v == pooled[i].v {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[pooled[k].idx] = avg
		}
		if t := float64(j - i + 1); t > 1 {
			tieTerm += t*t*t - t
		}
		i = j + 1
	}
	return ranks, tieTerm
}

// exactUPValue computes the two-sided p-value of u from the exact null distribution.
// counts[i][j][k] is the number of orderings of i a-values and j b-values with U == k,
// built from whether the largest value belongs to a (adding j to U) or to b.
func exactUPValue(na, nb int, u float64) float64 {
	counts := make([][][]float64, na+1)
	for i := 0; i <= na; i++ {
		counts[i] = make([][]float64, nb+1)
		for j := 0; j <= nb; j++ {
			row := make([]float64, i*j+1)
			switch {
			case i == 0 || j == 0:
				row[0] = 1
			default:
				for k := range row {
					if k-j >= 0 && k-j < len(counts[i-1][j]) {
						row[k] += counts[i-1][j][k-j]
					}
					if k < len(counts[i][j-1]) {
						row[k] += counts[i][j-1][k]
					}
				}
			}
			counts[i][j] = row
		}
	}

	dist := counts[na][nb]
	var total, lower, upper float64
	for k, c := range dist {
		total += c
		if float64(k) <= u {
			lower += c
		}
		if float64(k) >= u {
			upper += c
		}
	}
	p := 2 * math.Min(lower, upper) / total
	return math.Min(1, p)
}

// normalUPValue approximates the p-value with tie-corrected variance and a continuity correction
func normalUPValue(na, nb int, u, tieTerm float64) float64 {
	n1, n2 := float64(na), float64(nb)
	n := n1 + n2
	mu := n1 * n2 / 2
	variance := n1 * n2 / 12 * ((n + 1) - tieTerm/(n*(n-1)))
	if variance <= 0 {
		// every value tied: no evidence of a difference
		return 1
	}
	z := math.Max(0, math.Abs(u-mu)-0.5) / math.Sqrt(variance)
	return math.Min(1, 2*distuv.UnitNormal.Survival(z))
}
