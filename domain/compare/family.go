package compare

import (
	"alignbench/domain/core"
)

// Request is one hypothesis of a family with its two groups
type Request struct {
	ID core.HypothesisID
	A  Group
	B  Group
}

// CompareFamily evaluates requests as one Bonferroni family: every result is corrected
// for the full family size, including hypotheses that end up with too little data.
// Insufficient samples are kept as results; only invalid numeric input aborts the family.
func CompareFamily(requests []Request, opts Options) ([]HypothesisResult, error) {
	opts.FamilySize = len(requests)
	results := make([]HypothesisResult, 0, len(requests))
	for _, req := range requests {
		res, err := Compare(req.ID, req.A, req.B, opts)
		if err != nil && !core.IsInsufficientSample(err) {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
