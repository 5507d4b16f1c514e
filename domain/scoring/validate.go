package scoring

import (
	"fmt"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
)

// ValidateReport checks every item of r and returns all problems found, without scoring.
// An empty result means the report can be scored.
func ValidateReport(r benchmark.Report) []error {
	var problems []error
	for i, it := range r.Items {
		if err := it.Validate(r.Kind, i); err != nil {
			problems = append(problems, err)
		}
	}
	return problems
}

// ValidateGroundTruth checks a ground-truth set, including duplicate missing-kind keys
func ValidateGroundTruth(set benchmark.GroundTruthSet) []error {
	var problems []error
	seen := make(map[string]int, len(set.Items))
	for i, it := range set.Items {
		if err := it.Validate(set.Kind, i); err != nil {
			problems = append(problems, err)
			continue
		}
		if set.Kind != benchmark.KindMissing {
			continue
		}
		if first, dup := seen[it.Key]; dup {
			problems = append(problems, &core.MalformedReportError{
				Kind:   set.Kind.String(),
				Side:   core.SideGroundTruth,
				Index:  i,
				Field:  "key",
				Reason: fmt.Sprintf("duplicates item %d", first),
			})
			continue
		}
		seen[it.Key] = i
	}
	return problems
}
