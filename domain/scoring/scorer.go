package scoring

import (
	"fmt"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
)

// MatchedPair is one true positive: the expected item and the report that claimed it
type MatchedPair struct {
	GroundTruth   benchmark.GroundTruthItem
	Reported      benchmark.ReportedItem
	ReportedIndex int
	MatchedFiles  []string
}

// ConfusionPartition splits one run's report against one ground-truth set.
// Every reported item is in exactly one of TruePositives/FalsePositives,
// every ground-truth item in exactly one of TruePositives/FalseNegatives.
type ConfusionPartition struct {
	Kind           benchmark.Kind
	TruePositives  []MatchedPair
	FalsePositives []benchmark.ReportedItem
	FalseNegatives []benchmark.GroundTruthItem
}

// Counts returns the sizes of the three partitions
func (p ConfusionPartition) Counts() (tp, fp, fn int) {
	return len(p.TruePositives), len(p.FalsePositives), len(p.FalseNegatives)
}

// Score matches reported against groundTruth for kind.
//
// Ground-truth items are walked in input order; each takes the first unconsumed
// reported item that matches it. Leftover reported items are false positives.
// Callers must pass both lists in a reproducible order: reordering either can change the result.
//
// Any malformed item on either side fails the whole run with a *core.MalformedReportError.
func Score(kind benchmark.Kind, groundTruth []benchmark.GroundTruthItem, reported []benchmark.ReportedItem) (ConfusionPartition, error) {
	if !kind.Valid() {
		return ConfusionPartition{}, fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
	}
	if problems := ValidateGroundTruth(benchmark.GroundTruthSet{Kind: kind, Items: groundTruth}); len(problems) > 0 {
		return ConfusionPartition{}, problems[0]
	}
	for i, it := range reported {
		if err := it.Validate(kind, i); err != nil {
			return ConfusionPartition{}, err
		}
	}

	p := ConfusionPartition{
		Kind:           kind,
		TruePositives:  []MatchedPair{},
		FalsePositives: []benchmark.ReportedItem{},
		FalseNegatives: []benchmark.GroundTruthItem{},
	}
	consumed := make([]bool, len(reported))

	for _, gt := range groundTruth {
		matched := false
		for j, rep := range reported {
			if consumed[j] {
				continue
			}
			ok, files := Match(kind, gt, rep)
			if !ok {
				continue
			}
			consumed[j] = true
			p.TruePositives = append(p.TruePositives, MatchedPair{GroundTruth: gt, Reported: rep, ReportedIndex: j, MatchedFiles: files})
			matched = true
			break
		}
		if !matched {
			p.FalseNegatives = append(p.FalseNegatives, gt)
		}
	}

	for j, rep := range reported {
		if !consumed[j] {
			p.FalsePositives = append(p.FalsePositives, rep)
		}
	}
	return p, nil
}
