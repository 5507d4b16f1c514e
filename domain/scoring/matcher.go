package scoring

import (
	"sort"

	"alignbench/domain/benchmark"
)

// Match decides whether rep satisfies gt under the rules of kind.
// Keys compare exactly: no trimming, no case folding.
// For the incorrect kind the file sets must also overlap; the overlap is returned sorted and deduplicated.
func Match(kind benchmark.Kind, gt benchmark.GroundTruthItem, rep benchmark.ReportedItem) (bool, []string) {
	if rep.Key != gt.Key {
		return false, nil
	}
	switch kind {
	case benchmark.KindMissing, benchmark.KindExtraneous:
		return true, nil
	case benchmark.KindIncorrect:
		overlap := intersect(gt.Files, rep.Files)
		return len(overlap) > 0, overlap
	}
	return false, nil
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	in := make(map[string]struct{}, len(a))
	for _, f := range a {
		in[f] = struct{}{}
	}
	var out []string
	for _, f := range b {
		if _, ok := in[f]; ok {
			out = append(out, f)
			delete(in, f)
		}
	}
	sort.Strings(out)
	return out
}
