package scoring

import (
	"alignbench/domain/benchmark"
)

// CombinedMetrics scores a combined-detection run: one report carrying all three kinds.
// Averages skip kinds whose value is undefined.
type CombinedMetrics struct {
	PerKind         map[benchmark.Kind]RunMetrics `json:"per_kind"`
	TotalPointScore float64                       `json:"total_point_score"`
	MeanPrecision   *float64                      `json:"mean_precision"`
	MeanRecall      *float64                      `json:"mean_recall"`
	MeanF1          float64                       `json:"mean_f1"`
	Counts          Counts                        `json:"counts"`
}

// ScoreCombined scores every kind of report against the matching set of groundTruth.
// A kind absent from the bundle is scored against an empty set, so its findings are all false positives.
func ScoreCombined(groundTruth benchmark.GroundTruthBundle, report benchmark.CombinedReport) (CombinedMetrics, error) {
	out := CombinedMetrics{PerKind: make(map[benchmark.Kind]RunMetrics, 3)}

	var precisions, recalls []float64
	var f1Sum float64
	for _, kind := range benchmark.Kinds() {
		m, err := Evaluate(kind, groundTruth[kind].Items, report[kind].Items)
		if err != nil {
			return CombinedMetrics{}, err
		}
		out.PerKind[kind] = m
		out.TotalPointScore += m.PointScore
		out.Counts.TP += m.Counts.TP
		out.Counts.FP += m.Counts.FP
		out.Counts.FN += m.Counts.FN
		if m.Precision != nil {
			precisions = append(precisions, *m.Precision)
		}
		if m.Recall != nil {
			recalls = append(recalls, *m.Recall)
		}
		f1Sum += m.F1
	}

	out.MeanPrecision = meanOf(precisions)
	out.MeanRecall = meanOf(recalls)
	out.MeanF1 = f1Sum / float64(len(benchmark.Kinds()))
	return out, nil
}

func meanOf(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	v := sum / float64(len(xs))
	return &v
}
