package scoring

import (
	"alignbench/domain/benchmark"
	"alignbench/domain/core"
)

// Point weights
const (
	TruePositivePoints  = 1.0
	FalsePositivePoints = -0.25
)

// AuditEntry identifies one item in a tp/fp/fn list.
// Files is always emitted; MatchedFiles only for incorrect-kind true positives.
type AuditEntry struct {
	Key          string   `json:"key"`
	Files        []string `json:"files"`
	MatchedFiles []string `json:"matched_files,omitempty"`
}

// Counts are the partition sizes
type Counts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// RunMetrics is the scored outcome of one run for one kind.
// Precision and Recall are nil when their denominator is zero.
type RunMetrics struct {
	Kind        benchmark.Kind `json:"kind"`
	Precision   *float64       `json:"precision"`
	Recall      *float64       `json:"recall"`
	F1          float64        `json:"f1"`
	PointScore  float64        `json:"point_score"`
	TP          []AuditEntry   `json:"tp"`
	FP          []AuditEntry   `json:"fp"`
	FN          []AuditEntry   `json:"fn"`
	Counts      Counts         `json:"counts"`
	Fingerprint core.Hash      `json:"fingerprint,omitempty"`
}

// Derive computes the metrics of a partition
func Derive(p ConfusionPartition) RunMetrics {
	tp, fp, fn := p.Counts()
	m := RunMetrics{
		Kind:       p.Kind,
		Precision:  ratio(tp, tp+fp),
		Recall:     ratio(tp, tp+fn),
		PointScore: PointScore(tp, fp),
		TP:         make([]AuditEntry, 0, tp),
		FP:         make([]AuditEntry, 0, fp),
		FN:         make([]AuditEntry, 0, fn),
		Counts:     Counts{TP: tp, FP: fp, FN: fn},
	}
	m.F1 = F1(m.Precision, m.Recall)

	for _, pair := range p.TruePositives {
		m.TP = append(m.TP, AuditEntry{Key: pair.Reported.Key, Files: nonNil(pair.Reported.Files), MatchedFiles: pair.MatchedFiles})
	}
	for _, it := range p.FalsePositives {
		m.FP = append(m.FP, AuditEntry{Key: it.Key, Files: nonNil(it.Files)})
	}
	for _, it := range p.FalseNegatives {
		m.FN = append(m.FN, AuditEntry{Key: it.Key, Files: nonNil(it.Files)})
	}
	return m
}

// Evaluate scores one run and derives its metrics, stamping the input fingerprint
func Evaluate(kind benchmark.Kind, groundTruth []benchmark.GroundTruthItem, reported []benchmark.ReportedItem) (RunMetrics, error) {
	p, err := Score(kind, groundTruth, reported)
	if err != nil {
		return RunMetrics{}, err
	}
	m := Derive(p)
	m.Fingerprint = Fingerprint(kind, groundTruth, reported)
	return m, nil
}

// PointScore is tp·1.0 + fp·(-0.25); misses cost nothing
func PointScore(tp, fp int) float64 {
	return float64(tp)*TruePositivePoints + float64(fp)*FalsePositivePoints
}

// F1 is the harmonic mean of precision and recall, or 0 when either is undefined or both are 0
func F1(precision, recall *float64) float64 {
	if precision == nil || recall == nil {
		return 0
	}
	sum := *precision + *recall
	if sum <= 0 {
		return 0
	}
	return 2 * *precision * *recall / sum
}

// Fingerprint hashes the ordered scoring inputs.
// Absent and empty file lists hash differently since they validate differently.
func Fingerprint(kind benchmark.Kind, groundTruth []benchmark.GroundTruthItem, reported []benchmark.ReportedItem) core.Hash {
	f := &core.Fingerprinter{}
	f.Field(kind.String())
	f.Field("gt")
	for _, it := range groundTruth {
		fingerprintItem(f, it.Key, it.Files)
	}
	f.Field("reported")
	for _, it := range reported {
		fingerprintItem(f, it.Key, it.Files)
	}
	return f.Sum()
}

func fingerprintItem(f *core.Fingerprinter, key string, files []string) {
	f.Field(key)
	if files == nil {
		f.Field("-")
		return
	}
	f.SortedSet(files)
}

func ratio(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}

func nonNil(files []string) []string {
	if files == nil {
		return []string{}
	}
	return files
}
