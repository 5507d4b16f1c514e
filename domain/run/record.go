package run

import (
	"sort"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
	"alignbench/domain/scoring"
)

// Record is one scored run as stored: its identity, metrics and replay fingerprint.
// Records are written once and never updated; rescoring writes a new record over the same key.
type Record struct {
	ID          core.RunID         `json:"id"`
	Key         benchmark.RunKey   `json:"key"`
	Metrics     scoring.RunMetrics `json:"metrics"`
	Fingerprint RunFingerprint     `json:"fingerprint"`
	ScoredAt    core.Timestamp     `json:"scored_at"`
}

// NewRecord wraps freshly derived metrics for key
func NewRecord(key benchmark.RunKey, metrics scoring.RunMetrics) *Record {
	return &Record{
		ID:          core.RunID(core.NewID()),
		Key:         key,
		Metrics:     metrics,
		Fingerprint: NewRunFingerprint(metrics.Fingerprint, ScorerVersion),
		ScoredAt:    core.Now(),
	}
}

// Validate checks if the record is complete
func (r *Record) Validate() error {
	if core.ID(r.ID).IsEmpty() {
		return core.NewValidationError("run_record", "id cannot be empty")
	}
	if err := r.Key.Validate(); err != nil {
		return err
	}
	if r.Metrics.Kind != r.Key.Kind {
		return core.NewValidationError("run_record", "metrics kind does not match key kind")
	}
	if r.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewValidationError("run_record", "fingerprint cannot be empty")
	}
	return nil
}

// Failure is a run that could not be scored. It is reported, never zero-scored.
type Failure struct {
	Key   benchmark.RunKey `json:"key"`
	Error string           `json:"error"`
}

// SortRecords orders records by run key
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Key.Less(records[j].Key)
	})
}
