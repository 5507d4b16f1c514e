package ports

import (
	"context"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
	"alignbench/domain/run"
)

// RunFilter restricts a run listing. Empty fields match everything.
type RunFilter struct {
	Framework core.Framework
	Branch    core.Branch
	Kind      benchmark.Kind
}

// Matches reports whether key passes the filter
func (f RunFilter) Matches(key benchmark.RunKey) bool {
	if f.Framework != "" && f.Framework != key.Framework {
		return false
	}
	if f.Branch != "" && f.Branch != key.Branch {
		return false
	}
	if f.Kind != "" && f.Kind != key.Kind {
		return false
	}
	return true
}

// RunRepository defines the interface for scored run storage
type RunRepository interface {
	// Save stores a record, replacing any record with the same run key
	Save(ctx context.Context, record *run.Record) error

	// Get retrieves the record of one run; missing runs return ErrRunNotFound
	Get(ctx context.Context, key benchmark.RunKey) (*run.Record, error)

	// List returns records matching the filter ordered by framework, branch, kind and run number
	List(ctx context.Context, filter RunFilter) ([]run.Record, error)

	// CompletedRuns returns the sorted run numbers already scored for a series
	CompletedRuns(ctx context.Context, series benchmark.SeriesKey) ([]int, error)
}
