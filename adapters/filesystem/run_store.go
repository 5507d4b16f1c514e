package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
	"alignbench/domain/run"
	"alignbench/ports"
)

// RunStore implements RunRepository as one JSON file per scored run under <results>/processed
type RunStore struct {
	dir string
}

// NewRunStore creates a file-backed run repository rooted at the results directory
func NewRunStore(resultsDir string) ports.RunRepository {
	return &RunStore{dir: filepath.Join(resultsDir, "processed")}
}

func (s *RunStore) seriesDir(series benchmark.SeriesKey) string {
	return filepath.Join(s.dir, series.Framework.String(), series.Branch.String(), series.Kind.String())
}

func (s *RunStore) path(key benchmark.RunKey) string {
	return filepath.Join(s.seriesDir(key.Series()), fmt.Sprintf("run%d_scored.json", key.Run))
}

// Save writes the record, replacing an earlier record for the same key
func (s *RunStore) Save(ctx context.Context, record *run.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid run record: %w", err)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run record: %w", err)
	}
	return writeFileAtomic(s.path(record.Key), data)
}

// Get reads the record of one run
func (s *RunStore) Get(ctx context.Context, key benchmark.RunKey) (*run.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}
	var record run.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode run record %s: %w", key, err)
	}
	return &record, nil
}

// List walks the processed tree, narrowing by the filter's non-empty fields
func (s *RunStore) List(ctx context.Context, filter ports.RunFilter) ([]run.Record, error) {
	var records []run.Record
	frameworks, err := s.subdirs(s.dir, filter.Framework.String())
	if err != nil {
		return nil, err
	}
	for _, fw := range frameworks {
		branches, err := s.subdirs(filepath.Join(s.dir, fw), filter.Branch.String())
		if err != nil {
			return nil, err
		}
		for _, br := range branches {
			kinds, err := s.subdirs(filepath.Join(s.dir, fw, br), filter.Kind.String())
			if err != nil {
				return nil, err
			}
			for _, k := range kinds {
				kind, err := benchmark.ParseKind(k)
				if err != nil {
					continue
				}
				series := benchmark.SeriesKey{Framework: core.Framework(fw), Branch: core.Branch(br), Kind: kind}
				runs, err := s.CompletedRuns(ctx, series)
				if err != nil {
					return nil, err
				}
				for _, n := range runs {
					rec, err := s.Get(ctx, benchmark.RunKey{Framework: series.Framework, Branch: series.Branch, Kind: kind, Run: n})
					if err != nil {
						return nil, err
					}
					records = append(records, *rec)
				}
			}
		}
	}
	run.SortRecords(records)
	return records, nil
}

// subdirs lists dir's subdirectories, or just want when it is set and present
func (s *RunStore) subdirs(dir, want string) ([]string, error) {
	names, err := listDirs(dir)
	if err != nil || want == "" {
		return names, err
	}
	for _, n := range names {
		if n == want {
			return []string{n}, nil
		}
	}
	return nil, nil
}

// CompletedRuns lists the run numbers with a scored file in the series directory
func (s *RunStore) CompletedRuns(ctx context.Context, series benchmark.SeriesKey) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.seriesDir(series))
	if os.IsNotExist(err) {
		return []int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run directory: %w", err)
	}
	runs := []int{}
	for _, e := range entries {
		if n, ok := parseRunNumber(scoredRunFile, e.Name()); ok && !e.IsDir() {
			runs = append(runs, n)
		}
	}
	sort.Ints(runs)
	return runs, nil
}
