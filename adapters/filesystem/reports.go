package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
	"alignbench/ports"
)

// ReportStore implements ReportSource over <results>/raw
type ReportStore struct {
	dir string
}

// NewReportStore creates a report source rooted at the results directory
func NewReportStore(resultsDir string) ports.ReportSource {
	return &ReportStore{dir: filepath.Join(resultsDir, "raw")}
}

// LoadReport reads run<N>.json from the canonical kind directory, falling back to typeN
func (s *ReportStore) LoadReport(ctx context.Context, key benchmark.RunKey) (benchmark.Report, error) {
	if err := ctx.Err(); err != nil {
		return benchmark.Report{}, err
	}
	if err := key.Validate(); err != nil {
		return benchmark.Report{}, err
	}
	base := filepath.Join(s.dir, key.Framework.String(), key.Branch.String())
	name := fmt.Sprintf("run%d.json", key.Run)
	data, path, found, err := readFirst(
		filepath.Join(base, key.Kind.String(), name),
		filepath.Join(base, legacyDir(key.Kind), name),
	)
	if err != nil {
		return benchmark.Report{}, err
	}
	if !found {
		return benchmark.Report{}, fmt.Errorf("%w: report %s", core.ErrNotFound, key)
	}
	report, err := benchmark.DecodeReport(data, key.Kind)
	if err != nil {
		return benchmark.Report{}, fmt.Errorf("%s: %w", path, err)
	}
	return report, nil
}

// ListReports walks raw/<framework>/<branch>/<kind> and collects run keys.
// Unrecognised directories and files are skipped.
func (s *ReportStore) ListReports(ctx context.Context, framework core.Framework) ([]benchmark.RunKey, error) {
	frameworks, err := listDirs(s.dir)
	if err != nil {
		return nil, err
	}
	seen := map[benchmark.RunKey]bool{}
	var keys []benchmark.RunKey
	for _, fw := range frameworks {
		if framework != "" && core.Framework(fw) != framework {
			continue
		}
		branches, err := listDirs(filepath.Join(s.dir, fw))
		if err != nil {
			return nil, err
		}
		for _, br := range branches {
			kindDirs, err := listDirs(filepath.Join(s.dir, fw, br))
			if err != nil {
				return nil, err
			}
			for _, kd := range kindDirs {
				kind, err := benchmark.ParseKind(kd)
				if err != nil {
					continue
				}
				entries, err := os.ReadDir(filepath.Join(s.dir, fw, br, kd))
				if err != nil {
					return nil, fmt.Errorf("failed to read report directory: %w", err)
				}
				for _, e := range entries {
					n, ok := parseRunNumber(rawRunFile, e.Name())
					if e.IsDir() || !ok {
						continue
					}
					key := benchmark.RunKey{Framework: core.Framework(fw), Branch: core.Branch(br), Kind: kind, Run: n}
					if !seen[key] {
						seen[key] = true
						keys = append(keys, key)
					}
				}
			}
		}
	}
	sortKeys(keys)
	return keys, nil
}
