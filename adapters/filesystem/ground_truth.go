package filesystem

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
	"alignbench/ports"
)

// GroundTruthStore implements GroundTruthSource over a benchmark directory
type GroundTruthStore struct {
	dir string
}

// NewGroundTruthStore creates a ground-truth source rooted at the benchmark directory
func NewGroundTruthStore(dir string) ports.GroundTruthSource {
	return &GroundTruthStore{dir: dir}
}

func (s *GroundTruthStore) branchDir(branch core.Branch) string {
	return filepath.Join(s.dir, "branches", branch.String())
}

// Load reads per-kind files first and fills kinds they lack from the combined file
func (s *GroundTruthStore) Load(ctx context.Context, branch core.Branch) (benchmark.GroundTruthBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := core.ValidateSegment("branch", branch.String()); err != nil {
		return nil, err
	}
	dir := s.branchDir(branch)
	bundle := benchmark.GroundTruthBundle{}

	for _, kind := range benchmark.Kinds() {
		data, path, found, err := readFirst(
			filepath.Join(dir, fmt.Sprintf("ground-truth-%s.json", kind)),
			filepath.Join(dir, fmt.Sprintf("ground-truth-%s.json", legacyDir(kind))),
		)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		decoded, err := benchmark.DecodeGroundTruth(data, branch)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		set, ok := decoded[kind]
		if !ok {
			return nil, fmt.Errorf("%s: %w: file does not declare kind %s", path, core.ErrMalformedReport, kind)
		}
		bundle[kind] = set
	}

	if len(bundle) < len(benchmark.Kinds()) {
		data, path, found, err := readFirst(filepath.Join(dir, "ground-truth-combined.json"))
		if err != nil {
			return nil, err
		}
		if found {
			decoded, err := benchmark.DecodeGroundTruth(data, branch)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			for kind, set := range decoded {
				if _, ok := bundle[kind]; !ok {
					bundle[kind] = set
				}
			}
		}
	}

	if len(bundle) == 0 {
		return nil, fmt.Errorf("%w: branch %s", core.ErrGroundTruthNotFound, branch)
	}
	return bundle, nil
}

// Branches lists branch directories under <dir>/branches
func (s *GroundTruthStore) Branches(ctx context.Context) ([]core.Branch, error) {
	names, err := listDirs(filepath.Join(s.dir, "branches"))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	branches := make([]core.Branch, len(names))
	for i, n := range names {
		branches[i] = core.Branch(n)
	}
	return branches, nil
}
