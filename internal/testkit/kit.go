package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
	"alignbench/domain/run"
	"alignbench/ports"
)

// InMemoryGroundTruth implements GroundTruthSource for tests
type InMemoryGroundTruth struct {
	mu      sync.RWMutex
	bundles map[core.Branch]benchmark.GroundTruthBundle
}

// NewInMemoryGroundTruth creates an empty ground-truth source
func NewInMemoryGroundTruth() *InMemoryGroundTruth {
	return &InMemoryGroundTruth{bundles: make(map[core.Branch]benchmark.GroundTruthBundle)}
}

// Put stores the ground truth of one kind of a branch
func (g *InMemoryGroundTruth) Put(branch core.Branch, kind benchmark.Kind, items ...benchmark.GroundTruthItem) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bundles[branch] == nil {
		g.bundles[branch] = benchmark.GroundTruthBundle{}
	}
	g.bundles[branch][kind] = benchmark.GroundTruthSet{Branch: branch, Kind: kind, Items: items}
}

func (g *InMemoryGroundTruth) Load(ctx context.Context, branch core.Branch) (benchmark.GroundTruthBundle, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	bundle, ok := g.bundles[branch]
	if !ok {
		return nil, fmt.Errorf("%w: branch %s", core.ErrGroundTruthNotFound, branch)
	}
	out := make(benchmark.GroundTruthBundle, len(bundle))
	for k, v := range bundle {
		out[k] = v
	}
	return out, nil
}

func (g *InMemoryGroundTruth) Branches(ctx context.Context) ([]core.Branch, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	branches := make([]core.Branch, 0, len(g.bundles))
	for b := range g.bundles {
		branches = append(branches, b)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i] < branches[j] })
	return branches, nil
}

// InMemoryReports implements ReportSource for tests
type InMemoryReports struct {
	mu      sync.RWMutex
	reports map[benchmark.RunKey]benchmark.Report
	broken  map[benchmark.RunKey]error
}

// NewInMemoryReports creates an empty report source
func NewInMemoryReports() *InMemoryReports {
	return &InMemoryReports{
		reports: make(map[benchmark.RunKey]benchmark.Report),
		broken:  make(map[benchmark.RunKey]error),
	}
}

// Put stores the report of one run
func (r *InMemoryReports) Put(key benchmark.RunKey, items ...benchmark.ReportedItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[key] = benchmark.Report{Kind: key.Kind, Items: items}
}

// PutError makes loading key fail with err, the way an unreadable file would
func (r *InMemoryReports) PutError(key benchmark.RunKey, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broken[key] = err
}

func (r *InMemoryReports) LoadReport(ctx context.Context, key benchmark.RunKey) (benchmark.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err, ok := r.broken[key]; ok {
		return benchmark.Report{}, err
	}
	report, ok := r.reports[key]
	if !ok {
		return benchmark.Report{}, fmt.Errorf("%w: report %s", core.ErrNotFound, key)
	}
	return report, nil
}

func (r *InMemoryReports) ListReports(ctx context.Context, framework core.Framework) ([]benchmark.RunKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var keys []benchmark.RunKey
	for k := range r.reports {
		if framework == "" || k.Framework == framework {
			keys = append(keys, k)
		}
	}
	for k := range r.broken {
		if _, dup := r.reports[k]; !dup && (framework == "" || k.Framework == framework) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys, nil
}

// InMemoryRunRepository implements RunRepository for tests
type InMemoryRunRepository struct {
	mu      sync.RWMutex
	records map[benchmark.RunKey]run.Record
}

// NewInMemoryRunRepository creates an empty run repository
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{records: make(map[benchmark.RunKey]run.Record)}
}

func (r *InMemoryRunRepository) Save(ctx context.Context, record *run.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Key] = *record
	return nil
}

func (r *InMemoryRunRepository) Get(ctx context.Context, key benchmark.RunKey) (*run.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, key)
	}
	return &record, nil
}

func (r *InMemoryRunRepository) List(ctx context.Context, filter ports.RunFilter) ([]run.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []run.Record{}
	for k, rec := range r.records {
		if filter.Matches(k) {
			out = append(out, rec)
		}
	}
	run.SortRecords(out)
	return out, nil
}

func (r *InMemoryRunRepository) CompletedRuns(ctx context.Context, series benchmark.SeriesKey) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runs := []int{}
	for k := range r.records {
		if k.Series() == series {
			runs = append(runs, k.Run)
		}
	}
	sort.Ints(runs)
	return runs, nil
}

// Len returns the number of stored records
func (r *InMemoryRunRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

var (
	_ ports.GroundTruthSource = (*InMemoryGroundTruth)(nil)
	_ ports.ReportSource      = (*InMemoryReports)(nil)
	_ ports.RunRepository     = (*InMemoryRunRepository)(nil)
)
