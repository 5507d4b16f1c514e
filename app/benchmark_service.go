package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"alignbench/domain/benchmark"
	"alignbench/domain/compare"
	"alignbench/domain/core"
	"alignbench/domain/run"
	"alignbench/domain/scoring"
	"alignbench/domain/stats"
	"alignbench/internal"
	"alignbench/internal/errors"
	"alignbench/ports"

	"golang.org/x/sync/errgroup"
)

// BenchmarkService scores stored reports, summarizes scored runs and evaluates hypotheses
type BenchmarkService struct {
	groundTruth ports.GroundTruthSource
	reports     ports.ReportSource
	runs        ports.RunRepository
	workers     int
	logger      *internal.Logger
}

// NewBenchmarkService creates a benchmark service; workers bounds batch parallelism
func NewBenchmarkService(groundTruth ports.GroundTruthSource, reports ports.ReportSource, runs ports.RunRepository, workers int, logger *internal.Logger) *BenchmarkService {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &BenchmarkService{
		groundTruth: groundTruth,
		reports:     reports,
		runs:        runs,
		workers:     workers,
		logger:      logger.With("benchmark"),
	}
}

// BatchResult lists what a batch scored and which runs failed.
// A failed run is reported, never zero-scored.
type BatchResult struct {
	Scored   []run.Record  `json:"scored"`
	Failures []run.Failure `json:"failures"`
}

// ScoreRun loads the report and ground truth of one run, scores it and stores the record
func (s *BenchmarkService) ScoreRun(ctx context.Context, key benchmark.RunKey) (*run.Record, error) {
	if err := key.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid run key")
	}
	bundle, err := s.groundTruth.Load(ctx, key.Branch)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load ground truth for %s", key.Branch)
	}
	return s.scoreStored(ctx, key, bundle)
}

// ScoreReport scores an already decoded report and stores the record
func (s *BenchmarkService) ScoreReport(ctx context.Context, key benchmark.RunKey, report benchmark.Report) (*run.Record, error) {
	if err := key.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid run key")
	}
	bundle, err := s.groundTruth.Load(ctx, key.Branch)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load ground truth for %s", key.Branch)
	}
	return s.score(ctx, key, bundle, report)
}

// ScoreCombined scores a combined-detection report and stores one record per kind under the given run number.
// Every record is built and validated before the first save. A storage failure part way
// logs the kinds already stored; rescoring the run overwrites them.
func (s *BenchmarkService) ScoreCombined(ctx context.Context, framework core.Framework, branch core.Branch, runNumber int, report benchmark.CombinedReport) (scoring.CombinedMetrics, error) {
	keys := make([]benchmark.RunKey, 0, len(benchmark.Kinds()))
	for _, kind := range benchmark.Kinds() {
		key := benchmark.RunKey{Framework: framework, Branch: branch, Kind: kind, Run: runNumber}
		if err := key.Validate(); err != nil {
			return scoring.CombinedMetrics{}, errors.Wrap(err, "invalid run key")
		}
		keys = append(keys, key)
	}

	bundle, err := s.groundTruth.Load(ctx, branch)
	if err != nil {
		return scoring.CombinedMetrics{}, errors.Wrapf(err, "failed to load ground truth for %s", branch)
	}
	combined, err := scoring.ScoreCombined(bundle, report)
	if err != nil {
		return scoring.CombinedMetrics{}, errors.Wrapf(err, "failed to score combined run %s/%s/%d", framework, branch, runNumber)
	}

	records := make([]*run.Record, len(keys))
	for i, key := range keys {
		records[i] = run.NewRecord(key, combined.PerKind[key.Kind])
		if err := records[i].Validate(); err != nil {
			return scoring.CombinedMetrics{}, errors.Wrapf(err, "invalid record %s", key)
		}
	}

	var stored []string
	for _, record := range records {
		if err := s.runs.Save(ctx, record); err != nil {
			s.logger.Error("failed to store %s: %v (already stored: %v)", record.Key, err, stored)
			return scoring.CombinedMetrics{}, errors.StorageError(fmt.Sprintf("failed to store %s", record.Key), err)
		}
		stored = append(stored, record.Key.Kind.String())
	}
	return combined, nil
}

func (s *BenchmarkService) scoreStored(ctx context.Context, key benchmark.RunKey, bundle benchmark.GroundTruthBundle) (*run.Record, error) {
	report, err := s.reports.LoadReport(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load report %s", key)
	}
	return s.score(ctx, key, bundle, report)
}

// score evaluates report against the key's kind in bundle.
// A kind without ground truth scores against an empty set.
func (s *BenchmarkService) score(ctx context.Context, key benchmark.RunKey, bundle benchmark.GroundTruthBundle, report benchmark.Report) (*run.Record, error) {
	metrics, err := scoring.Evaluate(key.Kind, bundle[key.Kind].Items, report.Items)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to score %s", key)
	}
	record := run.NewRecord(key, metrics)
	if err := s.runs.Save(ctx, record); err != nil {
		s.logger.Error("failed to store %s: %v", key, err)
		return nil, errors.StorageError(fmt.Sprintf("failed to store %s", key), err)
	}
	s.logger.Debug("scored %s: tp=%d fp=%d fn=%d points=%.2f", key, metrics.Counts.TP, metrics.Counts.FP, metrics.Counts.FN, metrics.PointScore)
	return record, nil
}

// ScoreRuns scores keys in parallel. Each run fails on its own: a malformed report
// or missing file is collected as a Failure and the rest of the batch carries on.
// Only context cancellation aborts the batch.
func (s *BenchmarkService) ScoreRuns(ctx context.Context, keys []benchmark.RunKey) (*BatchResult, error) {
	bundles := make(map[core.Branch]benchmark.GroundTruthBundle)
	bundleErrs := make(map[core.Branch]error)
	for _, key := range keys {
		if _, seen := bundles[key.Branch]; seen {
			continue
		}
		if _, failed := bundleErrs[key.Branch]; failed {
			continue
		}
		bundle, err := s.groundTruth.Load(ctx, key.Branch)
		if err != nil {
			bundleErrs[key.Branch] = errors.Wrapf(err, "failed to load ground truth for %s", key.Branch)
			continue
		}
		bundles[key.Branch] = bundle
	}

	records := make([]*run.Record, len(keys))
	failures := make([]error, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, key := range keys {
		if err := bundleErrs[key.Branch]; err != nil {
			failures[i] = err
			continue
		}
		bundle := bundles[key.Branch]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i], failures[i] = s.scoreStored(gctx, key, bundle)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &BatchResult{Scored: []run.Record{}, Failures: []run.Failure{}}
	for i, key := range keys {
		if failures[i] != nil {
			s.logger.Warn("run %s not scored: %v", key, failures[i])
			result.Failures = append(result.Failures, run.Failure{Key: key, Error: failures[i].Error()})
			continue
		}
		result.Scored = append(result.Scored, *records[i])
	}
	s.logger.Info("scored %d runs, %d failed", len(result.Scored), len(result.Failures))
	return result, nil
}

// ScoreAll scores every stored report, optionally restricted to one framework
func (s *BenchmarkService) ScoreAll(ctx context.Context, framework core.Framework) (*BatchResult, error) {
	keys, err := s.reports.ListReports(ctx, framework)
	if err != nil {
		return nil, errors.StorageError("failed to list reports", err)
	}
	return s.ScoreRuns(ctx, keys)
}

// Runs lists stored run records matching filter in canonical order
func (s *BenchmarkService) Runs(ctx context.Context, filter ports.RunFilter) ([]run.Record, error) {
	records, err := s.runs.List(ctx, filter)
	if err != nil {
		return nil, errors.StorageError("failed to list runs", err)
	}
	return records, nil
}

// Summarize aggregates every series matching filter, followed by one pooled
// overall summary per (framework, branch). Series are summarized in parallel.
func (s *BenchmarkService) Summarize(ctx context.Context, filter ports.RunFilter) ([]stats.Summary, error) {
	records, err := s.runs.List(ctx, filter)
	if err != nil {
		return nil, errors.StorageError("failed to list runs", err)
	}

	var seriesOrder []benchmark.SeriesKey
	bySeries := make(map[benchmark.SeriesKey][]scoring.RunMetrics)
	for _, r := range records {
		series := r.Key.Series()
		if _, ok := bySeries[series]; !ok {
			seriesOrder = append(seriesOrder, series)
		}
		bySeries[series] = append(bySeries[series], r.Metrics)
	}

	summaries := make([]stats.Summary, len(seriesOrder))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, series := range seriesOrder {
		g.Go(func() error {
			summary, err := stats.SummarizeSeries(series, bySeries[series])
			if err != nil {
				return errors.Wrapf(err, "failed to summarize %s", series)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if filter.Kind != "" {
		return summaries, nil
	}

	type branchKey struct {
		framework core.Framework
		branch    core.Branch
	}
	var branchOrder []branchKey
	byBranch := make(map[branchKey]map[benchmark.Kind][]scoring.RunMetrics)
	for _, series := range seriesOrder {
		bk := branchKey{series.Framework, series.Branch}
		if _, ok := byBranch[bk]; !ok {
			branchOrder = append(branchOrder, bk)
			byBranch[bk] = make(map[benchmark.Kind][]scoring.RunMetrics)
		}
		byBranch[bk][series.Kind] = bySeries[series]
	}
	for _, bk := range branchOrder {
		overall, err := stats.SummarizeOverall(bk.framework, bk.branch, byBranch[bk])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to summarize %s/%s", bk.framework, bk.branch)
		}
		summaries = append(summaries, overall)
	}
	return summaries, nil
}

// EvaluateHypotheses compares frameworkA against frameworkB for each hypothesis as one
// Bonferroni family. Hypotheses with too few runs come back as insufficient_sample results.
func (s *BenchmarkService) EvaluateHypotheses(ctx context.Context, hypotheses []compare.Hypothesis, frameworkA, frameworkB core.Framework, opts compare.Options) ([]compare.Evaluation, error) {
	var records []run.Record
	for _, fw := range []core.Framework{frameworkA, frameworkB} {
		rs, err := s.runs.List(ctx, ports.RunFilter{Framework: fw})
		if err != nil {
			return nil, errors.StorageError("failed to list runs", err)
		}
		records = append(records, rs...)
	}
	evaluations, err := compare.EvaluateHypotheses(hypotheses, records, frameworkA, frameworkB, opts)
	if err != nil {
		return nil, errors.Wrap(err, "hypothesis evaluation failed")
	}
	for _, e := range evaluations {
		if e.Result.Status != stats.StatusOK {
			s.logger.Info("%s: %s (a=%d, b=%d runs)", e.Hypothesis.ID, e.Result.Status, e.Result.NA, e.Result.NB)
		}
	}
	return evaluations, nil
}

// Progress reports completed and next run numbers for every kind of each branch
func (s *BenchmarkService) Progress(ctx context.Context, framework core.Framework, branches []core.Branch, target int) ([]run.Progress, error) {
	if target < 1 {
		target = run.DefaultTargetRuns
	}
	if len(branches) == 0 {
		var err error
		if branches, err = s.groundTruth.Branches(ctx); err != nil {
			return nil, errors.StorageError("failed to list branches", err)
		}
	}
	out := make([]run.Progress, 0, len(branches)*len(benchmark.Kinds()))
	for _, branch := range branches {
		for _, kind := range benchmark.Kinds() {
			series := benchmark.SeriesKey{Framework: framework, Branch: branch, Kind: kind}
			completed, err := s.runs.CompletedRuns(ctx, series)
			if err != nil {
				return nil, errors.StorageError(fmt.Sprintf("failed to read progress of %s", series), err)
			}
			out = append(out, run.NewProgress(series, completed, target))
		}
	}
	return out, nil
}

// ReportProblems lists everything wrong with one stored report
type ReportProblems struct {
	Key      benchmark.RunKey `json:"key"`
	Problems []string         `json:"problems"`
}

// Validate checks stored reports for the fields their kind requires without scoring them.
// Only reports with problems are returned; every problem of a report is listed.
func (s *BenchmarkService) Validate(ctx context.Context, keys []benchmark.RunKey) ([]ReportProblems, error) {
	var mu sync.Mutex
	out := []ReportProblems{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var problems []string
			report, err := s.reports.LoadReport(gctx, key)
			if err != nil {
				problems = append(problems, err.Error())
			} else {
				for _, p := range scoring.ValidateReport(report) {
					problems = append(problems, p.Error())
				}
			}
			if len(problems) == 0 {
				return nil
			}
			mu.Lock()
			out = append(out, ReportProblems{Key: key, Problems: problems})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out, nil
}

// ValidateGroundTruth checks every ground-truth set of a branch and lists its problems by kind
func (s *BenchmarkService) ValidateGroundTruth(ctx context.Context, branch core.Branch) (map[benchmark.Kind][]string, error) {
	bundle, err := s.groundTruth.Load(ctx, branch)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load ground truth for %s", branch)
	}
	out := make(map[benchmark.Kind][]string)
	for _, kind := range benchmark.Kinds() {
		set, ok := bundle[kind]
		if !ok {
			continue
		}
		for _, p := range scoring.ValidateGroundTruth(set) {
			out[kind] = append(out[kind], p.Error())
		}
	}
	return out, nil
}
