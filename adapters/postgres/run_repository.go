package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
	"alignbench/domain/run"
	"alignbench/domain/scoring"
	"alignbench/ports"

	"github.com/jmoiron/sqlx"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// runRow mirrors one row of the runs table
type runRow struct {
	ID            string          `db:"id"`
	Framework     string          `db:"framework"`
	Branch        string          `db:"branch"`
	Kind          string          `db:"kind"`
	RunNumber     int             `db:"run_number"`
	Precision     sql.NullFloat64 `db:"precision_score"`
	Recall        sql.NullFloat64 `db:"recall_score"`
	F1            float64         `db:"f1"`
	PointScore    float64         `db:"point_score"`
	TP            int             `db:"tp"`
	FP            int             `db:"fp"`
	FN            int             `db:"fn"`
	Metrics       []byte          `db:"metrics"`
	InputHash     string          `db:"input_hash"`
	ScorerVersion string          `db:"scorer_version"`
	Fingerprint   string          `db:"fingerprint"`
	ScoredAt      time.Time       `db:"scored_at"`
}

func toRow(record *run.Record) (runRow, error) {
	metricsJSON, err := json.Marshal(record.Metrics)
	if err != nil {
		return runRow{}, fmt.Errorf("failed to encode metrics: %w", err)
	}
	return runRow{
		ID:            record.ID.String(),
		Framework:     record.Key.Framework.String(),
		Branch:        record.Key.Branch.String(),
		Kind:          record.Key.Kind.String(),
		RunNumber:     record.Key.Run,
		Precision:     nullFloat(record.Metrics.Precision),
		Recall:        nullFloat(record.Metrics.Recall),
		F1:            record.Metrics.F1,
		PointScore:    record.Metrics.PointScore,
		TP:            record.Metrics.Counts.TP,
		FP:            record.Metrics.Counts.FP,
		FN:            record.Metrics.Counts.FN,
		Metrics:       metricsJSON,
		InputHash:     record.Fingerprint.InputHash.String(),
		ScorerVersion: record.Fingerprint.ScorerVersion,
		Fingerprint:   record.Fingerprint.Fingerprint.String(),
		ScoredAt:      record.ScoredAt.Time(),
	}, nil
}

func (row runRow) toRecord() (run.Record, error) {
	var metrics scoring.RunMetrics
	if err := json.Unmarshal(row.Metrics, &metrics); err != nil {
		return run.Record{}, fmt.Errorf("failed to decode metrics of run %s: %w", row.ID, err)
	}
	return run.Record{
		ID: core.RunID(row.ID),
		Key: benchmark.RunKey{
			Framework: core.Framework(row.Framework),
			Branch:    core.Branch(row.Branch),
			Kind:      benchmark.Kind(row.Kind),
			Run:       row.RunNumber,
		},
		Metrics: metrics,
		Fingerprint: run.RunFingerprint{
			InputHash:     core.Hash(row.InputHash),
			ScorerVersion: row.ScorerVersion,
			Fingerprint:   core.Hash(row.Fingerprint),
		},
		ScoredAt: core.NewTimestamp(row.ScoredAt),
	}, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

const selectRuns = `
	SELECT id, framework, branch, kind, run_number, precision_score, recall_score, f1, point_score,
		   tp, fp, fn, metrics, input_hash, scorer_version, fingerprint, scored_at
	FROM runs`

// Save upserts a run; rescoring a key replaces the earlier row
func (r *RunRepositoryImpl) Save(ctx context.Context, record *run.Record) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid run record: %w", err)
	}
	row, err := toRow(record)
	if err != nil {
		return err
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO runs (
			id, framework, branch, kind, run_number, precision_score, recall_score, f1, point_score,
			tp, fp, fn, metrics, input_hash, scorer_version, fingerprint, scored_at
		) VALUES (
			:id, :framework, :branch, :kind, :run_number, :precision_score, :recall_score, :f1, :point_score,
			:tp, :fp, :fn, :metrics, :input_hash, :scorer_version, :fingerprint, :scored_at
		)
		ON CONFLICT (framework, branch, kind, run_number) DO UPDATE SET
			id = EXCLUDED.id,
			precision_score = EXCLUDED.precision_score,
			recall_score = EXCLUDED.recall_score,
			f1 = EXCLUDED.f1,
			point_score = EXCLUDED.point_score,
			tp = EXCLUDED.tp,
			fp = EXCLUDED.fp,
			fn = EXCLUDED.fn,
			metrics = EXCLUDED.metrics,
			input_hash = EXCLUDED.input_hash,
			scorer_version = EXCLUDED.scorer_version,
			fingerprint = EXCLUDED.fingerprint,
			scored_at = EXCLUDED.scored_at`, row)
	return err
}

// Get retrieves the run stored under key
func (r *RunRepositoryImpl) Get(ctx context.Context, key benchmark.RunKey) (*run.Record, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, selectRuns+`
		WHERE framework = $1 AND branch = $2 AND kind = $3 AND run_number = $4`,
		key.Framework, key.Branch, key.Kind, key.Run)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	record, err := row.toRecord()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns runs matching the filter; empty filter fields match everything
func (r *RunRepositoryImpl) List(ctx context.Context, filter ports.RunFilter) ([]run.Record, error) {
	query := selectRuns + `
		WHERE ($1::text = '' OR framework = $1::text)
		  AND ($2::text = '' OR branch = $2::text)
		  AND ($3::text = '' OR kind = $3::text)`

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, filter.Framework, filter.Branch, filter.Kind); err != nil {
		return nil, err
	}

	records := make([]run.Record, 0, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	run.SortRecords(records)
	return records, nil
}

// CompletedRuns returns the scored run numbers of a series in ascending order
func (r *RunRepositoryImpl) CompletedRuns(ctx context.Context, series benchmark.SeriesKey) ([]int, error) {
	runs := []int{}
	err := r.db.SelectContext(ctx, &runs, `
		SELECT run_number FROM runs
		WHERE framework = $1 AND branch = $2 AND kind = $3
		ORDER BY run_number`, series.Framework, series.Branch, series.Kind)
	if err != nil {
		return nil, err
	}
	return runs, nil
}
