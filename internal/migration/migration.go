package migration

import (
	"context"

	"alignbench/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.StorageError("failed to create runs table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.StorageError("failed to create indexes", err)
	}

	return nil
}

// The metric columns duplicate the JSON document so progress and summary queries
// can run without decoding it. Precision and recall are NULL when undefined.
func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			framework VARCHAR(100) NOT NULL,
			branch VARCHAR(100) NOT NULL,
			kind VARCHAR(20) NOT NULL CHECK (kind IN ('missing', 'incorrect', 'extraneous')),
			run_number INTEGER NOT NULL CHECK (run_number >= 1),
			precision_score DOUBLE PRECISION,
			recall_score DOUBLE PRECISION,
			f1 DOUBLE PRECISION NOT NULL,
			point_score DOUBLE PRECISION NOT NULL,
			tp INTEGER NOT NULL,
			fp INTEGER NOT NULL,
			fn INTEGER NOT NULL,
			metrics JSONB NOT NULL,
			input_hash VARCHAR(64) NOT NULL,
			scorer_version VARCHAR(20) NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			scored_at TIMESTAMP WITH TIME ZONE NOT NULL,
			UNIQUE (framework, branch, kind, run_number)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_runs_framework_branch ON runs(framework, branch);
		CREATE INDEX IF NOT EXISTS idx_runs_branch_kind ON runs(branch, kind);
	`)
	return err
}
