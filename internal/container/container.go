package container

import (
	"context"
	"fmt"

	"alignbench/adapters/filesystem"
	"alignbench/adapters/postgres"
	"alignbench/app"
	"alignbench/internal"
	"alignbench/internal/config"
	"alignbench/internal/errors"
	"alignbench/internal/migration"
	"alignbench/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Sources and repositories
	GroundTruth ports.GroundTruthSource
	Reports     ports.ReportSource
	Runs        ports.RunRepository

	// Services
	Benchmark *app.BenchmarkService
}

// New creates a container backed by the benchmark and results directories
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	c := &Container{
		Config:      cfg,
		Logger:      logger,
		GroundTruth: filesystem.NewGroundTruthStore(cfg.Paths.BenchmarkDir),
		Reports:     filesystem.NewReportStore(cfg.Paths.ResultsDir),
		Runs:        filesystem.NewRunStore(cfg.Paths.ResultsDir),
	}
	c.wire()
	return c, nil
}

// Open creates a container and, when DATABASE_URL is set, connects, migrates and
// stores runs in postgres instead of the results directory
func Open(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Database.Enabled() {
		c.Logger.Info("DATABASE_URL not set, storing runs under %s", cfg.Paths.ResultsDir)
		return c, nil
	}

	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.InitWithDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Connect opens the postgres connection and runs migrations
func Connect(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(connectCtx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.StorageError("failed to connect to database", err)
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

// InitWithDatabase switches run storage to postgres
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db
	c.Runs = postgres.NewRunRepository(db)
	c.wire()
	c.Logger.Info("storing runs in postgres")
	return nil
}

func (c *Container) wire() {
	c.Benchmark = app.NewBenchmarkService(c.GroundTruth, c.Reports, c.Runs, c.Config.Scoring.Workers, c.Logger)
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
