package ports

import (
	"context"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
)

// GroundTruthSource defines the interface for loading answer keys
type GroundTruthSource interface {
	// Load returns every kind's ground truth for a branch.
	// Kinds without a file are absent from the bundle; a branch with none returns ErrGroundTruthNotFound.
	Load(ctx context.Context, branch core.Branch) (benchmark.GroundTruthBundle, error)

	// Branches lists the branches that have ground truth
	Branches(ctx context.Context) ([]core.Branch, error)
}

// ReportSource defines the interface for reading raw assistant reports
type ReportSource interface {
	// LoadReport reads and decodes the report of one run
	LoadReport(ctx context.Context, key benchmark.RunKey) (benchmark.Report, error)

	// ListReports returns the keys of all stored reports, optionally restricted to one framework
	ListReports(ctx context.Context, framework core.Framework) ([]benchmark.RunKey, error)
}
