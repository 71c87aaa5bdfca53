package depscan

import (
	"context"

	"github.com/vk/checkgrid/internal/ctxlog"
	"github.com/vk/checkgrid/internal/env"
)

// DataSource describes where the scanner obtains its vulnerability data.
type DataSource struct {
	// External is set when an external database is configured; nil means the
	// default local dataset.
	External *env.Database
	// AutoUpdate applies only to the local dataset and is disabled whenever
	// an external database is in use.
	AutoUpdate bool
}

// SelectDataSource picks the data source from the environment-provided
// database settings and logs which source the scan will use.
func SelectDataSource(ctx context.Context, props *env.Properties) DataSource {
	logger := ctxlog.FromContext(ctx)
	if db, ok := props.Database(); ok {
		logger.Info("Using external vulnerability database, auto-update disabled.",
			"driver", db.Driver, "connection", db.ConnectionString)
		return DataSource{External: &db}
	}
	logger.Debug("Using local vulnerability dataset with auto-update.")
	return DataSource{AutoUpdate: true}
}

// Scanner is the external scan engine collaborator. The engine, its
// vulnerability database, and the suppression-file syntax all live behind
// this boundary; this integration only orchestrates it.
type Scanner interface {
	// Scan analyzes the project's dependencies against the data source.
	Scan(ctx context.Context, ds DataSource) (*Report, error)

	// ValidateSuppressions checks an existing suppression file before the
	// scan runs, so malformed suppression data fails fast.
	ValidateSuppressions(ctx context.Context, path string) error

	// WriteSuppressionCandidate writes a candidate suppression file to
	// candidatePath covering the report's findings. basePath names an
	// existing suppression file to merge with; it is empty when none exists.
	// The base file is never written in place.
	WriteSuppressionCandidate(ctx context.Context, report *Report, basePath, candidatePath string) error
}
