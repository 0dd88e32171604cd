package driving

import (
	"context"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// Importer runs the phased import of a configuration.
type Importer interface {
	// Import executes datasets, derived references and direct references in
	// that order. Failures are returned as *domain.ImportError.
	Import(ctx context.Context, cfg *importconfig.Config) (*domain.ImportResult, error)

	// ImportFile loads a configuration file and imports it.
	ImportFile(ctx context.Context, path string) (*domain.ImportResult, error)

	// Runs returns the most recent import runs.
	Runs(ctx context.Context, limit int) ([]domain.ImportRun, error)
}
