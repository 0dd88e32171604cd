package driven

import (
	"context"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// ImportRunStore persists the import run log.
type ImportRunStore interface {
	// Save inserts or updates a run.
	Save(ctx context.Context, run domain.ImportRun) error

	// Get retrieves a run by ID.
	Get(ctx context.Context, id string) (*domain.ImportRun, error)

	// List returns the most recent runs first, at most limit when limit > 0.
	List(ctx context.Context, limit int) ([]domain.ImportRun, error)
}
