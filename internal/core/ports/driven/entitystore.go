package driven

import (
	"context"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// EntityStore persists the entity registry catalog.
type EntityStore interface {
	// EnsureCatalog creates the catalog table if it does not exist.
	EnsureCatalog(ctx context.Context) error

	// ReadOnly reports whether the underlying store rejects writes.
	ReadOnly() bool

	// Save inserts or overwrites the entry for meta.Name.
	// CreatedAt is preserved when the entry already exists.
	Save(ctx context.Context, meta domain.EntityMetadata) error

	// Get retrieves an entry by name.
	// Returns domain.ErrNotFound if absent and domain.ErrMalformedEntry
	// if the stored row cannot be decoded.
	Get(ctx context.Context, name string) (*domain.EntityMetadata, error)

	// List returns entries ordered by name, filtered by kind when kind is
	// non-empty. Returns an empty slice when the catalog does not exist.
	List(ctx context.Context, kind domain.EntityKind) ([]domain.EntityMetadata, error)

	// Delete removes an entry. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, name string) error
}
