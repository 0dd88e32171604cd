package driving

import (
	"context"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// EntityRegistry maps logical entity names to physical tables and metadata.
type EntityRegistry interface {
	// RegisterEntity upserts an entity. It does not touch the physical table.
	RegisterEntity(ctx context.Context, name string, kind domain.EntityKind, tableName string, config map[string]any) error

	// Get returns an entity's metadata or domain.ErrNotFound.
	Get(ctx context.Context, name string) (*domain.EntityMetadata, error)

	// ListEntities returns all entities, filtered by kind when non-empty.
	ListEntities(ctx context.Context, kind domain.EntityKind) ([]domain.EntityMetadata, error)

	// Remove deletes an entity's metadata. The physical table is left in place.
	Remove(ctx context.Context, name string) error

	// ResolveTableName returns the physical table of a logical name, or the
	// name itself when it cannot be resolved.
	ResolveTableName(ctx context.Context, name string) string
}
