package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/core/ports/driving"
	"github.com/custodia-labs/loam/internal/logger"
)

// Ensure EntityRegistry implements the interface.
var _ driving.EntityRegistry = (*EntityRegistry)(nil)

// EntityRegistry maps logical entity names to physical tables.
type EntityRegistry struct {
	store driven.EntityStore
}

// NewEntityRegistry creates a registry over store. The catalog table is
// created when missing, unless the store is read-only.
func NewEntityRegistry(ctx context.Context, store driven.EntityStore) (*EntityRegistry, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: entity store is required", domain.ErrInvalidInput)
	}
	if !store.ReadOnly() {
		if err := store.EnsureCatalog(ctx); err != nil {
			return nil, fmt.Errorf("ensure entity catalog: %w", err)
		}
	}
	return &EntityRegistry{store: store}, nil
}

// RegisterEntity upserts an entity. The last writer wins.
func (r *EntityRegistry) RegisterEntity(
	ctx context.Context,
	name string,
	kind domain.EntityKind,
	tableName string,
	config map[string]any,
) error {
	if name == "" || tableName == "" {
		return fmt.Errorf("%w: entity name and table name are required", domain.ErrInvalidInput)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: entity kind %q", domain.ErrInvalidInput, kind)
	}
	if config == nil {
		config = map[string]any{}
	}
	err := r.store.Save(ctx, domain.EntityMetadata{
		Name:      name,
		Kind:      kind,
		TableName: tableName,
		Config:    config,
	})
	if err != nil {
		return fmt.Errorf("register entity %s: %w", name, err)
	}
	logger.Debug("registered %s %s -> %s", kind, name, tableName)
	return nil
}

// Get returns an entity's metadata.
func (r *EntityRegistry) Get(ctx context.Context, name string) (*domain.EntityMetadata, error) {
	return r.store.Get(ctx, name)
}

// ListEntities returns entities ordered by name, optionally filtered by kind.
func (r *EntityRegistry) ListEntities(ctx context.Context, kind domain.EntityKind) ([]domain.EntityMetadata, error) {
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("%w: entity kind %q", domain.ErrInvalidInput, kind)
	}
	return r.store.List(ctx, kind)
}

// Remove deletes an entity's metadata only.
func (r *EntityRegistry) Remove(ctx context.Context, name string) error {
	return r.store.Delete(ctx, name)
}

// ResolveTableName returns the registered physical table for name. Any
// lookup failure falls back to name itself, so physical names work too.
func (r *EntityRegistry) ResolveTableName(ctx context.Context, name string) string {
	meta, err := r.store.Get(ctx, name)
	if err != nil || meta.TableName == "" {
		return name
	}
	return meta.TableName
}
