package domain

import (
	"fmt"
	"time"
)

// EntityKind distinguishes flat datasets from reference (lookup) entities.
type EntityKind string

const (
	// KindReference is a lookup/dimension entity, possibly hierarchical.
	KindReference EntityKind = "reference"
	// KindDataset is a flat, source-of-truth entity.
	KindDataset EntityKind = "dataset"
)

// Valid reports whether k is a known entity kind.
func (k EntityKind) Valid() bool {
	return k == KindReference || k == KindDataset
}

// ParseEntityKind converts a string into an EntityKind.
// An empty string yields an empty kind, meaning "any kind".
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(s)
	if s == "" || k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("%w: entity kind %q", ErrInvalidInput, s)
}

// Physical table name prefixes used by the importer.
const (
	DatasetTablePrefix   = "dataset_"
	ReferenceTablePrefix = "entity_"
)

// DatasetTableName returns the physical table for a dataset entity.
func DatasetTableName(name string) string {
	return DatasetTablePrefix + name
}

// ReferenceTableName returns the physical table for a reference entity.
func ReferenceTableName(name string) string {
	return ReferenceTablePrefix + name
}

// EntityMetadata is one row of the entity registry catalog.
type EntityMetadata struct {
	// Name is the unique logical identifier across both kinds.
	Name string

	// Kind is reference or dataset.
	Kind EntityKind

	// TableName is the physical table holding the entity's rows.
	TableName string

	// Config is opaque structured metadata (schema, derivation parameters).
	Config map[string]any

	// CreatedAt is when the entity was first registered.
	CreatedAt time.Time

	// UpdatedAt is when the entity was last registered.
	UpdatedAt time.Time
}
