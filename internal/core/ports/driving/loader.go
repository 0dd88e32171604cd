package driving

import (
	"context"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// LoadRequest selects the data rows attached to a hierarchy node.
type LoadRequest struct {
	// Reference is the logical (or physical) name of the hierarchy table.
	Reference string

	// Data is the logical (or physical) name of the table holding the rows.
	Data string

	// ForeignKey is the column of Data that points at hierarchy node ids.
	ForeignKey string

	// NodeID is the target node.
	NodeID int64

	// IncludeDescendants widens the selection to the node's whole subtree.
	IncludeDescendants bool

	// Field overrides; empty values fall back to the standard column names.
	IDField     string
	ParentField string
	LeftField   string
	RightField  string
}

// HierarchyLoader fetches the data rows attached to a hierarchy node.
type HierarchyLoader interface {
	// Strategy returns the hierarchy encoding the loader understands.
	Strategy() domain.HierarchyStrategy

	// Load returns matching data rows. A missing or childless node yields an
	// empty result, not an error.
	Load(ctx context.Context, req LoadRequest) ([]domain.Row, error)
}

// LoaderRegistry resolves hierarchy loaders by key.
type LoaderRegistry interface {
	// Loader returns the loader registered under key.
	// Returns domain.ErrUnsupportedType for unknown keys.
	Loader(key string) (HierarchyLoader, error)

	// Keys returns the registered keys in sorted order.
	Keys() []string
}

// ConnectorRegistry describes the connector types available to configurations.
type ConnectorRegistry interface {
	// List returns every connector type.
	List() []domain.ConnectorType

	// Get returns one connector type or domain.ErrNotFound.
	Get(id string) (*domain.ConnectorType, error)
}
