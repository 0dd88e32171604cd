package driven

import (
	"context"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// Connector produces the rows of one entity.
// Each connector type (file, vector, api, etc.) implements this interface.
type Connector interface {
	// Type returns the connector type identifier.
	Type() importconfig.ConnectorType

	// Load reads every row from the source.
	Load(ctx context.Context) (*domain.Table, error)

	// Close releases resources.
	Close() error
}

// ConnectorBuilder creates a Connector from its configuration.
type ConnectorBuilder func(spec importconfig.ConnectorSpec) (Connector, error)

// ConnectorFactory creates connectors from connector configuration.
// It maintains a registry of connector types and their builders.
type ConnectorFactory interface {
	// Create returns a Connector for the given spec.
	// Returns domain.ErrUnsupportedType if no builder is registered for the type.
	Create(ctx context.Context, spec importconfig.ConnectorSpec) (Connector, error)

	// Register adds a connector builder for the given type.
	Register(connectorType importconfig.ConnectorType, builder ConnectorBuilder)

	// SupportedTypes returns all registered connector types.
	SupportedTypes() []importconfig.ConnectorType
}

// FeatureReader reads spatial layers.
type FeatureReader interface {
	// ReadLayer reads one layer of a vector source and reprojects every
	// geometry to domain.CanonicalCRS. layer may be empty for single-layer
	// formats. sourceCRS, when set, overrides the CRS declared by the source.
	ReadLayer(ctx context.Context, path, layer, sourceCRS string) (*domain.FeatureLayer, error)
}
