package vector

import (
	"context"
	"sync"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// GeometryColumn holds the WKT geometry of each feature.
const GeometryColumn = "geometry"

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector loads one vector layer as a table: one column per property
// plus GeometryColumn.
type Connector struct {
	spec   importconfig.VectorConnector
	reader *Reader
	mu     sync.Mutex
	closed bool
}

// New creates a vector connector.
func New(spec *importconfig.VectorConnector, reader *Reader) *Connector {
	return &Connector{spec: *spec, reader: reader}
}

// Type returns the connector type identifier.
func (c *Connector) Type() importconfig.ConnectorType {
	return importconfig.ConnectorVector
}

// Load reads the layer.
func (c *Connector) Load(ctx context.Context) (*domain.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrConnectorClosed
	}

	layer, err := c.reader.Read(ctx, c.spec.Path, c.spec.Format, c.spec.Layer, c.spec.SourceCRS)
	if err != nil {
		return nil, err
	}

	t := &domain.Table{}
	for _, f := range layer.Features {
		values := make(map[string]any, len(f.Properties)+1)
		for k, v := range f.Properties {
			values[k] = v
		}
		if f.Geometry != "" {
			values[GeometryColumn] = f.Geometry
		} else {
			values[GeometryColumn] = nil
		}
		t.AppendRow(values)
	}
	return t, nil
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
