package plugin

import (
	"context"
	"sync"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector delegates loading to a registered plugin.
type Connector struct {
	spec     importconfig.PluginConnector
	registry *Registry
	mu       sync.Mutex
	closed   bool
}

// New creates a plugin connector.
func New(spec *importconfig.PluginConnector, registry *Registry) *Connector {
	return &Connector{spec: *spec, registry: registry}
}

// Type returns the connector type identifier.
func (c *Connector) Type() importconfig.ConnectorType {
	return importconfig.ConnectorPlugin
}

// Load builds the plugin and returns its rows.
func (c *Connector) Load(ctx context.Context) (*domain.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrConnectorClosed
	}

	src, err := c.registry.Build(c.spec.Name, c.spec.Params)
	if err != nil {
		return nil, err
	}
	t, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = &domain.Table{}
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
