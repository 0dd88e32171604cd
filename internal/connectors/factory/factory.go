// Package factory builds connectors from connector specs.
package factory

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/custodia-labs/loam/internal/connectors/api"
	"github.com/custodia-labs/loam/internal/connectors/duckdbcsv"
	"github.com/custodia-labs/loam/internal/connectors/file"
	"github.com/custodia-labs/loam/internal/connectors/plugin"
	"github.com/custodia-labs/loam/internal/connectors/source"
	"github.com/custodia-labs/loam/internal/connectors/vector"
	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory maps connector types to builders.
type Factory struct {
	mu       sync.RWMutex
	builders map[importconfig.ConnectorType]driven.ConnectorBuilder
}

// New creates an empty factory.
func New() *Factory {
	return &Factory{builders: make(map[importconfig.ConnectorType]driven.ConnectorBuilder)}
}

// Dependencies are the shared collaborators of the built-in connectors.
type Dependencies struct {
	Opener     *source.Opener
	Reader     *vector.Reader
	Plugins    *plugin.Registry
	HTTPClient *http.Client
}

// NewDefault creates a factory with every built-in connector registered.
// Derived and multi-feature references are computed by the importer and
// have no connector.
func NewDefault(deps Dependencies) *Factory {
	if deps.Opener == nil {
		deps.Opener = source.NewOpener(domain.ObjectStorageSettings{})
	}
	if deps.Reader == nil {
		deps.Reader = vector.NewReader(deps.Opener)
	}
	if deps.Plugins == nil {
		deps.Plugins = plugin.NewRegistry()
		plugin.RegisterDefaults(deps.Plugins)
	}

	f := New()
	f.Register(importconfig.ConnectorFile, func(spec importconfig.ConnectorSpec) (driven.Connector, error) {
		return file.New(spec.(*importconfig.FileConnector), deps.Opener), nil
	})
	f.Register(importconfig.ConnectorDuckDBCSV, func(spec importconfig.ConnectorSpec) (driven.Connector, error) {
		return duckdbcsv.New(spec.(*importconfig.DuckDBCSVConnector), deps.Opener), nil
	})
	f.Register(importconfig.ConnectorVector, func(spec importconfig.ConnectorSpec) (driven.Connector, error) {
		return vector.New(spec.(*importconfig.VectorConnector), deps.Reader), nil
	})
	f.Register(importconfig.ConnectorAPI, func(spec importconfig.ConnectorSpec) (driven.Connector, error) {
		return api.New(spec.(*importconfig.APIConnector), deps.HTTPClient), nil
	})
	f.Register(importconfig.ConnectorPlugin, func(spec importconfig.ConnectorSpec) (driven.Connector, error) {
		p := spec.(*importconfig.PluginConnector)
		if !deps.Plugins.Has(p.Name) {
			return nil, fmt.Errorf("%w: plugin %q (available: %v)", domain.ErrUnsupportedType, p.Name, deps.Plugins.Names())
		}
		return plugin.New(p, deps.Plugins), nil
	})
	return f
}

// Create returns a Connector for the given spec.
func (f *Factory) Create(ctx context.Context, spec importconfig.ConnectorSpec) (driven.Connector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec == nil {
		return nil, fmt.Errorf("%w: connector is not set", domain.ErrConfiguration)
	}

	f.mu.RLock()
	builder, ok := f.builders[spec.ConnectorType()]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: connector %q", domain.ErrUnsupportedType, spec.ConnectorType())
	}
	return builder(spec)
}

// Register adds a connector builder for the given type.
func (f *Factory) Register(connectorType importconfig.ConnectorType, builder driven.ConnectorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[connectorType] = builder
}

// SupportedTypes returns all registered connector types, sorted.
func (f *Factory) SupportedTypes() []importconfig.ConnectorType {
	f.mu.RLock()
	defer f.mu.RUnlock()
	types := make([]importconfig.ConnectorType, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
