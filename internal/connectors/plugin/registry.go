// Package plugin runs named, in-process row sources for "plugin" connectors.
package plugin

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// Source produces the rows of a plugin connector.
type Source interface {
	Load(ctx context.Context) (*domain.Table, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*domain.Table, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (*domain.Table, error) {
	return f(ctx)
}

// BuilderFunc creates a Source from the connector's params.
type BuilderFunc func(params map[string]any) (Source, error)

// Registry maps plugin names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a plugin builder, replacing any previous one of that name.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a plugin source by name with the given params.
func (r *Registry) Build(name string, params map[string]any) (Source, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: plugin %q", domain.ErrUnsupportedType, name)
	}
	src, err := builder(params)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: %w", name, err)
	}
	return src, nil
}

// Has returns true if a plugin with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered plugin names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
