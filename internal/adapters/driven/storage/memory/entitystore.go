package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
)

// Ensure EntityStore implements the interface.
var _ driven.EntityStore = (*EntityStore)(nil)

// EntityStore is an in-memory implementation of driven.EntityStore.
type EntityStore struct {
	mu       sync.RWMutex
	entities map[string]domain.EntityMetadata
	catalog  bool
	readOnly bool
	now      func() time.Time
}

// NewEntityStore creates a new in-memory entity store. The catalog does not
// exist until EnsureCatalog is called.
func NewEntityStore() *EntityStore {
	return &EntityStore{
		entities: make(map[string]domain.EntityMetadata),
		now:      time.Now,
	}
}

// NewReadOnlyEntityStore creates a read-only store holding the given entries.
func NewReadOnlyEntityStore(entries ...domain.EntityMetadata) *EntityStore {
	s := NewEntityStore()
	s.readOnly = true
	s.catalog = len(entries) > 0
	for _, e := range entries {
		s.entities[e.Name] = e
	}
	return s
}

// EnsureCatalog creates the catalog.
func (s *EntityStore) EnsureCatalog(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return domain.ErrReadOnly
	}
	s.catalog = true
	return nil
}

// ReadOnly reports whether writes are rejected.
func (s *EntityStore) ReadOnly() bool {
	return s.readOnly
}

// Save stores or overwrites an entry.
func (s *EntityStore) Save(_ context.Context, meta domain.EntityMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return domain.ErrReadOnly
	}
	s.catalog = true

	now := s.now().UTC()
	if existing, ok := s.entities[meta.Name]; ok {
		meta.CreatedAt = existing.CreatedAt
	} else if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	meta.Config = copyConfig(meta.Config)
	s.entities[meta.Name] = meta
	return nil
}

// Get retrieves an entry by name.
func (s *EntityStore) Get(_ context.Context, name string) (*domain.EntityMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.entities[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	meta.Config = copyConfig(meta.Config)
	return &meta, nil
}

// List returns entries ordered by name.
func (s *EntityStore) List(_ context.Context, kind domain.EntityKind) ([]domain.EntityMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.EntityMetadata, 0, len(s.entities))
	if !s.catalog {
		return result, nil
	}
	for _, meta := range s.entities {
		if kind != "" && meta.Kind != kind {
			continue
		}
		meta.Config = copyConfig(meta.Config)
		result = append(result, meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Delete removes an entry.
func (s *EntityStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return domain.ErrReadOnly
	}
	if _, ok := s.entities[name]; !ok {
		return domain.ErrNotFound
	}
	delete(s.entities, name)
	return nil
}

func copyConfig(cfg map[string]any) map[string]any {
	if cfg == nil {
		return nil
	}
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}
