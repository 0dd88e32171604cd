package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
)

// Ensure ImportRunStore implements the interface.
var _ driven.ImportRunStore = (*ImportRunStore)(nil)

// ImportRunStore is an in-memory implementation of driven.ImportRunStore.
type ImportRunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.ImportRun
}

// NewImportRunStore creates a new in-memory import run store.
func NewImportRunStore() *ImportRunStore {
	return &ImportRunStore{
		runs: make(map[string]domain.ImportRun),
	}
}

// Save inserts or updates a run.
func (s *ImportRunStore) Save(_ context.Context, run domain.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

// Get retrieves a run by ID.
func (s *ImportRunStore) Get(_ context.Context, id string) (*domain.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// List returns the most recent runs first.
func (s *ImportRunStore) List(_ context.Context, limit int) ([]domain.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ImportRun, 0, len(s.runs))
	for _, run := range s.runs {
		result = append(result, run)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
