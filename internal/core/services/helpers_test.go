package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loam/internal/adapters/driven/storage/sqlstore"
	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// --- Mock implementations for import testing ---

// mockConnector implements driven.Connector for testing.
type mockConnector struct {
	connType importconfig.ConnectorType
	table    *domain.Table
	loadErr  error
	closed   bool
}

func (m *mockConnector) Type() importconfig.ConnectorType { return m.connType }

func (m *mockConnector) Load(_ context.Context) (*domain.Table, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	// Hand out a copy so repeated imports see the original rows.
	t := &domain.Table{Columns: append([]string(nil), m.table.Columns...)}
	for _, r := range m.table.Rows {
		t.Rows = append(t.Rows, append([]any(nil), r...))
	}
	return t, nil
}

func (m *mockConnector) Close() error {
	m.closed = true
	return nil
}

// mockConnectorFactory serves file connectors keyed by path.
type mockConnectorFactory struct {
	connectors map[string]*mockConnector
	createErr  error
}

func newMockConnectorFactory() *mockConnectorFactory {
	return &mockConnectorFactory{connectors: make(map[string]*mockConnector)}
}

func (f *mockConnectorFactory) add(path string, table *domain.Table) *mockConnector {
	c := &mockConnector{connType: importconfig.ConnectorFile, table: table}
	f.connectors[path] = c
	return c
}

func (f *mockConnectorFactory) Create(_ context.Context, spec importconfig.ConnectorSpec) (driven.Connector, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	fc, ok := spec.(*importconfig.FileConnector)
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	if conn, ok := f.connectors[fc.Path]; ok {
		return conn, nil
	}
	// Paths loaded from a file are resolved against its directory.
	if conn, ok := f.connectors[filepath.Base(fc.Path)]; ok {
		return conn, nil
	}
	return nil, errors.New("no connector configured for path")
}

func (f *mockConnectorFactory) Register(_ importconfig.ConnectorType, _ driven.ConnectorBuilder) {}

func (f *mockConnectorFactory) SupportedTypes() []importconfig.ConnectorType {
	return []importconfig.ConnectorType{importconfig.ConnectorFile}
}

// mockFeatureReader serves feature layers keyed by path.
type mockFeatureReader struct {
	layers map[string]*domain.FeatureLayer
}

func (r *mockFeatureReader) ReadLayer(_ context.Context, path, _, _ string) (*domain.FeatureLayer, error) {
	layer, ok := r.layers[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return layer, nil
}

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "loam-services-*")
	require.NoError(t, err)

	store, err := sqlstore.NewStore(tempDir)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	})
	return store
}

// occurrenceTable returns flat occurrence rows spanning 2 families,
// 2 genera and 4 species.
func occurrenceTable() *domain.Table {
	return &domain.Table{
		Columns: []string{"occ_id", "family", "genus", "species", "taxon_ref", "full_name"},
		Rows: [][]any{
			{int64(1), "Arecaceae", "Burretiokentia", "vieillardii", int64(101), "Burretiokentia vieillardii"},
			{int64(2), "Arecaceae", "Burretiokentia", "koghiensis", int64(102), "Burretiokentia koghiensis"},
			{int64(3), "Myrtaceae", "Syzygium", "multipetalum", int64(103), "Syzygium multipetalum"},
			{int64(4), "Myrtaceae", "Syzygium", "acre", int64(104), "Syzygium acre"},
			{int64(5), "Arecaceae", "Burretiokentia", "vieillardii", int64(101), "Burretiokentia vieillardii Pancher"},
		},
	}
}

func taxonLevels() []importconfig.Level {
	return []importconfig.Level{
		{Name: "family", Column: "family"},
		{Name: "genus", Column: "genus"},
		{Name: "species", Column: "species"},
	}
}

func hashExtraction() *importconfig.ExtractionConfig {
	return &importconfig.ExtractionConfig{
		Levels:         taxonLevels(),
		IncompleteRows: importconfig.IncompleteSkip,
		IDStrategy:     importconfig.IDHash,
		PathSeparator:  "|",
	}
}

func countLevels(nodes []domain.HierarchyNode) map[int]int {
	counts := make(map[int]int)
	for _, n := range nodes {
		counts[n.Level]++
	}
	return counts
}

func findNode(nodes []domain.HierarchyNode, path string) *domain.HierarchyNode {
	for i := range nodes {
		if nodes[i].FullPath == path {
			return &nodes[i]
		}
	}
	return nil
}
