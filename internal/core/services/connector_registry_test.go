package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loam/internal/core/domain"
)

func TestConnectorRegistry_ListAll(t *testing.T) {
	r := NewConnectorRegistry(nil)

	var ids []string
	for _, c := range r.List() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"api", "derived", "duckdb_csv", "file", "file_multi_feature", "plugin", "vector"}, ids)
}

func TestConnectorRegistry_FiltersByFactory(t *testing.T) {
	r := NewConnectorRegistry(newMockConnectorFactory())

	var ids []string
	for _, c := range r.List() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"derived", "file", "file_multi_feature"}, ids)
}

func TestConnectorRegistry_Get(t *testing.T) {
	r := NewConnectorRegistry(nil)

	c, err := r.Get("derived")
	require.NoError(t, err)
	assert.True(t, c.ReferenceOnly)
	assert.Equal(t, []string{"source", "extraction"}, c.RequiredKeys())

	api, err := r.Get("api")
	require.NoError(t, err)
	assert.True(t, api.RequiresAuth)

	_, err = r.Get("github")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
