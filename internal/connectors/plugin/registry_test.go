package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/importconfig"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Has("inline"))
	assert.Empty(t, r.Names())

	RegisterDefaults(r)
	assert.True(t, r.Has("inline"))
	assert.Equal(t, []string{"inline", "range"}, r.Names())

	_, err := r.Build("missing", nil)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedType))
}

func TestRegistry_CustomPlugin(t *testing.T) {
	r := NewRegistry()
	r.Register("constant", func(params map[string]any) (Source, error) {
		return SourceFunc(func(context.Context) (*domain.Table, error) {
			return &domain.Table{Columns: []string{"v"}, Rows: [][]any{{params["v"]}}}, nil
		}), nil
	})

	c := New(&importconfig.PluginConnector{Name: "constant", Params: map[string]any{"v": "x"}}, r)
	defer c.Close()
	tbl, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"x"}}, tbl.Rows)
	assert.Equal(t, importconfig.ConnectorPlugin, c.Type())
}

func TestInline(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	c := New(&importconfig.PluginConnector{Name: "inline", Params: map[string]any{
		"records": []any{
			map[string]any{"code": "S", "name": "Sud"},
			map[string]any{"code": "N", "name": "Nord"},
		},
	}}, r)
	tbl, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "name"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())

	_, err = New(&importconfig.PluginConnector{Name: "inline"}, r).Load(context.Background())
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	_, err = New(&importconfig.PluginConnector{Name: "inline", Params: map[string]any{"records": []any{"x"}}}, r).Load(context.Background())
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestRange(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	tbl, err := New(&importconfig.PluginConnector{Name: "range", Params: map[string]any{
		"column": "year", "start": 2020, "stop": 2026.0, "step": int64(3),
	}}, r).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"year"}, tbl.Columns)
	assert.Equal(t, [][]any{{int64(2020)}, {int64(2023)}, {int64(2026)}}, tbl.Rows)

	_, err = New(&importconfig.PluginConnector{Name: "range"}, r).Load(context.Background())
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	_, err = New(&importconfig.PluginConnector{Name: "range", Params: map[string]any{"stop": 3, "step": 0}}, r).Load(context.Background())
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestConnector_Closed(t *testing.T) {
	c := New(&importconfig.PluginConnector{Name: "inline"}, NewRegistry())
	require.NoError(t, c.Close())
	_, err := c.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrConnectorClosed)
}
