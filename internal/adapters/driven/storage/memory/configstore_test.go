package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"store.driver":      "sqlite",
		"import.chunk_size": int64(500),
		"store.read_only":   true,
	})

	assert.Equal(t, "sqlite", store.GetString("store.driver"))
	assert.Equal(t, 500, store.GetInt("import.chunk_size"))
	assert.True(t, store.GetBool("store.read_only"))
	assert.Empty(t, store.GetString("missing"))
	assert.Equal(t, ":memory:", store.Path())

	require.NoError(t, store.Set("log.format", "json"))
	assert.Equal(t, "json", store.GetString("log.format"))
}

func TestConfigStore_SetErr(t *testing.T) {
	store := NewConfigStore(nil)
	store.SetErr = errors.New("disk full")

	assert.Error(t, store.Set("a", 1))
	assert.Error(t, store.Save())
}
