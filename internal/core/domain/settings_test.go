package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreDriver_IsValid(t *testing.T) {
	assert.True(t, StoreDriverSQLite.IsValid())
	assert.True(t, StoreDriverPostgres.IsValid())
	assert.False(t, StoreDriver("mysql").IsValid())
	assert.Equal(t, "sqlite", StoreDriverSQLite.String())
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, StoreDriverSQLite, s.Store.Driver)
	assert.Equal(t, DefaultChunkSize, s.ChunkSize)
	assert.Equal(t, "import.yml", s.ImportConfigPath)
	assert.False(t, s.ObjectStorage.Configured())
}
