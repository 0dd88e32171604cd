package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "loam-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	})
	return store, tempDir
}

// reopenReadOnly opens a second, read-only handle on a test store's database.
func reopenReadOnly(t *testing.T, dataDir string) *Store {
	t.Helper()
	ro, err := Open(domain.StoreSettings{Driver: domain.StoreDriverSQLite, DataDir: dataDir, ReadOnly: true})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, ro.Close()) })
	return ro
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, dir := setupTestStore(t)

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	assert.Equal(t, domain.StoreDriverSQLite, store.Driver())
	assert.False(t, store.ReadOnly())
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_RunsMigrations(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	exists, err := store.tableExists(ctx, "import_runs")
	require.NoError(t, err)
	assert.True(t, exists)

	var version int
	require.NoError(t, store.db.Get(&version, "SELECT MAX(version) FROM schema_migrations"))
	assert.Equal(t, 2, version)
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	_, dir := setupTestStore(t)

	again, err := NewStore(dir)
	require.NoError(t, err)
	defer again.Close()

	var count int
	require.NoError(t, again.db.Get(&count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 2, count)
}

func TestOpen_ReadOnlyRequiresExistingDatabase(t *testing.T) {
	dir, err := os.MkdirTemp("", "loam-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	_, err = Open(domain.StoreSettings{DataDir: dir, ReadOnly: true})
	assert.Error(t, err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(domain.StoreSettings{Driver: "mysql"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestOpen_PostgresRequiresDSN(t *testing.T) {
	_, err := Open(domain.StoreSettings{Driver: domain.StoreDriverPostgres})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		dsn      string
		expected string
	}{
		{"postgres://loam:secret@db:5432/loam", "postgres://loam:***@db:5432/loam"},
		{"postgres://db:5432/loam", "postgres://db:5432/loam"},
		{"host=db user=loam", "host=db user=loam"},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.expected, redactDSN(tt.dsn))
		})
	}
}

func TestCreateTableSQL(t *testing.T) {
	def := domain.TableDef{
		Name: "entity_taxons",
		Columns: []domain.Column{
			{Name: "id", Type: domain.ColumnInteger, PrimaryKey: true},
			{Name: "rank_value", Type: domain.ColumnText},
			{Name: "score", Type: domain.ColumnReal},
		},
	}

	assert.Equal(t,
		`CREATE TABLE "entity_taxons" ("id" INTEGER PRIMARY KEY, "rank_value" TEXT, "score" REAL)`,
		sqliteDialect.createTableSQL(def, false))
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "entity_taxons" ("id" BIGINT PRIMARY KEY, "rank_value" TEXT, "score" DOUBLE PRECISION)`,
		postgresDialect.createTableSQL(def, true))

	def.Columns[1].PrimaryKey = true
	assert.Contains(t, sqliteDialect.createTableSQL(def, false), `PRIMARY KEY ("id", "rank_value")`)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteIdent("plain"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
}
