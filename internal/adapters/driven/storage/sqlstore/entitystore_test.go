package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loam/internal/core/domain"
)

func TestEntityStore_SaveAndGet(t *testing.T) {
	store, _ := setupTestStore(t)
	entities := store.EntityStore()
	ctx := context.Background()
	require.NoError(t, entities.EnsureCatalog(ctx))

	err := entities.Save(ctx, domain.EntityMetadata{
		Name:      "taxons",
		Kind:      domain.KindReference,
		TableName: "entity_taxons",
		Config:    map[string]any{"source": "occurrences", "levels": []any{"family", "genus"}},
	})
	require.NoError(t, err)

	got, err := entities.Get(ctx, "taxons")
	require.NoError(t, err)
	assert.Equal(t, domain.KindReference, got.Kind)
	assert.Equal(t, "entity_taxons", got.TableName)
	assert.Equal(t, "occurrences", got.Config["source"])
	assert.Equal(t, []any{"family", "genus"}, got.Config["levels"])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestEntityStore_SaveOverwrites(t *testing.T) {
	store, _ := setupTestStore(t)
	entities := store.EntityStore()
	ctx := context.Background()
	require.NoError(t, entities.EnsureCatalog(ctx))

	require.NoError(t, entities.Save(ctx, domain.EntityMetadata{Name: "plots", Kind: domain.KindDataset, TableName: "old"}))
	first, err := entities.Get(ctx, "plots")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, entities.Save(ctx, domain.EntityMetadata{Name: "plots", Kind: domain.KindReference, TableName: "new"}))

	got, err := entities.Get(ctx, "plots")
	require.NoError(t, err)
	assert.Equal(t, "new", got.TableName)
	assert.Equal(t, domain.KindReference, got.Kind)
	assert.True(t, got.CreatedAt.Equal(first.CreatedAt), "created_at is kept on overwrite")
	assert.False(t, got.UpdatedAt.Before(first.UpdatedAt))
}

func TestEntityStore_Get_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)
	entities := store.EntityStore()
	ctx := context.Background()

	_, err := entities.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound, "missing catalog reads as not found")

	require.NoError(t, entities.EnsureCatalog(ctx))
	_, err = entities.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntityStore_List(t *testing.T) {
	store, _ := setupTestStore(t)
	entities := store.EntityStore()
	ctx := context.Background()

	list, err := entities.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list, "missing catalog lists as empty")

	require.NoError(t, entities.EnsureCatalog(ctx))
	require.NoError(t, entities.Save(ctx, domain.EntityMetadata{Name: "taxons", Kind: domain.KindReference, TableName: "entity_taxons"}))
	require.NoError(t, entities.Save(ctx, domain.EntityMetadata{Name: "occurrences", Kind: domain.KindDataset, TableName: "dataset_occurrences"}))

	list, err = entities.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "occurrences", list[0].Name)

	refs, err := entities.List(ctx, domain.KindReference)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "taxons", refs[0].Name)
}

func TestEntityStore_Delete(t *testing.T) {
	store, _ := setupTestStore(t)
	entities := store.EntityStore()
	ctx := context.Background()
	require.NoError(t, entities.EnsureCatalog(ctx))
	require.NoError(t, entities.Save(ctx, domain.EntityMetadata{Name: "plots", Kind: domain.KindDataset, TableName: "dataset_plots"}))

	require.NoError(t, entities.Delete(ctx, "plots"))
	assert.ErrorIs(t, entities.Delete(ctx, "plots"), domain.ErrNotFound)
}

func TestEntityStore_ReadOnly(t *testing.T) {
	_, dir := setupTestStore(t)
	ro := reopenReadOnly(t, dir)
	entities := ro.EntityStore()
	ctx := context.Background()

	assert.True(t, entities.ReadOnly())
	assert.ErrorIs(t, entities.EnsureCatalog(ctx), domain.ErrReadOnly)
	assert.ErrorIs(t, entities.Save(ctx, domain.EntityMetadata{Name: "x", Kind: domain.KindDataset}), domain.ErrReadOnly)

	list, err := entities.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEntityStore_MalformedRows(t *testing.T) {
	tests := []struct {
		name   string
		kind   string
		config string
	}{
		{"unknown kind", "lookup", `{}`},
		{"undecodable config", "reference", `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			store, err := NewWithDB(db, domain.StoreDriverSQLite, true)
			require.NoError(t, err)

			now := time.Now()
			mock.ExpectQuery(`SELECT name, kind, table_name, config, created_at, updated_at\s+FROM entity_registry WHERE name = \?`).
				WithArgs("taxons").
				WillReturnRows(sqlmock.NewRows([]string{"name", "kind", "table_name", "config", "created_at", "updated_at"}).
					AddRow("taxons", tt.kind, "entity_taxons", tt.config, now, now))

			_, err = store.EntityStore().Get(context.Background(), "taxons")
			assert.ErrorIs(t, err, domain.ErrMalformedEntry)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEntityStore_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewWithDB(db, domain.StoreDriverPostgres, false)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO entity_registry .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`).
		WithArgs("plots", "dataset", "dataset_plots", `{}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.EntityStore().Save(context.Background(), domain.EntityMetadata{
		Name: "plots", Kind: domain.KindDataset, TableName: "dataset_plots",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
