package sqlstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loam/internal/core/domain"
)

var plotsDef = domain.TableDef{
	Name: "dataset_plots",
	Columns: []domain.Column{
		{Name: "id", Type: domain.ColumnInteger, PrimaryKey: true},
		{Name: "name", Type: domain.ColumnText},
		{Name: "elevation", Type: domain.ColumnReal},
		{Name: "extra", Type: domain.ColumnJSON},
	},
}

func plotRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{int64(i + 1), fmt.Sprintf("plot-%d", i+1), float64(100 * (i + 1)), nil}
	}
	return rows
}

func TestTableStore_ReplaceTable(t *testing.T) {
	store, _ := setupTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()

	require.NoError(t, tables.ReplaceTable(ctx, plotsDef, plotRows(7), 3))

	tbl, err := tables.ReadTable(ctx, "dataset_plots", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "elevation", "extra"}, tbl.Columns)
	assert.Equal(t, 7, tbl.Len())

	// Replacing discards previous rows.
	require.NoError(t, tables.ReplaceTable(ctx, plotsDef, plotRows(2), 0))
	tbl, err = tables.ReadTable(ctx, "dataset_plots", []string{"name"})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"name"}, tbl.Columns)
}

func TestTableStore_ReplaceTable_RollsBackOnError(t *testing.T) {
	store, _ := setupTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()
	require.NoError(t, tables.ReplaceTable(ctx, plotsDef, plotRows(3), 0))

	dup := [][]any{{int64(1), "a", 1.0, nil}, {int64(1), "b", 2.0, nil}}
	err := tables.ReplaceTable(ctx, plotsDef, dup, 0)
	require.Error(t, err)

	tbl, err := tables.ReadTable(ctx, "dataset_plots", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len(), "failed replace leaves the previous table intact")
}

func TestTableStore_AppendRows(t *testing.T) {
	store, _ := setupTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()

	require.NoError(t, tables.AppendRows(ctx, plotsDef, plotRows(2), 0))
	more := [][]any{{int64(10), "plot-10", 1000.0, map[string]any{"k": "v"}}}
	require.NoError(t, tables.AppendRows(ctx, plotsDef, more, 0))

	rows, err := tables.Query(ctx, `SELECT name, extra FROM dataset_plots WHERE id = ?`, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "plot-10", rows[0]["name"])
	assert.JSONEq(t, `{"k":"v"}`, rows[0]["extra"].(string))

	all, err := tables.ReadTable(ctx, "dataset_plots", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Len())
}

func TestTableStore_ShortRowsPadded(t *testing.T) {
	store, _ := setupTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()

	require.NoError(t, tables.ReplaceTable(ctx, plotsDef, [][]any{{int64(1), "only-name"}}, 0))

	rows, err := tables.Query(ctx, `SELECT elevation FROM dataset_plots`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["elevation"])
}

func TestTableStore_ColumnsAndExistence(t *testing.T) {
	store, _ := setupTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()

	exists, err := tables.TableExists(ctx, "dataset_plots")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = tables.Columns(ctx, "dataset_plots")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, tables.ReplaceTable(ctx, plotsDef, nil, 0))
	cols, err := tables.Columns(ctx, "dataset_plots")
	require.NoError(t, err)
	assert.Equal(t, plotsDef.ColumnNames(), cols)

	require.NoError(t, tables.DropTable(ctx, "dataset_plots"))
	require.NoError(t, tables.DropTable(ctx, "dataset_plots"))
	exists, err = tables.TableExists(ctx, "dataset_plots")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTableStore_ReadTable_MissingColumn(t *testing.T) {
	store, _ := setupTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()
	require.NoError(t, tables.ReplaceTable(ctx, plotsDef, plotRows(1), 0))

	_, err := tables.ReadTable(ctx, "dataset_plots", []string{"name", "genus"})
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
	assert.ErrorIs(t, err, domain.ErrData)
	assert.Contains(t, err.Error(), `"genus"`)
}

func TestTableStore_LargeBatchesStayUnderParameterLimit(t *testing.T) {
	store, _ := setupTestStore(t)
	tables := store.TableStore()
	ctx := context.Background()

	require.NoError(t, tables.ReplaceTable(ctx, plotsDef, plotRows(9000), 20000))

	rows, err := tables.Query(ctx, `SELECT COUNT(*) AS n FROM dataset_plots`)
	require.NoError(t, err)
	assert.EqualValues(t, 9000, rows[0]["n"])
}

func TestTableStore_ReadOnly(t *testing.T) {
	store, dir := setupTestStore(t)
	require.NoError(t, store.TableStore().ReplaceTable(context.Background(), plotsDef, plotRows(2), 0))

	ro := reopenReadOnly(t, dir)
	tables := ro.TableStore()
	ctx := context.Background()

	assert.ErrorIs(t, tables.ReplaceTable(ctx, plotsDef, nil, 0), domain.ErrReadOnly)
	assert.ErrorIs(t, tables.AppendRows(ctx, plotsDef, nil, 0), domain.ErrReadOnly)
	assert.ErrorIs(t, tables.DropTable(ctx, "dataset_plots"), domain.ErrReadOnly)

	tbl, err := tables.ReadTable(ctx, "dataset_plots", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
}

func TestBindValue(t *testing.T) {
	assert.Equal(t, `["a","b"]`, bindValue([]string{"a", "b"}))
	assert.Equal(t, `{"x":1}`, bindValue(map[string]any{"x": 1}))
	assert.Equal(t, 3, bindValue(3))
	assert.Nil(t, bindValue(nil))
}
