package driven

import (
	"context"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// TableStore manages the physical tables entities are imported into.
// Every write method runs in a single transaction.
type TableStore interface {
	// TableExists reports whether a table exists.
	TableExists(ctx context.Context, table string) (bool, error)

	// Columns returns the column names of a table in declaration order.
	// Returns domain.ErrNotFound if the table does not exist.
	Columns(ctx context.Context, table string) ([]string, error)

	// ReplaceTable drops def.Name if present, recreates it and inserts rows
	// in batches of chunkSize. Rows are positional and match def.Columns.
	ReplaceTable(ctx context.Context, def domain.TableDef, rows [][]any, chunkSize int) error

	// AppendRows creates def.Name if missing, then inserts rows.
	AppendRows(ctx context.Context, def domain.TableDef, rows [][]any, chunkSize int) error

	// DropTable removes a table. Missing tables are not an error.
	DropTable(ctx context.Context, table string) error

	// ReadTable returns the named columns of every row of a table, or all
	// columns when columns is empty.
	ReadTable(ctx context.Context, table string, columns []string) (*domain.Table, error)

	// Query runs a read-only statement written with '?' placeholders.
	Query(ctx context.Context, query string, args ...any) ([]domain.Row, error)
}
