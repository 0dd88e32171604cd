package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
)

// tableStore implements driven.TableStore.
type tableStore struct {
	store *Store
}

var _ driven.TableStore = (*tableStore)(nil)

// TableExists reports whether a table exists.
func (s *tableStore) TableExists(ctx context.Context, table string) (bool, error) {
	return s.store.tableExists(ctx, table)
}

// Columns returns the column names of a table.
func (s *tableStore) Columns(ctx context.Context, table string) ([]string, error) {
	exists, err := s.store.tableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("table %s: %w", table, domain.ErrNotFound)
	}
	var cols []string
	if err := s.store.db.SelectContext(ctx, &cols, s.store.db.Rebind(s.store.dialect.columnsQuery), table); err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", table, err)
	}
	return cols, nil
}

// ReplaceTable drops, recreates and fills a table in one transaction.
func (s *tableStore) ReplaceTable(ctx context.Context, def domain.TableDef, rows [][]any, chunkSize int) error {
	if err := s.store.checkWritable(); err != nil {
		return err
	}
	return s.store.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(def.Name)); err != nil {
			return fmt.Errorf("dropping table %s: %w", def.Name, err)
		}
		if _, err := tx.ExecContext(ctx, s.store.dialect.createTableSQL(def, false)); err != nil {
			return fmt.Errorf("creating table %s: %w", def.Name, err)
		}
		return s.insertRows(ctx, tx, def, rows, chunkSize)
	})
}

// AppendRows creates a table if needed and inserts rows in one transaction.
func (s *tableStore) AppendRows(ctx context.Context, def domain.TableDef, rows [][]any, chunkSize int) error {
	if err := s.store.checkWritable(); err != nil {
		return err
	}
	return s.store.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, s.store.dialect.createTableSQL(def, true)); err != nil {
			return fmt.Errorf("creating table %s: %w", def.Name, err)
		}
		return s.insertRows(ctx, tx, def, rows, chunkSize)
	})
}

// DropTable removes a table if it exists.
func (s *tableStore) DropTable(ctx context.Context, table string) error {
	if err := s.store.checkWritable(); err != nil {
		return err
	}
	if _, err := s.store.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("dropping table %s: %w", table, err)
	}
	return nil
}

// ReadTable returns the requested columns of every row.
// A requested column the table lacks is reported as domain.ErrMissingColumn.
func (s *tableStore) ReadTable(ctx context.Context, table string, columns []string) (*domain.Table, error) {
	existing, err := s.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = existing
	} else {
		have := make(map[string]bool, len(existing))
		for _, c := range existing {
			have[c] = true
		}
		for _, c := range columns {
			if !have[c] {
				return nil, fmt.Errorf("%w: %q in table %s", domain.ErrMissingColumn, c, table)
			}
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s", quoteIdents(columns), quoteIdent(table))
	rows, err := s.store.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", table, err)
	}
	defer rows.Close()

	out := &domain.Table{Columns: append([]string(nil), columns...)}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scanning table %s: %w", table, err)
		}
		for i := range values {
			values[i] = normalise(values[i])
		}
		out.Rows = append(out.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table %s: %w", table, err)
	}
	return out, nil
}

// Query runs a read-only statement written with '?' placeholders.
func (s *tableStore) Query(ctx context.Context, query string, args ...any) ([]domain.Row, error) {
	rows, err := s.store.db.QueryxContext(ctx, s.store.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	result := []domain.Row{}
	for rows.Next() {
		rec := make(map[string]any)
		if err := rows.MapScan(rec); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		for k, v := range rec {
			rec[k] = normalise(v)
		}
		result = append(result, domain.Row(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

// insertRows writes rows in multi-row INSERT statements. Each statement
// holds at most chunkSize rows and stays under the engine's parameter limit.
func (s *tableStore) insertRows(ctx context.Context, tx *sqlx.Tx, def domain.TableDef, rows [][]any, chunkSize int) error {
	width := len(def.Columns)
	if width == 0 || len(rows) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}
	if limit := s.store.dialect.maxParams / width; chunkSize > limit {
		chunkSize = max(limit, 1)
	}

	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", quoteIdent(def.Name), quoteIdents(def.ColumnNames()))
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", width), ", ") + ")"

	var stmt string
	stmtRows := 0
	for start := 0; start < len(rows); start += chunkSize {
		end := min(start+chunkSize, len(rows))
		batch := rows[start:end]
		if len(batch) != stmtRows {
			stmt = tx.Rebind(prefix + strings.TrimSuffix(strings.Repeat(placeholder+", ", len(batch)), ", "))
			stmtRows = len(batch)
		}

		args := make([]any, 0, len(batch)*width)
		for _, row := range batch {
			for i := 0; i < width; i++ {
				var v any
				if i < len(row) {
					v = row[i]
				}
				args = append(args, bindValue(v))
			}
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("inserting into %s (rows %d-%d): %w", def.Name, start, end-1, err)
		}
	}
	return nil
}

// bindValue converts structured values to JSON text.
func bindValue(v any) any {
	switch v.(type) {
	case map[string]any, []any, []string:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return v
	}
}

// normalise turns driver byte slices into strings.
func normalise(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
