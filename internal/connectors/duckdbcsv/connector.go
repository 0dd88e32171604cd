// Package duckdbcsv reads CSV files through DuckDB's read_csv_auto, which
// sniffs the dialect and column types.
package duckdbcsv

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	duckdb "github.com/duckdb/duckdb-go/v2"

	"github.com/custodia-labs/loam/internal/connectors/source"
	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector loads one CSV file with an in-memory DuckDB instance.
type Connector struct {
	spec   importconfig.DuckDBCSVConnector
	opener *source.Opener
	mu     sync.Mutex
	closed bool
}

// New creates a DuckDB CSV connector.
func New(spec *importconfig.DuckDBCSVConnector, opener *source.Opener) *Connector {
	return &Connector{spec: *spec, opener: opener}
}

// Type returns the connector type identifier.
func (c *Connector) Type() importconfig.ConnectorType {
	return importconfig.ConnectorDuckDBCSV
}

// Load reads every row with the types DuckDB inferred.
func (c *Connector) Load(ctx context.Context) (*domain.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrConnectorClosed
	}

	local, cleanup, err := c.opener.Fetch(ctx, c.spec.Path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	connector, err := duckdb.NewConnector("", nil)
	if err != nil {
		return nil, fmt.Errorf("create duckdb connector: %w", err)
	}
	defer connector.Close()
	db := sql.OpenDB(connector)
	defer db.Close()

	rows, err := db.QueryContext(ctx, c.query(local))
	if err != nil {
		return nil, fmt.Errorf("read_csv_auto %s: %w", c.spec.Path, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	t := &domain.Table{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.spec.Path, err)
		}
		for i, v := range values {
			values[i] = normalise(v)
		}
		t.Rows = append(t.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", c.spec.Path, err)
	}
	return t, nil
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Connector) query(path string) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM read_csv_auto(")
	b.WriteString(literal(path))
	if c.spec.Delimiter != "" {
		b.WriteString(", delim = ")
		b.WriteString(literal(c.spec.Delimiter))
	}
	if c.spec.Header != nil {
		fmt.Fprintf(&b, ", header = %t", *c.spec.Header)
	}
	b.WriteString(")")
	return b.String()
}

// literal renders s as a single-quoted SQL string.
func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// normalise maps DuckDB scan results to the value types stores accept.
func normalise(v any) any {
	switch x := v.(type) {
	case nil, bool, string, int8, int16, int32, int64, int, uint8, uint16, uint32, float32, float64:
		return v
	case uint64:
		return float64(x)
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	case interface{ Float64() float64 }:
		return x.Float64()
	default:
		return fmt.Sprint(x)
	}
}
