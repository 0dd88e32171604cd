package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ColumnType is the logical type of a stored column.
type ColumnType string

const (
	ColumnText    ColumnType = "text"
	ColumnInteger ColumnType = "integer"
	ColumnReal    ColumnType = "real"
	ColumnBoolean ColumnType = "boolean"
	// ColumnGeometry holds WKT in EPSG:4326.
	ColumnGeometry ColumnType = "geometry"
	// ColumnJSON holds serialized JSON text.
	ColumnJSON ColumnType = "json"
)

// Column describes one column of a physical table.
type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
}

// TableDef describes a physical table to create.
type TableDef struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the names of the table's columns in order.
func (d TableDef) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Row is a single result row keyed by column name.
type Row map[string]any

// Table is a set of positional rows produced by a connector.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of a column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AddColumn appends a column, filling existing rows with nil.
// It returns the new column's index, or the existing index if present.
func (t *Table) AddColumn(name string) int {
	if i := t.ColumnIndex(name); i >= 0 {
		return i
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], nil)
	}
	return len(t.Columns) - 1
}

// AppendRow appends a row given as a map, adding unseen columns.
func (t *Table) AppendRow(values map[string]any) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AddColumn(k)
	}
	row := make([]any, len(t.Columns))
	for k, v := range values {
		row[t.ColumnIndex(k)] = v
	}
	t.Rows = append(t.Rows, row)
}

// Records returns the rows as maps keyed by column name.
func (t *Table) Records() []Row {
	out := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make(Row, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(r) {
				rec[c] = r[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// InferColumnType guesses a column type from Go values produced by connectors.
// Mixed numeric columns widen to real; anything else mixed becomes text.
func InferColumnType(values []any) ColumnType {
	var result ColumnType
	for _, v := range values {
		var t ColumnType
		switch v.(type) {
		case nil:
			continue
		case int, int8, int16, int32, int64, uint8, uint16, uint32:
			t = ColumnInteger
		case float32, float64:
			t = ColumnReal
		case bool:
			t = ColumnBoolean
		default:
			t = ColumnText
		}
		switch {
		case result == "":
			result = t
		case result == t:
		case (result == ColumnInteger && t == ColumnReal) || (result == ColumnReal && t == ColumnInteger):
			result = ColumnReal
		default:
			return ColumnText
		}
	}
	if result == "" {
		return ColumnText
	}
	return result
}

// StringValue renders a cell as a trimmed string; nil renders as "".
func StringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []byte:
		return strings.TrimSpace(string(x))
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%v", x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func formatValues(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, values[k]))
	}
	return strings.Join(parts, ", ")
}
