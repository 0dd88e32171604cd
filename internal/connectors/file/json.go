package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// readJSON reads a top-level array of objects. Keys unseen in earlier
// objects are appended as columns in sorted order.
func readJSON(ctx context.Context, path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: expected an array of objects: %w", domain.ErrData, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return RecordsTable(records), nil
}

// RecordsTable converts decoded JSON objects to a table. json.Number values
// become int64 when integral, float64 otherwise.
func RecordsTable(records []map[string]any) *domain.Table {
	t := &domain.Table{}
	for _, rec := range records {
		values := make(map[string]any, len(rec))
		for k, v := range rec {
			values[k] = normaliseJSON(v)
		}
		t.AppendRow(values)
	}
	return t
}

func normaliseJSON(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		for k, e := range x {
			x[k] = normaliseJSON(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normaliseJSON(e)
		}
		return x
	default:
		return v
	}
}
