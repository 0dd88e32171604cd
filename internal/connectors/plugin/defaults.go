package plugin

import (
	"context"
	"fmt"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// RegisterDefaults registers the built-in plugins.
func RegisterDefaults(r *Registry) {
	r.Register("inline", buildInline)
	r.Register("range", buildRange)
}

// buildInline returns the records given in params.
// Supported params:
//   - records ([]map): the rows to produce
func buildInline(params map[string]any) (Source, error) {
	raw, ok := params["records"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: inline plugin requires a records list", domain.ErrConfiguration)
	}
	t := &domain.Table{}
	for i, r := range raw {
		rec, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: inline record %d is not a mapping", domain.ErrConfiguration, i)
		}
		t.AppendRow(rec)
	}
	return SourceFunc(func(context.Context) (*domain.Table, error) {
		return t, nil
	}), nil
}

// buildRange produces one integer column.
// Supported params:
//   - column (string): column name (default: "id")
//   - start (int): first value (default: 1)
//   - stop (int): last value, inclusive
//   - step (int): increment (default: 1)
func buildRange(params map[string]any) (Source, error) {
	column, _ := params["column"].(string)
	if column == "" {
		column = "id"
	}
	start, ok := getIntFromParams(params, "start")
	if !ok {
		start = 1
	}
	stop, ok := getIntFromParams(params, "stop")
	if !ok {
		return nil, fmt.Errorf("%w: range plugin requires stop", domain.ErrConfiguration)
	}
	step, ok := getIntFromParams(params, "step")
	if !ok {
		step = 1
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: range step must be positive", domain.ErrConfiguration)
	}

	return SourceFunc(func(ctx context.Context) (*domain.Table, error) {
		t := &domain.Table{Columns: []string{column}}
		for v := start; v <= stop; v += step {
			t.Rows = append(t.Rows, []any{v})
		}
		return t, ctx.Err()
	}), nil
}

// getIntFromParams extracts an int64 from generic params.
// Handles int, int64, and float64 types that may come from YAML/JSON parsing.
func getIntFromParams(params map[string]any, key string) (int64, bool) {
	switch v := params[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
