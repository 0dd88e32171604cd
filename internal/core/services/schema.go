package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/importconfig"
	"github.com/custodia-labs/loam/internal/logger"
)

// applySchema builds the table definition for a connector's output and
// coerces declared fields to their declared types. Undeclared columns keep
// their values and get an inferred type.
func applySchema(entity, tableName string, t *domain.Table, schema importconfig.SchemaConfig) (domain.TableDef, [][]any, error) {
	declared := make(map[string]importconfig.FieldType, len(schema.Fields))
	for _, f := range schema.Fields {
		if t.ColumnIndex(f.Name) < 0 {
			return domain.TableDef{}, nil, fmt.Errorf("%w: entity %q column %q", domain.ErrMissingColumn, entity, f.Name)
		}
		ft := f.Type
		if ft == "" {
			ft = importconfig.FieldString
		}
		declared[f.Name] = ft
	}
	if schema.IDField != "" && t.ColumnIndex(schema.IDField) < 0 {
		return domain.TableDef{}, nil, fmt.Errorf("%w: entity %q id field %q", domain.ErrMissingColumn, entity, schema.IDField)
	}

	def := domain.TableDef{Name: tableName}
	keep := make([]int, 0, len(t.Columns))
	for i, name := range t.Columns {
		if name == "" {
			continue
		}
		keep = append(keep, i)
		col := domain.Column{Name: name, PrimaryKey: name == schema.IDField}
		if ft, ok := declared[name]; ok {
			col.Type = ft.ColumnType()
		} else {
			col.Type = domain.InferColumnType(columnValues(t, i))
		}
		def.Columns = append(def.Columns, col)
	}

	rows := make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]any, len(keep))
		for j, i := range keep {
			v := cell(row, i)
			if ft, ok := declared[t.Columns[i]]; ok {
				cv, err := coerce(v, ft)
				if err != nil {
					return domain.TableDef{}, nil, &domain.RowError{
						Entity: entity,
						Row:    r,
						Column: t.Columns[i],
						Values: map[string]string{t.Columns[i]: domain.StringValue(v)},
						Err:    fmt.Errorf("%w: %w", domain.ErrData, err),
					}
				}
				v = cv
			}
			out[j] = v
		}
		rows[r] = out
	}
	return def, rows, nil
}

func columnValues(t *domain.Table, i int) []any {
	values := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = cell(row, i)
	}
	return values
}

// coerce converts a cell to the Go type stored for ft. Blank strings become nil.
func coerce(v any, ft importconfig.FieldType) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" && ft != importconfig.FieldString {
		return nil, nil
	}

	switch ft {
	case importconfig.FieldInteger:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int64:
			return x, nil
		case float64:
			if x != math.Trunc(x) {
				return nil, fmt.Errorf("%v is not an integer", x)
			}
			return int64(x), nil
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		}
		s := domain.StringValue(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return int64(f), nil

	case importconfig.FieldFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		}
		s := domain.StringValue(v)
		f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		return f, nil

	case importconfig.FieldBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case float64:
			return x != 0, nil
		}
		s := strings.ToLower(domain.StringValue(v))
		switch s {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", s)
		}
		return b, nil

	case importconfig.FieldJSON:
		return v, nil

	default:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return domain.StringValue(v), nil
	}
}

// filterExistingReferences drops rows whose link values are missing from an
// already-imported reference. Links to references that are not imported yet
// are ignored. Blank link values are kept.
func (i *Importer) filterExistingReferences(
	ctx context.Context,
	entity string,
	t *domain.Table,
	links []importconfig.LinkConfig,
) (int, error) {
	dropped := 0
	for _, link := range links {
		field := t.ColumnIndex(link.Field)
		if field < 0 {
			return dropped, fmt.Errorf("%w: entity %q link field %q", domain.ErrMissingColumn, entity, link.Field)
		}

		meta, err := i.registry.Get(ctx, link.Entity)
		if err != nil {
			logger.Debug("%s: reference %s not imported yet, keeping all rows", entity, link.Entity)
			continue
		}
		target := link.TargetField
		if target == "" {
			target = domain.ColID
		}
		ref, err := i.tables.ReadTable(ctx, meta.TableName, []string{target})
		if err != nil {
			logger.Debug("%s: cannot read %s.%s: %v", entity, meta.TableName, target, err)
			continue
		}

		known := make(map[string]bool, ref.Len())
		for _, row := range ref.Rows {
			known[domain.StringValue(cell(row, 0))] = true
		}
		kept := t.Rows[:0]
		for _, row := range t.Rows {
			v := domain.StringValue(cell(row, field))
			if v == "" || known[v] {
				kept = append(kept, row)
				continue
			}
			dropped++
		}
		t.Rows = kept
	}
	return dropped, nil
}
