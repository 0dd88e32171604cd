package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// Columns of a materialized multi-feature reference.
const (
	colFeatureName       = "name"
	colFeatureType       = "type"
	colFeatureGeometry   = "geometry"
	colFeatureProperties = "properties"
)

// multiFeatureDef returns the table definition of a multi-feature reference.
func multiFeatureDef(table string) domain.TableDef {
	return domain.TableDef{
		Name: table,
		Columns: []domain.Column{
			{Name: domain.ColID, Type: domain.ColumnInteger, PrimaryKey: true},
			{Name: domain.ColParentID, Type: domain.ColumnInteger},
			{Name: domain.ColLevel, Type: domain.ColumnInteger},
			{Name: colFeatureName, Type: domain.ColumnText},
			{Name: colFeatureType, Type: domain.ColumnText},
			{Name: colFeatureGeometry, Type: domain.ColumnGeometry},
			{Name: colFeatureProperties, Type: domain.ColumnJSON},
		},
	}
}

// materializeMultiFeature loads every source layer and returns one type row
// per source followed by that source's feature rows.
func (i *Importer) materializeMultiFeature(
	ctx context.Context,
	entity string,
	spec *importconfig.MultiFeatureConnector,
) (rows [][]any, types, features int, err error) {
	if i.features == nil {
		return nil, 0, 0, fmt.Errorf("%w: no feature reader configured", domain.ErrUnsupportedType)
	}
	seen := make(map[int64]string)
	claim := func(id int64, label string) error {
		if other, dup := seen[id]; dup {
			return fmt.Errorf("%w: entity %q %s and %s share id %d", domain.ErrIDCollision, entity, other, label, id)
		}
		seen[id] = label
		return nil
	}

	for _, src := range spec.Sources {
		layer, err := i.features.ReadLayer(ctx, src.Path, "", src.SourceCRS)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("source %s: %w", src.Name, err)
		}

		typeID := contentID(rankPart(colFeatureType, src.Name))
		if err := claim(typeID, "type "+src.Name); err != nil {
			return nil, 0, 0, err
		}
		rows = append(rows, []any{typeID, nil, 0, src.Name, src.Name, nil, nil})
		types++

		for n, f := range layer.Features {
			name := domain.StringValue(f.Properties[src.NameField])
			if name == "" {
				return nil, 0, 0, &domain.RowError{
					Entity: entity,
					Row:    n,
					Column: src.NameField,
					Values: map[string]string{"source": src.Name},
					Err:    domain.ErrIncompleteRow,
				}
			}
			id := contentID(rankPart(colFeatureType, src.Name), rankPart(colFeatureName, name), strconv.Itoa(n))
			if err := claim(id, fmt.Sprintf("%s feature %d", src.Name, n)); err != nil {
				return nil, 0, 0, err
			}
			var props any
			if len(f.Properties) > 0 {
				props = f.Properties
			}
			var geom any
			if f.Geometry != "" {
				geom = f.Geometry
			}
			rows = append(rows, []any{id, typeID, 1, name, src.Name, geom, props})
			features++
		}
	}
	return rows, types, features, nil
}
