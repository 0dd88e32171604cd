package vector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/loam/internal/core/domain"
)

// readGeoPackage reads a feature table. layer may be empty when the
// package holds exactly one feature table.
func readGeoPackage(ctx context.Context, path, layer string) (*rawLayer, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if layer == "" {
		var names []string
		if err := db.SelectContext(ctx, &names,
			`SELECT table_name FROM gpkg_contents WHERE data_type = 'features' ORDER BY table_name`); err != nil {
			return nil, fmt.Errorf("%w: not a GeoPackage: %w", domain.ErrData, err)
		}
		switch len(names) {
		case 0:
			return nil, fmt.Errorf("%w: no feature layer", domain.ErrData)
		case 1:
			layer = names[0]
		default:
			return nil, fmt.Errorf("%w: layer is required, package has %v", domain.ErrConfiguration, names)
		}
	}

	var gc struct {
		Column string `db:"column_name"`
		SRSID  int    `db:"srs_id"`
	}
	err = db.GetContext(ctx, &gc,
		`SELECT column_name, srs_id FROM gpkg_geometry_columns WHERE table_name = ?`, layer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: layer %q", domain.ErrNotFound, layer)
	}
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", layer, err)
	}

	crs, err := srsName(ctx, db, gc.SRSID)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryxContext(ctx, `SELECT * FROM "`+strings.ReplaceAll(layer, `"`, `""`)+`"`)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", layer, err)
	}
	defer rows.Close()

	out := &rawLayer{crs: crs}
	for rows.Next() {
		rec := map[string]any{}
		if err := rows.MapScan(rec); err != nil {
			return nil, err
		}
		var geom orb.Geometry
		if blob, ok := rec[gc.Column].([]byte); ok && len(blob) > 0 {
			geom, err = decodeGeometry(blob)
			if err != nil {
				return nil, fmt.Errorf("layer %q feature %d: %w", layer, len(out.features), err)
			}
		}
		delete(rec, gc.Column)
		for k, v := range rec {
			if b, ok := v.([]byte); ok {
				rec[k] = string(b)
			}
		}
		out.features = append(out.features, rawFeature{properties: rec, geometry: geom})
	}
	return out, rows.Err()
}

// srsName resolves a GeoPackage srs_id to "AUTH:code". Undefined systems
// return "" so that a source_crs override is required.
func srsName(ctx context.Context, db *sqlx.DB, srsID int) (string, error) {
	if srsID <= 0 {
		return "", nil
	}
	var ref struct {
		Org  string `db:"organization"`
		Code int    `db:"organization_coordsys_id"`
	}
	err := db.GetContext(ctx, &ref,
		`SELECT organization, organization_coordsys_id FROM gpkg_spatial_ref_sys WHERE srs_id = ?`, srsID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Sprintf("EPSG:%d", srsID), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", ref.Org, ref.Code), nil
}

// decodeGeometry strips the GeoPackage binary header and decodes the WKB body.
func decodeGeometry(blob []byte) (orb.Geometry, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, fmt.Errorf("%w: invalid GeoPackage geometry header", domain.ErrData)
	}
	flags := blob[3]
	if flags&0x10 != 0 {
		return nil, nil
	}
	var envelope int
	switch (flags >> 1) & 0x07 {
	case 0:
	case 1:
		envelope = 32
	case 2, 3:
		envelope = 48
	case 4:
		envelope = 64
	default:
		return nil, fmt.Errorf("%w: invalid GeoPackage envelope indicator", domain.ErrData)
	}
	start := 8 + envelope
	if len(blob) < start {
		return nil, fmt.Errorf("%w: truncated GeoPackage geometry", domain.ErrData)
	}
	g, err := wkb.Unmarshal(blob[start:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrData, err)
	}
	return g, nil
}
