// Package vector reads spatial layers (GeoJSON and GeoPackage), reprojects
// their geometries to EPSG:4326 and renders them as WKT.
package vector

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/custodia-labs/loam/internal/connectors/source"
	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/geo"
	"github.com/custodia-labs/loam/internal/logger"
)

// Ensure Reader implements the interface.
var _ driven.FeatureReader = (*Reader)(nil)

// Supported formats.
const (
	FormatGeoJSON = "geojson"
	FormatGPKG    = "gpkg"
)

// rawFeature is a decoded feature before reprojection.
type rawFeature struct {
	properties map[string]any
	geometry   orb.Geometry
}

// rawLayer is a decoded layer and the CRS it declares, if any.
type rawLayer struct {
	crs      string
	features []rawFeature
}

// Reader reads vector layers from local or s3:// paths.
type Reader struct {
	opener *source.Opener
}

// NewReader creates a Reader.
func NewReader(opener *source.Opener) *Reader {
	return &Reader{opener: opener}
}

// ReadLayer implements driven.FeatureReader. The format is inferred from
// the file extension.
func (r *Reader) ReadLayer(ctx context.Context, path, layer, sourceCRS string) (*domain.FeatureLayer, error) {
	return r.Read(ctx, path, "", layer, sourceCRS)
}

// Read reads one layer in the given format, or the format inferred from
// path when format is empty.
func (r *Reader) Read(ctx context.Context, path, format, layer, sourceCRS string) (*domain.FeatureLayer, error) {
	format, err := DetectFormat(path, format)
	if err != nil {
		return nil, err
	}

	local, cleanup, err := r.opener.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var raw *rawLayer
	switch format {
	case FormatGeoJSON:
		raw, err = readGeoJSON(local)
	case FormatGPKG:
		raw, err = readGeoPackage(ctx, local, layer)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	declared := raw.crs
	if sourceCRS != "" {
		declared = sourceCRS
	}
	crs, err := geo.Lookup(declared)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("%s: %d features in %s", path, len(raw.features), crs)

	out := &domain.FeatureLayer{SourceCRS: crs.String(), Features: make([]domain.Feature, 0, len(raw.features))}
	for _, f := range raw.features {
		feature := domain.Feature{Properties: f.properties}
		if f.geometry != nil {
			feature.Geometry = wkt.MarshalString(crs.Reproject(f.geometry))
		}
		out.Features = append(out.Features, feature)
	}
	return out, nil
}

// DetectFormat returns the explicit format, or infers it from the extension.
func DetectFormat(path, explicit string) (string, error) {
	if explicit != "" {
		return strings.ToLower(explicit), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return FormatGeoJSON, nil
	case ".gpkg":
		return FormatGPKG, nil
	default:
		return "", fmt.Errorf("%w: cannot infer vector format of %q, set format", domain.ErrUnsupportedType, path)
	}
}
