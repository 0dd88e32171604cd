package vector

import (
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/gjson"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// readGeoJSON decodes a FeatureCollection. The legacy "crs" member is
// honoured; without it the layer is EPSG:4326 as RFC 7946 requires.
func readGeoJSON(path string) (*rawLayer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrData, err)
	}

	layer := &rawLayer{
		crs:      gjson.GetBytes(data, "crs.properties.name").String(),
		features: make([]rawFeature, 0, len(fc.Features)),
	}
	for _, f := range fc.Features {
		props := map[string]any(f.Properties)
		if props == nil {
			props = map[string]any{}
		}
		layer.features = append(layer.features, rawFeature{properties: props, geometry: f.Geometry})
	}
	return layer, nil
}
