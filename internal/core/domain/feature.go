package domain

// CanonicalCRS is the coordinate reference system all geometries are stored in.
const CanonicalCRS = "EPSG:4326"

// Feature is one spatial record read from a vector layer.
// Geometry is WKT already reprojected into CanonicalCRS.
type Feature struct {
	Properties map[string]any
	Geometry   string
}

// FeatureLayer is the content of one vector source.
type FeatureLayer struct {
	// SourceCRS is the layer's native CRS before reprojection.
	SourceCRS string
	Features  []Feature
}
