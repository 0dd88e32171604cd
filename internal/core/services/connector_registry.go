package services

import (
	"sort"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/core/ports/driving"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// Ensure ConnectorRegistry implements the interface.
var _ driving.ConnectorRegistry = (*ConnectorRegistry)(nil)

// ConnectorRegistry provides information about available connector types.
type ConnectorRegistry struct {
	connectors map[string]domain.ConnectorType
}

// NewConnectorRegistry creates a registry describing the connectors built by
// factory plus the derived and file_multi_feature types handled by the
// importer itself. A nil factory lists every known type.
func NewConnectorRegistry(factory driven.ConnectorFactory) *ConnectorRegistry {
	r := &ConnectorRegistry{connectors: make(map[string]domain.ConnectorType)}

	available := map[importconfig.ConnectorType]bool{
		importconfig.ConnectorDerived:          true,
		importconfig.ConnectorFileMultiFeature: true,
	}
	if factory == nil {
		for _, t := range importconfig.AllConnectorTypes() {
			available[t] = true
		}
	} else {
		for _, t := range factory.SupportedTypes() {
			available[t] = true
		}
	}

	for _, c := range builtinConnectors() {
		if available[importconfig.ConnectorType(c.ID)] {
			r.connectors[c.ID] = c
		}
	}
	return r
}

func builtinConnectors() []domain.ConnectorType {
	return []domain.ConnectorType{
		{
			ID:          string(importconfig.ConnectorFile),
			Name:        "File",
			Description: "Read CSV, TSV, XLSX or JSON array files, locally or from s3://",
			ConfigKeys: []domain.ConfigKey{
				{Key: "path", Description: "File path or s3://bucket/key", Required: true},
				{Key: "format", Description: "csv, tsv, xlsx or json", Default: "from extension"},
				{Key: "delimiter", Description: "Field delimiter for csv", Default: ","},
				{Key: "sheet", Description: "Worksheet name for xlsx", Default: "first sheet"},
			},
		},
		{
			ID:          string(importconfig.ConnectorDuckDBCSV),
			Name:        "DuckDB CSV",
			Description: "Read CSV files with DuckDB type sniffing",
			ConfigKeys: []domain.ConfigKey{
				{Key: "path", Description: "CSV file path", Required: true},
				{Key: "delimiter", Description: "Field delimiter", Default: "auto"},
				{Key: "header", Description: "Whether the first line is a header", Default: "auto"},
			},
		},
		{
			ID:          string(importconfig.ConnectorVector),
			Name:        "Vector layer",
			Description: "Read a GeoJSON or GeoPackage layer reprojected to " + domain.CanonicalCRS,
			ConfigKeys: []domain.ConfigKey{
				{Key: "path", Description: "Layer file path", Required: true},
				{Key: "format", Description: "geojson or gpkg", Default: "from extension"},
				{Key: "layer", Description: "GeoPackage table name", Default: "first feature table"},
				{Key: "source_crs", Description: "Override the declared CRS, e.g. EPSG:3163"},
			},
		},
		{
			ID:           string(importconfig.ConnectorAPI),
			Name:         "HTTP API",
			Description:  "Fetch JSON records over HTTP with optional pagination",
			RequiresAuth: true,
			ConfigKeys: []domain.ConfigKey{
				{Key: "url", Description: "Endpoint URL", Required: true},
				{Key: "records_path", Description: "gjson path to the records array", Default: "response root"},
				{Key: "auth", Description: "bearer or api_key authentication"},
				{Key: "pagination", Description: "Page-number pagination settings"},
				{Key: "rate_limit", Description: "Maximum requests per second", Default: "unlimited"},
			},
		},
		{
			ID:          string(importconfig.ConnectorPlugin),
			Name:        "Plugin",
			Description: "Delegate loading to a connector registered in-process",
			ConfigKeys: []domain.ConfigKey{
				{Key: "name", Description: "Registered plugin name", Required: true},
				{Key: "params", Description: "Parameters passed to the plugin"},
			},
		},
		{
			ID:            string(importconfig.ConnectorDerived),
			Name:          "Derived",
			Description:   "Extract a hierarchy from the rows of another entity",
			ReferenceOnly: true,
			ConfigKeys: []domain.ConfigKey{
				{Key: "source", Description: "Dataset or derived reference to read", Required: true},
				{Key: "extraction", Description: "Levels, id strategy and incomplete row policy", Required: true},
			},
		},
		{
			ID:            string(importconfig.ConnectorFileMultiFeature),
			Name:          "Multi-feature file",
			Description:   "Merge several vector layers into one typed spatial reference",
			ReferenceOnly: true,
			ConfigKeys: []domain.ConfigKey{
				{Key: "sources", Description: "List of {name, path, name_field}", Required: true},
			},
		},
	}
}

// List returns all connector types ordered by ID.
func (r *ConnectorRegistry) List() []domain.ConnectorType {
	result := make([]domain.ConnectorType, 0, len(r.connectors))
	for _, c := range r.connectors {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Get returns a specific connector type by ID.
func (r *ConnectorRegistry) Get(id string) (*domain.ConnectorType, error) {
	c, ok := r.connectors[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}
