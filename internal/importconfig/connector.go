package importconfig

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ConnectorType tags a connector variant.
type ConnectorType string

// Supported connector types.
const (
	ConnectorFile             ConnectorType = "file"
	ConnectorDuckDBCSV        ConnectorType = "duckdb_csv"
	ConnectorVector           ConnectorType = "vector"
	ConnectorAPI              ConnectorType = "api"
	ConnectorPlugin           ConnectorType = "plugin"
	ConnectorDerived          ConnectorType = "derived"
	ConnectorFileMultiFeature ConnectorType = "file_multi_feature"
)

// AllConnectorTypes returns every connector type in declaration order.
func AllConnectorTypes() []ConnectorType {
	return []ConnectorType{
		ConnectorFile, ConnectorDuckDBCSV, ConnectorVector, ConnectorAPI,
		ConnectorPlugin, ConnectorDerived, ConnectorFileMultiFeature,
	}
}

// ConnectorSpec is implemented by every connector variant.
type ConnectorSpec interface {
	ConnectorType() ConnectorType
}

// FileConnector reads a flat file (CSV, TSV, XLSX or a JSON array).
type FileConnector struct {
	Path      string `yaml:"path" json:"path" validate:"required"`
	Format    string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=csv tsv xlsx json"`
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty" validate:"omitempty,len=1"`
	Sheet     string `yaml:"sheet,omitempty" json:"sheet,omitempty"`
}

// ConnectorType implements ConnectorSpec.
func (*FileConnector) ConnectorType() ConnectorType { return ConnectorFile }

// DuckDBCSVConnector reads a CSV file through DuckDB's CSV sniffer.
type DuckDBCSVConnector struct {
	Path      string `yaml:"path" json:"path" validate:"required"`
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty" validate:"omitempty,len=1"`
	Header    *bool  `yaml:"header,omitempty" json:"header,omitempty"`
}

// ConnectorType implements ConnectorSpec.
func (*DuckDBCSVConnector) ConnectorType() ConnectorType { return ConnectorDuckDBCSV }

// VectorConnector reads one spatial layer (GeoJSON or GeoPackage).
type VectorConnector struct {
	Path   string `yaml:"path" json:"path" validate:"required"`
	Format string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=geojson gpkg"`
	Layer  string `yaml:"layer,omitempty" json:"layer,omitempty"`
	// SourceCRS overrides the CRS declared by the layer, e.g. "EPSG:3163".
	SourceCRS string `yaml:"source_crs,omitempty" json:"source_crs,omitempty"`
}

// ConnectorType implements ConnectorSpec.
func (*VectorConnector) ConnectorType() ConnectorType { return ConnectorVector }

// APIConnector fetches JSON records over HTTP.
type APIConnector struct {
	URL     string            `yaml:"url" json:"url" validate:"required,url"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Params  map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
	Auth    *APIAuth          `yaml:"auth,omitempty" json:"auth,omitempty"`
	// RecordsPath is a gjson path to the array of records in the response body.
	RecordsPath string         `yaml:"records_path,omitempty" json:"records_path,omitempty"`
	Pagination  *APIPagination `yaml:"pagination,omitempty" json:"pagination,omitempty"`
	// RateLimit is the maximum number of requests per second.
	RateLimit float64 `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty" validate:"gte=0"`
}

// ConnectorType implements ConnectorSpec.
func (*APIConnector) ConnectorType() ConnectorType { return ConnectorAPI }

// APIAuth configures request authentication.
// Token may be given inline or read from the environment variable TokenEnv.
type APIAuth struct {
	Type     string `yaml:"type" json:"type" validate:"required,oneof=bearer api_key"`
	Header   string `yaml:"header,omitempty" json:"header,omitempty" validate:"required_if=Type api_key"`
	Token    string `yaml:"token,omitempty" json:"-"`
	TokenEnv string `yaml:"token_env,omitempty" json:"token_env,omitempty" validate:"required_without=Token"`
}

// APIPagination configures page-number pagination.
type APIPagination struct {
	PageParam string `yaml:"page_param" json:"page_param" validate:"required"`
	SizeParam string `yaml:"size_param,omitempty" json:"size_param,omitempty"`
	PageSize  int    `yaml:"page_size,omitempty" json:"page_size,omitempty" validate:"gte=0"`
	StartPage int    `yaml:"start_page,omitempty" json:"start_page,omitempty" validate:"gte=0"`
	MaxPages  int    `yaml:"max_pages,omitempty" json:"max_pages,omitempty" validate:"gte=0"`
}

// PluginConnector delegates loading to a named implementation registered in-process.
type PluginConnector struct {
	Name   string         `yaml:"name" json:"name" validate:"required"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// ConnectorType implements ConnectorSpec.
func (*PluginConnector) ConnectorType() ConnectorType { return ConnectorPlugin }

// DerivedConnector computes a reference from another entity's rows.
type DerivedConnector struct {
	Source     string           `yaml:"source" json:"source" validate:"required"`
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction"`
}

// ConnectorType implements ConnectorSpec.
func (*DerivedConnector) ConnectorType() ConnectorType { return ConnectorDerived }

// MultiFeatureConnector merges several vector layers into one two-level reference.
type MultiFeatureConnector struct {
	Sources []FeatureSource `yaml:"sources" json:"sources" validate:"required,min=1,dive"`
}

// ConnectorType implements ConnectorSpec.
func (*MultiFeatureConnector) ConnectorType() ConnectorType { return ConnectorFileMultiFeature }

// FeatureSource is one layer of a MultiFeatureConnector.
type FeatureSource struct {
	Name      string `yaml:"name" json:"name" validate:"required"`
	Path      string `yaml:"path" json:"path" validate:"required"`
	NameField string `yaml:"name_field" json:"name_field" validate:"required"`
	SourceCRS string `yaml:"source_crs,omitempty" json:"source_crs,omitempty"`
}

// ConnectorConfig wraps one connector variant.
type ConnectorConfig struct {
	Spec ConnectorSpec `validate:"-"`
}

// Connector wraps a spec into a ConnectorConfig.
func Connector(spec ConnectorSpec) ConnectorConfig {
	return ConnectorConfig{Spec: spec}
}

// Type returns the variant tag, or "" when unset.
func (c ConnectorConfig) Type() ConnectorType {
	if c.Spec == nil {
		return ""
	}
	return c.Spec.ConnectorType()
}

// IsDerived reports whether the connector computes rows from another entity.
func (c ConnectorConfig) IsDerived() bool {
	return c.Type() == ConnectorDerived
}

// Derived returns the derived variant, or nil.
func (c ConnectorConfig) Derived() *DerivedConnector {
	d, _ := c.Spec.(*DerivedConnector)
	return d
}

func newSpec(t ConnectorType) (ConnectorSpec, error) {
	switch t {
	case ConnectorFile:
		return &FileConnector{}, nil
	case ConnectorDuckDBCSV:
		return &DuckDBCSVConnector{}, nil
	case ConnectorVector:
		return &VectorConnector{}, nil
	case ConnectorAPI:
		return &APIConnector{}, nil
	case ConnectorPlugin:
		return &PluginConnector{}, nil
	case ConnectorDerived:
		return &DerivedConnector{}, nil
	case ConnectorFileMultiFeature:
		return &MultiFeatureConnector{}, nil
	case "":
		return nil, fmt.Errorf("connector type is required")
	default:
		return nil, fmt.Errorf("unknown connector type %q", t)
	}
}

// UnmarshalYAML decodes the variant selected by the "type" key.
func (c *ConnectorConfig) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Type ConnectorType `yaml:"type"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}
	spec, err := newSpec(head.Type)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	if err := decodeStrict(withoutKey(node, "type"), spec); err != nil {
		return fmt.Errorf("%s connector at line %d: %w", head.Type, node.Line, err)
	}
	c.Spec = spec
	return nil
}

// withoutKey returns a shallow copy of a mapping node minus one key.
func withoutKey(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return node
	}
	out := *node
	out.Content = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			continue
		}
		out.Content = append(out.Content, node.Content[i], node.Content[i+1])
	}
	return &out
}

// decodeStrict decodes node into v rejecting unknown keys, which
// node.Decode alone does not do.
func decodeStrict(node *yaml.Node, v any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}

// MarshalYAML encodes the variant with its "type" key.
func (c ConnectorConfig) MarshalYAML() (any, error) {
	m, err := c.asMap()
	if err != nil {
		return nil, err
	}
	return m, nil
}

// MarshalJSON encodes the variant with its "type" key.
func (c ConnectorConfig) MarshalJSON() ([]byte, error) {
	m, err := c.asMap()
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the variant selected by the "type" key.
func (c *ConnectorConfig) UnmarshalJSON(data []byte) error {
	var head struct {
		Type ConnectorType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	spec, err := newSpec(head.Type)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, spec); err != nil {
		return err
	}
	c.Spec = spec
	return nil
}

func (c ConnectorConfig) asMap() (map[string]any, error) {
	m := map[string]any{}
	if c.Spec == nil {
		return m, nil
	}
	data, err := json.Marshal(c.Spec)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m["type"] = string(c.Type())
	return m, nil
}
