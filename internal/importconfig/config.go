package importconfig

import (
	"encoding/json"
	"sort"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// Config is the top-level import configuration.
type Config struct {
	Version  string         `yaml:"version" json:"version"`
	Entities Entities       `yaml:"entities" json:"entities"`
	Metadata map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Entities groups reference and dataset entities by name.
type Entities struct {
	References map[string]*ReferenceEntityConfig `yaml:"references,omitempty" json:"references,omitempty"`
	Datasets   map[string]*DatasetEntityConfig   `yaml:"datasets,omitempty" json:"datasets,omitempty"`
}

// ReferenceKind tags the nature of a reference entity.
type ReferenceKind string

// Reference kinds.
const (
	KindHierarchical ReferenceKind = "hierarchical"
	KindSpatial      ReferenceKind = "spatial"
	KindCategorical  ReferenceKind = "categorical"
	KindGeneric      ReferenceKind = "generic"
)

// ReferenceEntityConfig declares a reference (lookup) entity.
type ReferenceEntityConfig struct {
	Description string             `yaml:"description,omitempty" json:"description,omitempty"`
	Kind        ReferenceKind      `yaml:"kind,omitempty" json:"kind,omitempty" validate:"omitempty,oneof=hierarchical spatial categorical generic"`
	Connector   ConnectorConfig    `yaml:"connector" json:"connector"`
	Schema      SchemaConfig       `yaml:"schema,omitempty" json:"schema,omitempty"`
	Hierarchy   *HierarchyConfig   `yaml:"hierarchy,omitempty" json:"hierarchy,omitempty"`
	Enrichment  []EnrichmentConfig `yaml:"enrichment,omitempty" json:"enrichment,omitempty" validate:"dive"`
}

// IsHierarchical reports whether the reference is built or stored as a tree.
func (r *ReferenceEntityConfig) IsHierarchical() bool {
	return r.Kind == KindHierarchical
}

// Strategy returns the hierarchy persistence strategy.
func (r *ReferenceEntityConfig) Strategy() domain.HierarchyStrategy {
	if r.Hierarchy == nil || r.Hierarchy.Strategy == "" {
		return domain.StrategyAdjacencyList
	}
	return r.Hierarchy.Strategy
}

// DatasetEntityConfig declares a flat dataset entity.
type DatasetEntityConfig struct {
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Connector   ConnectorConfig `yaml:"connector" json:"connector"`
	Schema      SchemaConfig    `yaml:"schema,omitempty" json:"schema,omitempty"`
	Links       []LinkConfig    `yaml:"links,omitempty" json:"links,omitempty" validate:"dive"`
	Options     DatasetOptions  `yaml:"options,omitempty" json:"options,omitempty"`
}

// SchemaConfig declares the id field and typed fields of an entity.
type SchemaConfig struct {
	IDField string        `yaml:"id_field,omitempty" json:"id_field,omitempty"`
	Fields  []FieldConfig `yaml:"fields,omitempty" json:"fields,omitempty" validate:"dive"`
}

// FieldType is the declared type of a schema field.
type FieldType string

// Field types.
const (
	FieldString   FieldType = "string"
	FieldInteger  FieldType = "integer"
	FieldFloat    FieldType = "float"
	FieldBoolean  FieldType = "boolean"
	FieldGeometry FieldType = "geometry"
	FieldJSON     FieldType = "json"
)

// ColumnType maps the field type to a storage column type.
func (t FieldType) ColumnType() domain.ColumnType {
	switch t {
	case FieldInteger:
		return domain.ColumnInteger
	case FieldFloat:
		return domain.ColumnReal
	case FieldBoolean:
		return domain.ColumnBoolean
	case FieldGeometry:
		return domain.ColumnGeometry
	case FieldJSON:
		return domain.ColumnJSON
	default:
		return domain.ColumnText
	}
}

// FieldConfig declares one schema field.
type FieldConfig struct {
	Name        string    `yaml:"name" json:"name" validate:"required"`
	Type        FieldType `yaml:"type,omitempty" json:"type,omitempty" validate:"omitempty,oneof=string integer float boolean geometry json"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
}

// LinkConfig declares a foreign key from a dataset to a reference.
type LinkConfig struct {
	Entity      string `yaml:"entity" json:"entity" validate:"required"`
	Field       string `yaml:"field" json:"field" validate:"required"`
	TargetField string `yaml:"target_field,omitempty" json:"target_field,omitempty"`
}

// ImportMode controls how an existing table is treated.
type ImportMode string

// Import modes.
const (
	ModeReplace ImportMode = "replace"
	ModeAppend  ImportMode = "append"
)

// DatasetOptions tunes dataset ingestion.
type DatasetOptions struct {
	Mode                   ImportMode `yaml:"mode,omitempty" json:"mode,omitempty" validate:"omitempty,oneof=replace append"`
	ChunkSize              int        `yaml:"chunk_size,omitempty" json:"chunk_size,omitempty" validate:"gte=0"`
	OnlyExistingReferences bool       `yaml:"only_existing_references,omitempty" json:"only_existing_references,omitempty"`
}

// EnrichmentConfig is carried through to the registry for downstream plugins.
type EnrichmentConfig struct {
	Plugin  string         `yaml:"plugin" json:"plugin" validate:"required"`
	Enabled bool           `yaml:"enabled" json:"enabled"`
	Config  map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// HierarchyConfig declares how a hierarchical reference is persisted.
type HierarchyConfig struct {
	Strategy domain.HierarchyStrategy `yaml:"strategy,omitempty" json:"strategy,omitempty" validate:"omitempty,oneof=adjacency_list nested_set"`
	// Levels names the ranks of a stored hierarchy; derived hierarchies take
	// their levels from the extraction block.
	Levels      []Level `yaml:"levels,omitempty" json:"levels,omitempty" validate:"dive"`
	IDField     string  `yaml:"id_field,omitempty" json:"id_field,omitempty"`
	ParentField string  `yaml:"parent_field,omitempty" json:"parent_field,omitempty"`
	LevelField  string  `yaml:"level_field,omitempty" json:"level_field,omitempty"`
	LeftField   string  `yaml:"left_field,omitempty" json:"left_field,omitempty"`
	RightField  string  `yaml:"right_field,omitempty" json:"right_field,omitempty"`
}

// Level is one rank of a hierarchy and the source column carrying it.
type Level struct {
	Name   string `yaml:"name" json:"name" validate:"required"`
	Column string `yaml:"column" json:"column" validate:"required"`
}

// IncompleteRowPolicy decides what happens to rows missing a level value.
type IncompleteRowPolicy string

// Incomplete row policies.
const (
	IncompleteSkip        IncompleteRowPolicy = "skip"
	IncompleteFillUnknown IncompleteRowPolicy = "fill_unknown"
	IncompleteError       IncompleteRowPolicy = "error"
)

// IDStrategy decides how hierarchy node ids are assigned.
type IDStrategy string

// Id strategies.
const (
	IDHash     IDStrategy = "hash"
	IDSequence IDStrategy = "sequence"
	IDExternal IDStrategy = "external"
)

// DefaultPathSeparator joins labels in full_path.
const DefaultPathSeparator = "|"

// ExtractionConfig governs how a hierarchy is carved out of flat rows.
type ExtractionConfig struct {
	Levels            []Level             `yaml:"levels" json:"levels" validate:"required,min=1,dive"`
	IDColumn          string              `yaml:"id_column,omitempty" json:"id_column,omitempty" validate:"required_if=IDStrategy external"`
	NameColumn        string              `yaml:"name_column,omitempty" json:"name_column,omitempty"`
	AdditionalColumns []string            `yaml:"additional_columns,omitempty" json:"additional_columns,omitempty"`
	IncompleteRows    IncompleteRowPolicy `yaml:"incomplete_rows,omitempty" json:"incomplete_rows,omitempty" validate:"omitempty,oneof=skip fill_unknown error"`
	IDStrategy        IDStrategy          `yaml:"id_strategy,omitempty" json:"id_strategy,omitempty" validate:"omitempty,oneof=hash sequence external"`
	// IntermediateIDStrategy assigns ids to non-leaf levels when IDStrategy is external.
	IntermediateIDStrategy IDStrategy `yaml:"intermediate_id_strategy,omitempty" json:"intermediate_id_strategy,omitempty" validate:"omitempty,oneof=hash sequence"`
	PathSeparator          string     `yaml:"path_separator,omitempty" json:"path_separator,omitempty"`
}

// SourceColumns returns every source column the extraction reads, de-duplicated
// in first-seen order.
func (e *ExtractionConfig) SourceColumns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, l := range e.Levels {
		add(l.Column)
	}
	add(e.IDColumn)
	add(e.NameColumn)
	for _, c := range e.AdditionalColumns {
		add(c)
	}
	return cols
}

// StrategyForLevel returns the id strategy applied at a depth.
func (e *ExtractionConfig) StrategyForLevel(depth int) IDStrategy {
	if e.IDStrategy == IDExternal && depth < len(e.Levels)-1 {
		return e.IntermediateIDStrategy
	}
	return e.IDStrategy
}

func (e *ExtractionConfig) applyDefaults() {
	if e.IncompleteRows == "" {
		e.IncompleteRows = IncompleteSkip
	}
	if e.IDStrategy == "" {
		e.IDStrategy = IDHash
	}
	if e.PathSeparator == "" {
		e.PathSeparator = DefaultPathSeparator
	}
}

func (h *HierarchyConfig) applyDefaults() {
	if h.Strategy == "" {
		h.Strategy = domain.StrategyAdjacencyList
	}
	if h.IDField == "" {
		h.IDField = domain.ColID
	}
	if h.ParentField == "" {
		h.ParentField = domain.ColParentID
	}
	if h.LevelField == "" {
		h.LevelField = domain.ColLevel
	}
	if h.LeftField == "" {
		h.LeftField = domain.ColLeft
	}
	if h.RightField == "" {
		h.RightField = domain.ColRight
	}
}

// DatasetNames returns dataset names in sorted order.
func (c *Config) DatasetNames() []string {
	names := make([]string, 0, len(c.Entities.Datasets))
	for n := range c.Entities.Datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ReferenceNames returns reference names in sorted order.
func (c *Config) ReferenceNames() []string {
	names := make([]string, 0, len(c.Entities.References))
	for n := range c.Entities.References {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DerivedReferences returns the sorted names of references with a derived connector.
func (c *Config) DerivedReferences() []string {
	var names []string
	for _, n := range c.ReferenceNames() {
		if c.Entities.References[n].Connector.IsDerived() {
			names = append(names, n)
		}
	}
	return names
}

// DirectReferences returns the sorted names of references loaded by their own connector.
func (c *Config) DirectReferences() []string {
	var names []string
	for _, n := range c.ReferenceNames() {
		if !c.Entities.References[n].Connector.IsDerived() {
			names = append(names, n)
		}
	}
	return names
}

// ToMap converts any configuration value into a generic map, for the registry.
func ToMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
