package importconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loam/internal/core/domain"
)

const fullConfig = `
version: "1.0"
entities:
  datasets:
    occurrences:
      description: Field occurrences
      connector:
        type: file
        path: imports/occurrences.csv
      schema:
        id_field: id
        fields:
          - name: id
            type: integer
          - name: taxon_id
            type: integer
      links:
        - entity: taxons
          field: taxon_id
      options:
        chunk_size: 500
  references:
    taxons:
      connector:
        type: derived
        source: occurrences
        extraction:
          levels:
            - name: family
              column: family
            - name: genus
              column: genus
            - name: species
              column: species
          name_column: taxaname
          incomplete_rows: fill_unknown
      hierarchy:
        strategy: nested_set
    plots:
      kind: spatial
      connector:
        type: vector
        path: imports/plots.geojson
    shapes:
      connector:
        type: file_multi_feature
        sources:
          - name: Provinces
            path: imports/provinces.geojson
            name_field: nom
          - name: Communes
            path: imports/communes.gpkg
            name_field: nom
metadata:
  project: demo
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig))
	require.NoError(t, err)

	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, []string{"occurrences"}, cfg.DatasetNames())
	assert.Equal(t, []string{"plots", "shapes", "taxons"}, cfg.ReferenceNames())
	assert.Equal(t, []string{"taxons"}, cfg.DerivedReferences())
	assert.Equal(t, []string{"plots", "shapes"}, cfg.DirectReferences())
	assert.Equal(t, "demo", cfg.Metadata["project"])

	occ := cfg.Entities.Datasets["occurrences"]
	file, ok := occ.Connector.Spec.(*FileConnector)
	require.True(t, ok)
	assert.Equal(t, "imports/occurrences.csv", file.Path)
	assert.Equal(t, ModeReplace, occ.Options.Mode, "mode defaults to replace")
	assert.Equal(t, 500, occ.Options.ChunkSize)
	assert.Equal(t, "id", occ.Links[0].TargetField, "target field defaults to id")

	taxons := cfg.Entities.References["taxons"]
	assert.Equal(t, KindHierarchical, taxons.Kind)
	assert.Equal(t, domain.StrategyNestedSet, taxons.Strategy())
	derived := taxons.Connector.Derived()
	require.NotNil(t, derived)
	assert.Equal(t, "occurrences", derived.Source)
	assert.Equal(t, IDHash, derived.Extraction.IDStrategy, "id strategy defaults to hash")
	assert.Equal(t, IncompleteFillUnknown, derived.Extraction.IncompleteRows)
	assert.Equal(t, DefaultPathSeparator, derived.Extraction.PathSeparator)
	assert.Equal(t, "parent_id", taxons.Hierarchy.ParentField)

	assert.Equal(t, KindSpatial, cfg.Entities.References["shapes"].Kind)
	assert.Equal(t, KindSpatial, cfg.Entities.References["plots"].Kind)
	multi, ok := cfg.Entities.References["shapes"].Connector.Spec.(*MultiFeatureConnector)
	require.True(t, ok)
	require.Len(t, multi.Sources, 2)
	assert.Equal(t, "Communes", multi.Sources[1].Name)
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "empty document",
			yaml:    "",
			wantMsg: "empty document",
		},
		{
			name: "unknown top-level key",
			yaml: `
version: "1"
entites: {}
`,
			wantMsg: "entites",
		},
		{
			name: "unknown connector type",
			yaml: `
entities:
  datasets:
    plots:
      connector:
        type: ftp
        path: x
`,
			wantMsg: `unknown connector type "ftp"`,
		},
		{
			name: "unknown connector key",
			yaml: `
entities:
  datasets:
    plots:
      connector:
        type: file
        path: plots.csv
        sheet_name: one
`,
			wantMsg: "sheet_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name: "external id strategy without id column",
			yaml: `
entities:
  datasets:
    occurrences:
      connector: {type: file, path: occ.csv}
  references:
    taxons:
      connector:
        type: derived
        source: occurrences
        extraction:
          id_strategy: external
          levels:
            - {name: species, column: species}
`,
			wantMsg: "references.taxons.connector.extraction.id_column is required when id_strategy is external",
		},
		{
			name: "external multi-level without intermediate strategy",
			yaml: `
entities:
  datasets:
    occurrences:
      connector: {type: file, path: occ.csv}
  references:
    taxons:
      connector:
        type: derived
        source: occurrences
        extraction:
          id_strategy: external
          id_column: taxon_id
          levels:
            - {name: genus, column: genus}
            - {name: species, column: species}
`,
			wantMsg: "intermediate_id_strategy is required",
		},
		{
			name: "intermediate strategy without external",
			yaml: `
entities:
  datasets:
    occurrences:
      connector: {type: file, path: occ.csv}
  references:
    taxons:
      connector:
        type: derived
        source: occurrences
        extraction:
          intermediate_id_strategy: hash
          levels:
            - {name: species, column: species}
`,
			wantMsg: "only applies when id_strategy is external",
		},
		{
			name: "derived connector without levels",
			yaml: `
entities:
  references:
    taxons:
      connector:
        type: derived
        source: occurrences
        extraction: {}
`,
			wantMsg: "references.taxons.connector.extraction.levels is required",
		},
		{
			name: "dataset with derived connector",
			yaml: `
entities:
  datasets:
    occurrences:
      connector:
        type: derived
        source: other
        extraction:
          levels: [{name: a, column: a}]
`,
			wantMsg: `type "derived" is only valid for references`,
		},
		{
			name: "dataset without connector",
			yaml: `
entities:
  datasets:
    occurrences:
      description: nothing
`,
			wantMsg: "datasets.occurrences.connector.type is required",
		},
		{
			name: "link to unknown reference",
			yaml: `
entities:
  datasets:
    occurrences:
      connector: {type: file, path: occ.csv}
      links:
        - {entity: taxa, field: taxon_id}
`,
			wantMsg: `unknown reference "taxa"`,
		},
		{
			name: "name shared by dataset and reference",
			yaml: `
entities:
  datasets:
    plots:
      connector: {type: file, path: plots.csv}
  references:
    plots:
      connector: {type: file, path: plots.csv}
`,
			wantMsg: "name already used by datasets.plots",
		},
		{
			name: "invalid entity name",
			yaml: `
entities:
  datasets:
    "my-plots":
      connector: {type: file, path: plots.csv}
`,
			wantMsg: "entity name must match",
		},
		{
			name: "multi-feature without sources",
			yaml: `
entities:
  references:
    shapes:
      connector:
        type: file_multi_feature
        sources: []
`,
			wantMsg: "references.shapes.connector.sources",
		},
		{
			name: "multi-feature duplicate source",
			yaml: `
entities:
  references:
    shapes:
      connector:
        type: file_multi_feature
        sources:
          - {name: A, path: a.geojson, name_field: nom}
          - {name: A, path: b.geojson, name_field: nom}
`,
			wantMsg: `duplicate source "A"`,
		},
		{
			name: "api connector with bad url",
			yaml: `
entities:
  datasets:
    species:
      connector:
        type: api
        url: not a url
`,
			wantMsg: "datasets.species.connector.url must be a valid URL",
		},
		{
			name: "bad import mode",
			yaml: `
entities:
  datasets:
    plots:
      connector: {type: file, path: plots.csv}
      options: {mode: merge}
`,
			wantMsg: "datasets.plots.options.mode must be one of",
		},
		{
			name: "spatial derived reference",
			yaml: `
entities:
  datasets:
    occurrences:
      connector: {type: file, path: occ.csv}
  references:
    taxons:
      kind: spatial
      connector:
        type: derived
        source: occurrences
        extraction:
          levels: [{name: a, column: a}]
`,
			wantMsg: "derived references cannot be spatial",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	_, err := Parse([]byte(`
entities:
  datasets:
    a:
      connector: {type: file}
    b:
      connector: {type: vector}
`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 2)
	assert.Contains(t, err.Error(), "2 problems")
}

func TestLoad(t *testing.T) {
	dir, err := os.MkdirTemp("", "loam-config-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	path := filepath.Join(dir, "import.yml")
	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Entities.References, 3)

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestNew_ValidatesGoValues(t *testing.T) {
	cfg, err := New("1", map[string]*ReferenceEntityConfig{
		"taxons": {
			Connector: Connector(&DerivedConnector{
				Source: "occurrences",
				Extraction: ExtractionConfig{
					Levels: []Level{{Name: "genus", Column: "genus"}},
				},
			}),
		},
	}, map[string]*DatasetEntityConfig{
		"occurrences": {Connector: Connector(&FileConnector{Path: "occ.csv"})},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindHierarchical, cfg.Entities.References["taxons"].Kind)

	_, err = New("1", map[string]*ReferenceEntityConfig{
		"taxons": {Connector: Connector(&DerivedConnector{})},
	}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestConnectorConfig_JSONRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig))
	require.NoError(t, err)

	m, err := ToMap(cfg.Entities.References["taxons"])
	require.NoError(t, err)
	conn, ok := m["connector"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "derived", conn["type"])
	assert.Equal(t, "occurrences", conn["source"])

	data, err := json.Marshal(cfg.Entities.References["taxons"])
	require.NoError(t, err)
	var back ReferenceEntityConfig
	require.NoError(t, json.Unmarshal(data, &back))
	derived := back.Connector.Derived()
	require.NotNil(t, derived)
	assert.Len(t, derived.Extraction.Levels, 3)
}

func TestAPIAuth_TokenNotSerialised(t *testing.T) {
	spec := &APIConnector{
		URL:  "https://api.example.org/taxa",
		Auth: &APIAuth{Type: "bearer", Token: "s3cret"},
	}
	m, err := ToMap(Connector(spec))
	require.NoError(t, err)
	auth, ok := m["auth"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, auth, "token")
}

func TestExtractionConfig(t *testing.T) {
	e := ExtractionConfig{
		Levels: []Level{
			{Name: "family", Column: "family"},
			{Name: "genus", Column: "genus"},
			{Name: "species", Column: "species"},
		},
		IDColumn:               "taxon_id",
		NameColumn:             "species",
		AdditionalColumns:      []string{"author", "family"},
		IDStrategy:             IDExternal,
		IntermediateIDStrategy: IDSequence,
	}

	assert.Equal(t, []string{"family", "genus", "species", "taxon_id", "author"}, e.SourceColumns())
	assert.Equal(t, IDSequence, e.StrategyForLevel(0))
	assert.Equal(t, IDSequence, e.StrategyForLevel(1))
	assert.Equal(t, IDExternal, e.StrategyForLevel(2))
}
