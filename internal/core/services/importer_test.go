package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loam/internal/adapters/driven/storage/sqlstore"
	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/importconfig"
)

type importFixture struct {
	store    *sqlstore.Store
	registry *EntityRegistry
	factory  *mockConnectorFactory
	features *mockFeatureReader
	importer *Importer
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	ctx := context.Background()
	store := setupTestStore(t)
	reg, err := NewEntityRegistry(ctx, store.EntityStore())
	require.NoError(t, err)

	factory := newMockConnectorFactory()
	factory.add("occurrences.csv", occurrenceTable())
	factory.add("plots.csv", &domain.Table{
		Columns: []string{"plot_id", "name", "elevation"},
		Rows: [][]any{
			{"1", "Mont Panié", "1628"},
			{"2", "Rivière Bleue", "160"},
		},
	})

	features := &mockFeatureReader{layers: map[string]*domain.FeatureLayer{
		"provinces.geojson": {Features: []domain.Feature{
			{Properties: map[string]any{"nom": "Province Sud"}, Geometry: "POINT (166.4 -22.2)"},
			{Properties: map[string]any{"nom": "Province Nord"}, Geometry: "POINT (165.0 -21.0)"},
		}},
		"communes.geojson": {Features: []domain.Feature{
			{Properties: map[string]any{"nom": "Nouméa"}, Geometry: "POINT (166.45 -22.27)"},
		}},
	}}

	return &importFixture{
		store:    store,
		registry: reg,
		factory:  factory,
		features: features,
		importer: NewImporter(reg, store.TableStore(), factory, features, store.ImportRunStore()),
	}
}

func fullConfig() *importconfig.Config {
	return &importconfig.Config{
		Version: "1.0",
		Entities: importconfig.Entities{
			Datasets: map[string]*importconfig.DatasetEntityConfig{
				"occurrences": {
					Connector: importconfig.Connector(&importconfig.FileConnector{Path: "occurrences.csv"}),
					Schema: importconfig.SchemaConfig{
						IDField: "occ_id",
						Fields: []importconfig.FieldConfig{
							{Name: "occ_id", Type: importconfig.FieldInteger},
							{Name: "family", Type: importconfig.FieldString},
						},
					},
				},
			},
			References: map[string]*importconfig.ReferenceEntityConfig{
				"taxons": {
					Connector: importconfig.Connector(&importconfig.DerivedConnector{
						Source: "occurrences",
						Extraction: importconfig.ExtractionConfig{
							Levels:     taxonLevels(),
							NameColumn: "full_name",
						},
					}),
					Hierarchy: &importconfig.HierarchyConfig{Strategy: domain.StrategyNestedSet},
				},
				"plots": {
					Connector: importconfig.Connector(&importconfig.FileConnector{Path: "plots.csv"}),
					Schema: importconfig.SchemaConfig{
						IDField: "plot_id",
						Fields: []importconfig.FieldConfig{
							{Name: "plot_id", Type: importconfig.FieldInteger},
							{Name: "elevation", Type: importconfig.FieldFloat},
						},
					},
				},
				"shapes": {
					Connector: importconfig.Connector(&importconfig.MultiFeatureConnector{
						Sources: []importconfig.FeatureSource{
							{Name: "provinces", Path: "provinces.geojson", NameField: "nom"},
							{Name: "communes", Path: "communes.geojson", NameField: "nom"},
						},
					}),
				},
			},
		},
	}
}

func TestImporter_Import_AllPhases(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(t)

	result, err := f.importer.Import(ctx, fullConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"[Dataset] occurrences: 5 rows -> dataset_occurrences",
		"[Derived Ref] taxons: 8 rows -> entity_taxons (family=2, genus=2, species=4)",
		"[Direct Ref] plots: 2 rows -> entity_plots",
		"[Direct Ref] shapes: 5 rows -> entity_shapes (2 types, 3 features)",
	}, result.Lines())
	assert.NotEmpty(t, result.RunID)

	entities, err := f.registry.ListEntities(ctx, "")
	require.NoError(t, err)
	require.Len(t, entities, 4)

	taxons, err := f.registry.Get(ctx, "taxons")
	require.NoError(t, err)
	assert.Equal(t, domain.KindReference, taxons.Kind)
	assert.Equal(t, "entity_taxons", taxons.TableName)
	assert.Equal(t, "hierarchical", taxons.Config["kind"])

	occ, err := f.registry.Get(ctx, "occurrences")
	require.NoError(t, err)
	assert.Equal(t, domain.KindDataset, occ.Kind)

	cols, err := f.store.TableStore().Columns(ctx, "entity_taxons")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "parent_id", "level", "rank_name", "rank_value", "full_path", "full_name", "lft", "rght"}, cols)

	roots, err := f.store.TableStore().Query(ctx, "SELECT lft, rght FROM entity_taxons WHERE parent_id IS NULL ORDER BY lft")
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, int64(1), roots[0]["lft"])
	assert.Equal(t, int64(16), roots[1]["rght"])

	plots, err := f.store.TableStore().ReadTable(ctx, "entity_plots", []string{"plot_id", "elevation"})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), 1628.0}, plots.Rows[0])

	shapes, err := f.store.TableStore().Query(ctx, "SELECT name, type, level FROM entity_shapes WHERE parent_id IS NOT NULL ORDER BY name")
	require.NoError(t, err)
	require.Len(t, shapes, 3)
	assert.Equal(t, "Nouméa", shapes[0]["name"])
	assert.Equal(t, "communes", shapes[0]["type"])
	assert.Equal(t, int64(1), shapes[0]["level"])
}

func TestImporter_Import_IsRepeatable(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(t)

	_, err := f.importer.Import(ctx, fullConfig())
	require.NoError(t, err)
	first, err := f.store.TableStore().Query(ctx, "SELECT id FROM entity_taxons ORDER BY full_path")
	require.NoError(t, err)

	_, err = f.importer.Import(ctx, fullConfig())
	require.NoError(t, err)
	second, err := f.store.TableStore().Query(ctx, "SELECT id FROM entity_taxons ORDER BY full_path")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestImporter_Import_CycleLeavesNoTables(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(t)

	cfg := fullConfig()
	cfg.Entities.References = map[string]*importconfig.ReferenceEntityConfig{
		"a": derivedRef("b"),
		"b": derivedRef("a"),
	}

	result, err := f.importer.Import(ctx, cfg)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrCircularDependency)

	var importErr *domain.ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, domain.PhaseDerivedReferences, importErr.Phase)
	assert.Equal(t, "a", importErr.Entity)

	for _, table := range []string{"entity_a", "entity_b", "dataset_occurrences"} {
		exists, err := f.store.TableStore().TableExists(ctx, table)
		require.NoError(t, err)
		assert.False(t, exists, table)
	}
	entities, err := f.registry.ListEntities(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestImporter_Import_UnknownSource(t *testing.T) {
	f := newImportFixture(t)
	cfg := fullConfig()
	cfg.Entities.References["taxons"] = derivedRef("nothing")

	_, err := f.importer.Import(context.Background(), cfg)
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestImporter_Import_InvalidConfig(t *testing.T) {
	f := newImportFixture(t)
	cfg := fullConfig()
	cfg.Entities.Datasets["occurrences"].Connector = importconfig.Connector(&importconfig.FileConnector{})

	_, err := f.importer.Import(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	var importErr *domain.ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, domain.PhaseConfig, importErr.Phase)
}

func TestImporter_Import_DatasetDataError(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(t)
	cfg := fullConfig()
	cfg.Entities.Datasets["occurrences"].Schema.Fields = append(
		cfg.Entities.Datasets["occurrences"].Schema.Fields,
		importconfig.FieldConfig{Name: "altitude", Type: importconfig.FieldFloat},
	)

	result, err := f.importer.Import(ctx, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingColumn)

	var importErr *domain.ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, domain.PhaseDatasets, importErr.Phase)
	assert.Equal(t, "occurrences", importErr.Entity)
	assert.Contains(t, err.Error(), "[Dataset] occurrences")

	require.NotNil(t, result)
	assert.Empty(t, result.Entities)

	runs, err := f.importer.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "altitude")
}

func TestImporter_Import_IncompleteRowsError(t *testing.T) {
	f := newImportFixture(t)
	f.factory.add("occurrences.csv", incompleteTable())
	cfg := fullConfig()
	cfg.Entities.References["taxons"].Connector.Derived().Extraction.IncompleteRows = importconfig.IncompleteError

	_, err := f.importer.Import(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncompleteRow)

	var importErr *domain.ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, domain.PhaseDerivedReferences, importErr.Phase)
	assert.Equal(t, "taxons", importErr.Entity)
}

func TestImporter_Import_AppendMode(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(t)
	cfg := &importconfig.Config{Entities: importconfig.Entities{
		Datasets: map[string]*importconfig.DatasetEntityConfig{
			"plots": {
				Connector: importconfig.Connector(&importconfig.FileConnector{Path: "plots.csv"}),
				Options:   importconfig.DatasetOptions{Mode: importconfig.ModeAppend, ChunkSize: 1},
			},
		},
	}}

	_, err := f.importer.Import(ctx, cfg)
	require.NoError(t, err)
	_, err = f.importer.Import(ctx, cfg)
	require.NoError(t, err)

	rows, err := f.store.TableStore().ReadTable(ctx, "dataset_plots", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, rows.Len())
}

func TestImporter_Import_OnlyExistingReferences(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(t)

	// An earlier run imported the plots reference.
	def := domain.TableDef{Name: "entity_plots", Columns: []domain.Column{{Name: "id", Type: domain.ColumnInteger, PrimaryKey: true}}}
	require.NoError(t, f.store.TableStore().ReplaceTable(ctx, def, [][]any{{int64(1)}, {int64(2)}}, 10))
	require.NoError(t, f.registry.RegisterEntity(ctx, "plots", domain.KindReference, "entity_plots", nil))

	f.factory.add("trees.csv", &domain.Table{
		Columns: []string{"tree_id", "plot_id"},
		Rows: [][]any{
			{"t1", "1"},
			{"t2", "3"},
			{"t3", nil},
			{"t4", "2"},
		},
	})
	cfg := &importconfig.Config{Entities: importconfig.Entities{
		References: map[string]*importconfig.ReferenceEntityConfig{
			"plots": {Connector: importconfig.Connector(&importconfig.FileConnector{Path: "plots.csv"})},
		},
		Datasets: map[string]*importconfig.DatasetEntityConfig{
			"trees": {
				Connector: importconfig.Connector(&importconfig.FileConnector{Path: "trees.csv"}),
				Links:     []importconfig.LinkConfig{{Entity: "plots", Field: "plot_id"}},
				Options:   importconfig.DatasetOptions{OnlyExistingReferences: true},
			},
		},
	}}

	result, err := f.importer.Import(ctx, cfg)
	require.NoError(t, err)

	trees := result.ForPhase(domain.PhaseDatasets)
	require.Len(t, trees, 1)
	assert.Equal(t, 3, trees[0].Rows)
	assert.Equal(t, "1 rows without reference dropped", trees[0].Detail)
}

func TestImporter_Import_Empty(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.importer.Import(context.Background(), &importconfig.Config{Version: "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"[Dataset] nothing to import",
		"[Derived Ref] nothing to import",
		"[Direct Ref] nothing to import",
	}, result.Lines())
}

func TestImporter_Import_NilConfig(t *testing.T) {
	f := newImportFixture(t)

	_, err := f.importer.Import(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestImporter_ImportFile(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "import.yml")
	doc := `version: "1.0"
entities:
  datasets:
    occurrences:
      connector:
        type: file
        path: occurrences.csv
  references:
    taxons:
      connector:
        type: derived
        source: occurrences
        extraction:
          levels:
            - {name: family, column: family}
            - {name: genus, column: genus}
          id_strategy: sequence
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	result, err := f.importer.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Len(t, result.ForPhase(domain.PhaseDerivedReferences), 1)

	runs, err := f.importer.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunSucceeded, runs[0].Status)
	assert.Equal(t, path, runs[0].ConfigPath)
	assert.Contains(t, runs[0].Summary, "[Derived Ref] taxons: 4 rows")
}

func TestImporter_ImportFile_Missing(t *testing.T) {
	f := newImportFixture(t)

	_, err := f.importer.ImportFile(context.Background(), filepath.Join(t.TempDir(), "none.yml"))
	var importErr *domain.ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, domain.PhaseConfig, importErr.Phase)
}

func TestImporter_Import_MultiFeatureMissingName(t *testing.T) {
	f := newImportFixture(t)
	f.features.layers["communes.geojson"].Features = append(
		f.features.layers["communes.geojson"].Features,
		domain.Feature{Properties: map[string]any{"code": "98818"}},
	)

	_, err := f.importer.Import(context.Background(), fullConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncompleteRow)

	var importErr *domain.ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, domain.PhaseDirectReferences, importErr.Phase)
	assert.Equal(t, "shapes", importErr.Entity)
}

func TestImporter_Runs_WithoutStore(t *testing.T) {
	imp := NewImporter(nil, nil, nil, nil, nil)

	runs, err := imp.Runs(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
