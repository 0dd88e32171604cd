package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/core/ports/driving"
	"github.com/custodia-labs/loam/internal/importconfig"
	"github.com/custodia-labs/loam/internal/logger"
)

// Ensure Importer implements the interface.
var _ driving.Importer = (*Importer)(nil)

// Importer runs an import configuration in three strictly sequential phases:
// datasets, derived references, then direct references.
type Importer struct {
	registry  driving.EntityRegistry
	tables    driven.TableStore
	factory   driven.ConnectorFactory
	features  driven.FeatureReader
	runStore  driven.ImportRunStore
	builder   *HierarchyBuilder
	chunkSize int
	now       func() time.Time
}

// NewImporter creates a new importer.
// The feature reader is only needed by file_multi_feature references and the
// run store is optional; when nil, runs are not recorded.
func NewImporter(
	registry driving.EntityRegistry,
	tables driven.TableStore,
	factory driven.ConnectorFactory,
	features driven.FeatureReader,
	runStore driven.ImportRunStore,
) *Importer {
	return &Importer{
		registry:  registry,
		tables:    tables,
		factory:   factory,
		features:  features,
		runStore:  runStore,
		builder:   NewHierarchyBuilder(tables, registry),
		chunkSize: domain.DefaultChunkSize,
		now:       time.Now,
	}
}

// SetChunkSize sets the default insert batch size.
func (i *Importer) SetChunkSize(n int) {
	if n > 0 {
		i.chunkSize = n
	}
}

// ImportFile loads a configuration file and imports it.
func (i *Importer) ImportFile(ctx context.Context, path string) (*domain.ImportResult, error) {
	cfg, err := importconfig.Load(path)
	if err != nil {
		return nil, &domain.ImportError{Phase: domain.PhaseConfig, Err: err}
	}
	return i.run(ctx, cfg, path)
}

// Import executes cfg.
func (i *Importer) Import(ctx context.Context, cfg *importconfig.Config) (*domain.ImportResult, error) {
	return i.run(ctx, cfg, "")
}

// Runs returns the most recent import runs.
func (i *Importer) Runs(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	if i.runStore == nil {
		return []domain.ImportRun{}, nil
	}
	return i.runStore.List(ctx, limit)
}

func (i *Importer) run(ctx context.Context, cfg *importconfig.Config, path string) (*domain.ImportResult, error) {
	if cfg == nil {
		return nil, &domain.ImportError{Phase: domain.PhaseConfig, Err: fmt.Errorf("%w: no configuration", domain.ErrConfiguration)}
	}

	// 1. Validate the whole configuration before any I/O
	if err := cfg.Validate(); err != nil {
		return nil, &domain.ImportError{Phase: domain.PhaseConfig, Err: err}
	}

	// 2. Resolve derived reference order; a cycle or unknown source stops
	// the import before anything is written
	order, err := DerivedOrder(cfg)
	if err != nil {
		var depErr *DependencyError
		entity := ""
		if errors.As(err, &depErr) {
			entity = depErr.Entity
		}
		return nil, &domain.ImportError{Phase: domain.PhaseDerivedReferences, Entity: entity, Err: err}
	}

	result := &domain.ImportResult{
		RunID:     uuid.New().String(),
		StartedAt: i.now().UTC(),
	}
	run := domain.ImportRun{
		ID:         result.RunID,
		ConfigPath: path,
		Status:     domain.RunRunning,
		StartedAt:  result.StartedAt,
	}
	i.saveRun(ctx, run)

	// 3. Run the phases
	err = i.runPhases(ctx, cfg, order, result)
	result.FinishedAt = i.now().UTC()

	run.FinishedAt = result.FinishedAt
	run.Summary = result.Summary()
	if err != nil {
		run.Status = domain.RunFailed
		run.Error = err.Error()
		logger.Error("import failed: %v", err)
	} else {
		run.Status = domain.RunSucceeded
	}
	i.saveRun(ctx, run)

	return result, err
}

func (i *Importer) runPhases(ctx context.Context, cfg *importconfig.Config, derived []string, result *domain.ImportResult) error {
	logger.Section("Datasets")
	for _, name := range cfg.DatasetNames() {
		entity, err := i.importDataset(ctx, name, cfg.Entities.Datasets[name])
		if err != nil {
			return &domain.ImportError{Phase: domain.PhaseDatasets, Entity: name, Err: err}
		}
		i.record(result, entity)
	}
	result.MarkPhase(domain.PhaseDatasets)

	logger.Section("Derived references")
	for _, name := range derived {
		entity, err := i.importDerived(ctx, name, cfg.Entities.References[name])
		if err != nil {
			return &domain.ImportError{Phase: domain.PhaseDerivedReferences, Entity: name, Err: err}
		}
		i.record(result, entity)
	}
	result.MarkPhase(domain.PhaseDerivedReferences)

	logger.Section("Direct references")
	for _, name := range cfg.DirectReferences() {
		entity, err := i.importDirect(ctx, name, cfg.Entities.References[name])
		if err != nil {
			return &domain.ImportError{Phase: domain.PhaseDirectReferences, Entity: name, Err: err}
		}
		i.record(result, entity)
	}
	result.MarkPhase(domain.PhaseDirectReferences)
	return nil
}

func (i *Importer) record(result *domain.ImportResult, entity domain.ImportedEntity) {
	result.Add(entity)
	logger.WithFields(logger.Fields{
		"phase":  entity.Phase.String(),
		"entity": entity.Name,
		"table":  entity.TableName,
		"rows":   entity.Rows,
	}).Info("imported")
}

func (i *Importer) saveRun(ctx context.Context, run domain.ImportRun) {
	if i.runStore == nil {
		return
	}
	if err := i.runStore.Save(ctx, run); err != nil {
		logger.Warn("record import run %s: %v", run.ID, err)
	}
}

func (i *Importer) importDataset(ctx context.Context, name string, ds *importconfig.DatasetEntityConfig) (domain.ImportedEntity, error) {
	table, err := i.load(ctx, ds.Connector)
	if err != nil {
		return domain.ImportedEntity{}, err
	}

	detail := ""
	if ds.Options.OnlyExistingReferences && len(ds.Links) > 0 {
		dropped, err := i.filterExistingReferences(ctx, name, table, ds.Links)
		if err != nil {
			return domain.ImportedEntity{}, err
		}
		if dropped > 0 {
			detail = fmt.Sprintf("%d rows without reference dropped", dropped)
		}
	}

	tableName := domain.DatasetTableName(name)
	def, rows, err := applySchema(name, tableName, table, ds.Schema)
	if err != nil {
		return domain.ImportedEntity{}, err
	}

	chunk := ds.Options.ChunkSize
	if chunk <= 0 {
		chunk = i.chunkSize
	}
	if ds.Options.Mode == importconfig.ModeAppend {
		err = i.tables.AppendRows(ctx, def, rows, chunk)
	} else {
		err = i.tables.ReplaceTable(ctx, def, rows, chunk)
	}
	if err != nil {
		return domain.ImportedEntity{}, fmt.Errorf("write %s: %w", tableName, err)
	}

	if err := i.register(ctx, name, domain.KindDataset, tableName, ds); err != nil {
		return domain.ImportedEntity{}, err
	}
	return domain.ImportedEntity{
		Phase:     domain.PhaseDatasets,
		Name:      name,
		Kind:      domain.KindDataset,
		TableName: tableName,
		Rows:      len(rows),
		Detail:    detail,
	}, nil
}

func (i *Importer) importDerived(ctx context.Context, name string, ref *importconfig.ReferenceEntityConfig) (domain.ImportedEntity, error) {
	spec := ref.Connector.Derived()
	nodes, err := i.builder.BuildFromDataset(ctx, spec.Source, &spec.Extraction, name)
	if err != nil {
		return domain.ImportedEntity{}, err
	}

	strategy := ref.Strategy()
	if strategy == domain.StrategyNestedSet {
		if err := ComputeNestedSet(nodes); err != nil {
			return domain.ImportedEntity{}, err
		}
	}

	tableName := domain.ReferenceTableName(name)
	def := domain.TableDef{Name: tableName, Columns: domain.HierarchyColumns(strategy)}
	if err := i.tables.ReplaceTable(ctx, def, domain.HierarchyRows(nodes, strategy), i.chunkSize); err != nil {
		return domain.ImportedEntity{}, fmt.Errorf("write %s: %w", tableName, err)
	}

	if err := i.register(ctx, name, domain.KindReference, tableName, ref); err != nil {
		return domain.ImportedEntity{}, err
	}
	return domain.ImportedEntity{
		Phase:     domain.PhaseDerivedReferences,
		Name:      name,
		Kind:      domain.KindReference,
		TableName: tableName,
		Rows:      len(nodes),
		Detail:    LevelCounts(nodes, spec.Extraction.Levels),
	}, nil
}

func (i *Importer) importDirect(ctx context.Context, name string, ref *importconfig.ReferenceEntityConfig) (domain.ImportedEntity, error) {
	tableName := domain.ReferenceTableName(name)

	var (
		def    domain.TableDef
		rows   [][]any
		detail string
	)
	if spec, ok := ref.Connector.Spec.(*importconfig.MultiFeatureConnector); ok {
		var types, features int
		var err error
		rows, types, features, err = i.materializeMultiFeature(ctx, name, spec)
		if err != nil {
			return domain.ImportedEntity{}, err
		}
		def = multiFeatureDef(tableName)
		detail = fmt.Sprintf("%d types, %d features", types, features)
	} else {
		table, err := i.load(ctx, ref.Connector)
		if err != nil {
			return domain.ImportedEntity{}, err
		}
		if ref.Hierarchy != nil && ref.Strategy() == domain.StrategyNestedSet {
			if err := applyStoredNestedSet(name, table, ref.Hierarchy); err != nil {
				return domain.ImportedEntity{}, err
			}
		}
		def, rows, err = applySchema(name, tableName, table, ref.Schema)
		if err != nil {
			return domain.ImportedEntity{}, err
		}
	}

	if err := i.tables.ReplaceTable(ctx, def, rows, i.chunkSize); err != nil {
		return domain.ImportedEntity{}, fmt.Errorf("write %s: %w", tableName, err)
	}
	if err := i.register(ctx, name, domain.KindReference, tableName, ref); err != nil {
		return domain.ImportedEntity{}, err
	}
	return domain.ImportedEntity{
		Phase:     domain.PhaseDirectReferences,
		Name:      name,
		Kind:      domain.KindReference,
		TableName: tableName,
		Rows:      len(rows),
		Detail:    detail,
	}, nil
}

// load creates the entity's connector and reads every row.
func (i *Importer) load(ctx context.Context, cc importconfig.ConnectorConfig) (*domain.Table, error) {
	if i.factory == nil {
		return nil, fmt.Errorf("create connector: connector factory not configured")
	}
	conn, err := i.factory.Create(ctx, cc.Spec)
	if err != nil {
		return nil, fmt.Errorf("create %s connector: %w", cc.Type(), err)
	}
	defer conn.Close()

	table, err := conn.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s connector: %w", cc.Type(), err)
	}
	return table, nil
}

func (i *Importer) register(ctx context.Context, name string, kind domain.EntityKind, tableName string, entityConfig any) error {
	blob, err := importconfig.ToMap(entityConfig)
	if err != nil {
		return fmt.Errorf("encode %s config: %w", name, err)
	}
	return i.registry.RegisterEntity(ctx, name, kind, tableName, blob)
}
