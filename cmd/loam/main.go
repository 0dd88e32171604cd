// Command loam imports declarative data configurations into a relational
// store and queries hierarchies built from them.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/loam/internal/adapters/driven/config/file"
	"github.com/custodia-labs/loam/internal/adapters/driven/storage/sqlstore"
	"github.com/custodia-labs/loam/internal/adapters/driving/cli"
	"github.com/custodia-labs/loam/internal/connectors/factory"
	"github.com/custodia-labs/loam/internal/connectors/plugin"
	"github.com/custodia-labs/loam/internal/connectors/source"
	"github.com/custodia-labs/loam/internal/connectors/vector"
	"github.com/custodia-labs/loam/internal/core/ports/driving"
	"github.com/custodia-labs/loam/internal/core/services"
	"github.com/custodia-labs/loam/internal/logger"
)

func main() {
	cli.SetFactories(openSettings, buildServices)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

func openSettings(opts cli.Options) (driving.SettingsService, error) {
	store, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store), nil
}

// buildServices resolves settings (file, then .env files, then LOAM_*
// variables, then flags), opens the store and wires the services on it.
func buildServices(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	settings, err := services.NewSettingsService(configStore).Get()
	if err != nil {
		return nil, err
	}
	envFiles := []string{".env", filepath.Join(filepath.Dir(configStore.Path()), ".env")}
	if err := file.ApplyEnv(settings, envFiles...); err != nil {
		return nil, err
	}
	if opts.DataDir != "" {
		settings.Store.DataDir = opts.DataDir
	}
	if err := logger.SetFormat(settings.LogFormat); err != nil {
		return nil, err
	}

	store, err := sqlstore.Open(settings.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store: %s %s", store.Driver(), store.Path())

	registry, err := services.NewEntityRegistry(ctx, store.EntityStore())
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	opener := source.NewOpener(settings.ObjectStorage)
	reader := vector.NewReader(opener)
	plugins := plugin.NewRegistry()
	plugin.RegisterDefaults(plugins)
	connectors := factory.NewDefault(factory.Dependencies{
		Opener:  opener,
		Reader:  reader,
		Plugins: plugins,
	})

	importer := services.NewImporter(registry, store.TableStore(), connectors, reader, store.ImportRunStore())
	importer.SetChunkSize(settings.ChunkSize)

	return &cli.Services{
		Registry:   registry,
		Importer:   importer,
		Loaders:    services.NewDefaultLoaderRegistry(registry, store.TableStore()),
		Connectors: services.NewConnectorRegistry(connectors),
		Settings:   settings,
		Close:      store.Close,
	}, nil
}
