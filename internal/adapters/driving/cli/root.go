// Package cli implements the loam command line.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driving"
	"github.com/custodia-labs/loam/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Options carries the global flags.
type Options struct {
	Verbose   bool
	ConfigDir string
	DataDir   string
}

// Services are the core services commands run against.
type Services struct {
	Registry   driving.EntityRegistry
	Importer   driving.Importer
	Loaders    driving.LoaderRegistry
	Connectors driving.ConnectorRegistry
	// Settings are the resolved settings the services were built from.
	Settings *domain.Settings
	// Close releases the store. May be nil.
	Close func() error
}

// ServiceFactory builds the services for one invocation.
type ServiceFactory func(ctx context.Context, opts Options) (*Services, error)

// SettingsFactory opens the persisted settings without touching the store.
type SettingsFactory func(opts Options) (driving.SettingsService, error)

var (
	opts            Options
	serviceFactory  ServiceFactory
	settingsFactory SettingsFactory
	current         *Services
)

var rootCmd = &cobra.Command{
	Use:   "loam",
	Short: "Declarative import of tabular, spatial and reference data",
	Long: `loam imports datasets and reference tables described in a YAML
configuration into a relational store, builds taxonomic and spatial
hierarchies from flat rows, and loads data attached to hierarchy nodes.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(opts.Verbose)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", "", "settings directory (default ~/.loam)")
	rootCmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "SQLite data directory (overrides settings)")
}

// SetFactories installs the constructors used to build services on demand.
func SetFactories(settings SettingsFactory, svc ServiceFactory) {
	settingsFactory = settings
	serviceFactory = svc
}

// SetServices injects ready-made services, bypassing the factory.
func SetServices(s *Services) {
	current = s
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadServices returns the injected services, building them on first use.
func loadServices(cmd *cobra.Command) (*Services, error) {
	if current != nil {
		return current, nil
	}
	if serviceFactory == nil {
		return nil, errors.New("services not configured")
	}
	s, err := serviceFactory(cmd.Context(), opts)
	if err != nil {
		return nil, err
	}
	current = s
	return s, nil
}

func closeServices() error {
	if current == nil || current.Close == nil {
		return nil
	}
	err := current.Close()
	current = nil
	return err
}
