package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driving"
	"github.com/custodia-labs/loam/internal/logger"
)

var (
	importConfigPath string
	importWatch      bool
	importDebounce   time.Duration
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import every entity of a configuration",
	Long: `Imports the entities declared in an import configuration, in three
phases: datasets, then derived references (in dependency order), then
direct references. The first failure stops the import.

With --watch the import is re-run whenever the configuration file changes.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importConfigPath, "config", "c", "", "import configuration file (default from settings)")
	importCmd.Flags().BoolVar(&importWatch, "watch", false, "re-import when the configuration file changes")
	importCmd.Flags().DurationVar(&importDebounce, "debounce", 500*time.Millisecond, "delay before re-importing after a change")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}

	path := importConfigPath
	if path == "" && svc.Settings != nil {
		path = svc.Settings.ImportConfigPath
	}
	if path == "" {
		return fmt.Errorf("%w: no import configuration given", domain.ErrInvalidInput)
	}

	if !importWatch {
		return importOnce(cmd.Context(), cmd, svc.Importer, path)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := importOnce(ctx, cmd, svc.Importer, path); err != nil {
		cmd.PrintErrln(newStyles(cmd.ErrOrStderr()).Error.Render("Error: " + err.Error()))
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", path)
	return watchFile(ctx, path, importDebounce, func() {
		cmd.Printf("\n%s changed, re-importing\n", path)
		if err := importOnce(ctx, cmd, svc.Importer, path); err != nil {
			cmd.PrintErrln(newStyles(cmd.ErrOrStderr()).Error.Render("Error: " + err.Error()))
		}
	})
}

// importOnce runs one import and prints its summary, including the phases
// that completed before a failure.
func importOnce(ctx context.Context, cmd *cobra.Command, importer driving.Importer, path string) error {
	st := newStyles(cmd.OutOrStdout())
	started := time.Now()

	result, err := importer.ImportFile(ctx, path)
	if result != nil {
		if result.RunID != "" {
			cmd.Println(st.Title.Render("Import " + result.RunID))
		}
		for _, line := range result.Lines() {
			cmd.Println(st.Phase.Render(line))
		}
	}
	if err != nil {
		logger.Debug("import of %s failed after %s", path, time.Since(started))
		return fmt.Errorf("import failed: %w", err)
	}
	cmd.Println(st.Success.Render(fmt.Sprintf("Imported %d entities in %s",
		len(result.Entities), time.Since(started).Round(time.Millisecond))))
	return nil
}
