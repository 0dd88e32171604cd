package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driving"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the store, object storage and import defaults.

Environment variables (LOAM_*) and .env files override these settings at
run time without being saved.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show saved settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func openSettings() (driving.SettingsService, error) {
	if settingsFactory == nil {
		return nil, errors.New("settings service not configured")
	}
	return settingsFactory(opts)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := openSettings()
	if err != nil {
		return err
	}
	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Driver: %s\n", settings.Store.Driver)
	if settings.Store.Driver == domain.StoreDriverPostgres {
		cmd.Printf("  DSN: %s\n", maskOrUnset(settings.Store.DSN))
	} else {
		cmd.Printf("  Data dir: %s\n", orDefault(settings.Store.DataDir, "~/.loam/data"))
	}
	cmd.Printf("  Read-only: %t\n", settings.Store.ReadOnly)
	cmd.Println()

	cmd.Println("[Import]")
	cmd.Printf("  Config: %s\n", settings.ImportConfigPath)
	cmd.Printf("  Chunk size: %d\n", settings.ChunkSize)
	cmd.Printf("  Log format: %s\n", settings.LogFormat)
	cmd.Println()

	cmd.Println("[Object Storage]")
	if settings.ObjectStorage.Configured() {
		cmd.Printf("  Endpoint: %s\n", settings.ObjectStorage.Endpoint)
		cmd.Printf("  Region: %s\n", orDefault(settings.ObjectStorage.Region, "(default)"))
		cmd.Printf("  Access key: %s\n", maskOrUnset(settings.ObjectStorage.AccessKey))
		cmd.Printf("  Secret key: %s\n", maskOrUnset(settings.ObjectStorage.SecretKey))
		cmd.Printf("  TLS: %t\n", settings.ObjectStorage.UseSSL)
	} else {
		cmd.Println("  Not configured (s3:// paths unavailable)")
	}
	cmd.Println()

	if err := svc.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'loam settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	svc, err := openSettings()
	if err != nil {
		return err
	}
	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Loam Settings Wizard")
	cmd.Println("====================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Store
	cmd.Println("Step 1: Select Store")
	cmd.Println("--------------------")
	drivers := []domain.StoreDriver{domain.StoreDriverSQLite, domain.StoreDriverPostgres}
	current := 1
	for i, d := range drivers {
		cmd.Printf("  %d. %s\n", i+1, d)
		if d == settings.Store.Driver {
			current = i + 1
		}
	}
	cmd.Printf("\nEnter choice [%d]: ", current)
	settings.Store.Driver = drivers[parseChoice(readLine(reader), len(drivers), current)-1]

	if settings.Store.Driver == domain.StoreDriverPostgres {
		cmd.Print("PostgreSQL DSN (input hidden, blank keeps current): ")
		if dsn := readSecret(cmd.InOrStdin(), reader); dsn != "" {
			settings.Store.DSN = dsn
		}
		cmd.Println()
	} else {
		cmd.Printf("Data directory [%s]: ", orDefault(settings.Store.DataDir, "~/.loam/data"))
		if dir := readLine(reader); dir != "" {
			settings.Store.DataDir = dir
		}
	}
	cmd.Println()

	// Step 2: Import defaults
	cmd.Println("Step 2: Import Defaults")
	cmd.Println("-----------------------")
	cmd.Printf("Import configuration file [%s]: ", settings.ImportConfigPath)
	if path := readLine(reader); path != "" {
		settings.ImportConfigPath = path
	}
	cmd.Printf("Insert chunk size [%d]: ", settings.ChunkSize)
	if n, err := strconv.Atoi(readLine(reader)); err == nil && n > 0 {
		settings.ChunkSize = n
	}
	cmd.Println()

	// Step 3: Object storage
	cmd.Println("Step 3: Object Storage (for s3:// paths)")
	cmd.Println("----------------------------------------")
	cmd.Printf("Endpoint, blank to skip [%s]: ", settings.ObjectStorage.Endpoint)
	if endpoint := readLine(reader); endpoint != "" {
		settings.ObjectStorage.Endpoint = endpoint
	}
	if settings.ObjectStorage.Configured() {
		cmd.Printf("Access key [%s]: ", maskOrUnset(settings.ObjectStorage.AccessKey))
		if key := readLine(reader); key != "" {
			settings.ObjectStorage.AccessKey = key
		}
		cmd.Print("Secret key (input hidden, blank keeps current): ")
		if secret := readSecret(cmd.InOrStdin(), reader); secret != "" {
			settings.ObjectStorage.SecretKey = secret
		}
		cmd.Println()
	}
	cmd.Println()

	if err := svc.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Settings saved.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readSecret reads without echo when in is a terminal.
func readSecret(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}

func maskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func maskOrUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return maskSecret(s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
