package services

import (
	"fmt"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStoreDriver   = "store.driver"
	keyStoreDataDir  = "store.data_dir"
	keyStoreDSN      = "store.dsn"
	keyStoreReadOnly = "store.read_only"
	keyImportConfig  = "import.config"
	keyChunkSize     = "import.chunk_size"
	keyLogFormat     = "log.format"
	keyS3Endpoint    = "object_storage.endpoint"
	keyS3AccessKey   = "object_storage.access_key"
	keyS3SecretKey   = "object_storage.secret_key"
	keyS3Region      = "object_storage.region"
	keyS3UseSSL      = "object_storage.use_ssl"
)

type setting struct {
	key   string
	value any
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Store: domain.StoreSettings{
			Driver:   domain.StoreDriver(s.getString(keyStoreDriver, defaults.Store.Driver.String())),
			DataDir:  s.configStore.GetString(keyStoreDataDir),
			DSN:      s.configStore.GetString(keyStoreDSN),
			ReadOnly: s.getBool(keyStoreReadOnly, defaults.Store.ReadOnly),
		},
		ObjectStorage: domain.ObjectStorageSettings{
			Endpoint:  s.configStore.GetString(keyS3Endpoint),
			AccessKey: s.configStore.GetString(keyS3AccessKey),
			SecretKey: s.configStore.GetString(keyS3SecretKey),
			Region:    s.configStore.GetString(keyS3Region),
			UseSSL:    s.getBool(keyS3UseSSL, defaults.ObjectStorage.UseSSL),
		},
		ImportConfigPath: s.getString(keyImportConfig, defaults.ImportConfigPath),
		ChunkSize:        s.getInt(keyChunkSize, defaults.ChunkSize),
		LogFormat:        s.getString(keyLogFormat, defaults.LogFormat),
	}
	return settings, nil
}

// Save persists application settings. Empty secrets are not written.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}

	values := []setting{
		{keyStoreDriver, settings.Store.Driver.String()},
		{keyStoreDataDir, settings.Store.DataDir},
		{keyStoreReadOnly, settings.Store.ReadOnly},
		{keyImportConfig, settings.ImportConfigPath},
		{keyChunkSize, settings.ChunkSize},
		{keyLogFormat, settings.LogFormat},
		{keyS3Endpoint, settings.ObjectStorage.Endpoint},
		{keyS3Region, settings.ObjectStorage.Region},
		{keyS3UseSSL, settings.ObjectStorage.UseSSL},
	}
	if settings.Store.DSN != "" {
		values = append(values, setting{keyStoreDSN, settings.Store.DSN})
	}
	if settings.ObjectStorage.AccessKey != "" {
		values = append(values, setting{keyS3AccessKey, settings.ObjectStorage.AccessKey})
	}
	if settings.ObjectStorage.SecretKey != "" {
		values = append(values, setting{keyS3SecretKey, settings.ObjectStorage.SecretKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Validate checks settings for consistency.
func (s *SettingsService) Validate(settings *domain.Settings) error {
	if !settings.Store.Driver.IsValid() {
		return fmt.Errorf("%w: store driver %q", domain.ErrInvalidInput, settings.Store.Driver)
	}
	if settings.Store.Driver == domain.StoreDriverPostgres && settings.Store.DSN == "" {
		return fmt.Errorf("%w: postgres store requires store.dsn", domain.ErrInvalidInput)
	}
	if settings.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, settings.ChunkSize)
	}
	switch settings.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", domain.ErrInvalidInput, settings.LogFormat)
	}
	return nil
}

// Helper methods for reading config with defaults

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); ok {
		if val := s.configStore.GetInt(key); val != 0 {
			return val
		}
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}
