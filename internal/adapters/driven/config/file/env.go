package file

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// envSettings lists the environment variables that override settings.
// Unset variables leave the corresponding setting untouched.
type envSettings struct {
	StoreDriver  *string `env:"LOAM_STORE_DRIVER"`
	DataDir      *string `env:"LOAM_DATA_DIR"`
	DSN          *string `env:"LOAM_DSN"`
	ReadOnly     *bool   `env:"LOAM_READ_ONLY"`
	ImportConfig *string `env:"LOAM_IMPORT_CONFIG"`
	ChunkSize    *int    `env:"LOAM_CHUNK_SIZE"`
	LogFormat    *string `env:"LOAM_LOG_FORMAT"`
	S3Endpoint   *string `env:"LOAM_S3_ENDPOINT"`
	S3AccessKey  *string `env:"LOAM_S3_ACCESS_KEY"`
	S3SecretKey  *string `env:"LOAM_S3_SECRET_KEY"`
	S3Region     *string `env:"LOAM_S3_REGION"`
	S3UseSSL     *bool   `env:"LOAM_S3_USE_SSL"`
}

// ApplyEnv loads the given .env files (missing files are ignored, existing
// variables are never overwritten) and overlays LOAM_* variables on settings.
func ApplyEnv(settings *domain.Settings, envFiles ...string) error {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var e envSettings
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("%w: environment: %w", domain.ErrInvalidInput, err)
	}

	setString(&settings.ImportConfigPath, e.ImportConfig)
	setString(&settings.Store.DataDir, e.DataDir)
	setString(&settings.Store.DSN, e.DSN)
	setString(&settings.LogFormat, e.LogFormat)
	setString(&settings.ObjectStorage.Endpoint, e.S3Endpoint)
	setString(&settings.ObjectStorage.AccessKey, e.S3AccessKey)
	setString(&settings.ObjectStorage.SecretKey, e.S3SecretKey)
	setString(&settings.ObjectStorage.Region, e.S3Region)
	if e.StoreDriver != nil {
		settings.Store.Driver = domain.StoreDriver(*e.StoreDriver)
	}
	if e.ReadOnly != nil {
		settings.Store.ReadOnly = *e.ReadOnly
	}
	if e.ChunkSize != nil {
		settings.ChunkSize = *e.ChunkSize
	}
	if e.S3UseSSL != nil {
		settings.ObjectStorage.UseSSL = *e.S3UseSSL
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
