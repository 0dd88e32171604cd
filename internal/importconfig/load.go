package importconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// Load reads and validates an import configuration file. Relative source
// paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.ResolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes and validates an import configuration document.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", domain.ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// New builds a configuration from Go values and validates it.
func New(
	version string,
	references map[string]*ReferenceEntityConfig,
	datasets map[string]*DatasetEntityConfig,
	metadata map[string]any,
) (*Config, error) {
	cfg := &Config{
		Version: version,
		Entities: Entities{
			References: references,
			Datasets:   datasets,
		},
		Metadata: metadata,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
