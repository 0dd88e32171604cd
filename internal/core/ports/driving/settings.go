package driving

import "github.com/custodia-labs/loam/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, falling back to defaults for unset keys.
	Get() (*domain.Settings, error)

	// Save persists settings.
	Save(settings *domain.Settings) error

	// Validate checks settings for consistency.
	Validate(settings *domain.Settings) error
}
