package driving

import "github.com/custodia-labs/manualqa/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves the effective settings: stored values over defaults,
	// with environment overrides applied last.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set validates and persists a single dotted key, e.g. "retrieval.top_k".
	Set(key, value string) error

	// Validate checks the settings are internally consistent.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Keys returns every settable key in display order.
	Keys() []string
}
