package driving

import "github.com/custodia-labs/regdesk/internal/core/domain"

// SettingsService loads and edits application configuration.
type SettingsService interface {
	// Get resolves the effective configuration: defaults, then the config
	// file, then environment variables. The result is validated.
	Get() (*domain.Config, error)

	// Set parses a raw value for a known key and persists it.
	Set(key, value string) error

	// Keys lists the configurable keys in display order.
	Keys() []string

	// Path returns the configuration file path.
	Path() string
}
