package driving

import "github.com/custodia-labs/docqa/internal/core/domain"

// SettingsService reads and writes the persisted settings. Get includes
// environment overrides; Save writes only what it is given.
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider and SetLLMProvider switch a role to provider,
	// resetting its base URL to that provider's default.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate reports the first setting that would stop a request from
	// being served.
	Validate() error
	GetDefaults() domain.AppSettings
}
