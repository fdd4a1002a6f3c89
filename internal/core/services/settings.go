package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyServerAddr       = "server.addr"
	keyServerAPIKey     = "server.api_key"
	keyServerTimeout    = "server.request_timeout"
	keyChunkSize        = "pipeline.chunk_size"
	keyChunkOverlap     = "pipeline.chunk_overlap"
	keyConcurrency      = "pipeline.concurrency_limit"
	keyIndexCacheSize   = "pipeline.index_cache_size"
	keyDedupeChunks     = "pipeline.dedupe_chunks"
	keyRetrievalK       = "retrieval.k"
	keyRetrievalFetchK  = "retrieval.fetch_k"
	keyRetrievalLambda  = "retrieval.mmr_lambda"
	keyFetchMaxBytes    = "fetch.max_bytes"
	keyFetchTimeout     = "fetch.timeout"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedBatchSize   = "embedding.batch_size"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMRate          = "llm.requests_per_second"
	keyIndexStoreKind   = "index_store.kind"
	keyIndexStoreDSN    = "index_store.dsn"
	defaultOllamaURL    = "http://localhost:11434"
	envPrefixEmbedding  = "DOCQA_EMBEDDING_"
	envPrefixLLM        = "DOCQA_LLM_"
	envAPIKey           = "HACKRX_API_KEY"
	envAddr             = "DOCQA_ADDR"
	envIndexStore       = "DOCQA_INDEX_STORE"
	envIndexStoreDSN    = "DOCQA_INDEX_STORE_DSN"
	envConcurrencyLimit = "DOCQA_CONCURRENCY_LIMIT"
)

// EnvLookup reads an environment variable.
type EnvLookup func(key string) (string, bool)

// SettingsService manages application settings.
// Values come from the config store, then environment variables override them.
type SettingsService struct {
	configStore driven.ConfigStore
	probe       driven.ProviderProbe
	lookupEnv   EnvLookup
}

// NewSettingsService creates a new settings service reading the process environment.
func NewSettingsService(configStore driven.ConfigStore, probe driven.ProviderProbe) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		probe:       probe,
		lookupEnv:   os.LookupEnv,
	}
}

// WithEnv replaces the environment lookup. A nil lookup disables overrides.
func (s *SettingsService) WithEnv(lookup EnvLookup) *SettingsService {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	s.lookupEnv = lookup
	return s
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Server: domain.ServerSettings{
			Addr:           s.getString(keyServerAddr, defaults.Server.Addr),
			APIKey:         s.configStore.GetString(keyServerAPIKey),
			RequestTimeout: s.getDuration(keyServerTimeout, defaults.Server.RequestTimeout),
		},
		Pipeline: domain.PipelineSettings{
			ChunkSize:        s.getInt(keyChunkSize, defaults.Pipeline.ChunkSize),
			ChunkOverlap:     s.getIntAllowZero(keyChunkOverlap, defaults.Pipeline.ChunkOverlap),
			ConcurrencyLimit: s.getInt(keyConcurrency, defaults.Pipeline.ConcurrencyLimit),
			IndexCacheSize:   s.getIntAllowZero(keyIndexCacheSize, defaults.Pipeline.IndexCacheSize),
			DedupeChunks:     s.getBool(keyDedupeChunks, defaults.Pipeline.DedupeChunks),
		},
		Retrieval: domain.RetrievalOptions{
			K:      s.getInt(keyRetrievalK, defaults.Retrieval.K),
			FetchK: s.getInt(keyRetrievalFetchK, defaults.Retrieval.FetchK),
			Lambda: s.getFloat(keyRetrievalLambda, defaults.Retrieval.Lambda),
		},
		Fetch: domain.FetchSettings{
			MaxBytes: int64(s.getInt(keyFetchMaxBytes, int(defaults.Fetch.MaxBytes))),
			Timeout:  s.getDuration(keyFetchTimeout, defaults.Fetch.Timeout),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:  s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:     s.configStore.GetString(keyEmbedModel),
			BaseURL:   s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:    s.configStore.GetString(keyEmbedAPIKey),
			BatchSize: s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.configStore.GetString(keyLLMModel),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			RequestsPerSecond: s.getFloat(keyLLMRate, defaults.LLM.RequestsPerSecond),
		},
		IndexStore: domain.IndexStoreSettings{
			Kind: s.getIndexStoreKind(defaults.IndexStore.Kind),
			DSN:  s.configStore.GetString(keyIndexStoreDSN),
		},
	}

	s.applyEnv(settings)

	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.Embedding.Provider == domain.AIProviderOllama && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = defaultOllamaURL
	}
	if settings.LLM.Provider == domain.AIProviderOllama && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = defaultOllamaURL
	}

	return settings, nil
}

// applyEnv overrides settings from environment variables.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v, ok := s.lookupEnv(envAPIKey); ok {
		settings.Server.APIKey = v
	}
	if v, ok := s.lookupEnv(envAddr); ok && v != "" {
		settings.Server.Addr = v
	}
	if v, ok := s.lookupEnv(envConcurrencyLimit); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			settings.Pipeline.ConcurrencyLimit = n
		}
	}
	if v, ok := s.lookupEnv(envIndexStore); ok && v != "" {
		settings.IndexStore.Kind = domain.IndexStoreKind(v)
	}
	if v, ok := s.lookupEnv(envIndexStoreDSN); ok {
		settings.IndexStore.DSN = v
	}

	if v, ok := s.lookupEnv(envPrefixEmbedding + "PROVIDER"); ok && domain.AIProvider(v).IsValid() {
		if domain.AIProvider(v) != settings.Embedding.Provider {
			settings.Embedding.Model = ""
			settings.Embedding.BaseURL = ""
		}
		settings.Embedding.Provider = domain.AIProvider(v)
	}
	if v, ok := s.lookupEnv(envPrefixEmbedding + "MODEL"); ok && v != "" {
		settings.Embedding.Model = v
	}
	if v, ok := s.lookupEnv(envPrefixEmbedding + "BASE_URL"); ok {
		settings.Embedding.BaseURL = v
	}
	if v, ok := s.lookupEnv(envPrefixEmbedding + "API_KEY"); ok {
		settings.Embedding.APIKey = v
	}

	if v, ok := s.lookupEnv(envPrefixLLM + "PROVIDER"); ok && domain.AIProvider(v).IsValid() {
		if domain.AIProvider(v) != settings.LLM.Provider {
			settings.LLM.Model = ""
			settings.LLM.BaseURL = ""
		}
		settings.LLM.Provider = domain.AIProvider(v)
	}
	if v, ok := s.lookupEnv(envPrefixLLM + "MODEL"); ok && v != "" {
		settings.LLM.Model = v
	}
	if v, ok := s.lookupEnv(envPrefixLLM + "BASE_URL"); ok {
		settings.LLM.BaseURL = v
	}
	if v, ok := s.lookupEnv(envPrefixLLM + "API_KEY"); ok {
		settings.LLM.APIKey = v
	}
}

// Save persists application settings.
// The server API key is never written; it belongs in the environment.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyServerAddr, settings.Server.Addr},
		{keyServerTimeout, settings.Server.RequestTimeout.String()},
		{keyChunkSize, settings.Pipeline.ChunkSize},
		{keyChunkOverlap, settings.Pipeline.ChunkOverlap},
		{keyConcurrency, settings.Pipeline.ConcurrencyLimit},
		{keyIndexCacheSize, settings.Pipeline.IndexCacheSize},
		{keyDedupeChunks, settings.Pipeline.DedupeChunks},
		{keyRetrievalK, settings.Retrieval.K},
		{keyRetrievalFetchK, settings.Retrieval.FetchK},
		{keyRetrievalLambda, settings.Retrieval.Lambda},
		{keyFetchMaxBytes, int(settings.Fetch.MaxBytes)},
		{keyFetchTimeout, settings.Fetch.Timeout.String()},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMRate, settings.LLM.RequestsPerSecond},
		{keyIndexStoreKind, settings.IndexStore.Kind.String()},
		{keyIndexStoreDSN, settings.IndexStore.DSN},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return s.configStore.Save()
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() || provider == domain.AIProviderHugot {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks if current settings are usable for serving.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %q is not configured",
			domain.ErrLLMUnavailable, settings.LLM.Provider)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.probe == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.probe.ProbeEmbedding(context.Background(), &settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.probe == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.probe.ProbeLLM(context.Background(), &settings.LLM)
}

// GetPipelineConfig returns the post-processor pipeline configuration
// for the configured chunk window.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	settings, err := s.Get()
	if err != nil {
		return domain.DefaultPipelineConfig()
	}
	return settings.Pipeline.Stages()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getIndexStoreKind(defaultVal domain.IndexStoreKind) domain.IndexStoreKind {
	kind := domain.IndexStoreKind(s.configStore.GetString(keyIndexStoreKind))
	if !kind.IsValid() {
		return defaultVal
	}
	return kind
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		// Cloud providers and in-process models don't need a base URL.
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}
