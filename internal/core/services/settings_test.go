package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func envMap(values map[string]string) EnvLookup {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func newTestSettings(store *memory.ConfigStore, env map[string]string) *SettingsService {
	return NewSettingsService(store, nil).WithEnv(envMap(env))
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Server, settings.Server)
	assert.Equal(t, defaults.Pipeline, settings.Pipeline)
	assert.Equal(t, defaults.Retrieval, settings.Retrieval)
	assert.Equal(t, defaults.Fetch, settings.Fetch)
	assert.Equal(t, defaults.Embedding, settings.Embedding)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "llama3:8b", settings.LLM.Model)
	assert.Equal(t, "http://localhost:11434", settings.LLM.BaseURL)
	assert.Equal(t, domain.IndexStoreNone, settings.IndexStore.Kind)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStoreFrom(map[string]any{
		"server.addr":                ":9000",
		"server.request_timeout":     "90s",
		"pipeline.chunk_size":        int64(500),
		"pipeline.chunk_overlap":     int64(0),
		"pipeline.concurrency_limit": int64(3),
		"retrieval.k":                int64(4),
		"retrieval.fetch_k":          int64(20),
		"retrieval.mmr_lambda":       0.0,
		"embedding.provider":         "openai",
		"embedding.model":            "text-embedding-3-large",
		"embedding.api_key":          "sk-test",
		"llm.provider":               "anthropic",
		"llm.api_key":                "sk-ant",
		"llm.requests_per_second":    2.5,
		"index_store.kind":           "sqlite",
		"index_store.dsn":            "/tmp/index.db",
	})
	service := newTestSettings(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, ":9000", settings.Server.Addr)
	assert.Equal(t, 90*time.Second, settings.Server.RequestTimeout)
	assert.Equal(t, 500, settings.Pipeline.ChunkSize)
	assert.Equal(t, 0, settings.Pipeline.ChunkOverlap)
	assert.Equal(t, 3, settings.Pipeline.ConcurrencyLimit)
	assert.Equal(t, 4, settings.Retrieval.K)
	assert.Equal(t, 20, settings.Retrieval.FetchK)
	assert.Zero(t, settings.Retrieval.Lambda)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.InDelta(t, 2.5, settings.LLM.RequestsPerSecond, 1e-9)
	assert.Equal(t, domain.IndexStoreSQLite, settings.IndexStore.Kind)
	assert.Equal(t, "/tmp/index.db", settings.IndexStore.DSN)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStoreFrom(map[string]any{
		"embedding.provider":     "invalid_provider",
		"server.request_timeout": "soon",
		"index_store.kind":       "redis",
	})
	service := newTestSettings(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Server.RequestTimeout, settings.Server.RequestTimeout)
	assert.Equal(t, defaults.IndexStore.Kind, settings.IndexStore.Kind)
}

func TestSettingsService_Get_EnvironmentOverrides(t *testing.T) {
	store := memory.NewConfigStoreFrom(map[string]any{
		"server.api_key": "from-file",
		"llm.provider":   "ollama",
		"llm.model":      "mistral",
	})
	service := newTestSettings(store, map[string]string{
		"HACKRX_API_KEY":          "secret",
		"DOCQA_ADDR":              "127.0.0.1:8080",
		"DOCQA_LLM_PROVIDER":      "openai",
		"DOCQA_LLM_API_KEY":       "sk-env",
		"DOCQA_EMBEDDING_MODEL":   "all-MiniLM-L12-v2",
		"DOCQA_INDEX_STORE":       "bolt",
		"DOCQA_INDEX_STORE_DSN":   "/data/index.bolt",
		"DOCQA_CONCURRENCY_LIMIT": "2",
	})

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "secret", settings.Server.APIKey)
	assert.Equal(t, "127.0.0.1:8080", settings.Server.Addr)
	assert.Equal(t, domain.AIProviderOpenAI, settings.LLM.Provider)
	// Switching provider drops the file's model in favour of the provider default.
	assert.Equal(t, "gpt-4o-mini", settings.LLM.Model)
	assert.Empty(t, settings.LLM.BaseURL)
	assert.Equal(t, "sk-env", settings.LLM.APIKey)
	assert.Equal(t, "all-MiniLM-L12-v2", settings.Embedding.Model)
	assert.Equal(t, domain.IndexStoreBolt, settings.IndexStore.Kind)
	assert.Equal(t, "/data/index.bolt", settings.IndexStore.DSN)
	assert.Equal(t, 2, settings.Pipeline.ConcurrencyLimit)
}

func TestSettingsService_Save_RoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettings(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Server.Addr = ":7000"
	settings.Server.APIKey = "never-saved"
	settings.Pipeline.ConcurrencyLimit = 4
	settings.Retrieval.Lambda = 0.25
	settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderAnthropic,
		Model:    "claude-3-5-sonnet-latest",
		APIKey:   "sk-ant-test",
	}

	require.NoError(t, service.Save(&settings))

	_, saved := store.Get("server.api_key")
	assert.False(t, saved)

	retrieved, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, ":7000", retrieved.Server.Addr)
	assert.Equal(t, 4, retrieved.Pipeline.ConcurrencyLimit)
	assert.InDelta(t, 0.25, retrieved.Retrieval.Lambda, 1e-9)
	assert.Equal(t, domain.AIProviderAnthropic, retrieved.LLM.Provider)
	assert.Equal(t, "sk-ant-test", retrieved.LLM.APIKey)
	assert.Equal(t, settings.Server.RequestTimeout, retrieved.Server.RequestTimeout)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	tests := []struct {
		name      string
		provider  domain.AIProvider
		model     string
		apiKey    string
		wantErr   bool
		wantModel string
		wantURL   string
	}{
		{"hugot default model", domain.AIProviderHugot, "", "", false, "sentence-transformers/all-MiniLM-L6-v2", ""},
		{"ollama gets base url", domain.AIProviderOllama, "", "", false, "nomic-embed-text", "http://localhost:11434"},
		{"openai with key", domain.AIProviderOpenAI, "text-embedding-3-large", "sk", false, "text-embedding-3-large", ""},
		{"openai without key", domain.AIProviderOpenAI, "", "", true, "", ""},
		{"anthropic unsupported", domain.AIProviderAnthropic, "", "k", true, "", ""},
		{"invalid", domain.AIProvider("nope"), "", "", true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestSettings(memory.NewConfigStore(), nil)

			err := service.SetEmbeddingProvider(tt.provider, tt.model, tt.apiKey)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			settings, err := service.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.Embedding.Provider)
			assert.Equal(t, tt.wantModel, settings.Embedding.Model)
			assert.Equal(t, tt.wantURL, settings.Embedding.BaseURL)
		})
	}
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	require.Error(t, service.SetLLMProvider(domain.AIProviderHugot, "", ""))
	require.Error(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", ""))
	require.NoError(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", "sk"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", settings.LLM.Model)
	assert.Empty(t, settings.LLM.BaseURL)
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		service := newTestSettings(memory.NewConfigStore(), nil)
		assert.NoError(t, service.Validate())
	})

	t.Run("missing llm key", func(t *testing.T) {
		store := memory.NewConfigStoreFrom(map[string]any{"llm.provider": "openai"})
		service := newTestSettings(store, nil)

		err := service.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
	})

	t.Run("bad chunk window", func(t *testing.T) {
		store := memory.NewConfigStoreFrom(map[string]any{
			"pipeline.chunk_size":    int64(100),
			"pipeline.chunk_overlap": int64(100),
		})
		service := newTestSettings(store, nil)

		err := service.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestSettingsService_GetPipelineConfig(t *testing.T) {
	store := memory.NewConfigStoreFrom(map[string]any{
		"pipeline.chunk_size":    int64(400),
		"pipeline.chunk_overlap": int64(50),
	})
	service := newTestSettings(store, nil)

	cfg := service.GetPipelineConfig()

	assert.Equal(t, []string{"chunker"}, cfg.Processors)
	assert.Equal(t, 400, cfg.GetProcessorConfig("chunker")["chunk_size"])
	assert.Equal(t, 50, cfg.GetProcessorConfig("chunker")["overlap"])

	require.NoError(t, store.Set("pipeline.dedupe_chunks", true))
	assert.Equal(t, []string{"chunker", "dedupe"}, service.GetPipelineConfig().Processors)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

type stubProbe struct {
	embeddingErr error
	llmErr       error
	embedding    *domain.EmbeddingSettings
	llm          *domain.LLMSettings
}

func (p *stubProbe) ProbeEmbedding(_ context.Context, cfg *domain.EmbeddingSettings) error {
	p.embedding = cfg
	return p.embeddingErr
}

func (p *stubProbe) ProbeLLM(_ context.Context, cfg *domain.LLMSettings) error {
	p.llm = cfg
	return p.llmErr
}

func TestSettingsService_ProbesProviders(t *testing.T) {
	probe := &stubProbe{llmErr: domain.ErrLLMUnavailable}
	service := NewSettingsService(memory.NewConfigStore(), probe).WithEnv(envMap(nil))

	require.NoError(t, service.ValidateEmbeddingConfig())
	require.NotNil(t, probe.embedding)
	assert.Equal(t, domain.AIProviderHugot, probe.embedding.Provider)

	assert.ErrorIs(t, service.ValidateLLMConfig(), domain.ErrLLMUnavailable)
	require.NotNil(t, probe.llm)
	assert.Equal(t, "llama3:8b", probe.llm.Model)
}

func TestSettingsService_NoProbe(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	assert.NoError(t, service.ValidateEmbeddingConfig())
	assert.NoError(t, service.ValidateLLMConfig())
}
