package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or completions.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderHugot runs a sentence-transformers model in process.
	// It only supports embeddings.
	AIProviderHugot AIProvider = "hugot"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderHugot:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHugot
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderHugot:
		return "Hugot (in-process ONNX)"
	default:
		return unknownDescription
	}
}

// IndexStoreKind selects where built indexes are persisted between requests.
type IndexStoreKind string

// Available index stores.
const (
	// IndexStoreNone keeps indexes in memory only.
	IndexStoreNone IndexStoreKind = "none"

	// IndexStoreMemory keeps every built index for the life of the process,
	// independent of the bounded index cache.
	IndexStoreMemory IndexStoreKind = "memory"

	// IndexStoreSQLite persists indexes to a local SQLite database.
	IndexStoreSQLite IndexStoreKind = "sqlite"

	// IndexStoreBolt persists indexes to a local bbolt file.
	IndexStoreBolt IndexStoreKind = "bolt"

	// IndexStorePostgres persists indexes to PostgreSQL with pgvector.
	IndexStorePostgres IndexStoreKind = "postgres"
)

// IsValid returns true if the store kind is recognised.
func (k IndexStoreKind) IsValid() bool {
	switch k {
	case IndexStoreNone, IndexStoreMemory, IndexStoreSQLite, IndexStoreBolt, IndexStorePostgres:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k IndexStoreKind) String() string {
	return string(k)
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// APIKey is the shared bearer secret. Empty rejects every request.
	APIKey string

	// RequestTimeout bounds one pipeline run. Zero disables the timeout.
	RequestTimeout time.Duration
}

// PipelineSettings holds chunking and fan-out configuration.
type PipelineSettings struct {
	// ChunkSize is the target chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the maximum overlap between consecutive chunks.
	ChunkOverlap int

	// ConcurrencyLimit bounds simultaneous completion calls process-wide.
	ConcurrencyLimit int

	// IndexCacheSize is the number of built indexes kept for reuse.
	// Zero disables reuse.
	IndexCacheSize int

	// DedupeChunks drops chunks that repeat earlier text, such as
	// running headers. Off by default.
	DedupeChunks bool
}

// Stages returns the post-processor pipeline for these settings.
func (p PipelineSettings) Stages() PipelineConfig {
	cfg := PipelineConfigFor(p.ChunkSize, p.ChunkOverlap)
	if p.DedupeChunks {
		cfg.Processors = append(cfg.Processors, "dedupe")
	}
	return cfg
}

// FetchSettings holds document download configuration.
type FetchSettings struct {
	// MaxBytes caps the download size.
	MaxBytes int64

	// Timeout bounds the download. Zero relies on the request context.
	Timeout time.Duration
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of chunks sent per embedding call.
	BatchSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds completion provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// RequestsPerSecond throttles completion calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHugot {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexStoreSettings holds persisted index store configuration.
type IndexStoreSettings struct {
	// Kind selects the store backend.
	Kind IndexStoreKind

	// DSN is a file path (sqlite, bolt) or connection string (postgres).
	// Empty file paths default to the config directory.
	DSN string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Server     ServerSettings
	Pipeline   PipelineSettings
	Retrieval  RetrievalOptions
	Fetch      FetchSettings
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	IndexStore IndexStoreSettings
}

// Defaults used by DefaultAppSettings.
const (
	DefaultAddr             = ":8000"
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultConcurrencyLimit = 8
	DefaultIndexCacheSize   = 16
	DefaultMaxFetchBytes    = 50 << 20
	DefaultFetchTimeout     = 2 * time.Minute
	DefaultRequestTimeout   = 5 * time.Minute
	DefaultEmbedBatchSize   = 32
)

// DefaultAppSettings returns settings matching the reference deployment:
// in-process MiniLM embeddings and a local llama3 model through Ollama.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Server: ServerSettings{
			Addr:           DefaultAddr,
			RequestTimeout: DefaultRequestTimeout,
		},
		Pipeline: PipelineSettings{
			ChunkSize:        DefaultChunkSize,
			ChunkOverlap:     DefaultChunkOverlap,
			ConcurrencyLimit: DefaultConcurrencyLimit,
			IndexCacheSize:   DefaultIndexCacheSize,
			DedupeChunks:     false,
		},
		Retrieval: DefaultRetrievalOptions(),
		Fetch: FetchSettings{
			MaxBytes: DefaultMaxFetchBytes,
			Timeout:  DefaultFetchTimeout,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderHugot,
			Model:     DefaultEmbeddingModels()[AIProviderHugot],
			BatchSize: DefaultEmbedBatchSize,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
		},
		IndexStore: IndexStoreSettings{
			Kind: IndexStoreNone,
		},
	}
}

// Validate checks settings that cannot be corrected by defaulting.
func (s AppSettings) Validate() error {
	if s.Pipeline.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	}
	if s.Pipeline.ChunkOverlap < 0 || s.Pipeline.ChunkOverlap >= s.Pipeline.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", ErrInvalidInput)
	}
	if s.Pipeline.ConcurrencyLimit <= 0 {
		return fmt.Errorf("%w: concurrency limit must be positive", ErrInvalidInput)
	}
	if s.Retrieval.K <= 0 || s.Retrieval.FetchK < s.Retrieval.K {
		return fmt.Errorf("%w: retrieval requires 0 < k <= fetch_k", ErrInvalidInput)
	}
	if s.Retrieval.Lambda < 0 || s.Retrieval.Lambda > 1 {
		return fmt.Errorf("%w: mmr lambda must be in [0, 1]", ErrInvalidInput)
	}
	if !s.IndexStore.Kind.IsValid() {
		return fmt.Errorf("%w: unknown index store %q", ErrInvalidInput, s.IndexStore.Kind)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHugot,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support completions.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHugot:  "sentence-transformers/all-MiniLM-L6-v2",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3:8b",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Hugot models
		"sentence-transformers/all-MiniLM-L6-v2": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfigFor(DefaultChunkSize, DefaultChunkOverlap)
}

// PipelineConfigFor returns a chunker-only pipeline with the given window.
func PipelineConfigFor(size, overlap int) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": size,
				"overlap":    overlap,
			},
		},
	}
}
