// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	hugotembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hugot"
	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/llm/ratelimit"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint tells the user where provider settings come from.
const fixHint = "Check config.toml or the DOCQA_* environment variables"

// Options configures service creation.
type Options struct {
	// ModelDir caches in-process embedding models. Empty uses ~/.docqa/models.
	ModelDir string
}

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Connectivity problems found at startup.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Initialise creates both services. Construction failures are fatal;
// unreachable services are reported as warnings so that the server can
// start before its model backends.
func Initialise(ctx context.Context, settings domain.AppSettings, opts Options) (*InitResult, error) {
	if !settings.Embedding.IsConfigured() {
		return nil, fmt.Errorf("%w: provider %q is not configured. %s",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider, fixHint)
	}
	if !settings.LLM.IsConfigured() {
		return nil, fmt.Errorf("%w: provider %q is not configured. %s",
			domain.ErrLLMUnavailable, settings.LLM.Provider, fixHint)
	}

	embedder, err := createEmbeddingService(&settings.Embedding, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}

	result := &InitResult{EmbeddingService: embedder, LLMService: llm}

	probe := NewProbe(opts)
	if err := probe.ping(ctx, embedder.Ping); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("embedding service %s unreachable: %v", embedder.ModelName(), err))
	}
	if err := probe.ping(ctx, llm.Ping); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("completion service %s unreachable: %v", llm.ModelName(), err))
	}

	return result, nil
}

// CreateEmbeddingService builds the embedding service settings describe.
// It returns nil when the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	return createEmbeddingService(settings, Options{})
}

func createEmbeddingService(settings *domain.EmbeddingSettings, opts Options) (driven.EmbeddingService, error) {
	dims := domain.EmbeddingDimensions()[settings.Model]

	switch settings.Provider {
	case domain.AIProviderHugot:
		svc, err := hugotembed.NewEmbeddingService(hugotembed.Config{
			Model:      settings.Model,
			ModelDir:   opts.ModelDir,
			Dimensions: dims,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dims,
		}), nil
	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dims,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	case domain.AIProviderAnthropic:
		return nil, errors.New("anthropic does not support embeddings, use hugot, ollama or openai")
	}
	return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
}

// CreateLLMService builds the completion service settings describe,
// rate limited when RequestsPerSecond is set. It returns nil when the
// provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var svc driven.LLMService
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.Config{BaseURL: settings.BaseURL, Model: settings.Model})
	case domain.AIProviderOpenAI:
		openai, err := openaillm.NewLLMService(openaillm.Config{
			APIKey: settings.APIKey, BaseURL: settings.BaseURL, Model: settings.Model,
		})
		if err != nil {
			return nil, err
		}
		svc = openai
	case domain.AIProviderAnthropic:
		anthropic, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey: settings.APIKey, BaseURL: settings.BaseURL, Model: settings.Model,
		})
		if err != nil {
			return nil, err
		}
		svc = anthropic
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	return ratelimit.Wrap(svc, settings.RequestsPerSecond, 1), nil
}
