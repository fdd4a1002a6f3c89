package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ProviderProbe checks that a provider configuration reaches a live backend.
// An unconfigured role probes as healthy.
type ProviderProbe interface {
	ProbeEmbedding(ctx context.Context, cfg *domain.EmbeddingSettings) error
	ProbeLLM(ctx context.Context, cfg *domain.LLMSettings) error
}
