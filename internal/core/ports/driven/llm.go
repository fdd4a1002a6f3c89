package driven

import "context"

// LLMService completes a single prompt.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}

// GenerateOptions are passed through to the provider. Zero values leave the
// provider's own defaults in place.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}
