package driven

import "context"

// EmbeddingService turns text into fixed-width vectors. The same input must
// always produce the same vector for a given model.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	ModelName() string

	// Ping makes the cheapest call the provider offers.
	Ping(ctx context.Context) error
	Close() error
}
