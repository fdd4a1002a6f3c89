package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IndexStore persists embedded chunks so a document does not need to be
// fetched and embedded again. Indexes are keyed by collection and the
// embedding model that produced them.
type IndexStore interface {
	// Save replaces the stored index for the collection.
	Save(ctx context.Context, collection, model string, chunks []domain.Chunk) error

	// Load returns the stored chunks with embeddings, ordered by position.
	// Returns domain.ErrNotFound if nothing is stored for the collection and model.
	Load(ctx context.Context, collection, model string) ([]domain.Chunk, error)

	// Delete removes the stored index for the collection.
	Delete(ctx context.Context, collection string) error

	// Close releases resources.
	Close() error
}
