package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Retriever returns the chunks most relevant to a query.
// A Retriever is read-only after construction and safe for concurrent use.
type Retriever interface {
	// Retrieve returns at most k chunks, most relevant first.
	Retrieve(ctx context.Context, query string) ([]domain.Chunk, error)

	// Len returns the number of chunks the retriever searches.
	Len() int
}
