package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentFetcher retrieves a document and exposes it as parsed text segments.
// Any local artifact staged during the fetch must be removed before Fetch
// returns, on both success and failure.
type DocumentFetcher interface {
	// Fetch downloads and parses the referenced document.
	// Failures wrap domain.ErrFetch. Unknown formats fail without a network call.
	Fetch(ctx context.Context, ref domain.DocumentReference) ([]domain.TextSegment, error)
}
