package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// NormaliserRegistry selects the normaliser for a staged document by format.
type NormaliserRegistry interface {
	// Normalise parses the raw document with the normaliser registered
	// for raw.Format. Returns domain.ErrUnsupportedFormat if none matches.
	Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.TextSegment, error)

	// Register adds a normaliser, replacing any for the same format.
	Register(normaliser Normaliser)
}
