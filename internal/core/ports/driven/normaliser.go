package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Normaliser parses a staged document of one format into text segments.
type Normaliser interface {
	// Format returns the document format this normaliser handles.
	Format() domain.Format

	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise parses the staged file. Segments are returned in document order.
	Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.TextSegment, error)
}
