package normalisers

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/normalisers/docx"
	"github.com/custodia-labs/docqa/internal/normalisers/pdf"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches staged documents to the normaliser for their format.
type Registry struct {
	mu          sync.RWMutex
	normalisers map[domain.Format]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{normalisers: make(map[domain.Format]driven.Normaliser)}
}

// DefaultRegistry returns a registry with the PDF and DOCX normalisers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New())
	return r
}

// Register adds a normaliser, replacing any for the same format.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers[n.Format()] = n
}

// Get returns the normaliser for a format.
func (r *Registry) Get(format domain.Format) (driven.Normaliser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.normalisers[format]
	return n, ok
}

// Normalise parses raw with the normaliser for its format.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.TextSegment, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	n, ok := r.Get(raw.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, raw.Format)
	}
	return n.Normalise(ctx, raw)
}
