// Package dedupe drops repeated chunks, such as page headers and footers
// that a PDF repeats on every page.
package dedupe

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

var _ driven.PostProcessor = (*Processor)(nil)

// Processor keeps the first of each group of chunks whose text matches
// after case folding and whitespace collapsing. Kept chunks retain their
// ID and Position, so positions may have gaps.
type Processor struct {
	minChars int
}

// Option configures the processor.
type Option func(*Processor)

// WithMinChars also drops chunks with fewer than n non-space characters.
func WithMinChars(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minChars = n
		}
	}
}

// New creates a dedupe processor.
func New(opts ...Option) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "dedupe"
}

// Process filters chunks in order.
func (p *Processor) Process(ctx context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(chunks))
	kept := chunks[:0:0]
	for _, c := range chunks {
		key := fingerprint(c.Content)
		if len([]rune(key))-strings.Count(key, " ") < p.minChars {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, c)
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: every chunk was shorter than %d characters", domain.ErrChunk, p.minChars)
	}
	return kept, nil
}

// fingerprint lower-cases s and collapses whitespace runs to one space.
func fingerprint(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
