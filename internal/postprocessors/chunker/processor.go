// Package chunker provides a recursive character text splitter.
package chunker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultSeparators are the natural breaks tried in priority order
// before falling back to a hard character cut.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " "}

// Processor splits document segments into overlapping chunks.
// It implements the PostProcessor interface.
//
// Chunks are exact substrings of their segment. Consecutive chunks of one
// segment share between 0 and overlap characters, and together they cover
// every character of the segment.
type Processor struct {
	chunkSize  int
	overlap    int
	separators [][]rune
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator priority list.
func WithSeparators(seps ...string) Option {
	return func(p *Processor) {
		p.separators = p.separators[:0]
		for _, s := range seps {
			if s != "" {
				p.separators = append(p.separators, []rune(s))
			}
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, s := range DefaultSeparators {
		p.separators = append(p.separators, []rune(s))
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits every segment of the document into chunks.
// Input chunks are ignored; this processor creates new chunks from the segments.
// Positions run across the whole document; IDs are derived from the
// collection and position so repeated runs produce identical chunks.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	collection := doc.Collection()
	var chunks []domain.Chunk

	for _, seg := range doc.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}

		for _, w := range p.Windows(seg.Text) {
			position := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:         ChunkID(collection, position),
				Collection: collection,
				Content:    w.Text,
				Position:   position,
				Page:       seg.Page,
				Start:      w.Start,
				End:        w.End,
				Metadata: map[string]any{
					"source": seg.Source,
					"format": seg.Format.String(),
				},
			})
		}
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document has no text to split", domain.ErrChunk)
	}

	return chunks, nil
}

// ChunkID returns the deterministic ID for a chunk position in a collection.
func ChunkID(collection string, position int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(collection+"#"+strconv.Itoa(position))).String()
}

// Window is one chunk of a text, addressed by rune offsets.
type Window struct {
	Text  string
	Start int
	End   int
}

// Windows splits text into overlapping windows of at most chunkSize runes.
// Text no longer than chunkSize yields exactly one window.
func (p *Processor) Windows(text string) []Window {
	r := []rune(text)
	n := len(r)
	if n == 0 {
		return nil
	}

	var windows []Window
	start := 0
	for {
		if n-start <= p.chunkSize {
			windows = append(windows, Window{Text: string(r[start:n]), Start: start, End: n})
			return windows
		}

		end := p.breakPoint(r, start)
		windows = append(windows, Window{Text: string(r[start:end]), Start: start, End: end})
		start = p.nextStart(r, start, end)
	}
}

// breakPoint returns the end of the window starting at start. It prefers
// the last occurrence of the highest priority separator inside the window,
// keeping the separator in the chunk. The window is always longer than the
// overlap so the next window makes progress.
func (p *Processor) breakPoint(r []rune, start int) int {
	limit := start + p.chunkSize
	minEnd := start + p.chunkSize/2
	if minEnd <= start+p.overlap {
		minEnd = start + p.overlap + 1
	}

	for _, sep := range p.separators {
		for end := limit; end >= minEnd; end-- {
			if hasSuffixAt(r, end, sep) {
				return end
			}
		}
	}

	return limit
}

// nextStart returns where the window after [start, end) begins: the first
// word boundary in [end-overlap, end], or end-overlap if there is none.
func (p *Processor) nextStart(r []rune, start, end int) int {
	if p.overlap == 0 {
		return end
	}

	from := end - p.overlap
	if from <= start {
		from = start + 1
	}
	for s := from; s <= end; s++ {
		if unicode.IsSpace(r[s-1]) && !unicode.IsSpace(r[s]) {
			return s
		}
	}

	return from
}

func hasSuffixAt(r []rune, end int, sep []rune) bool {
	begin := end - len(sep)
	if begin < 0 {
		return false
	}
	for i, c := range sep {
		if r[begin+i] != c {
			return false
		}
	}
	return true
}
