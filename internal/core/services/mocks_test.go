package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// fakeEmbedder hashes lowercase words into a small bag-of-words vector.
type fakeEmbedder struct {
	dims     int
	batchErr error
	queryErr error
	short    bool // return one vector fewer than requested

	mu      sync.Mutex
	batches int
	texts   int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dims: 32}
}

func (e *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)
	if e.dims == 0 {
		return v
	}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:?!\"'()")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[int(h.Sum32())%e.dims]++
	}
	return v
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.queryErr != nil {
		return nil, e.queryErr
	}
	return e.vector(text), nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batches++
	e.texts += len(texts)
	e.mu.Unlock()

	if e.batchErr != nil {
		return nil, e.batchErr
	}
	n := len(texts)
	if e.short && n > 0 {
		n--
	}
	out := make([][]float32, n)
	for i := 0; i < n; i++ {
		out[i] = e.vector(texts[i])
	}
	return out, nil
}

func (e *fakeEmbedder) Batches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batches
}

func (e *fakeEmbedder) Dimensions() int              { return e.dims }
func (e *fakeEmbedder) ModelName() string            { return "fake-embed" }
func (e *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (e *fakeEmbedder) Close() error                 { return nil }

// fakeLLM answers through a caller-supplied function and tracks concurrency.
type fakeLLM struct {
	respond func(prompt string) (string, error)
	delay   time.Duration

	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32

	mu      sync.Mutex
	prompts []string
}

func (l *fakeLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.calls.Add(1)
	n := l.inFlight.Add(1)
	defer l.inFlight.Add(-1)
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}

	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	l.mu.Unlock()

	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if l.respond == nil {
		return "ok", nil
	}
	return l.respond(prompt)
}

func (l *fakeLLM) ModelName() string            { return "fake-llm" }
func (l *fakeLLM) Ping(_ context.Context) error { return nil }
func (l *fakeLLM) Close() error                 { return nil }

// questionOf extracts the question line from a rendered default prompt.
func questionOf(prompt string) string {
	const marker = "**Question:**"
	i := strings.LastIndex(prompt, marker)
	if i < 0 {
		return ""
	}
	rest := strings.TrimSpace(prompt[i+len(marker):])
	if j := strings.Index(rest, "\n"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

// fakeFetcher returns fixed segments and counts calls.
type fakeFetcher struct {
	segments []domain.TextSegment
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref domain.DocumentReference) ([]domain.TextSegment, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.TextSegment, len(f.segments))
	copy(out, f.segments)
	for i := range out {
		out[i].Source = ref.URL
		out[i].Format = ref.Format
	}
	return out, nil
}

// paragraphSplitter makes one chunk per blank-line separated paragraph.
type paragraphSplitter struct {
	err error
}

func (s *paragraphSplitter) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	var chunks []domain.Chunk
	for _, seg := range doc.Segments {
		for _, p := range strings.Split(seg.Text, "\n\n") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				ID:         doc.Collection() + "#" + strconv.Itoa(len(chunks)),
				Collection: doc.Collection(),
				Content:    p,
				Position:   len(chunks),
				Page:       seg.Page,
			})
		}
	}
	return chunks, nil
}

// fakeIndexStore records saves and serves loads from memory.
type fakeIndexStore struct {
	mu      sync.Mutex
	saved   map[string][]domain.Chunk
	loadErr error
	saveErr error
	saves   int
}

func newFakeIndexStore() *fakeIndexStore {
	return &fakeIndexStore{saved: make(map[string][]domain.Chunk)}
}

func (s *fakeIndexStore) Save(_ context.Context, collection, model string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved[collection+"|"+model] = chunks
	return nil
}

func (s *fakeIndexStore) Load(_ context.Context, collection, model string) ([]domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	chunks, ok := s.saved[collection+"|"+model]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return chunks, nil
}

func (s *fakeIndexStore) Delete(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.saved {
		if strings.HasPrefix(k, collection+"|") {
			delete(s.saved, k)
		}
	}
	return nil
}

func (s *fakeIndexStore) Close() error { return nil }

// failingIndex rejects every Add.
type failingIndex struct{}

func (failingIndex) Add(_ context.Context, _ string, _ []float32) error {
	return errors.New("disk full")
}

func (failingIndex) Search(_ context.Context, _ []float32, _ int) ([]driven.VectorHit, error) {
	return nil, nil
}

func (failingIndex) Len() int     { return 0 }
func (failingIndex) Close() error { return nil }

// staticRetriever returns fixed chunks.
type staticRetriever struct {
	chunks []domain.Chunk
	err    error
}

func (r *staticRetriever) Retrieve(_ context.Context, _ string) ([]domain.Chunk, error) {
	return r.chunks, r.err
}

func (r *staticRetriever) Len() int { return len(r.chunks) }
