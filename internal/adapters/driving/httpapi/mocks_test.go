package httpapi

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// stubAnswering records calls and returns canned results.
type stubAnswering struct {
	mu        sync.Mutex
	calls     int
	ref       domain.DocumentReference
	questions []string
	results   []domain.QuestionResult
	err       error
	sawCtx    context.Context
}

func (s *stubAnswering) Run(
	ctx context.Context, ref domain.DocumentReference, questions []string,
) ([]domain.QuestionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.ref = ref
	s.questions = questions
	s.sawCtx = ctx
	if s.err != nil {
		return nil, s.err
	}
	if s.results != nil {
		return s.results, nil
	}
	results := make([]domain.QuestionResult, len(questions))
	for i, q := range questions {
		results[i] = domain.QuestionResult{Question: q, Answer: "answer to " + q}
	}
	return results, nil
}

func (s *stubAnswering) Models() driving.ModelInfo {
	return driving.ModelInfo{LLM: "stub-llm", Embedding: "stub-embed"}
}

func (s *stubAnswering) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// staticFetcher returns fixed segments and counts calls.
type staticFetcher struct {
	mu       sync.Mutex
	segments []domain.TextSegment
	calls    int
}

func (f *staticFetcher) Fetch(_ context.Context, ref domain.DocumentReference) ([]domain.TextSegment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if !ref.Format.IsKnown() {
		return nil, domain.ErrUnsupportedFormat
	}
	return f.segments, nil
}

func (f *staticFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// wordEmbedder hashes words into a bag-of-words vector.
type wordEmbedder struct{}

func (wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?")))
		v[h.Sum32()%64]++
	}
	return v, nil
}

func (e wordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (wordEmbedder) Dimensions() int { return 64 }
func (wordEmbedder) ModelName() string { return "word-embed" }
func (wordEmbedder) Ping(context.Context) error { return nil }
func (wordEmbedder) Close() error { return nil }

// groundedLLM answers only from the context section of the prompt.
type groundedLLM struct{}

func (groundedLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	split := strings.LastIndex(prompt, "**Question:**")
	question, passages := prompt[split:], prompt[:split]
	if strings.Contains(question, "grace period") && strings.Contains(passages, "30 days") {
		return "A grace period of 30 days is provided.", nil
	}
	if strings.Contains(question, "waiting period") && strings.Contains(passages, "12 months") {
		return "The waiting period is 12 months.", nil
	}
	return domain.NotAvailableAnswer, nil
}

func (groundedLLM) ModelName() string { return "grounded-llm" }
func (groundedLLM) Ping(context.Context) error { return nil }
func (groundedLLM) Close() error { return nil }
