package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure PipelineService implements the interface.
var _ driving.AnsweringService = (*PipelineService)(nil)

// PipelineService runs fetch, chunk and index once per document, then
// answers every question concurrently.
type PipelineService struct {
	fetcher  driven.DocumentFetcher
	splitter driven.PostProcessorPipeline
	indexer  *IndexBuilder
	answerer *Answerer
	cache    *IndexCache
	store    driven.IndexStore
}

// NewPipelineService creates a pipeline service.
func NewPipelineService(
	fetcher driven.DocumentFetcher,
	splitter driven.PostProcessorPipeline,
	indexer *IndexBuilder,
	answerer *Answerer,
) *PipelineService {
	return &PipelineService{
		fetcher:  fetcher,
		splitter: splitter,
		indexer:  indexer,
		answerer: answerer,
	}
}

// SetIndexCache enables reuse of built indexes across requests.
func (s *PipelineService) SetIndexCache(cache *IndexCache) {
	s.cache = cache
}

// SetIndexStore enables persisted indexes. Store failures are logged
// and never fail a request.
func (s *PipelineService) SetIndexStore(store driven.IndexStore) {
	s.store = store
}

// Models reports the completion and embedding models in use.
func (s *PipelineService) Models() driving.ModelInfo {
	return driving.ModelInfo{
		LLM:       s.answerer.ModelName(),
		Embedding: s.indexer.ModelName(),
	}
}

// Run answers questions against the referenced document.
func (s *PipelineService) Run(
	ctx context.Context, ref domain.DocumentReference, questions []string,
) ([]domain.QuestionResult, error) {
	run := newRunTracker(ref)
	started := time.Now()

	run.transition(domain.RunIndexing)
	retriever, err := s.Index(ctx, ref)
	if err != nil {
		run.transition(domain.RunIndexFailed)
		logger.Error("Failed to index %s: %v", ref.URL, err)
		return nil, err
	}
	run.transition(domain.RunIndexed)

	run.transition(domain.RunAnswering)
	results := s.answerAll(ctx, questions, retriever)
	run.transition(domain.RunDone)

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	logger.Info("Answered %d questions for %s (%d failed) in %s",
		len(results), ref.URL, failed, time.Since(started).Round(time.Millisecond))

	return results, nil
}

// answerAll runs one answer unit per question and keeps input order.
func (s *PipelineService) answerAll(
	ctx context.Context, questions []string, retriever driven.Retriever,
) []domain.QuestionResult {
	results := make([]domain.QuestionResult, len(questions))

	var g errgroup.Group
	for i, q := range questions {
		g.Go(func() error {
			results[i] = s.answerer.Answer(ctx, q, retriever)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Index returns a retriever for the document, reusing a cached or
// persisted index when one is available.
func (s *PipelineService) Index(ctx context.Context, ref domain.DocumentReference) (*MMRRetriever, error) {
	build := func(ctx context.Context) (*MMRRetriever, error) {
		if r := s.restore(ctx, ref); r != nil {
			return r, nil
		}
		return s.build(ctx, ref)
	}

	r, shared, err := s.cache.GetOrBuild(ctx, ref.Hash(), build)
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("Reusing index %s", ref.Collection())
	}
	return r, nil
}

// build runs the fetch, chunk and index stages.
func (s *PipelineService) build(ctx context.Context, ref domain.DocumentReference) (*MMRRetriever, error) {
	logger.Section("Fetch")
	segments, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, ensureKind(err, domain.ErrFetch)
	}
	logger.Debug("Fetched %d segments from %s", len(segments), ref.URL)

	logger.Section("Chunk")
	doc := &domain.Document{Ref: ref, Segments: segments}
	chunks, err := s.splitter.Process(ctx, doc)
	if err != nil {
		return nil, ensureKind(err, domain.ErrChunk)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document could not be split into chunks", domain.ErrChunk)
	}
	logger.Debug("Split into %d chunks", len(chunks))

	logger.Section("Index")
	r, err := s.indexer.Build(ctx, ref, chunks)
	if err != nil {
		return nil, ensureKind(err, domain.ErrIndex)
	}

	s.persist(ctx, ref, r)
	return r, nil
}

// restore loads a persisted index, or returns nil.
func (s *PipelineService) restore(ctx context.Context, ref domain.DocumentReference) *MMRRetriever {
	if s.store == nil {
		return nil
	}

	chunks, err := s.store.Load(ctx, ref.Collection(), s.indexer.ModelName())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Failed to load stored index %s: %v", ref.Collection(), err)
		}
		return nil
	}

	r, err := s.indexer.Restore(ctx, ref, chunks)
	if err != nil {
		logger.Warn("Discarding stored index %s: %v", ref.Collection(), err)
		return nil
	}

	logger.Info("Restored index %s with %d chunks", ref.Collection(), r.Len())
	return r
}

// persist saves a built index. Failures are logged only.
func (s *PipelineService) persist(ctx context.Context, ref domain.DocumentReference, r *MMRRetriever) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, ref.Collection(), s.indexer.ModelName(), r.Chunks()); err != nil {
		logger.Warn("Failed to store index %s: %v", ref.Collection(), err)
	}
}

// ensureKind wraps err with kind unless it already carries an indexing error.
func ensureKind(err, kind error) error {
	if domain.IsIndexingError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// runTracker logs state transitions of one run.
type runTracker struct {
	ref   domain.DocumentReference
	state domain.RunState
}

func newRunTracker(ref domain.DocumentReference) *runTracker {
	logger.Debug("Run %s: %s", ref.Hash(), domain.RunReceived)
	return &runTracker{ref: ref, state: domain.RunReceived}
}

func (t *runTracker) transition(next domain.RunState) {
	if !t.state.CanTransition(next) {
		logger.Warn("Run %s: unexpected transition %s -> %s", t.ref.Hash(), t.state, next)
	}
	logger.Debug("Run %s: %s -> %s", t.ref.Hash(), t.state, next)
	t.state = next
}
