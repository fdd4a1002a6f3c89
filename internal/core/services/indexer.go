package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultEmbedBatchSize is the number of chunks embedded per call.
const DefaultEmbedBatchSize = 32

// ProgressFunc reports embedding progress as chunks done out of total.
type ProgressFunc func(done, total int)

// IndexBuilder embeds chunks and builds a per-document retriever.
type IndexBuilder struct {
	embedder  driven.EmbeddingService
	newIndex  driven.VectorIndexFactory
	opts      domain.RetrievalOptions
	batchSize int
	progress  ProgressFunc
}

// NewIndexBuilder creates an index builder.
// Non-positive batch sizes use DefaultEmbedBatchSize.
func NewIndexBuilder(
	embedder driven.EmbeddingService,
	newIndex driven.VectorIndexFactory,
	opts domain.RetrievalOptions,
	batchSize int,
) *IndexBuilder {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	return &IndexBuilder{
		embedder:  embedder,
		newIndex:  newIndex,
		opts:      opts.Normalise(),
		batchSize: batchSize,
	}
}

// SetProgress sets a callback invoked after each embedding batch.
func (b *IndexBuilder) SetProgress(fn ProgressFunc) {
	b.progress = fn
}

// ModelName returns the embedding model used to build indexes.
func (b *IndexBuilder) ModelName() string {
	return b.embedder.ModelName()
}

// Build embeds every chunk and returns a retriever over the new index.
// Any embedding failure, inconsistent vector, or empty result wraps domain.ErrIndex.
func (b *IndexBuilder) Build(ctx context.Context, ref domain.DocumentReference, chunks []domain.Chunk) (*MMRRetriever, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", domain.ErrIndex)
	}

	logger.Debug("Embedding %d chunks for %s in batches of %d", len(chunks), ref.Collection(), b.batchSize)

	embedded := make([]domain.Chunk, len(chunks))
	copy(embedded, chunks)

	for start := 0; start < len(embedded); start += b.batchSize {
		end := min(start+b.batchSize, len(embedded))

		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = embedded[i].Content
		}

		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: embed chunks %d-%d: %w", domain.ErrIndex, start, end-1, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d chunks",
				domain.ErrIndex, len(vectors), len(texts))
		}

		for i, v := range vectors {
			embedded[start+i].Embedding = v
		}

		if b.progress != nil {
			b.progress(end, len(embedded))
		}
	}

	return b.populate(ctx, ref, embedded)
}

// Restore rebuilds a retriever from chunks that already carry embeddings,
// without calling the embedding service.
func (b *IndexBuilder) Restore(ctx context.Context, ref domain.DocumentReference, chunks []domain.Chunk) (*MMRRetriever, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to restore", domain.ErrIndex)
	}
	restored := make([]domain.Chunk, len(chunks))
	copy(restored, chunks)
	return b.populate(ctx, ref, restored)
}

// populate checks dimensions and inserts every chunk into a fresh index.
func (b *IndexBuilder) populate(ctx context.Context, ref domain.DocumentReference, chunks []domain.Chunk) (*MMRRetriever, error) {
	dims := len(chunks[0].Embedding)
	if dims == 0 {
		return nil, fmt.Errorf("%w: empty embedding for chunk 0", domain.ErrIndex)
	}
	for i, c := range chunks {
		if len(c.Embedding) != dims {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				domain.ErrIndex, i, len(c.Embedding), dims)
		}
	}

	index, err := b.newIndex(ref.Collection(), dims)
	if err != nil {
		return nil, fmt.Errorf("%w: create index: %w", domain.ErrIndex, err)
	}

	for _, c := range chunks {
		if err := index.Add(ctx, c.ID, c.Embedding); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("%w: add chunk %s: %w", domain.ErrIndex, c.ID, err)
		}
	}

	if index.Len() == 0 {
		_ = index.Close()
		return nil, fmt.Errorf("%w: index is empty", domain.ErrIndex)
	}

	logger.Debug("Indexed %d chunks (%d dimensions) into %s", index.Len(), dims, ref.Collection())

	return NewMMRRetriever(ref.Collection(), chunks, index, b.embedder, b.opts), nil
}
