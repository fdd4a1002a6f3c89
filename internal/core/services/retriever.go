package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure MMRRetriever implements the interface.
var _ driven.Retriever = (*MMRRetriever)(nil)

// MMRRetriever searches one document index with maximal marginal relevance.
// It is read-only after construction and safe for concurrent use.
type MMRRetriever struct {
	collection string
	chunks     []domain.Chunk
	byID       map[string]int
	index      driven.VectorIndex
	embedder   driven.EmbeddingService
	opts       domain.RetrievalOptions
}

// NewMMRRetriever creates a retriever over chunks already added to index.
// Chunks must carry their embeddings.
func NewMMRRetriever(
	collection string,
	chunks []domain.Chunk,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	opts domain.RetrievalOptions,
) *MMRRetriever {
	byID := make(map[string]int, len(chunks))
	for i, c := range chunks {
		byID[c.ID] = i
	}
	return &MMRRetriever{
		collection: collection,
		chunks:     chunks,
		byID:       byID,
		index:      index,
		embedder:   embedder,
		opts:       opts.Normalise(),
	}
}

// Retrieve embeds the query, fetches FetchK nearest candidates and
// greedily selects K of them balancing relevance against redundancy.
func (r *MMRRetriever) Retrieve(ctx context.Context, query string) ([]domain.Chunk, error) {
	q, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, q, r.opts.FetchK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	candidates := make([]domain.Chunk, 0, len(hits))
	for _, hit := range hits {
		if i, ok := r.byID[hit.ChunkID]; ok {
			candidates = append(candidates, r.chunks[i])
		}
	}

	return MaximalMarginalRelevance(q, candidates, r.opts.K, r.opts.Lambda), nil
}

// Len returns the number of indexed chunks.
func (r *MMRRetriever) Len() int {
	return len(r.chunks)
}

// Collection returns the index namespace.
func (r *MMRRetriever) Collection() string {
	return r.collection
}

// Chunks returns a copy of the indexed chunks in position order.
func (r *MMRRetriever) Chunks() []domain.Chunk {
	out := make([]domain.Chunk, len(r.chunks))
	copy(out, r.chunks)
	return out
}

// Close releases the underlying index.
func (r *MMRRetriever) Close() error {
	return r.index.Close()
}

// MaximalMarginalRelevance selects up to k candidates. The first pick is the
// candidate most similar to the query; each further pick maximises
//
//	lambda*sim(query, c) - (1-lambda)*max(sim(c, s) for s in selected)
//
// using cosine similarity of embeddings. Ties keep candidate order.
func MaximalMarginalRelevance(query []float32, candidates []domain.Chunk, k int, lambda float64) []domain.Chunk {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = domain.CosineSimilarity(query, c.Embedding)
	}

	// redundancy[i] is the max similarity of candidate i to any selected chunk.
	redundancy := make([]float64, len(candidates))
	used := make([]bool, len(candidates))
	selected := make([]domain.Chunk, 0, k)

	for len(selected) < k {
		best := -1
		bestScore := 0.0
		for i := range candidates {
			if used[i] {
				continue
			}
			score := relevance[i]
			if len(selected) > 0 {
				score = lambda*relevance[i] - (1-lambda)*redundancy[i]
			}
			if best == -1 || score > bestScore {
				best, bestScore = i, score
			}
		}

		used[best] = true
		selected = append(selected, candidates[best])

		for i := range candidates {
			if used[i] {
				continue
			}
			if sim := domain.CosineSimilarity(candidates[i].Embedding, candidates[best].Embedding); sim > redundancy[i] || len(selected) == 1 {
				redundancy[i] = sim
			}
		}
	}

	return selected
}
