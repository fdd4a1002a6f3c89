// Package memory provides an in-memory brute-force vector index.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores vectors for one collection and searches them exhaustively
// by cosine similarity. Per-document indexes hold a few hundred chunks,
// where a linear scan is faster than building a graph index.
type Index struct {
	mu         sync.RWMutex
	collection string
	dimensions int
	ids        []string
	vectors    [][]float32
	positions  map[string]int
}

// New creates an empty index for the collection.
func New(collection string, dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %d", dimensions)
	}
	return &Index{
		collection: collection,
		dimensions: dimensions,
		positions:  make(map[string]int),
	}, nil
}

// Factory adapts New to driven.VectorIndexFactory.
func Factory(collection string, dimensions int) (driven.VectorIndex, error) {
	return New(collection, dimensions)
}

// Add inserts or replaces the vector for chunkID.
func (i *Index) Add(_ context.Context, chunkID string, embedding []float32) error {
	if len(embedding) != i.dimensions {
		return fmt.Errorf("vector dimension mismatch: expected %d, got %d", i.dimensions, len(embedding))
	}

	v := append([]float32(nil), embedding...)

	i.mu.Lock()
	defer i.mu.Unlock()

	if pos, ok := i.positions[chunkID]; ok {
		i.vectors[pos] = v
		return nil
	}
	i.positions[chunkID] = len(i.ids)
	i.ids = append(i.ids, chunkID)
	i.vectors = append(i.vectors, v)
	return nil
}

// Search returns the k most similar vectors, most similar first.
// Equal similarities keep insertion order.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != i.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", i.dimensions, len(query))
	}
	if k <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.RLock()
	hits := make([]driven.VectorHit, len(i.ids))
	for n, id := range i.ids {
		hits[n] = driven.VectorHit{
			ChunkID:    id,
			Similarity: domain.CosineSimilarity(query, i.vectors[n]),
		}
	}
	i.mu.RUnlock()

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Similarity > hits[b].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of vectors.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.ids)
}

// Collection returns the collection name.
func (i *Index) Collection() string {
	return i.collection
}

// Close is a no-op; the index is garbage collected with its retriever.
func (i *Index) Close() error {
	return nil
}
