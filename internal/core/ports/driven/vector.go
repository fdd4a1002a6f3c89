package driven

import "context"

// VectorIndex provides similarity search over one document's chunks.
// Implementations must be safe for concurrent Search once population is done.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector,
	// ordered by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of vectors in the index.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorIndexFactory creates an empty index for a collection.
type VectorIndexFactory func(collection string, dimensions int) (VectorIndex, error)

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score.
	Similarity float64
}
