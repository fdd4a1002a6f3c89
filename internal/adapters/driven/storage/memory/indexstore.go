package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
type IndexStore struct {
	mu      sync.RWMutex
	indexes map[string]storedIndex
}

type storedIndex struct {
	model  string
	chunks []domain.Chunk
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		indexes: make(map[string]storedIndex),
	}
}

// Save replaces the stored index for the collection.
func (s *IndexStore) Save(_ context.Context, collection, model string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[collection] = storedIndex{model: model, chunks: cloneChunks(chunks)}
	return nil
}

// Load returns the stored chunks for the collection and model.
func (s *IndexStore) Load(_ context.Context, collection, model string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[collection]
	if !ok || idx.model != model {
		return nil, domain.ErrNotFound
	}
	return cloneChunks(idx.chunks), nil
}

// Delete removes the stored index for the collection.
func (s *IndexStore) Delete(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, collection)
	return nil
}

// Len returns the number of stored indexes.
func (s *IndexStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.indexes)
}

// Close is a no-op for the memory store.
func (s *IndexStore) Close() error {
	return nil
}

func cloneChunks(chunks []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Embedding = append([]float32(nil), c.Embedding...)
		out[i] = c
	}
	return out
}
