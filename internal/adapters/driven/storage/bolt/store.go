// Package bolt provides a bbolt-backed implementation of driven.IndexStore.
//
// Each collection is a nested bucket under "indexes" holding a meta record
// and a "chunks" bucket keyed by big-endian position, so a cursor walks
// chunks in document order.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// DefaultFileName is the database file created in the data directory.
const DefaultFileName = "index.bolt"

var (
	bucketIndexes = []byte("indexes")
	bucketChunks  = []byte("chunks")
	keyMeta       = []byte("meta")
)

// openTimeout bounds waiting for the file lock held by another process.
const openTimeout = 5 * time.Second

// Store persists built indexes in a bbolt file.
type Store struct {
	db *bbolt.DB
}

type indexMeta struct {
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	Count      int       `json:"count"`
	CreatedAt  time.Time `json:"created_at"`
}

type storedChunk struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Position int            `json:"position"`
	Page     int            `json:"page,omitempty"`
	Start    int            `json:"start"`
	End      int            `json:"end"`
	Vector   []float32      `json:"v"`
	Metadata map[string]any `json:"m,omitempty"`
}

// NewStore opens or creates the bbolt file at path.
// If path is empty, defaults to ~/.docqa/data/index.bolt.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".docqa", "data", DefaultFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketIndexes)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create indexes bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Save replaces the stored index for the collection.
func (s *Store) Save(ctx context.Context, collection, model string, chunks []domain.Chunk) error {
	if collection == "" {
		return fmt.Errorf("%w: empty collection", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	meta := indexMeta{Model: model, Count: len(chunks), CreatedAt: time.Now().UTC()}
	if len(chunks) > 0 {
		meta.Dimensions = len(chunks[0].Embedding)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketIndexes)
		if root.Bucket([]byte(collection)) != nil {
			if err := root.DeleteBucket([]byte(collection)); err != nil {
				return fmt.Errorf("clearing index: %w", err)
			}
		}

		b, err := root.CreateBucket([]byte(collection))
		if err != nil {
			return fmt.Errorf("creating index bucket: %w", err)
		}

		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := b.Put(keyMeta, data); err != nil {
			return err
		}

		cb, err := b.CreateBucket(bucketChunks)
		if err != nil {
			return err
		}

		for _, c := range chunks {
			if len(c.Embedding) != meta.Dimensions {
				return fmt.Errorf("%w: vector dimension mismatch: expected %d, got %d",
					domain.ErrInvalidInput, meta.Dimensions, len(c.Embedding))
			}

			data, err := json.Marshal(storedChunk{
				ID:       c.ID,
				Content:  c.Content,
				Position: c.Position,
				Page:     c.Page,
				Start:    c.Start,
				End:      c.End,
				Vector:   c.Embedding,
				Metadata: c.Metadata,
			})
			if err != nil {
				return fmt.Errorf("encoding chunk %s: %w", c.ID, err)
			}
			if err := cb.Put(positionKey(c.Position), data); err != nil {
				return err
			}
		}

		return nil
	})
}

// Load returns the stored chunks ordered by position.
// Returns domain.ErrNotFound if the collection is missing or was built by another model.
func (s *Store) Load(ctx context.Context, collection, model string) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketIndexes).Bucket([]byte(collection))
		if b == nil {
			return domain.ErrNotFound
		}

		var meta indexMeta
		if err := json.Unmarshal(b.Get(keyMeta), &meta); err != nil {
			return fmt.Errorf("decoding index meta: %w", err)
		}
		if meta.Model != model {
			return domain.ErrNotFound
		}

		cb := b.Bucket(bucketChunks)
		if cb == nil {
			return domain.ErrNotFound
		}

		chunks = make([]domain.Chunk, 0, meta.Count)
		return cb.ForEach(func(_, v []byte) error {
			var stored storedChunk
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("decoding chunk: %w", err)
			}
			chunks = append(chunks, domain.Chunk{
				ID:         stored.ID,
				Collection: collection,
				Content:    stored.Content,
				Position:   stored.Position,
				Page:       stored.Page,
				Start:      stored.Start,
				End:        stored.End,
				Embedding:  stored.Vector,
				Metadata:   stored.Metadata,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// Delete removes the stored index for the collection.
func (s *Store) Delete(_ context.Context, collection string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketIndexes)
		if root.Bucket([]byte(collection)) == nil {
			return nil
		}
		return root.DeleteBucket([]byte(collection))
	})
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func positionKey(position int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(position))
	return key
}
