// Package postgres provides a PostgreSQL implementation of driven.IndexStore
// using the pgvector extension for embedding columns.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// DefaultTablePrefix namespaces the store's tables.
const DefaultTablePrefix = "docqa_"

// connectTimeout bounds the initial ping and schema setup.
const connectTimeout = 10 * time.Second

// Config holds store configuration.
type Config struct {
	// DSN is a lib/pq connection string (required).
	DSN string

	// TablePrefix is prepended to table names (default: docqa_).
	TablePrefix string
}

// Store persists built indexes in PostgreSQL.
type Store struct {
	db      *sql.DB
	indexes string
	chunks  string
}

// NewStore connects to PostgreSQL and creates the schema if needed.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", domain.ErrInvalidInput)
	}
	if cfg.TablePrefix == "" {
		cfg.TablePrefix = DefaultTablePrefix
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:      db,
		indexes: pq.QuoteIdentifier(cfg.TablePrefix + "indexes"),
		chunks:  pq.QuoteIdentifier(cfg.TablePrefix + "chunks"),
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// createTables creates the extension and tables if they do not exist.
// The embedding column is dimension-free so one table serves every model.
func (s *Store) createTables(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			collection  TEXT PRIMARY KEY,
			model       TEXT NOT NULL,
			dimensions  INTEGER NOT NULL,
			chunk_count INTEGER NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.indexes),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			collection   TEXT NOT NULL REFERENCES %s(collection) ON DELETE CASCADE,
			position     INTEGER NOT NULL,
			id           TEXT NOT NULL,
			page         INTEGER NOT NULL DEFAULT 0,
			start_offset INTEGER NOT NULL DEFAULT 0,
			end_offset   INTEGER NOT NULL DEFAULT 0,
			content      TEXT NOT NULL,
			embedding    vector NOT NULL,
			metadata     JSONB,
			PRIMARY KEY (collection, position)
		)`, s.chunks, s.indexes),
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Save replaces the stored index for the collection.
func (s *Store) Save(ctx context.Context, collection, model string, chunks []domain.Chunk) error {
	if collection == "" {
		return fmt.Errorf("%w: empty collection", domain.ErrInvalidInput)
	}

	dims := 0
	if len(chunks) > 0 {
		dims = len(chunks[0].Embedding)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE collection = $1`, s.indexes), collection); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (collection, model, dimensions, chunk_count)
		VALUES ($1, $2, $3, $4)
	`, s.indexes), collection, model, dims, len(chunks)); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (collection, position, id, page, start_offset, end_offset, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.chunks))
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if len(c.Embedding) != dims {
			return fmt.Errorf("%w: chunk %s has %d dimensions, expected %d",
				domain.ErrInvalidInput, c.ID, len(c.Embedding), dims)
		}

		var metadata any
		if len(c.Metadata) > 0 {
			data, err := json.Marshal(c.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling metadata: %w", err)
			}
			metadata = string(data)
		}

		if _, err := stmt.ExecContext(ctx, collection, c.Position, c.ID, c.Page, c.Start, c.End,
			c.Content, pgvector.NewVector(c.Embedding), metadata); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Load returns the stored chunks ordered by position.
// Returns domain.ErrNotFound if the collection is missing or was built by another model.
func (s *Store) Load(ctx context.Context, collection, model string) ([]domain.Chunk, error) {
	var storedModel string
	var count int
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT model, chunk_count FROM %s WHERE collection = $1`, s.indexes), collection)
	if err := row.Scan(&storedModel, &count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning index: %w", err)
	}
	if storedModel != model {
		return nil, domain.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, position, page, start_offset, end_offset, content, embedding, metadata
		FROM %s WHERE collection = $1 ORDER BY position
	`, s.chunks), collection)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0, count)
	for rows.Next() {
		var (
			c         domain.Chunk
			embedding pgvector.Vector
			metadata  []byte
		)
		if err := rows.Scan(&c.ID, &c.Position, &c.Page, &c.Start, &c.End,
			&c.Content, &embedding, &metadata); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}
		c.Collection = collection
		c.Embedding = embedding.Slice()
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// Delete removes the stored index for the collection.
func (s *Store) Delete(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE collection = $1`, s.indexes), collection); err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
