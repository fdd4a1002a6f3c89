package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

var _ driven.IndexStore = (*Store)(nil)

// DefaultFileName is the database file created under the data directory.
const DefaultFileName = "index.db"

//go:embed migrations/*.up.sql
var migrationFS embed.FS

// pragmas are in the DSN so every pooled connection gets them.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at file and brings the schema up
// to date. An empty file means ~/.docqa/data/index.db.
func NewStore(file string) (*Store, error) {
	if file == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		file = filepath.Join(home, ".docqa", "data", DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(file), err)
	}

	db, err := sql.Open("sqlite", file+pragmas)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file, err)
	}
	if err := migrate(db, migrationFS); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: file}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Path() string { return s.path }

// Save replaces whatever is stored for collection in one transaction.
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
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// chunks cascade from indexes.
	if _, err := tx.ExecContext(ctx, `DELETE FROM indexes WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("replacing %s: %w", collection, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO indexes (collection, model, dimensions, chunk_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		collection, model, dims, len(chunks), time.Now().UTC()); err != nil {
		return fmt.Errorf("writing index row: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO chunks
		(collection, position, id, page, start_offset, end_offset, content, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer insert.Close()

	for _, c := range chunks {
		if len(c.Embedding) != dims {
			return fmt.Errorf("%w: chunk %s has %d dimensions, expected %d",
				domain.ErrInvalidInput, c.ID, len(c.Embedding), dims)
		}
		meta, err := encodeMetadata(c.Metadata)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		if _, err := insert.ExecContext(ctx, collection, c.Position, c.ID, c.Page, c.Start, c.End,
			c.Content, encodeVector(c.Embedding), meta); err != nil {
			return fmt.Errorf("writing chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// Load returns domain.ErrNotFound when nothing is stored for collection or
// it was embedded by a different model.
func (s *Store) Load(ctx context.Context, collection, model string) ([]domain.Chunk, error) {
	var (
		stored string
		count  int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT model, chunk_count FROM indexes WHERE collection = ?`, collection).Scan(&stored, &count)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("reading index row: %w", err)
	case stored != model:
		return nil, domain.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, position, page, start_offset, end_offset, content, embedding, metadata
		FROM chunks WHERE collection = ? ORDER BY position`, collection)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0, count)
	for rows.Next() {
		var (
			c    = domain.Chunk{Collection: collection}
			vec  []byte
			meta sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Position, &c.Page, &c.Start, &c.End, &c.Content, &vec, &meta); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = decodeVector(vec)
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &c.Metadata); err != nil {
				return nil, fmt.Errorf("chunk %s metadata: %w", c.ID, err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *Store) Delete(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM indexes WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("deleting %s: %w", collection, err)
	}
	return nil
}

// migrate applies every migrations/NNN_*.up.sql newer than the recorded
// version, each in its own transaction.
func migrate(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("schema version: %w", err)
	}

	files, err := fs.Glob(fsys, "migrations/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		var version int
		if _, err := fmt.Sscanf(path.Base(file), "%d_", &version); err != nil || version <= current {
			continue
		}
		body, err := fs.ReadFile(fsys, file)
		if err != nil {
			return err
		}
		if err := apply(db, version, string(body)); err != nil {
			return fmt.Errorf("migration %s: %w", path.Base(file), err)
		}
	}
	return nil
}

func apply(db *sql.DB, version int, body string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(body); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
		return err
	}
	return tx.Commit()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}

func encodeMetadata(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
