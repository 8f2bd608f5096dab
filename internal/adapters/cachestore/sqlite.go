// Package cachestore persists embedding vectors per document in SQLite.
// Adapter implementing ports.EmbeddingCacheOpener and ports.EmbeddingCache.
package cachestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
)

const (
	embeddingsDir = "private_embeddings"
	dbFile        = "cache.db"

	// SQLite's default limit on host parameters is 999.
	maxParams = 500
)

// SQLiteOpener opens one cache database per document under
// <root>/private_embeddings/<name>/cache.db.
type SQLiteOpener struct {
	root string
}

var _ ports.EmbeddingCacheOpener = (*SQLiteOpener)(nil)

func NewSQLiteOpener(root string) *SQLiteOpener {
	if root == "" {
		root = ".cache"
	}
	return &SQLiteOpener{root: root}
}

// Open creates the document's cache directory if needed and opens its store.
func (o *SQLiteOpener) Open(ctx context.Context, documentName string) (ports.EmbeddingCache, error) {
	name := filepath.Base(documentName)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidName, documentName)
	}
	return OpenStore(ctx, filepath.Join(o.root, embeddingsDir, name))
}

// Store is a key/vector table in a single SQLite file.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

var _ ports.EmbeddingCache = (*Store)(nil)

// OpenStore opens (or creates) the cache database inside dir.
func OpenStore(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		key TEXT PRIMARY KEY,
		vector BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// GetMany returns stored vectors for keys. Missing keys are absent.
func (s *Store) GetMany(ctx context.Context, keys []string) (map[string][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string][]float32, len(keys))
	for start := 0; start < len(keys); start += maxParams {
		end := start + maxParams
		if end > len(keys) {
			end = len(keys)
		}
		if err := s.getBatch(ctx, keys[start:end], found); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func (s *Store) getBatch(ctx context.Context, keys []string, into map[string][]float32) error {
	if len(keys) == 0 {
		return nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	query := "SELECT key, vector FROM embeddings WHERE key IN (?" + strings.Repeat(", ?", len(keys)-1) + ")"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}

		var vector []float32
		if err := json.Unmarshal(raw, &vector); err != nil {
			continue // Corrupted rows are treated as misses
		}
		into[key] = vector
	}
	return rows.Err()
}

// PutMany stores vectors in one transaction, replacing existing keys.
func (s *Store) PutMany(ctx context.Context, entries map[string][]float32) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO embeddings (key, vector) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for key, vector := range entries {
		raw, err := json.Marshal(vector)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, key, raw); err != nil {
			return fmt.Errorf("inserting embedding: %w", err)
		}
	}

	return tx.Commit()
}

// Count returns the number of cached vectors.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&count)
	return count, err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
