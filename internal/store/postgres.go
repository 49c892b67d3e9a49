package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

const vectorCacheSchema = `
CREATE TABLE IF NOT EXISTS embedding_cache (
	model      TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	embedding  vector      NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (model, key)
)`

// VectorStore caches embedding vectors in Postgres (pgvector), keyed by
// (model, content hash). Serving treats it as read-through: entries are
// inserted for unseen content and never mutated, so concurrent requests
// can share it safely.
type VectorStore struct {
	db *sqlx.DB
}

// OpenVectorStore connects and ensures the cache table exists. Requires
// the pgvector extension to be installed.
func OpenVectorStore(ctx context.Context, dsn string) (*VectorStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to vector store: %w", err)
	}

	if _, err := db.ExecContext(ctx, vectorCacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure embedding_cache table: %w", err)
	}

	return &VectorStore{db: db}, nil
}

func (s *VectorStore) Close() error {
	return s.db.Close()
}

// Get returns the cached vectors for the given keys. Missing keys are
// simply absent from the result.
func (s *VectorStore) Get(ctx context.Context, model string, keys []string) (map[string][]float32, error) {
	if len(keys) == 0 {
		return map[string][]float32{}, nil
	}

	rows, err := s.db.QueryxContext(ctx,
		`SELECT key, embedding FROM embedding_cache WHERE model = $1 AND key = ANY($2)`,
		model, pq.Array(keys),
	)
	if err != nil {
		return nil, fmt.Errorf("query embedding cache: %w", err)
	}
	defer rows.Close()

	found := make(map[string][]float32)
	for rows.Next() {
		var key string
		var vec pgvector.Vector
		if err := rows.Scan(&key, &vec); err != nil {
			return nil, fmt.Errorf("scan cached embedding: %w", err)
		}
		found[key] = vec.Slice()
	}
	return found, rows.Err()
}

// Put upserts vectors for the given model. One transaction per batch: a
// half-written pool version is worse than none.
func (s *VectorStore) Put(ctx context.Context, model string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache write: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO embedding_cache (model, key, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (model, key) DO UPDATE SET embedding = EXCLUDED.embedding`)
	if err != nil {
		return fmt.Errorf("prepare cache write: %w", err)
	}
	defer stmt.Close()

	for key, vec := range vectors {
		if _, err := stmt.ExecContext(ctx, model, key, pgvector.NewVector(vec)); err != nil {
			return fmt.Errorf("write cached embedding %s: %w", key, err)
		}
	}

	return tx.Commit()
}
