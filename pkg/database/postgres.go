package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for a small pipeline service: each active run touches the
// database from the worker goroutine (run updates, log inserts) and the
// indexing side channel (chunk batches).
const (
	maxPoolConns = 25
	minPoolConns = 5
)

// hnswDimensionLimit is the largest vector dimension pgvector's HNSW
// index type accepts. Larger embeddings fall back to exact search.
const hnswDimensionLimit = 2000

// PostgresDB is the shared connection pool behind run persistence and the
// pgvector chunk store.
type PostgresDB struct {
	Pool *pgxpool.Pool
}

func NewPostgresDB(ctx context.Context, databaseURL string) (*PostgresDB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	cfg.MaxConns = maxPoolConns
	cfg.MinConns = minPoolConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

func (db *PostgresDB) Close() {
	db.Pool.Close()
}

// PrepareEmbeddings makes the database ready for vector search: it
// installs the pgvector extension, creates the chunk table for the given
// collection, and adds an HNSW index when the dimension allows one. Safe
// to call on every startup.
func (db *PostgresDB) PrepareEmbeddings(ctx context.Context, tableName string, dimension int) error {
	if _, err := db.Pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to install pgvector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, tableName, dimension)
	if _, err := db.Pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	if dimension > hnswDimensionLimit {
		return nil
	}
	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s USING hnsw (embedding vector_cosine_ops)
	`, tableName, tableName)
	if _, err := db.Pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", tableName, err)
	}
	return nil
}
