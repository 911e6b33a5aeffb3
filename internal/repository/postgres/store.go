// Package postgres stores documents and chunks in PostgreSQL with the pgvector extension.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of *pgxpool.Pool the repositories use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store owns the connection pool and the schema.
type Store struct {
	pool *pgxpool.Pool
	dim  int
}

// NewStore connects to dsn and verifies the connection. dim is the embedding
// column width.
func NewStore(ctx context.Context, dsn string, dim int) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Store{pool: pool, dim: dim}, nil
}

// EnsureSchema creates the extension, tables and indexes when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL(s.dim)); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Documents returns the document repository backed by this store.
func (s *Store) Documents() *DocumentRepo {
	return &DocumentRepo{q: s.pool}
}

// Chunks returns the chunk repository backed by this store.
func (s *Store) Chunks() *ChunkRepo {
	return &ChunkRepo{q: s.pool}
}
