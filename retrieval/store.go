// Package retrieval wraps the vector store: embed the query, run a
// nearest-neighbor search, return ranked passages.
package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Match is one similarity-search hit.
type Match struct {
	Content string
	Source  string
	Title   string
	Score   float64
}

// Store performs nearest-neighbor search over stored chunk embeddings.
type Store interface {
	SimilarChunks(ctx context.Context, embedding []float32, limit int) ([]Match, error)
}

// PostgresStore searches pgvector-indexed chunks in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) SimilarChunks(ctx context.Context, embedding []float32, limit int) ([]Match, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if limit <= 0 {
		limit = 4
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := limit * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT
            rc.content,
            rd.source,
            rd.title,
            (rc.embedding <-> $1::vector) AS distance
        FROM rag_chunks rc
        JOIN rag_documents rd ON rd.id = rc.document_id
        ORDER BY rc.embedding <-> $1::vector
        LIMIT $2
    `, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0)
	for rows.Next() {
		var m Match
		var distance float64
		if scanErr := rows.Scan(&m.Content, &m.Source, &m.Title, &distance); scanErr != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", scanErr)
		}
		m.Score = 1 / (1 + distance)
		matches = append(matches, m)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return matches, nil
}

var _ Store = (*PostgresStore)(nil)
