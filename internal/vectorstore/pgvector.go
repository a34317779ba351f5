package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"journal-ai/internal/contextutil"
)

// PgVectorStore implements VectorStore on PostgreSQL with the pgvector extension.
// Each collection is a table (id BIGINT, embedding vector(n), meta JSONB).
type PgVectorStore struct {
	pool *pgxpool.Pool
}

// NewPgVectorStore opens a connection pool and verifies it with a ping.
func NewPgVectorStore(ctx context.Context, dsn string) (*PgVectorStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PgVectorStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PgVectorStore) Close() {
	s.pool.Close()
}

func tableName(collection string) string {
	return pgx.Identifier{collection}.Sanitize()
}

// Upsert inserts or updates points in one batch.
func (s *PgVectorStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, embedding, meta) VALUES ($1, $2::vector, $3::jsonb)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, meta = EXCLUDED.meta`, tableName(collection))

	batch := &pgx.Batch{}
	for _, p := range points {
		meta, err := encodeMeta(p.Meta)
		if err != nil {
			return fmt.Errorf("point %d: %w", p.ID, err)
		}
		batch.Queue(query, int64(p.ID), pgvector.NewVector(p.Vec), meta)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search ranks by cosine distance. Filters are matched with JSONB containment.
func (s *PgVectorStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	filter, err := encodeMeta(filters)
	if err != nil {
		return nil, fmt.Errorf("invalid filters: %w", err)
	}

	sql := fmt.Sprintf(`SELECT id, 1 - (embedding <=> $1::vector) AS score, meta
		FROM %s
		WHERE meta @> $2::jsonb
		ORDER BY embedding <=> $1::vector
		LIMIT $3`, tableName(collection))

	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(query), filter, k)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}
	defer rows.Close()

	results := make([]SearchResult, 0, k)
	for rows.Next() {
		var id int64
		var score float64
		var raw []byte
		if err := rows.Scan(&id, &score, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		meta, err := decodeMeta(raw)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", id, err)
		}
		results = append(results, SearchResult{
			PointID: uint64(id),
			Score:   float32(score),
			Meta:    meta,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	logger.DebugContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// Delete removes points by their IDs.
func (s *PgVectorStore) Delete(ctx context.Context, collection string, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	pgIDs := make([]int64, len(ids))
	for i, id := range ids {
		pgIDs[i] = int64(id)
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", tableName(collection))
	if _, err := s.pool.Exec(ctx, sql, pgIDs); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

// CollectionExists reports whether the collection table exists.
func (s *PgVectorStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", tableName(collection)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// EnsureCollection creates the extension, table and HNSW index if missing,
// then validates the embedding column's dimension.
func (s *PgVectorStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)
	table := tableName(collection)

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			meta JSONB NOT NULL DEFAULT '{}'::jsonb
		)`, table, vectorSize),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)",
			pgx.Identifier{collection + "_embedding_idx"}.Sanitize(), table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING gin (meta jsonb_path_ops)",
			pgx.Identifier{collection + "_meta_idx"}.Sanitize(), table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare collection: %w", err)
		}
	}

	// atttypmod of a vector column holds its dimension.
	var dim int
	err := s.pool.QueryRow(ctx,
		"SELECT atttypmod FROM pg_attribute WHERE attrelid = to_regclass($1) AND attname = 'embedding'",
		table,
	).Scan(&dim)
	if err != nil {
		return fmt.Errorf("failed to read collection vector size: %w", err)
	}
	if dim != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, dim)
	}

	logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
	return nil
}

func encodeMeta(meta map[string]any) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(b), nil
}

// decodeMeta keeps numbers as json.Number so integer ids survive intact.
func decodeMeta(raw []byte) (map[string]any, error) {
	meta := make(map[string]any)
	if len(raw) == 0 {
		return meta, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return meta, nil
}
