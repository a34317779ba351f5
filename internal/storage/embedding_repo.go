package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedding_store.go -package=mocks journal-ai/internal/storage EmbeddingStore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// EmbeddingStore defines the interface for embedding record operations.
// Records are keyed by (owner_type, owner_id) but the store does not enforce
// uniqueness; inserting twice for the same owner yields two records.
type EmbeddingStore interface {
	// Insert stores a record, sets record.ID and sets record.Dim from the vector.
	Insert(ctx context.Context, record *EmbeddingRecord) error
	// ListByOwner returns every record for one owner, oldest first.
	ListByOwner(ctx context.Context, ownerType OwnerType, ownerID int64) ([]*EmbeddingRecord, error)
	// ListAfter pages through all records in ID order, starting after afterID.
	ListAfter(ctx context.Context, afterID int64, limit int) ([]*EmbeddingRecord, error)
	// Delete removes records by ID. Missing IDs are ignored.
	Delete(ctx context.Context, ids []int64) error
}

// EmbeddingRepo provides methods for embedding record operations.
type EmbeddingRepo struct {
	db *sql.DB
}

// NewEmbeddingRepo creates a new EmbeddingRepo.
func NewEmbeddingRepo(db *sql.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

const embeddingColumns = "emb_id, user_id, owner_type, owner_id, dim, vector, created_at"

// Insert stores a record, sets record.ID and sets record.Dim from the vector.
func (r *EmbeddingRepo) Insert(ctx context.Context, record *EmbeddingRecord) error {
	if !record.OwnerType.Valid() {
		return fmt.Errorf("invalid owner type %q", record.OwnerType)
	}
	if len(record.Vector) == 0 {
		return fmt.Errorf("empty embedding vector")
	}
	record.Dim = len(record.Vector)

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO embeddings (user_id, owner_type, owner_id, dim, vector) VALUES (?, ?, ?, ?, ?)",
		record.UserID, string(record.OwnerType), record.OwnerID, record.Dim, encodeVector(record.Vector),
	)
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get embedding ID: %w", err)
	}
	record.ID = id
	return nil
}

// ListByOwner returns every record for one owner, oldest first.
func (r *EmbeddingRepo) ListByOwner(ctx context.Context, ownerType OwnerType, ownerID int64) ([]*EmbeddingRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+embeddingColumns+" FROM embeddings WHERE owner_type = ? AND owner_id = ? ORDER BY emb_id",
		string(ownerType), ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	return collectEmbeddings(rows)
}

// ListAfter pages through all records in ID order, starting after afterID.
func (r *EmbeddingRepo) ListAfter(ctx context.Context, afterID int64, limit int) ([]*EmbeddingRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+embeddingColumns+" FROM embeddings WHERE emb_id > ? ORDER BY emb_id LIMIT ?",
		afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	return collectEmbeddings(rows)
}

// Delete removes records by ID in one statement. Missing IDs are ignored.
func (r *EmbeddingRepo) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM embeddings WHERE emb_id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmbedding(row rowScanner) (*EmbeddingRecord, error) {
	var rec EmbeddingRecord
	var ownerType string
	var blob []byte
	if err := row.Scan(&rec.ID, &rec.UserID, &ownerType, &rec.OwnerID, &rec.Dim, &blob, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.OwnerType = OwnerType(ownerType)

	vec, err := decodeVector(blob)
	if err != nil {
		return nil, err
	}
	if len(vec) != rec.Dim {
		return nil, fmt.Errorf("embedding %d: dim %d does not match vector length %d", rec.ID, rec.Dim, len(vec))
	}
	rec.Vector = vec
	return &rec, nil
}

func collectEmbeddings(rows *sql.Rows) ([]*EmbeddingRecord, error) {
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*EmbeddingRecord, 0)
	for rows.Next() {
		rec, err := scanEmbedding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// encodeVector packs a vector as little-endian float32s.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}
