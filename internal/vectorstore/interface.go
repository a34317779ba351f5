package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks journal-ai/internal/vectorstore VectorStore

import (
	"context"
	"encoding/json"
	"math"
)

// Payload keys stored with every point.
const (
	MetaOwnerType = "owner_type"
	MetaOwnerID   = "owner_id"
	MetaUserID    = "user_id"
)

// Point represents a vector point with metadata.
// ID is the embedding record ID from the relational store.
type Point struct {
	ID   uint64
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
// Score is cosine similarity; higher is closer.
type SearchResult struct {
	PointID uint64
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to k points ordered by descending similarity.
	// Every filter entry must match the point's payload exactly.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []uint64) error

	// CollectionExists reports whether the collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// EnsureCollection creates the collection if missing and validates its vector size.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error
}

// MetaString reads a string payload value.
func MetaString(meta map[string]any, key string) (string, bool) {
	s, ok := meta[key].(string)
	return s, ok
}

// MetaInt64 reads an integer payload value. Backends decode numbers
// differently (Qdrant as int64, JSON as float64 or json.Number), so all
// integral forms are accepted.
func MetaInt64(meta map[string]any, key string) (int64, bool) {
	switch v := meta[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}
