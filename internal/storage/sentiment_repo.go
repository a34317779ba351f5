package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_sentiment_store.go -package=mocks journal-ai/internal/storage SentimentStore

import (
	"context"
	"database/sql"
	"fmt"

	"journal-ai/internal/emotion"
)

// SentimentStore defines the interface for entry and paragraph sentiment rows.
type SentimentStore interface {
	// InsertEntry stores the entry-level emotion vector.
	InsertEntry(ctx context.Context, entryID int64, v emotion.Vector) error
	// InsertParagraph stores a paragraph-level emotion vector.
	InsertParagraph(ctx context.Context, paragraphID int64, v emotion.Vector) error
	// GetEntry returns the entry-level vector. Returns ErrNotFound if not analyzed.
	GetEntry(ctx context.Context, entryID int64) (*emotion.Vector, error)
	// GetParagraph returns a paragraph-level vector. Returns ErrNotFound if not analyzed.
	GetParagraph(ctx context.Context, paragraphID int64) (*emotion.Vector, error)
}

// SentimentRepo provides methods for sentiment operations.
type SentimentRepo struct {
	db *sql.DB
}

// NewSentimentRepo creates a new SentimentRepo.
func NewSentimentRepo(db *sql.DB) *SentimentRepo {
	return &SentimentRepo{db: db}
}

const sentimentColumns = "anger, disgust, fear, joy, neutral, sadness, surprise"

// InsertEntry stores the entry-level emotion vector.
func (r *SentimentRepo) InsertEntry(ctx context.Context, entryID int64, v emotion.Vector) error {
	if err := r.insert(ctx, "entry_sentiment", "entry_id", entryID, v); err != nil {
		return fmt.Errorf("failed to insert entry sentiment: %w", err)
	}
	return nil
}

// InsertParagraph stores a paragraph-level emotion vector.
func (r *SentimentRepo) InsertParagraph(ctx context.Context, paragraphID int64, v emotion.Vector) error {
	if err := r.insert(ctx, "paragraph_sentiment", "pg_id", paragraphID, v); err != nil {
		return fmt.Errorf("failed to insert paragraph sentiment: %w", err)
	}
	return nil
}

// GetEntry returns the entry-level vector. Returns ErrNotFound if not analyzed.
func (r *SentimentRepo) GetEntry(ctx context.Context, entryID int64) (*emotion.Vector, error) {
	return r.get(ctx, "entry_sentiment", "entry_id", entryID)
}

// GetParagraph returns a paragraph-level vector. Returns ErrNotFound if not analyzed.
func (r *SentimentRepo) GetParagraph(ctx context.Context, paragraphID int64) (*emotion.Vector, error) {
	return r.get(ctx, "paragraph_sentiment", "pg_id", paragraphID)
}

// table and key are package constants, never user input.
func (r *SentimentRepo) insert(ctx context.Context, table, key string, id int64, v emotion.Vector) error {
	query := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", table, key, sentimentColumns)
	_, err := r.db.ExecContext(ctx, query, id, v.Anger, v.Disgust, v.Fear, v.Joy, v.Neutral, v.Sadness, v.Surprise)
	return err
}

func (r *SentimentRepo) get(ctx context.Context, table, key string, id int64) (*emotion.Vector, error) {
	var v emotion.Vector
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", sentimentColumns, table, key)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&v.Anger, &v.Disgust, &v.Fear, &v.Joy, &v.Neutral, &v.Sadness, &v.Surprise)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return &v, nil
}
