package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_entry_store.go -package=mocks journal-ai/internal/storage EntryStore

import (
	"context"
	"database/sql"
	"fmt"

	"journal-ai/internal/emotion"
)

// EntryStore defines the interface for entry storage operations.
type EntryStore interface {
	// Insert inserts a new entry and sets entry.ID and entry.CreatedAt.
	Insert(ctx context.Context, entry *EntryRecord) error
	// GetByID gets an entry by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id int64) (*EntryRecord, error)
	// ListByUser returns a user's entries newest first, joined with their sentiment.
	ListByUser(ctx context.Context, userID string) ([]EntryWithSentiment, error)
	// UpdateStatus records the analysis status of an entry.
	UpdateStatus(ctx context.Context, id int64, status AnalysisStatus) error
	// Delete removes an entry; paragraphs, attachments, sentiments and tags
	// cascade. Returns ErrNotFound if not found.
	Delete(ctx context.Context, id int64) error
}

// EntryRepo provides methods for entry operations.
// It implements the EntryStore interface.
type EntryRepo struct {
	db *sql.DB
}

// NewEntryRepo creates a new EntryRepo.
func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

// Insert inserts a new entry and sets entry.ID and entry.CreatedAt.
// An empty Status is stored as pending.
func (r *EntryRepo) Insert(ctx context.Context, entry *EntryRecord) error {
	if entry.Status == "" {
		entry.Status = StatusPending
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO entries (user_id, entry_date, title, full_text, word_count, analysis_status) VALUES (?, ?, ?, ?, ?, ?)",
		entry.UserID, entry.EntryDate.UTC(), nullString(entry.Title), entry.FullText, entry.WordCount, string(entry.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get entry ID: %w", err)
	}
	entry.ID = id

	if err := r.db.QueryRowContext(ctx, "SELECT created_at FROM entries WHERE entry_id = ?", id).Scan(&entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to read entry created_at: %w", err)
	}

	return nil
}

// GetByID gets an entry by its ID. Returns ErrNotFound if not found.
func (r *EntryRepo) GetByID(ctx context.Context, id int64) (*EntryRecord, error) {
	var entry EntryRecord
	var title sql.NullString
	var status string

	err := r.db.QueryRowContext(ctx,
		"SELECT entry_id, user_id, entry_date, title, full_text, word_count, analysis_status, created_at FROM entries WHERE entry_id = ?",
		id,
	).Scan(&entry.ID, &entry.UserID, &entry.EntryDate, &title, &entry.FullText, &entry.WordCount, &status, &entry.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entry: %w", err)
	}

	entry.Title = title.String
	entry.Status = AnalysisStatus(status)
	return &entry, nil
}

// ListByUser returns a user's entries newest first, joined with their sentiment.
// Returns an empty slice if the user has no entries.
func (r *EntryRepo) ListByUser(ctx context.Context, userID string) ([]EntryWithSentiment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.entry_id, e.user_id, e.entry_date, e.title, e.full_text, e.word_count, e.analysis_status, e.created_at,
			s.entry_id, s.anger, s.disgust, s.fear, s.joy, s.neutral, s.sadness, s.surprise
		FROM entries e
		LEFT JOIN entry_sentiment s ON s.entry_id = e.entry_id
		WHERE e.user_id = ?
		ORDER BY e.created_at DESC, e.entry_id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]EntryWithSentiment, 0)
	for rows.Next() {
		var e EntryWithSentiment
		var title sql.NullString
		var status string
		var sentimentID sql.NullInt64
		var s [7]sql.NullFloat64

		if err := rows.Scan(
			&e.ID, &e.UserID, &e.EntryDate, &title, &e.FullText, &e.WordCount, &status, &e.CreatedAt,
			&sentimentID, &s[0], &s[1], &s[2], &s[3], &s[4], &s[5], &s[6],
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		e.Title = title.String
		e.Status = AnalysisStatus(status)
		if sentimentID.Valid {
			e.Sentiment = &emotion.Vector{
				Anger:    s[0].Float64,
				Disgust:  s[1].Float64,
				Fear:     s[2].Float64,
				Joy:      s[3].Float64,
				Neutral:  s[4].Float64,
				Sadness:  s[5].Float64,
				Surprise: s[6].Float64,
			}
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// UpdateStatus records the analysis status of an entry.
func (r *EntryRepo) UpdateStatus(ctx context.Context, id int64, status AnalysisStatus) error {
	result, err := r.db.ExecContext(ctx, "UPDATE entries SET analysis_status = ? WHERE entry_id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update entry status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Delete removes an entry and, through foreign keys, the rows that belong to it.
// Embedding records have no foreign key and must be removed separately.
func (r *EntryRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM entries WHERE entry_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
