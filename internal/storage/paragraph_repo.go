package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_paragraph_store.go -package=mocks journal-ai/internal/storage ParagraphStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ParagraphStore defines the interface for paragraph storage operations.
type ParagraphStore interface {
	// Insert inserts a single paragraph and sets paragraph.ID.
	Insert(ctx context.Context, paragraph *ParagraphRecord) error
	// GetByID gets a paragraph by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id int64) (*ParagraphRecord, error)
	// ListByEntry returns all paragraphs of an entry ordered by index.
	ListByEntry(ctx context.Context, entryID int64) ([]*ParagraphRecord, error)
}

// ParagraphRepo provides methods for paragraph operations.
// It implements the ParagraphStore interface.
type ParagraphRepo struct {
	db *sql.DB
}

// NewParagraphRepo creates a new ParagraphRepo.
func NewParagraphRepo(db *sql.DB) *ParagraphRepo {
	return &ParagraphRepo{db: db}
}

// Insert inserts a single paragraph and sets paragraph.ID.
// Fails if the entry already has a paragraph at the same index.
func (r *ParagraphRepo) Insert(ctx context.Context, paragraph *ParagraphRecord) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO paragraphs (entry_id, pg_index, text) VALUES (?, ?, ?)",
		paragraph.EntryID, paragraph.Index, paragraph.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to insert paragraph: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get paragraph ID: %w", err)
	}
	paragraph.ID = id
	return nil
}

// GetByID gets a paragraph by its ID. Returns ErrNotFound if not found.
func (r *ParagraphRepo) GetByID(ctx context.Context, id int64) (*ParagraphRecord, error) {
	var p ParagraphRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT pg_id, entry_id, pg_index, text FROM paragraphs WHERE pg_id = ?",
		id,
	).Scan(&p.ID, &p.EntryID, &p.Index, &p.Text)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query paragraph: %w", err)
	}

	return &p, nil
}

// ListByEntry returns all paragraphs of an entry ordered by index.
// Returns an empty slice if none exist (not an error).
func (r *ParagraphRepo) ListByEntry(ctx context.Context, entryID int64) ([]*ParagraphRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT pg_id, entry_id, pg_index, text FROM paragraphs WHERE entry_id = ? ORDER BY pg_index",
		entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query paragraphs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	paragraphs := make([]*ParagraphRecord, 0)
	for rows.Next() {
		var p ParagraphRecord
		if err := rows.Scan(&p.ID, &p.EntryID, &p.Index, &p.Text); err != nil {
			return nil, fmt.Errorf("failed to scan paragraph: %w", err)
		}
		paragraphs = append(paragraphs, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return paragraphs, nil
}
