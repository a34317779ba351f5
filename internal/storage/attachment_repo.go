package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_attachment_store.go -package=mocks journal-ai/internal/storage AttachmentStore

import (
	"context"
	"database/sql"
	"fmt"
)

// AttachmentStore defines the interface for attachment storage operations.
type AttachmentStore interface {
	// Insert inserts an attachment row and sets attachment.ID.
	Insert(ctx context.Context, attachment *AttachmentRecord) error
	// GetByID gets an attachment by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id int64) (*AttachmentRecord, error)
	// ListByEntry returns the attachments of an entry in insertion order.
	ListByEntry(ctx context.Context, entryID int64) ([]*AttachmentRecord, error)
}

// AttachmentRepo provides methods for attachment operations.
type AttachmentRepo struct {
	db *sql.DB
}

// NewAttachmentRepo creates a new AttachmentRepo.
func NewAttachmentRepo(db *sql.DB) *AttachmentRepo {
	return &AttachmentRepo{db: db}
}

// Insert inserts an attachment row and sets attachment.ID.
func (r *AttachmentRepo) Insert(ctx context.Context, attachment *AttachmentRecord) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO attachments (entry_id, file_name, storage_path, file_type, caption) VALUES (?, ?, ?, ?, ?)",
		attachment.EntryID, attachment.FileName, attachment.StoragePath, string(attachment.FileType), nullString(attachment.Caption),
	)
	if err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get attachment ID: %w", err)
	}
	attachment.ID = id
	return nil
}

// GetByID gets an attachment by its ID. Returns ErrNotFound if not found.
func (r *AttachmentRepo) GetByID(ctx context.Context, id int64) (*AttachmentRecord, error) {
	var a AttachmentRecord
	var fileType string
	var caption sql.NullString

	err := r.db.QueryRowContext(ctx,
		"SELECT att_id, entry_id, file_name, storage_path, file_type, caption, created_at FROM attachments WHERE att_id = ?",
		id,
	).Scan(&a.ID, &a.EntryID, &a.FileName, &a.StoragePath, &fileType, &caption, &a.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query attachment: %w", err)
	}

	a.FileType = FileType(fileType)
	a.Caption = caption.String
	return &a, nil
}

// ListByEntry returns the attachments of an entry in insertion order.
func (r *AttachmentRepo) ListByEntry(ctx context.Context, entryID int64) ([]*AttachmentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT att_id, entry_id, file_name, storage_path, file_type, caption, created_at FROM attachments WHERE entry_id = ? ORDER BY att_id",
		entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	attachments := make([]*AttachmentRecord, 0)
	for rows.Next() {
		var a AttachmentRecord
		var fileType string
		var caption sql.NullString
		if err := rows.Scan(&a.ID, &a.EntryID, &a.FileName, &a.StoragePath, &fileType, &caption, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		a.FileType = FileType(fileType)
		a.Caption = caption.String
		attachments = append(attachments, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return attachments, nil
}
