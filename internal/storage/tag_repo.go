package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_tag_store.go -package=mocks journal-ai/internal/storage TagStore

import (
	"context"
	"database/sql"
	"fmt"
)

// TagStore defines the interface for entry tag operations.
type TagStore interface {
	// Insert attaches names to an entry. Names already on the entry are ignored.
	Insert(ctx context.Context, entryID int64, names []string) error
	// ListByEntry returns an entry's tags in insertion order.
	ListByEntry(ctx context.Context, entryID int64) ([]string, error)
	// ListByUser returns the tags of every entry of a user, keyed by entry ID.
	// Entries without tags are absent from the map.
	ListByUser(ctx context.Context, userID string) (map[int64][]string, error)
}

// TagRepo provides methods for tag operations.
type TagRepo struct {
	db *sql.DB
}

// NewTagRepo creates a new TagRepo.
func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

// Insert attaches names to an entry in one transaction.
func (r *TagRepo) Insert(ctx context.Context, entryID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO tags (entry_id, name) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare tag insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, entryID, name); err != nil {
			return fmt.Errorf("failed to insert tag %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tags: %w", err)
	}
	return nil
}

// ListByEntry returns an entry's tags in insertion order.
func (r *TagRepo) ListByEntry(ctx context.Context, entryID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM tags WHERE entry_id = ? ORDER BY tag_id", entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	tags := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tags, nil
}

// ListByUser returns the tags of every entry of a user, keyed by entry ID.
func (r *TagRepo) ListByUser(ctx context.Context, userID string) (map[int64][]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.entry_id, t.name
		FROM tags t
		JOIN entries e ON e.entry_id = t.entry_id
		WHERE e.user_id = ?
		ORDER BY t.tag_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	tags := make(map[int64][]string)
	for rows.Next() {
		var entryID int64
		var name string
		if err := rows.Scan(&entryID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags[entryID] = append(tags[entryID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tags, nil
}
