package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// New opens a SQLite database connection at the given path.
// Foreign keys, a busy timeout and WAL journaling are enabled through the DSN so
// that every pooled connection gets them; the analysis pipeline writes concurrently.
func New(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			entry_id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			entry_date DATETIME NOT NULL,
			title TEXT,
			full_text TEXT NOT NULL,
			word_count INTEGER NOT NULL DEFAULT 0,
			analysis_status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_user ON entries (user_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS paragraphs (
			pg_id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id INTEGER NOT NULL,
			pg_index INTEGER NOT NULL,
			text TEXT NOT NULL,
			FOREIGN KEY (entry_id) REFERENCES entries(entry_id) ON DELETE CASCADE,
			UNIQUE (entry_id, pg_index)
		);`,
		`CREATE TABLE IF NOT EXISTS tags (
			tag_id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			FOREIGN KEY (entry_id) REFERENCES entries(entry_id) ON DELETE CASCADE,
			UNIQUE (entry_id, name)
		);`,
		`CREATE TABLE IF NOT EXISTS attachments (
			att_id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id INTEGER NOT NULL,
			file_name TEXT NOT NULL,
			storage_path TEXT NOT NULL,
			file_type TEXT NOT NULL CHECK (file_type IN ('image', 'audio', 'document')),
			caption TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (entry_id) REFERENCES entries(entry_id) ON DELETE CASCADE
		);`,
		// (owner_type, owner_id) is intentionally not unique; see EmbeddingStore.
		`CREATE TABLE IF NOT EXISTS embeddings (
			emb_id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			owner_type TEXT NOT NULL CHECK (owner_type IN ('entry', 'paragraph', 'caption')),
			owner_id INTEGER NOT NULL,
			dim INTEGER NOT NULL,
			vector BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_embeddings_owner ON embeddings (owner_type, owner_id);`,
		`CREATE TABLE IF NOT EXISTS entry_sentiment (
			entry_id INTEGER PRIMARY KEY,
			anger REAL NOT NULL DEFAULT 0,
			disgust REAL NOT NULL DEFAULT 0,
			fear REAL NOT NULL DEFAULT 0,
			joy REAL NOT NULL DEFAULT 0,
			neutral REAL NOT NULL DEFAULT 0,
			sadness REAL NOT NULL DEFAULT 0,
			surprise REAL NOT NULL DEFAULT 0,
			analyzed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (entry_id) REFERENCES entries(entry_id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS paragraph_sentiment (
			pg_id INTEGER PRIMARY KEY,
			anger REAL NOT NULL DEFAULT 0,
			disgust REAL NOT NULL DEFAULT 0,
			fear REAL NOT NULL DEFAULT 0,
			joy REAL NOT NULL DEFAULT 0,
			neutral REAL NOT NULL DEFAULT 0,
			sadness REAL NOT NULL DEFAULT 0,
			surprise REAL NOT NULL DEFAULT 0,
			analyzed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (pg_id) REFERENCES paragraphs(pg_id) ON DELETE CASCADE
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// Stores groups the repositories that share one database handle.
type Stores struct {
	Entries     EntryStore
	Paragraphs  ParagraphStore
	Attachments AttachmentStore
	Embeddings  EmbeddingStore
	Sentiments  SentimentStore
	Tags        TagStore
}

// NewStores creates every repository on db.
func NewStores(db *sql.DB) Stores {
	return Stores{
		Entries:     NewEntryRepo(db),
		Paragraphs:  NewParagraphRepo(db),
		Attachments: NewAttachmentRepo(db),
		Embeddings:  NewEmbeddingRepo(db),
		Sentiments:  NewSentimentRepo(db),
		Tags:        NewTagRepo(db),
	}
}
