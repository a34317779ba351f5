package storage

import (
	"time"

	"journal-ai/internal/emotion"
)

// OwnerType is the kind of entity an embedding record belongs to.
type OwnerType string

const (
	OwnerEntry     OwnerType = "entry"
	OwnerParagraph OwnerType = "paragraph"
	OwnerCaption   OwnerType = "caption"
)

// Valid reports whether o is one of the known owner types.
func (o OwnerType) Valid() bool {
	switch o {
	case OwnerEntry, OwnerParagraph, OwnerCaption:
		return true
	}
	return false
}

// AnalysisStatus tracks how far analysis of an entry got.
type AnalysisStatus string

const (
	StatusPending  AnalysisStatus = "pending"  // entry saved, analysis not finished
	StatusAnalyzed AnalysisStatus = "analyzed" // every derived record was written
	StatusPartial  AnalysisStatus = "partial"  // analysis ran but some writes failed
	StatusFailed   AnalysisStatus = "failed"   // an inference call aborted the run
)

// FileType classifies an attachment.
type FileType string

const (
	FileImage    FileType = "image"
	FileAudio    FileType = "audio"
	FileDocument FileType = "document"
)

// EntryRecord represents a journal entry in the database.
type EntryRecord struct {
	ID        int64
	UserID    string
	EntryDate time.Time
	Title     string // empty when the entry has no title (stored as NULL)
	FullText  string
	WordCount int
	Status    AnalysisStatus
	CreatedAt time.Time
}

// EntryWithSentiment is an entry joined with its entry-level sentiment.
// Sentiment is nil until analysis has written it.
type EntryWithSentiment struct {
	EntryRecord
	Sentiment *emotion.Vector
}

// ParagraphRecord represents one non-empty line of an entry.
type ParagraphRecord struct {
	ID      int64
	EntryID int64
	Index   int // 0-based position among the entry's non-empty lines
	Text    string
}

// AttachmentRecord represents a file attached to an entry.
type AttachmentRecord struct {
	ID          int64
	EntryID     int64
	FileName    string
	StoragePath string // object key in the attachments bucket
	FileType    FileType
	Caption     string // empty when no caption was given
	CreatedAt   time.Time
}

// EmbeddingRecord is a semantic vector owned by an entry, paragraph or caption.
// Dim always equals len(Vector).
type EmbeddingRecord struct {
	ID        int64
	UserID    string
	OwnerType OwnerType
	OwnerID   int64
	Dim       int
	Vector    []float32
	CreatedAt time.Time
}
