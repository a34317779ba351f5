package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_analyzer.go -package=mocks journal-ai/internal/service Analyzer
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_journal_service.go -package=mocks journal-ai/internal/service JournalService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"journal-ai/internal/analysis"
	"journal-ai/internal/contextutil"
	"journal-ai/internal/emotion"
	"journal-ai/internal/objectstore"
	"journal-ai/internal/search"
	"journal-ai/internal/storage"
)

// Analyzer stores new entries with their derived records.
// This interface is defined from the service layer's perspective (consumer-first).
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	Reindex(ctx context.Context) (int, error)
	Delete(ctx context.Context, entryID int64) error
}

// EntrySummary is one row of a user's entry list.
type EntrySummary struct {
	ID        int64                  `json:"id"`
	Date      time.Time              `json:"date"`
	Title     *string                `json:"title,omitempty"`
	WordCount int                    `json:"word_count"`
	Status    storage.AnalysisStatus `json:"status"`
	Color     *emotion.Color         `json:"color,omitempty"`
	Tags      []string               `json:"tags,omitempty"`
}

// ParagraphView is a paragraph of an entry with its tint.
type ParagraphView struct {
	ID    int64          `json:"id"`
	Index int            `json:"index"`
	Text  string         `json:"text"`
	Color *emotion.Color `json:"color,omitempty"`
}

// AttachmentView is an attachment with a time-limited download URL.
// Src is empty when signing failed.
type AttachmentView struct {
	ID      int64            `json:"id"`
	Name    string           `json:"name"`
	Type    storage.FileType `json:"type"`
	Caption string           `json:"caption,omitempty"`
	Src     string           `json:"src,omitempty"`
}

// EntryDetail is a full entry.
type EntryDetail struct {
	EntrySummary
	Text        string                    `json:"text"`
	Sentiment   map[emotion.Label]float64 `json:"sentiment,omitempty"`
	Paragraphs  []ParagraphView           `json:"paragraphs"`
	Attachments []AttachmentView          `json:"attachments"`
}

// SearchRequest is a search in the service layer.
type SearchRequest struct {
	UserID string
	Text   string
	TopN   int
	Kind   search.Kind
}

// JournalService provides the journal operations behind the HTTP API.
type JournalService interface {
	// CreateEntry stores and analyzes a new entry. On an inference failure the
	// result is returned with the error so the caller can report the entry id.
	CreateEntry(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	// ListEntries returns the user's entries newest first.
	ListEntries(ctx context.Context, userID string) ([]EntrySummary, error)
	// GetEntry returns one of the user's entries.
	GetEntry(ctx context.Context, userID string, id int64) (*EntryDetail, error)
	// Search runs a similarity search and applies the kind filter.
	Search(ctx context.Context, req SearchRequest) ([]search.Item, error)
	// DeleteEntry removes one of the user's entries with everything derived from it.
	DeleteEntry(ctx context.Context, userID string, id int64) error
	// Reindex rebuilds the vector index from stored embeddings.
	Reindex(ctx context.Context) (int, error)
}

type journalService struct {
	stores       storage.Stores
	analyzer     Analyzer
	engine       search.Engine
	objects      objectstore.ObjectStore
	signedURLTTL time.Duration
}

// NewJournalService creates a new JournalService.
func NewJournalService(
	stores storage.Stores,
	analyzer Analyzer,
	engine search.Engine,
	objects objectstore.ObjectStore,
	signedURLTTL time.Duration,
) JournalService {
	return &journalService{
		stores:       stores,
		analyzer:     analyzer,
		engine:       engine,
		objects:      objects,
		signedURLTTL: signedURLTTL,
	}
}

func (s *journalService) CreateEntry(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.UserID == "" {
		return nil, &ValidationError{Field: "user_id", Message: "cannot be empty"}
	}

	result, err := s.analyzer.Analyze(ctx, req)
	switch {
	case errors.Is(err, analysis.ErrEmptyBody):
		logger.WarnContext(ctx, "empty body in create entry request")
		return nil, &ValidationError{Field: "body", Message: "cannot be empty"}
	case err != nil && result == nil:
		return nil, WrapError(err, "failed to create entry")
	case err != nil:
		return result, external(err, "failed to analyze entry")
	}
	return result, nil
}

func (s *journalService) ListEntries(ctx context.Context, userID string) ([]EntrySummary, error) {
	rows, err := s.stores.Entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, WrapError(err, "failed to list entries")
	}

	tags, err := s.stores.Tags.ListByUser(ctx, userID)
	if err != nil {
		return nil, WrapError(err, "failed to list tags")
	}

	entries := make([]EntrySummary, len(rows))
	for i, row := range rows {
		entries[i] = summarize(&row.EntryRecord)
		entries[i].Tags = tags[row.ID]
		if row.Sentiment != nil {
			c := row.Sentiment.Color()
			entries[i].Color = &c
		}
	}
	return entries, nil
}

func (s *journalService) GetEntry(ctx context.Context, userID string, id int64) (*EntryDetail, error) {
	logger := contextutil.LoggerFromContext(ctx)

	entry, err := s.ownedEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	detail := &EntryDetail{
		EntrySummary: summarize(entry),
		Text:         entry.FullText,
		Paragraphs:   []ParagraphView{},
		Attachments:  []AttachmentView{},
	}

	v, err := s.stores.Sentiments.GetEntry(ctx, id)
	switch {
	case err == nil:
		c := v.Color()
		detail.Color = &c
		detail.Sentiment = v.Map()
	case !errors.Is(err, storage.ErrNotFound):
		return nil, WrapError(err, "failed to get entry sentiment")
	}

	tags, err := s.stores.Tags.ListByEntry(ctx, id)
	if err != nil {
		return nil, WrapError(err, "failed to list tags")
	}
	if len(tags) > 0 {
		detail.Tags = tags
	}

	paragraphs, err := s.stores.Paragraphs.ListByEntry(ctx, id)
	if err != nil {
		return nil, WrapError(err, "failed to list paragraphs")
	}
	for _, pg := range paragraphs {
		view := ParagraphView{ID: pg.ID, Index: pg.Index, Text: pg.Text}
		v, err := s.stores.Sentiments.GetParagraph(ctx, pg.ID)
		switch {
		case err == nil:
			c := v.Color()
			view.Color = &c
		case !errors.Is(err, storage.ErrNotFound):
			return nil, WrapError(err, "failed to get paragraph sentiment")
		}
		detail.Paragraphs = append(detail.Paragraphs, view)
	}

	attachments, err := s.stores.Attachments.ListByEntry(ctx, id)
	if err != nil {
		return nil, WrapError(err, "failed to list attachments")
	}
	for _, att := range attachments {
		view := AttachmentView{ID: att.ID, Name: att.FileName, Type: att.FileType, Caption: att.Caption}
		src, err := s.objects.PresignGet(ctx, att.StoragePath, s.signedURLTTL)
		if err != nil {
			logger.WarnContext(ctx, "failed to sign attachment", "attachment_id", att.ID, "error", err)
		} else {
			view.Src = src
		}
		detail.Attachments = append(detail.Attachments, view)
	}

	return detail, nil
}

func (s *journalService) DeleteEntry(ctx context.Context, userID string, id int64) error {
	if _, err := s.ownedEntry(ctx, userID, id); err != nil {
		return err
	}

	err := s.analyzer.Delete(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return WrapError(err, "failed to delete entry")
	}
	return nil
}

// ownedEntry loads an entry and hides entries of other users as not found.
func (s *journalService) ownedEntry(ctx context.Context, userID string, id int64) (*storage.EntryRecord, error) {
	entry, err := s.stores.Entries.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && entry.UserID != userID) {
		return nil, fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, WrapError(err, "failed to get entry")
	}
	return entry, nil
}

func (s *journalService) Search(ctx context.Context, req SearchRequest) ([]search.Item, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &ValidationError{Field: "q", Message: "cannot be empty"}
	}
	if req.Kind == "" {
		req.Kind = search.KindAll
	}

	results, err := s.engine.Search(ctx, search.Query{UserID: req.UserID, Text: req.Text, TopN: req.TopN})
	if errors.Is(err, search.ErrEmptyQuery) {
		return nil, &ValidationError{Field: "q", Message: "cannot be empty"}
	}
	if err != nil {
		return nil, external(err, "failed to search")
	}
	return results.Filter(req.Kind), nil
}

func (s *journalService) Reindex(ctx context.Context) (int, error) {
	n, err := s.analyzer.Reindex(ctx)
	if err != nil {
		return n, external(err, "failed to rebuild index")
	}
	return n, nil
}

func summarize(entry *storage.EntryRecord) EntrySummary {
	summary := EntrySummary{
		ID:        entry.ID,
		Date:      entry.EntryDate,
		WordCount: entry.WordCount,
		Status:    entry.Status,
	}
	if title := strings.TrimSpace(entry.Title); title != "" {
		summary.Title = &title
	}
	return summary
}
