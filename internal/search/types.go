package search

import (
	"fmt"
	"time"

	"journal-ai/internal/emotion"
	"journal-ai/internal/storage"
)

// Kind is the variant of a search result item.
type Kind string

const (
	KindEntry      Kind = "entry"
	KindParagraph  Kind = "paragraph"
	KindAttachment Kind = "attachment"
	KindAll        Kind = "all"
)

// ParseKind parses a kind filter; "" means all.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return KindAll, nil
	case KindEntry, KindParagraph, KindAttachment, KindAll:
		return k, nil
	}
	return "", fmt.Errorf("unknown result kind %q", s)
}

// Query is a free-text similarity search for one user.
type Query struct {
	UserID string
	Text   string
	TopN   int // defaults to 25, capped at 100
}

// EntryResult is a matched entry. Title is nil when the entry has none.
type EntryResult struct {
	ID    int64          `json:"id"`
	Date  time.Time      `json:"date"`
	Title *string        `json:"title,omitempty"`
	Text  string         `json:"text"`
	Color *emotion.Color `json:"color,omitempty"`
}

// ParagraphResult is a matched paragraph.
type ParagraphResult struct {
	ID      int64          `json:"id"`
	EntryID int64          `json:"entry_id"`
	Text    string         `json:"text"`
	Color   *emotion.Color `json:"color,omitempty"`
}

// AttachmentResult is an attachment matched through its caption.
// Src is a signed URL that expires shortly after the search.
type AttachmentResult struct {
	ID      int64            `json:"id"`
	EntryID int64            `json:"entry_id"`
	Text    string           `json:"text"`
	Name    string           `json:"name"`
	Type    storage.FileType `json:"type"`
	Src     string           `json:"src"`
}

// Item is one search hit. Exactly one of Entry, Paragraph and Attachment
// is set, matching Kind. Rank is the 1-based position in the similarity
// ranking before unresolvable hits were dropped.
type Item struct {
	Kind       Kind              `json:"kind"`
	Rank       int               `json:"rank"`
	Similarity float32           `json:"similarity"`
	Entry      *EntryResult      `json:"entry,omitempty"`
	Paragraph  *ParagraphResult  `json:"paragraph,omitempty"`
	Attachment *AttachmentResult `json:"attachment,omitempty"`
}

// Results holds the resolved hits in descending similarity.
type Results struct {
	Query string `json:"query"`
	Items []Item `json:"items"`
}

// Filter returns the items of one kind, keeping their order.
// KindAll returns every item.
func (r *Results) Filter(kind Kind) []Item {
	if kind == KindAll || kind == "" {
		return r.Items
	}
	items := make([]Item, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Kind == kind {
			items = append(items, item)
		}
	}
	return items
}
