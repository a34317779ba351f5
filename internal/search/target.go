package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"journal-ai/internal/contextutil"
	"journal-ai/internal/emotion"
	"journal-ai/internal/storage"
	"journal-ai/internal/vectorstore"
)

// target is a ranked hit to resolve into an Item. The variants are closed:
// each embedding owner type has exactly one, built only by toTarget.
type target interface {
	resolve(ctx context.Context, e *engine) (Item, error)
}

type entryTarget struct{ entryID int64 }

type paragraphTarget struct{ paragraphID int64 }

type captionTarget struct{ attachmentID int64 }

var errUnknownOwner = errors.New("unknown owner type")

// toTarget reads the owner of a hit from its payload.
func toTarget(hit vectorstore.SearchResult) (target, error) {
	ownerType, _ := vectorstore.MetaString(hit.Meta, vectorstore.MetaOwnerType)
	ownerID, ok := vectorstore.MetaInt64(hit.Meta, vectorstore.MetaOwnerID)
	if !ok {
		return nil, fmt.Errorf("point %d has no owner id", hit.PointID)
	}

	switch storage.OwnerType(ownerType) {
	case storage.OwnerEntry:
		return entryTarget{entryID: ownerID}, nil
	case storage.OwnerParagraph:
		return paragraphTarget{paragraphID: ownerID}, nil
	case storage.OwnerCaption:
		return captionTarget{attachmentID: ownerID}, nil
	}
	return nil, fmt.Errorf("%w %q on point %d", errUnknownOwner, ownerType, hit.PointID)
}

func (t entryTarget) resolve(ctx context.Context, e *engine) (Item, error) {
	entry, err := e.stores.Entries.GetByID(ctx, t.entryID)
	if err != nil {
		return Item{}, err
	}

	result := &EntryResult{
		ID:   entry.ID,
		Date: entry.EntryDate,
		Text: entry.FullText,
	}
	if title := strings.TrimSpace(entry.Title); title != "" {
		result.Title = &title
	}

	v, err := e.stores.Sentiments.GetEntry(ctx, entry.ID)
	result.Color = colorOf(ctx, v, err)
	return Item{Kind: KindEntry, Entry: result}, nil
}

func (t paragraphTarget) resolve(ctx context.Context, e *engine) (Item, error) {
	pg, err := e.stores.Paragraphs.GetByID(ctx, t.paragraphID)
	if err != nil {
		return Item{}, err
	}

	result := &ParagraphResult{
		ID:      pg.ID,
		EntryID: pg.EntryID,
		Text:    pg.Text,
	}

	v, err := e.stores.Sentiments.GetParagraph(ctx, pg.ID)
	result.Color = colorOf(ctx, v, err)
	return Item{Kind: KindParagraph, Paragraph: result}, nil
}

func (t captionTarget) resolve(ctx context.Context, e *engine) (Item, error) {
	att, err := e.stores.Attachments.GetByID(ctx, t.attachmentID)
	if err != nil {
		return Item{}, err
	}

	src, err := e.objects.PresignGet(ctx, att.StoragePath, e.signedURLTTL)
	if err != nil {
		return Item{}, fmt.Errorf("failed to sign attachment %d: %w", att.ID, err)
	}

	return Item{Kind: KindAttachment, Attachment: &AttachmentResult{
		ID:      att.ID,
		EntryID: att.EntryID,
		Text:    att.Caption,
		Name:    att.FileName,
		Type:    att.FileType,
		Src:     src,
	}}, nil
}

// colorOf tints a result when its sentiment row exists. A missing row means
// analysis has not reached it; a failed lookup leaves the hit untinted.
func colorOf(ctx context.Context, v *emotion.Vector, err error) *emotion.Color {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to load sentiment", "error", err)
		return nil
	}
	c := v.Color()
	return &c
}
