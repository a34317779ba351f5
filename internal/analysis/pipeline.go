package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"journal-ai/internal/contextutil"
	"journal-ai/internal/emotion"
	"journal-ai/internal/llm"
	"journal-ai/internal/objectstore"
	"journal-ai/internal/storage"
	"journal-ai/internal/vectorstore"
)

// ErrEmptyBody is returned when a body has no non-blank line to analyze.
var ErrEmptyBody = errors.New("entry body has no text")

const (
	defaultConcurrency = 8
	reindexBatchSize   = 256
)

// Upload is an attachment submitted with an entry.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	Caption     string // optional
}

// Request is a new journal entry to store and analyze.
type Request struct {
	UserID      string
	Title       string
	Body        string
	EntryDate   time.Time // defaults to now
	Tags        []string
	Attachments []Upload
}

// Result is the outcome of Analyze. Status is analyzed, partial or failed.
type Result struct {
	EntryID int64
	Status  storage.AnalysisStatus
	Report  Report
}

// Config holds pipeline settings.
type Config struct {
	Collection  string // vector index collection
	Concurrency int    // max concurrent writes per fan-out
}

// Pipeline stores entries and derives their embeddings and sentiment.
type Pipeline struct {
	stores      storage.Stores
	embedder    llm.Embedder
	emotions    llm.EmotionAnalyzer
	vectors     vectorstore.VectorStore
	objects     objectstore.ObjectStore
	collection  string
	concurrency int
}

// NewPipeline creates a new analysis pipeline.
func NewPipeline(
	stores storage.Stores,
	embedder llm.Embedder,
	emotions llm.EmotionAnalyzer,
	vectors vectorstore.VectorStore,
	objects objectstore.ObjectStore,
	cfg Config,
) *Pipeline {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Pipeline{
		stores:      stores,
		embedder:    embedder,
		emotions:    emotions,
		vectors:     vectors,
		objects:     objects,
		collection:  cfg.Collection,
		concurrency: concurrency,
	}
}

// Analyze stores the entry and every record derived from it. It returns only
// after all writes have finished or failed.
//
// A failure to store the entry returns a nil Result. A failure of either
// inference call after that returns the Result (status failed) together
// with the error. Any other failure is recorded in Result.Report and the
// status becomes partial.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	paragraphs := SplitParagraphs(req.Body)
	if len(paragraphs) == 0 {
		return nil, ErrEmptyBody
	}

	entryDate := req.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	entry := &storage.EntryRecord{
		UserID:    req.UserID,
		EntryDate: entryDate,
		Title:     strings.TrimSpace(req.Title),
		FullText:  req.Body,
		WordCount: CountWords(req.Body),
		Status:    storage.StatusPending,
	}
	if err := p.stores.Entries.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}

	logger = logger.With("entry_id", entry.ID)
	ctx = contextutil.WithLogger(ctx, logger)
	result := &Result{EntryID: entry.ID}

	var pgIDs []int64
	var tagReport Report
	var rows errgroup.Group
	rows.Go(func() error {
		pgIDs = p.insertParagraphs(ctx, entry.ID, paragraphs, &result.Report)
		return nil
	})
	rows.Go(func() error {
		p.insertTags(ctx, entry.ID, req.Tags, &tagReport)
		return nil
	})
	_ = rows.Wait()
	result.Report.Failures = append(result.Report.Failures, tagReport.Failures...)

	texts := make([]string, len(paragraphs))
	for i, pg := range paragraphs {
		texts[i] = pg.Text
	}
	embeddings, emotions, err := p.infer(ctx, texts)
	if err != nil {
		result.Status = storage.StatusFailed
		p.setStatus(ctx, entry.ID, result.Status)
		logger.ErrorContext(ctx, "entry analysis failed", "error", err)
		return result, fmt.Errorf("failed to analyze entry %d: %w", entry.ID, err)
	}

	var embReport, sentReport Report
	var g errgroup.Group
	g.Go(func() error {
		p.storeEmbeddings(ctx, entry, embeddings, pgIDs, &embReport)
		return nil
	})
	g.Go(func() error {
		p.storeSentiments(ctx, entry.ID, emotions, pgIDs, &sentReport)
		return nil
	})
	_ = g.Wait()
	result.Report.Failures = append(result.Report.Failures, embReport.Failures...)
	result.Report.Failures = append(result.Report.Failures, sentReport.Failures...)

	p.storeAttachments(ctx, entry, req.Attachments, &result.Report)

	result.Status = storage.StatusAnalyzed
	if !result.Report.OK() {
		result.Status = storage.StatusPartial
		logger.WarnContext(ctx, "entry analysis incomplete", "failures", len(result.Report.Failures), "error", result.Report.Err())
	}
	p.setStatus(ctx, entry.ID, result.Status)

	logger.InfoContext(ctx, "analyzed entry",
		"paragraphs", len(paragraphs),
		"tags", len(req.Tags),
		"attachments", len(req.Attachments),
		"status", result.Status,
	)
	return result, nil
}

// insertParagraphs stores paragraphs concurrently. The returned slice maps
// paragraph index to pg_id; 0 marks a paragraph that was not stored.
func (p *Pipeline) insertParagraphs(ctx context.Context, entryID int64, paragraphs []Paragraph, report *Report) []int64 {
	ids := make([]int64, len(paragraphs))
	errs := make([]error, len(paragraphs))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, pg := range paragraphs {
		g.Go(func() error {
			rec := &storage.ParagraphRecord{EntryID: entryID, Index: pg.Index, Text: pg.Text}
			if err := p.stores.Paragraphs.Insert(ctx, rec); err != nil {
				errs[i] = err
				return nil
			}
			ids[i] = rec.ID
			return nil
		})
	}
	_ = g.Wait()

	report.addSlots(StageParagraph, errs)
	return ids
}

// insertTags stores the normalized tags of an entry; a failure is recorded, not fatal.
func (p *Pipeline) insertTags(ctx context.Context, entryID int64, tags []string, report *Report) {
	tags = NormalizeTags(tags)
	if len(tags) == 0 {
		return
	}
	if err := p.stores.Tags.Insert(ctx, entryID, tags); err != nil {
		report.add(StageTag, -1, err)
	}
}

// infer runs both inference calls concurrently; the first failure cancels the other.
func (p *Pipeline) infer(ctx context.Context, texts []string) (*llm.EmbeddingResponse, *llm.EmotionResponse, error) {
	var embeddings *llm.EmbeddingResponse
	var emotions *llm.EmotionResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		embeddings, err = p.embedder.Embed(gctx, texts, true)
		return err
	})
	g.Go(func() error {
		var err error
		emotions, err = p.emotions.Analyze(gctx, texts, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if len(embeddings.Paragraphs) != len(texts) {
		return nil, nil, fmt.Errorf("%w: expected %d paragraph embeddings, got %d", llm.ErrBadResponse, len(texts), len(embeddings.Paragraphs))
	}
	if len(emotions.Paragraphs) != len(texts) {
		return nil, nil, fmt.Errorf("%w: expected %d paragraph emotions, got %d", llm.ErrBadResponse, len(texts), len(emotions.Paragraphs))
	}
	return embeddings, emotions, nil
}

// storeEmbeddings writes the entry and paragraph embedding records, then
// upserts every stored record into the vector index in one batch.
func (p *Pipeline) storeEmbeddings(ctx context.Context, entry *storage.EntryRecord, resp *llm.EmbeddingResponse, pgIDs []int64, report *Report) {
	// Slot 0 is the entry; slot i+1 is paragraph i.
	records := make([]*storage.EmbeddingRecord, len(pgIDs)+1)
	records[0] = &storage.EmbeddingRecord{
		UserID:    entry.UserID,
		OwnerType: storage.OwnerEntry,
		OwnerID:   entry.ID,
		Vector:    resp.FullText.Embedding,
	}
	for i, pg := range resp.Paragraphs {
		if pgIDs[i] == 0 {
			report.add(StageEmbedding, i, errOrphaned)
			continue
		}
		records[i+1] = &storage.EmbeddingRecord{
			UserID:    entry.UserID,
			OwnerType: storage.OwnerParagraph,
			OwnerID:   pgIDs[i],
			Vector:    pg.Embedding,
		}
	}

	errs := make([]error, len(records))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, rec := range records {
		if rec == nil {
			continue
		}
		g.Go(func() error {
			errs[i] = p.stores.Embeddings.Insert(ctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	points := make([]vectorstore.Point, 0, len(records))
	for i, rec := range records {
		switch {
		case rec == nil:
		case errs[i] != nil:
			report.add(StageEmbedding, i-1, errs[i])
		default:
			points = append(points, PointFor(rec))
		}
	}

	if len(points) == 0 {
		return
	}
	if err := p.vectors.Upsert(ctx, p.collection, points); err != nil {
		report.add(StageVectorIndex, -1, err)
	}
}

// storeSentiments writes the entry and paragraph sentiment rows.
func (p *Pipeline) storeSentiments(ctx context.Context, entryID int64, resp *llm.EmotionResponse, pgIDs []int64, report *Report) {
	entryErr := make([]error, 1)
	errs := make([]error, len(pgIDs))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	g.Go(func() error {
		entryErr[0] = p.stores.Sentiments.InsertEntry(ctx, entryID, emotion.FromScores(resp.FullText.Emotion))
		return nil
	})
	for i, pg := range resp.Paragraphs {
		if pgIDs[i] == 0 {
			errs[i] = errOrphaned
			continue
		}
		g.Go(func() error {
			errs[i] = p.stores.Sentiments.InsertParagraph(ctx, pgIDs[i], emotion.FromScores(pg.Emotion))
			return nil
		})
	}
	_ = g.Wait()

	if entryErr[0] != nil {
		report.add(StageSentiment, -1, entryErr[0])
	}
	report.addSlots(StageSentiment, errs)
}

// storeAttachments uploads and records every attachment concurrently.
func (p *Pipeline) storeAttachments(ctx context.Context, entry *storage.EntryRecord, uploads []Upload, report *Report) {
	failures := make([]*Failure, len(uploads))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, up := range uploads {
		g.Go(func() error {
			failures[i] = p.storeAttachment(ctx, entry, i, up)
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range failures {
		if f != nil {
			report.Failures = append(report.Failures, *f)
		}
	}
}

func (p *Pipeline) storeAttachment(ctx context.Context, entry *storage.EntryRecord, index int, up Upload) *Failure {
	fileType, err := ClassifyMIME(up.ContentType)
	if err != nil {
		return &Failure{Stage: StageAttachment, Index: index, Err: err}
	}

	key := ObjectKey(entry.UserID, entry.ID, up.FileName)
	if err := p.objects.Put(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		return &Failure{Stage: StageAttachment, Index: index, Err: err}
	}

	rec := &storage.AttachmentRecord{
		EntryID:     entry.ID,
		FileName:    up.FileName,
		StoragePath: key,
		FileType:    fileType,
		Caption:     strings.TrimSpace(up.Caption),
	}
	if err := p.stores.Attachments.Insert(ctx, rec); err != nil {
		return &Failure{Stage: StageAttachment, Index: index, Err: err}
	}

	if rec.Caption == "" {
		return nil
	}
	if err := p.embedCaption(ctx, entry.UserID, rec); err != nil {
		return &Failure{Stage: StageCaption, Index: index, Err: err}
	}
	return nil
}

func (p *Pipeline) embedCaption(ctx context.Context, userID string, att *storage.AttachmentRecord) error {
	resp, err := p.embedder.Embed(ctx, []string{att.Caption}, false)
	if err != nil {
		return err
	}

	rec := &storage.EmbeddingRecord{
		UserID:    userID,
		OwnerType: storage.OwnerCaption,
		OwnerID:   att.ID,
		Vector:    resp.FullText.Embedding,
	}
	if err := p.stores.Embeddings.Insert(ctx, rec); err != nil {
		return err
	}
	return p.vectors.Upsert(ctx, p.collection, []vectorstore.Point{PointFor(rec)})
}

// setStatus records the analysis status; a failure is logged only.
func (p *Pipeline) setStatus(ctx context.Context, entryID int64, status storage.AnalysisStatus) {
	if err := p.stores.Entries.UpdateStatus(ctx, entryID, status); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to update analysis status", "status", status, "error", err)
	}
}

// Reindex re-upserts every stored embedding record into the vector index.
// It returns the number of points written.
func (p *Pipeline) Reindex(ctx context.Context) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var after int64
	total := 0
	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		records, err := p.stores.Embeddings.ListAfter(ctx, after, reindexBatchSize)
		if err != nil {
			return total, fmt.Errorf("failed to list embeddings: %w", err)
		}
		if len(records) == 0 {
			break
		}

		points := make([]vectorstore.Point, len(records))
		for i, rec := range records {
			points[i] = PointFor(rec)
		}
		if err := p.vectors.Upsert(ctx, p.collection, points); err != nil {
			return total, fmt.Errorf("failed to upsert embeddings after id %d: %w", after, err)
		}

		total += len(records)
		after = records[len(records)-1].ID
		logger.DebugContext(ctx, "reindexed batch", "count", len(records), "last_id", after)
	}

	logger.InfoContext(ctx, "reindex completed", "points", total)
	return total, nil
}

// Delete removes an entry with everything derived from it. The entry's
// vector index points are removed first so that search never sees points
// whose records are gone; the rows go next, then the attachment objects.
// Failing to delete an object is logged only.
func (p *Pipeline) Delete(ctx context.Context, entryID int64) error {
	logger := contextutil.LoggerFromContext(ctx).With("entry_id", entryID)

	paragraphs, err := p.stores.Paragraphs.ListByEntry(ctx, entryID)
	if err != nil {
		return fmt.Errorf("failed to list paragraphs: %w", err)
	}
	attachments, err := p.stores.Attachments.ListByEntry(ctx, entryID)
	if err != nil {
		return fmt.Errorf("failed to list attachments: %w", err)
	}

	type owner struct {
		kind storage.OwnerType
		id   int64
	}
	owners := make([]owner, 0, 1+len(paragraphs)+len(attachments))
	owners = append(owners, owner{storage.OwnerEntry, entryID})
	for _, pg := range paragraphs {
		owners = append(owners, owner{storage.OwnerParagraph, pg.ID})
	}
	for _, att := range attachments {
		owners = append(owners, owner{storage.OwnerCaption, att.ID})
	}

	var embIDs []int64
	for _, o := range owners {
		records, err := p.stores.Embeddings.ListByOwner(ctx, o.kind, o.id)
		if err != nil {
			return fmt.Errorf("failed to list %s embeddings: %w", o.kind, err)
		}
		for _, rec := range records {
			embIDs = append(embIDs, rec.ID)
		}
	}

	if len(embIDs) > 0 {
		pointIDs := make([]uint64, len(embIDs))
		for i, id := range embIDs {
			pointIDs[i] = uint64(id)
		}
		if err := p.vectors.Delete(ctx, p.collection, pointIDs); err != nil {
			return fmt.Errorf("failed to delete vector index points: %w", err)
		}
		if err := p.stores.Embeddings.Delete(ctx, embIDs); err != nil {
			return fmt.Errorf("failed to delete embeddings: %w", err)
		}
	}

	if err := p.stores.Entries.Delete(ctx, entryID); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	for _, att := range attachments {
		if err := p.objects.Delete(ctx, att.StoragePath); err != nil {
			logger.WarnContext(ctx, "failed to delete attachment object", "key", att.StoragePath, "error", err)
		}
	}

	logger.InfoContext(ctx, "deleted entry",
		"paragraphs", len(paragraphs),
		"attachments", len(attachments),
		"embeddings", len(embIDs),
	)
	return nil
}

// PointFor builds the vector index point for an embedding record.
func PointFor(rec *storage.EmbeddingRecord) vectorstore.Point {
	return vectorstore.Point{
		ID:  uint64(rec.ID),
		Vec: rec.Vector,
		Meta: map[string]any{
			vectorstore.MetaOwnerType: string(rec.OwnerType),
			vectorstore.MetaOwnerID:   rec.OwnerID,
			vectorstore.MetaUserID:    rec.UserID,
		},
	}
}

// ObjectKey returns the object storage key {userID}/{entryID}/{uuid}.{ext}.
func ObjectKey(userID string, entryID int64, fileName string) string {
	key := fmt.Sprintf("%s/%d/%s", userID, entryID, uuid.New().String())
	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")); ext != "" {
		key += "." + ext
	}
	return key
}
