package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/mock/gomock"

	"journal-ai/internal/emotion"
	"journal-ai/internal/llm"
	llm_mocks "journal-ai/internal/llm/mocks"
	objectstore_mocks "journal-ai/internal/objectstore/mocks"
	"journal-ai/internal/storage"
	storage_mocks "journal-ai/internal/storage/mocks"
	"journal-ai/internal/vectorstore"
	vectorstore_mocks "journal-ai/internal/vectorstore/mocks"
)

const testEntryID = int64(7)

type pipelineMocks struct {
	entries     *storage_mocks.MockEntryStore
	paragraphs  *storage_mocks.MockParagraphStore
	attachments *storage_mocks.MockAttachmentStore
	embeddings  *storage_mocks.MockEmbeddingStore
	sentiments  *storage_mocks.MockSentimentStore
	tags        *storage_mocks.MockTagStore
	embedder    *llm_mocks.MockEmbedder
	emotions    *llm_mocks.MockEmotionAnalyzer
	vectors     *vectorstore_mocks.MockVectorStore
	objects     *objectstore_mocks.MockObjectStore

	nextEmbID atomic.Int64
	mu        sync.Mutex
	stored    []*storage.EmbeddingRecord
}

func newTestPipeline(t *testing.T) (*Pipeline, *pipelineMocks) {
	ctrl := gomock.NewController(t)
	m := &pipelineMocks{
		entries:     storage_mocks.NewMockEntryStore(ctrl),
		paragraphs:  storage_mocks.NewMockParagraphStore(ctrl),
		attachments: storage_mocks.NewMockAttachmentStore(ctrl),
		embeddings:  storage_mocks.NewMockEmbeddingStore(ctrl),
		sentiments:  storage_mocks.NewMockSentimentStore(ctrl),
		tags:        storage_mocks.NewMockTagStore(ctrl),
		embedder:    llm_mocks.NewMockEmbedder(ctrl),
		emotions:    llm_mocks.NewMockEmotionAnalyzer(ctrl),
		vectors:     vectorstore_mocks.NewMockVectorStore(ctrl),
		objects:     objectstore_mocks.NewMockObjectStore(ctrl),
	}
	m.nextEmbID.Store(500)

	stores := storage.Stores{
		Entries:     m.entries,
		Paragraphs:  m.paragraphs,
		Attachments: m.attachments,
		Embeddings:  m.embeddings,
		Sentiments:  m.sentiments,
		Tags:        m.tags,
	}
	p := NewPipeline(stores, m.embedder, m.emotions, m.vectors, m.objects, Config{Collection: "test-collection", Concurrency: 4})
	return p, m
}

func (m *pipelineMocks) expectEntryInsert() {
	m.entries.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e *storage.EntryRecord) error {
			e.ID = testEntryID
			return nil
		})
}

// expectParagraphInserts assigns pg_id 100+index; indexes in fail are rejected.
func (m *pipelineMocks) expectParagraphInserts(n int, fail ...int) {
	m.paragraphs.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *storage.ParagraphRecord) error {
			for _, f := range fail {
				if p.Index == f {
					return errors.New("disk full")
				}
			}
			p.ID = 100 + int64(p.Index)
			return nil
		}).Times(n)
}

func (m *pipelineMocks) expectEmbeddingInserts(n int) {
	m.embeddings.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *storage.EmbeddingRecord) error {
			rec.ID = m.nextEmbID.Add(1)
			rec.Dim = len(rec.Vector)
			m.mu.Lock()
			m.stored = append(m.stored, rec)
			m.mu.Unlock()
			return nil
		}).Times(n)
}

func embeddingResponse(texts []string) *llm.EmbeddingResponse {
	resp := &llm.EmbeddingResponse{
		FullText: llm.EmbeddedText{Text: strings.Join(texts, "\n\n"), Embedding: []float32{1, 0}},
	}
	for i, text := range texts {
		resp.Paragraphs = append(resp.Paragraphs, llm.EmbeddedParagraph{Index: i, Text: text, Embedding: []float32{0, float32(i + 1)}})
	}
	return resp
}

func emotionResponse(texts []string) *llm.EmotionResponse {
	resp := &llm.EmotionResponse{
		FullText: llm.EmotionText{Emotion: []emotion.Score{{Label: "joy", Score: 0.8}, {Label: "unknown", Score: 0.5}}},
	}
	for i, text := range texts {
		resp.Paragraphs = append(resp.Paragraphs, llm.EmotionParagraph{Index: i, Text: text, Emotion: []emotion.Score{{Label: "sadness", Score: 0.6}}})
	}
	return resp
}

func TestNewPipeline(t *testing.T) {
	p, _ := newTestPipeline(t)
	if p.collection != "test-collection" {
		t.Errorf("NewPipeline() collection = %v, want test-collection", p.collection)
	}
	if p.concurrency != 4 {
		t.Errorf("NewPipeline() concurrency = %v, want 4", p.concurrency)
	}

	p = NewPipeline(storage.Stores{}, nil, nil, nil, nil, Config{})
	if p.concurrency != defaultConcurrency {
		t.Errorf("NewPipeline() default concurrency = %v, want %v", p.concurrency, defaultConcurrency)
	}
}

func TestPipeline_Analyze_Success(t *testing.T) {
	p, m := newTestPipeline(t)
	texts := []string{"Line one.", "Line two."}

	var inserted *storage.EntryRecord
	m.entries.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e *storage.EntryRecord) error {
			e.ID = testEntryID
			inserted = e
			return nil
		})
	m.expectParagraphInserts(2)
	m.embedder.EXPECT().Embed(gomock.Any(), texts, true).Return(embeddingResponse(texts), nil)
	m.emotions.EXPECT().Analyze(gomock.Any(), texts, true).Return(emotionResponse(texts), nil)
	m.expectEmbeddingInserts(3)

	var upserted []vectorstore.Point
	m.vectors.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, points []vectorstore.Point) error {
			upserted = points
			return nil
		})

	m.sentiments.EXPECT().InsertEntry(gomock.Any(), testEntryID, emotion.Vector{Joy: 0.8}).Return(nil)
	m.sentiments.EXPECT().InsertParagraph(gomock.Any(), int64(100), emotion.Vector{Sadness: 0.6}).Return(nil)
	m.sentiments.EXPECT().InsertParagraph(gomock.Any(), int64(101), emotion.Vector{Sadness: 0.6}).Return(nil)
	m.entries.EXPECT().UpdateStatus(gomock.Any(), testEntryID, storage.StatusAnalyzed).Return(nil)

	result, err := p.Analyze(context.Background(), Request{
		UserID: "user-1",
		Title:  "  Tuesday  ",
		Body:   "Line one.\nLine two.\n",
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.EntryID != testEntryID {
		t.Errorf("Analyze() EntryID = %d, want %d", result.EntryID, testEntryID)
	}
	if result.Status != storage.StatusAnalyzed {
		t.Errorf("Analyze() Status = %v, want analyzed", result.Status)
	}
	if !result.Report.OK() {
		t.Errorf("Analyze() report = %v, want no failures", result.Report.Err())
	}

	if inserted.Title != "Tuesday" || inserted.WordCount != 4 || inserted.EntryDate.IsZero() {
		t.Errorf("Analyze() inserted entry = %+v", inserted)
	}
	if inserted.Status != storage.StatusPending {
		t.Errorf("Analyze() inserted status = %v, want pending", inserted.Status)
	}

	if len(upserted) != 3 {
		t.Fatalf("Analyze() upserted %d points, want 3", len(upserted))
	}
	owners := make(map[string]bool)
	for _, pt := range upserted {
		ownerType, _ := vectorstore.MetaString(pt.Meta, vectorstore.MetaOwnerType)
		ownerID, _ := vectorstore.MetaInt64(pt.Meta, vectorstore.MetaOwnerID)
		if userID, _ := vectorstore.MetaString(pt.Meta, vectorstore.MetaUserID); userID != "user-1" {
			t.Errorf("point %d user_id = %q, want user-1", pt.ID, userID)
		}
		owners[fmt.Sprintf("%s/%d", ownerType, ownerID)] = true
	}
	for _, want := range []string{"entry/7", "paragraph/100", "paragraph/101"} {
		if !owners[want] {
			t.Errorf("Analyze() points = %v, missing %s", owners, want)
		}
	}
}

func TestPipeline_Analyze_ParagraphInsertFails(t *testing.T) {
	p, m := newTestPipeline(t)
	texts := []string{"a", "b", "c"}

	m.expectEntryInsert()
	m.expectParagraphInserts(3, 1)
	m.embedder.EXPECT().Embed(gomock.Any(), texts, true).Return(embeddingResponse(texts), nil)
	m.emotions.EXPECT().Analyze(gomock.Any(), texts, true).Return(emotionResponse(texts), nil)
	m.expectEmbeddingInserts(3) // entry, paragraph 0, paragraph 2
	m.vectors.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Len(3)).Return(nil)
	m.sentiments.EXPECT().InsertEntry(gomock.Any(), testEntryID, gomock.Any()).Return(nil)
	m.sentiments.EXPECT().InsertParagraph(gomock.Any(), int64(100), gomock.Any()).Return(nil)
	m.sentiments.EXPECT().InsertParagraph(gomock.Any(), int64(102), gomock.Any()).Return(nil)
	m.entries.EXPECT().UpdateStatus(gomock.Any(), testEntryID, storage.StatusPartial).Return(nil)

	result, err := p.Analyze(context.Background(), Request{UserID: "u", Body: "a\nb\nc"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Status != storage.StatusPartial {
		t.Errorf("Analyze() Status = %v, want partial", result.Status)
	}

	stages := make(map[Stage]int)
	for _, f := range result.Report.Failures {
		if f.Index != 1 {
			t.Errorf("failure %v has index %d, want 1", f, f.Index)
		}
		stages[f.Stage]++
	}
	if stages[StageParagraph] != 1 || stages[StageEmbedding] != 1 || stages[StageSentiment] != 1 {
		t.Errorf("Analyze() failures by stage = %v, want one each for paragraph, embedding, sentiment", stages)
	}
	for _, rec := range m.stored {
		if rec.OwnerType == storage.OwnerParagraph && rec.OwnerID == 101 {
			t.Error("Analyze() stored an embedding for the paragraph that failed to insert")
		}
	}
}

func TestPipeline_Analyze_InferenceFailureIsFatal(t *testing.T) {
	tests := []struct {
		name       string
		embedErr   error
		emotionErr error
	}{
		{name: "embedding service fails", embedErr: &llm.StatusError{StatusCode: 502, Body: "upstream"}},
		{name: "emotion service fails", emotionErr: llm.ErrBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m := newTestPipeline(t)
			texts := []string{"only line"}

			m.expectEntryInsert()
			m.expectParagraphInserts(1)
			embed := m.embedder.EXPECT().Embed(gomock.Any(), texts, true).AnyTimes()
			if tt.embedErr != nil {
				embed.Return(nil, tt.embedErr)
			} else {
				embed.Return(embeddingResponse(texts), nil)
			}
			analyze := m.emotions.EXPECT().Analyze(gomock.Any(), texts, true).AnyTimes()
			if tt.emotionErr != nil {
				analyze.Return(nil, tt.emotionErr)
			} else {
				analyze.Return(emotionResponse(texts), nil)
			}
			m.entries.EXPECT().UpdateStatus(gomock.Any(), testEntryID, storage.StatusFailed).Return(nil)

			result, err := p.Analyze(context.Background(), Request{
				UserID:      "u",
				Body:        "only line",
				Attachments: []Upload{{FileName: "a.jpg", ContentType: "image/jpeg", Body: strings.NewReader("x")}},
			})
			if err == nil {
				t.Fatal("Analyze() error = nil, want fatal error")
			}
			want := tt.embedErr
			if want == nil {
				want = tt.emotionErr
			}
			if !errors.Is(err, want) {
				t.Errorf("Analyze() error = %v, want %v", err, want)
			}
			if result == nil || result.EntryID != testEntryID {
				t.Fatalf("Analyze() result = %+v, want entry id %d", result, testEntryID)
			}
			if result.Status != storage.StatusFailed {
				t.Errorf("Analyze() Status = %v, want failed", result.Status)
			}
		})
	}
}

func TestPipeline_Analyze_EntryInsertFails(t *testing.T) {
	p, m := newTestPipeline(t)
	m.entries.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database is locked"))

	result, err := p.Analyze(context.Background(), Request{UserID: "u", Body: "text"})
	if err == nil {
		t.Fatal("Analyze() error = nil, want error")
	}
	if result != nil {
		t.Errorf("Analyze() result = %+v, want nil", result)
	}
}

func TestPipeline_Analyze_EmptyBody(t *testing.T) {
	p, _ := newTestPipeline(t)

	for _, body := range []string{"", "  \n\n \t"} {
		if _, err := p.Analyze(context.Background(), Request{UserID: "u", Body: body}); !errors.Is(err, ErrEmptyBody) {
			t.Errorf("Analyze(%q) error = %v, want ErrEmptyBody", body, err)
		}
	}
}

func TestPipeline_Analyze_Attachments(t *testing.T) {
	p, m := newTestPipeline(t)
	texts := []string{"Beach day"}

	m.expectEntryInsert()
	m.expectParagraphInserts(1)
	m.embedder.EXPECT().Embed(gomock.Any(), texts, true).Return(embeddingResponse(texts), nil)
	m.emotions.EXPECT().Analyze(gomock.Any(), texts, true).Return(emotionResponse(texts), nil)
	m.sentiments.EXPECT().InsertEntry(gomock.Any(), testEntryID, gomock.Any()).Return(nil)
	m.sentiments.EXPECT().InsertParagraph(gomock.Any(), int64(100), gomock.Any()).Return(nil)

	// entry + paragraph, then the caption.
	m.expectEmbeddingInserts(3)
	m.vectors.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Len(2)).Return(nil)

	var putKey string
	m.objects.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), int64(4), "image/jpeg").DoAndReturn(
		func(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
			putKey = key
			b, _ := io.ReadAll(r)
			if string(b) != "jpeg" {
				t.Errorf("Put() body = %q", b)
			}
			return nil
		})
	m.attachments.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *storage.AttachmentRecord) error {
			if a.FileType != storage.FileImage || a.Caption != "sunset" || a.StoragePath != putKey {
				t.Errorf("Insert() attachment = %+v", a)
			}
			a.ID = 900
			return nil
		})
	m.embedder.EXPECT().Embed(gomock.Any(), []string{"sunset"}, false).Return(&llm.EmbeddingResponse{
		FullText: llm.EmbeddedText{Text: "sunset", Embedding: []float32{0.5, 0.5}},
	}, nil)
	m.vectors.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Len(1)).DoAndReturn(
		func(_ context.Context, _ string, points []vectorstore.Point) error {
			if ownerType, _ := vectorstore.MetaString(points[0].Meta, vectorstore.MetaOwnerType); ownerType != "caption" {
				t.Errorf("caption point owner_type = %q", ownerType)
			}
			if ownerID, _ := vectorstore.MetaInt64(points[0].Meta, vectorstore.MetaOwnerID); ownerID != 900 {
				t.Errorf("caption point owner_id = %d, want 900", ownerID)
			}
			return nil
		})
	m.entries.EXPECT().UpdateStatus(gomock.Any(), testEntryID, storage.StatusPartial).Return(nil)

	result, err := p.Analyze(context.Background(), Request{
		UserID: "user-1",
		Body:   "Beach day",
		Attachments: []Upload{
			{FileName: "Photo.JPG", ContentType: "image/jpeg", Size: 4, Body: strings.NewReader("jpeg"), Caption: " sunset "},
			{FileName: "notes.zip", ContentType: "application/zip", Size: 10, Body: strings.NewReader("zip")},
		},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if !strings.HasPrefix(putKey, "user-1/7/") || !strings.HasSuffix(putKey, ".jpg") {
		t.Errorf("object key = %q, want user-1/7/{uuid}.jpg", putKey)
	}
	if len(result.Report.Failures) != 1 {
		t.Fatalf("Analyze() failures = %v, want only the zip", result.Report.Err())
	}
	f := result.Report.Failures[0]
	if f.Stage != StageAttachment || f.Index != 1 || !errors.Is(f, ErrUnsupportedMediaType) {
		t.Errorf("Analyze() failure = %v, want unsupported media type for attachment 1", f)
	}
	if result.Status != storage.StatusPartial {
		t.Errorf("Analyze() Status = %v, want partial", result.Status)
	}
}

func TestPipeline_Analyze_VectorIndexFailureIsPartial(t *testing.T) {
	p, m := newTestPipeline(t)
	texts := []string{"x"}

	m.expectEntryInsert()
	m.expectParagraphInserts(1)
	m.embedder.EXPECT().Embed(gomock.Any(), texts, true).Return(embeddingResponse(texts), nil)
	m.emotions.EXPECT().Analyze(gomock.Any(), texts, true).Return(emotionResponse(texts), nil)
	m.expectEmbeddingInserts(2)
	m.vectors.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("qdrant unavailable"))
	m.sentiments.EXPECT().InsertEntry(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.sentiments.EXPECT().InsertParagraph(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.entries.EXPECT().UpdateStatus(gomock.Any(), testEntryID, storage.StatusPartial).Return(errors.New("ignored"))

	result, err := p.Analyze(context.Background(), Request{UserID: "u", Body: "x"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Report.Failures) != 1 || result.Report.Failures[0].Stage != StageVectorIndex {
		t.Errorf("Analyze() failures = %v, want one vector_index failure", result.Report.Err())
	}
}

func TestPipeline_Analyze_Tags(t *testing.T) {
	tests := []struct {
		name       string
		tagErr     error
		wantStatus storage.AnalysisStatus
	}{
		{name: "stored", wantStatus: storage.StatusAnalyzed},
		{name: "tag insert fails", tagErr: errors.New("locked"), wantStatus: storage.StatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m := newTestPipeline(t)
			texts := []string{"x"}

			m.expectEntryInsert()
			m.expectParagraphInserts(1)
			m.tags.EXPECT().Insert(gomock.Any(), testEntryID, []string{"travel", "lake"}).Return(tt.tagErr)
			m.embedder.EXPECT().Embed(gomock.Any(), texts, true).Return(embeddingResponse(texts), nil)
			m.emotions.EXPECT().Analyze(gomock.Any(), texts, true).Return(emotionResponse(texts), nil)
			m.expectEmbeddingInserts(2)
			m.vectors.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			m.sentiments.EXPECT().InsertEntry(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			m.sentiments.EXPECT().InsertParagraph(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			m.entries.EXPECT().UpdateStatus(gomock.Any(), testEntryID, tt.wantStatus).Return(nil)

			result, err := p.Analyze(context.Background(), Request{
				UserID: "u",
				Body:   "x",
				Tags:   []string{" travel ", "", "lake", "travel"},
			})
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("Analyze() Status = %v, want %v", result.Status, tt.wantStatus)
			}
			if tt.tagErr != nil {
				if len(result.Report.Failures) != 1 || result.Report.Failures[0].Stage != StageTag {
					t.Errorf("Analyze() failures = %v, want one tag failure", result.Report.Err())
				}
			}
		})
	}
}

func TestPipeline_Delete(t *testing.T) {
	p, m := newTestPipeline(t)

	m.paragraphs.EXPECT().ListByEntry(gomock.Any(), testEntryID).Return([]*storage.ParagraphRecord{
		{ID: 100, EntryID: testEntryID}, {ID: 101, EntryID: testEntryID},
	}, nil)
	m.attachments.EXPECT().ListByEntry(gomock.Any(), testEntryID).Return([]*storage.AttachmentRecord{
		{ID: 30, EntryID: testEntryID, StoragePath: "u/7/a.png"},
		{ID: 31, EntryID: testEntryID, StoragePath: "u/7/b.pdf"},
	}, nil)
	m.embeddings.EXPECT().ListByOwner(gomock.Any(), storage.OwnerEntry, testEntryID).Return([]*storage.EmbeddingRecord{{ID: 1}}, nil)
	m.embeddings.EXPECT().ListByOwner(gomock.Any(), storage.OwnerParagraph, int64(100)).Return([]*storage.EmbeddingRecord{{ID: 2}, {ID: 3}}, nil)
	m.embeddings.EXPECT().ListByOwner(gomock.Any(), storage.OwnerParagraph, int64(101)).Return(nil, nil)
	m.embeddings.EXPECT().ListByOwner(gomock.Any(), storage.OwnerCaption, int64(30)).Return([]*storage.EmbeddingRecord{{ID: 4}}, nil)
	m.embeddings.EXPECT().ListByOwner(gomock.Any(), storage.OwnerCaption, int64(31)).Return(nil, nil)

	gomock.InOrder(
		m.vectors.EXPECT().Delete(gomock.Any(), "test-collection", []uint64{1, 2, 3, 4}).Return(nil),
		m.embeddings.EXPECT().Delete(gomock.Any(), []int64{1, 2, 3, 4}).Return(nil),
		m.entries.EXPECT().Delete(gomock.Any(), testEntryID).Return(nil),
	)
	m.objects.EXPECT().Delete(gomock.Any(), "u/7/a.png").Return(nil)
	m.objects.EXPECT().Delete(gomock.Any(), "u/7/b.pdf").Return(errors.New("gone"))

	if err := p.Delete(context.Background(), testEntryID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestPipeline_Delete_VectorFailureKeepsRows(t *testing.T) {
	p, m := newTestPipeline(t)

	m.paragraphs.EXPECT().ListByEntry(gomock.Any(), testEntryID).Return(nil, nil)
	m.attachments.EXPECT().ListByEntry(gomock.Any(), testEntryID).Return(nil, nil)
	m.embeddings.EXPECT().ListByOwner(gomock.Any(), storage.OwnerEntry, testEntryID).Return([]*storage.EmbeddingRecord{{ID: 9}}, nil)
	m.vectors.EXPECT().Delete(gomock.Any(), "test-collection", []uint64{9}).Return(errors.New("qdrant unavailable"))

	if err := p.Delete(context.Background(), testEntryID); err == nil {
		t.Error("Delete() error = nil, want error")
	}
}

func TestPipeline_Delete_NoEmbeddings(t *testing.T) {
	p, m := newTestPipeline(t)

	m.paragraphs.EXPECT().ListByEntry(gomock.Any(), testEntryID).Return(nil, nil)
	m.attachments.EXPECT().ListByEntry(gomock.Any(), testEntryID).Return(nil, nil)
	m.embeddings.EXPECT().ListByOwner(gomock.Any(), storage.OwnerEntry, testEntryID).Return(nil, nil)
	m.entries.EXPECT().Delete(gomock.Any(), testEntryID).Return(storage.ErrNotFound)

	if err := p.Delete(context.Background(), testEntryID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete() error = %v, want storage.ErrNotFound", err)
	}
}

func TestPipeline_Reindex(t *testing.T) {
	p, m := newTestPipeline(t)

	page1 := make([]*storage.EmbeddingRecord, reindexBatchSize)
	for i := range page1 {
		page1[i] = &storage.EmbeddingRecord{ID: int64(i + 1), UserID: "u", OwnerType: storage.OwnerParagraph, OwnerID: int64(i), Vector: []float32{1}}
	}
	page2 := []*storage.EmbeddingRecord{
		{ID: reindexBatchSize + 5, UserID: "u", OwnerType: storage.OwnerCaption, OwnerID: 3, Vector: []float32{1}},
	}

	gomock.InOrder(
		m.embeddings.EXPECT().ListAfter(gomock.Any(), int64(0), reindexBatchSize).Return(page1, nil),
		m.vectors.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Len(reindexBatchSize)).Return(nil),
		m.embeddings.EXPECT().ListAfter(gomock.Any(), int64(reindexBatchSize), reindexBatchSize).Return(page2, nil),
		m.vectors.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Len(1)).Return(nil),
		m.embeddings.EXPECT().ListAfter(gomock.Any(), int64(reindexBatchSize+5), reindexBatchSize).Return(nil, nil),
	)

	n, err := p.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	if n != reindexBatchSize+1 {
		t.Errorf("Reindex() = %d, want %d", n, reindexBatchSize+1)
	}
}

func TestPipeline_Reindex_UpsertError(t *testing.T) {
	p, m := newTestPipeline(t)

	m.embeddings.EXPECT().ListAfter(gomock.Any(), int64(0), reindexBatchSize).Return([]*storage.EmbeddingRecord{
		{ID: 1, OwnerType: storage.OwnerEntry, OwnerID: 1, Vector: []float32{1}},
	}, nil)
	m.vectors.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("boom"))

	if _, err := p.Reindex(context.Background()); err == nil {
		t.Error("Reindex() error = nil, want error")
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		fileName   string
		wantSuffix string
	}{
		{"photo.PNG", ".png"},
		{"voice.memo.m4a", ".m4a"},
		{"noext", ""},
	}

	for _, tt := range tests {
		key := ObjectKey("u1", 42, tt.fileName)
		if !strings.HasPrefix(key, "u1/42/") {
			t.Errorf("ObjectKey(%q) = %q, want prefix u1/42/", tt.fileName, key)
		}
		rest := strings.TrimPrefix(key, "u1/42/")
		if tt.wantSuffix == "" {
			if strings.Contains(rest, ".") {
				t.Errorf("ObjectKey(%q) = %q, want no extension", tt.fileName, key)
			}
			continue
		}
		if !strings.HasSuffix(rest, tt.wantSuffix) || len(rest) != 36+len(tt.wantSuffix) {
			t.Errorf("ObjectKey(%q) = %q, want {uuid}%s", tt.fileName, key, tt.wantSuffix)
		}
	}
}
