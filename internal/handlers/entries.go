package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"journal-ai/internal/analysis"
	"journal-ai/internal/contextutil"
	"journal-ai/internal/service"
	"journal-ai/internal/storage"
)

const maxUploadMemory = 32 << 20

// dateLayout is the short form accepted for the entry date field.
const dateLayout = "2006-01-02"

// EntryHandler handles HTTP requests for journal entries.
type EntryHandler struct {
	journal service.JournalService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(journal service.JournalService) *EntryHandler {
	return &EntryHandler{journal: journal}
}

// CreateEntryResponse is returned by POST /api/entries.
type CreateEntryResponse struct {
	EntryID  int64                  `json:"entry_id"`
	Status   storage.AnalysisStatus `json:"status"`
	Failures []analysis.Failure     `json:"failures"`
	Error    string                 `json:"error,omitempty"`
}

// ListEntriesResponse is returned by GET /api/entries.
type ListEntriesResponse struct {
	Entries []service.EntrySummary `json:"entries"`
}

// Create stores a new entry from a multipart form with the fields title,
// body, date, repeated tag values and any number of attachment files.
// The caption of the n-th attachment (from 0) is sent as caption_<n>, so
// uncaptioned files can be mixed with captioned ones.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	entryDate, err := parseEntryDate(r.FormValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	files := r.MultipartForm.File["attachment"]
	uploads := make([]analysis.Upload, 0, len(files))
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			logger.WarnContext(ctx, "failed to open attachment", "file_name", fh.Filename, "error", err)
			writeError(w, http.StatusBadRequest, "Invalid attachment")
			return
		}
		defer f.Close()

		up := analysis.Upload{
			FileName:    fh.Filename,
			ContentType: contentType(fh),
			Size:        fh.Size,
			Body:        f,
		}
		up.Caption = r.FormValue(captionField(i))
		uploads = append(uploads, up)
	}

	req := analysis.Request{
		UserID:      contextutil.UserIDFromContext(ctx),
		Title:       r.FormValue("title"),
		Body:        r.FormValue("body"),
		EntryDate:   entryDate,
		Tags:        r.MultipartForm.Value["tag"],
		Attachments: uploads,
	}

	result, err := h.journal.CreateEntry(ctx, req)
	if err != nil && result == nil {
		handleServiceError(w, ctx, err, "Failed to create entry")
		return
	}

	resp := CreateEntryResponse{
		EntryID:  result.EntryID,
		Status:   result.Status,
		Failures: result.Report.Failures,
	}
	if resp.Failures == nil {
		resp.Failures = []analysis.Failure{}
	}
	status := http.StatusCreated
	if err != nil {
		logger.ErrorContext(ctx, "entry stored but analysis failed", "entry_id", result.EntryID, "error", err)
		status = service.HTTPStatus(err)
		resp.Error = "Entry saved but analysis failed"
	}
	writeJSON(w, status, resp)
}

// List returns the caller's entries newest first.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.journal.ListEntries(ctx, contextutil.UserIDFromContext(ctx))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list entries")
		return
	}
	writeJSON(w, http.StatusOK, ListEntriesResponse{Entries: entries})
}

// Get returns one entry with its paragraphs and attachments.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := entryID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	detail, err := h.journal.GetEntry(ctx, contextutil.UserIDFromContext(ctx), id)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get entry")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Delete removes one entry with its attachments and derived records.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := entryID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	if err := h.journal.DeleteEntry(ctx, contextutil.UserIDFromContext(ctx), id); err != nil {
		handleServiceError(w, ctx, err, "Failed to delete entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// captionField names the form field holding the caption of attachment i.
func captionField(i int) string {
	return "caption_" + strconv.Itoa(i)
}

func entryID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid entry id")
	}
	return id, nil
}

// parseEntryDate accepts an empty value, YYYY-MM-DD or RFC 3339.
func parseEntryDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t, nil
}

func contentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
