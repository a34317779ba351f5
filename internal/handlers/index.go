package handlers

import (
	"context"
	"net/http"

	"journal-ai/internal/contextutil"
	"journal-ai/internal/service"
)

// IndexHandler handles HTTP requests for rebuilding the vector index.
type IndexHandler struct {
	journal service.JournalService
	// done is signalled when a background rebuild finishes. Nil outside tests.
	done chan<- struct{}
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(journal service.JournalService) *IndexHandler {
	return &IndexHandler{journal: journal}
}

// IndexResponse represents the response from the index endpoint.
type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP re-upserts every stored embedding into the vector index.
// The rebuild runs in the background and the request returns at once.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	logger.InfoContext(ctx, "index rebuild triggered via API")

	// Detached from the request so the rebuild outlives the response.
	go func() {
		indexCtx := contextutil.WithLogger(context.Background(), logger)
		n, err := h.journal.Reindex(indexCtx)
		if err != nil {
			logger.ErrorContext(indexCtx, "index rebuild completed with errors", "points", n, "error", err)
		} else {
			logger.InfoContext(indexCtx, "index rebuild completed successfully", "points", n)
		}
		if h.done != nil {
			h.done <- struct{}{}
		}
	}()

	writeJSON(w, http.StatusAccepted, IndexResponse{
		Message: "Index rebuild started. Check server logs for progress.",
		Status:  "accepted",
	})
}
