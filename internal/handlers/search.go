package handlers

import (
	"net/http"
	"strconv"

	"journal-ai/internal/contextutil"
	"journal-ai/internal/search"
	"journal-ai/internal/service"
)

// SearchHandler handles HTTP requests for similarity search.
type SearchHandler struct {
	journal     service.JournalService
	defaultTopN int
}

// NewSearchHandler creates a new SearchHandler. A defaultTopN of zero
// leaves the engine default in place.
func NewSearchHandler(journal service.JournalService, defaultTopN int) *SearchHandler {
	return &SearchHandler{journal: journal, defaultTopN: defaultTopN}
}

// SearchResponse represents the HTTP response payload for search.
type SearchResponse struct {
	Query string        `json:"query"`
	Kind  search.Kind   `json:"kind"`
	Items []search.Item `json:"items"`
}

// ServeHTTP handles GET /api/search?q=&k=&kind=.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query()
	topN := h.defaultTopN
	if raw := query.Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k <= 0 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		topN = k
	}

	kind, err := search.ParseKind(query.Get("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.journal.Search(ctx, service.SearchRequest{
		UserID: contextutil.UserIDFromContext(ctx),
		Text:   query.Get("q"),
		TopN:   topN,
		Kind:   kind,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to search")
		return
	}
	if items == nil {
		items = []search.Item{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{Query: query.Get("q"), Kind: kind, Items: items})
}
