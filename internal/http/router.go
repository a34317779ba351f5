package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"journal-ai/internal/handlers"
	"journal-ai/internal/objectstore"
	"journal-ai/internal/service"
	"journal-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Journal        service.JournalService
	DB             handlers.Pinger
	VectorStore    vectorstore.VectorStore
	ObjectStore    objectstore.ObjectStore
	CollectionName string
	DefaultUserID  string
	SearchTopN     int
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)
	r.Use(UserID(deps.DefaultUserID))

	entryHandler := handlers.NewEntryHandler(deps.Journal)
	searchHandler := handlers.NewSearchHandler(deps.Journal, deps.SearchTopN)
	indexHandler := handlers.NewIndexHandler(deps.Journal)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.VectorStore, deps.ObjectStore, deps.CollectionName)
	pageHandler := handlers.NewEntryPageHandler(deps.Journal)

	r.Route("/api", func(r chi.Router) {
		r.Post("/entries", entryHandler.Create)
		r.Get("/entries", entryHandler.List)
		r.Get("/entries/{id}", entryHandler.Get)
		r.Delete("/entries/{id}", entryHandler.Delete)
		r.Method(http.MethodGet, "/search", searchHandler)
		r.Method(http.MethodPost, "/index/rebuild", indexHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	r.Method(http.MethodGet, "/entries/{id}", pageHandler)

	return r
}
