package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"time"

	"journal-ai/internal/analysis"
	"journal-ai/internal/config"
	"journal-ai/internal/contextutil"
	"journal-ai/internal/http"
	"journal-ai/internal/importer"
	"journal-ai/internal/llm"
	"journal-ai/internal/objectstore"
	"journal-ai/internal/search"
	"journal-ai/internal/service"
	"journal-ai/internal/storage"
	"journal-ai/internal/vectorstore"
)

// app holds the wired dependencies shared by every command.
type app struct {
	db          *sql.DB
	vectorStore vectorstore.VectorStore
	objectStore *objectstore.MinioStore
	journal     service.JournalService
	closers     []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func wire(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, func() { _ = db.Close() })

	if err := storage.Migrate(db); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	stores := storage.NewStores(db)

	// Initialize vector store
	switch cfg.VectorStore {
	case config.VectorStorePgVector:
		pg, err := vectorstore.NewPgVectorStore(ctx, cfg.PgVectorDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to pgvector: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		a.vectorStore = pg
	default:
		qdrant, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = qdrant.Close() })
		a.vectorStore = qdrant
	}

	// Ensure collection exists with correct vector size
	if err := a.vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.VectorSize); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to ensure vector collection: %w", err)
	}
	slog.Info("Vector collection ready", "backend", cfg.VectorStore, "collection", cfg.QdrantCollection, "vector_size", cfg.VectorSize)

	// Initialize attachment storage
	a.objectStore, err = objectstore.NewMinioStore(ctx, objectstore.Options{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		Region:    cfg.MinioRegion,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}
	slog.Info("Object storage ready", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)

	// Inference clients (external service layer)
	embedder := llm.NewEmbeddingsClient(cfg.InferenceBaseURL, cfg.InferenceAPIKey, cfg.VectorSize, cfg.EmbeddingRetry)
	emotions := llm.NewEmotionClient(cfg.InferenceBaseURL, cfg.InferenceAPIKey, cfg.EmotionRetry)
	slog.Debug("Inference configuration", "base_url", cfg.InferenceBaseURL)

	pipeline := analysis.NewPipeline(stores, embedder, emotions, a.vectorStore, a.objectStore, analysis.Config{
		Collection:  cfg.QdrantCollection,
		Concurrency: cfg.AnalysisConcurrency,
	})

	engine := search.NewEngine(embedder, a.vectorStore, stores, a.objectStore, search.Config{
		Collection:   cfg.QdrantCollection,
		SignedURLTTL: cfg.SignedURLTTL,
		Concurrency:  cfg.ResolveConcurrency,
	})

	a.journal = service.NewJournalService(stores, pipeline, engine, a.objectStore, cfg.SignedURLTTL)
	slog.Info("Journal service initialized")
	return a, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// Create router with dependencies
	router := http.NewRouter(&http.Deps{
		Journal:        a.journal,
		DB:             a.db,
		VectorStore:    a.vectorStore,
		ObjectStore:    a.objectStore,
		CollectionName: cfg.QdrantCollection,
		DefaultUserID:  cfg.DefaultUserID,
		SearchTopN:     cfg.SearchTopN,
	})

	srv := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	// Start API server
	slog.Info("Starting API server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return fmt.Errorf("API server failed: %w", err)
	}
	slog.Info("API server stopped")
	return nil
}

func importDir(ctx context.Context, cfg *config.Config, dir, userID string) error {
	a, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx = contextutil.WithUserID(ctx, userID)
	ctx = contextutil.WithLogger(ctx, slog.Default().With("user_id", userID, "import_dir", dir))

	stats, err := importer.New(a.journal, userID).Run(ctx, dir)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if stats.Failed > 0 {
		return fmt.Errorf("import finished with %d failed files", stats.Failed)
	}
	return nil
}
