package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openai/openai-go/v3/option"

	"journal-ai/internal/config"
	"journal-ai/internal/inference"
	"journal-ai/internal/llm"
)

func main() {
	cfg, err := config.LoadInference()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := inference.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel, option.WithRequestTimeout(cfg.Timeout))
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	retry := llm.DefaultRetryPolicy()
	retry.Timeout = cfg.Timeout
	classifier := inference.NewHFClassifier(cfg.HFBaseURL, cfg.HFAPIToken, cfg.EmotionModel, retry)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           inference.NewServer(embedder, classifier, cfg.APIKey).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Starting inference server", "addr", srv.Addr, "embedding_model", cfg.EmbeddingModel, "emotion_model", cfg.EmotionModel)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Inference server failed to start: %v", err)
	}
}
