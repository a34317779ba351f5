package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"journal-ai/internal/llm"
)

// Vector store backends selectable with VECTOR_STORE.
const (
	VectorStoreQdrant   = "qdrant"
	VectorStorePgVector = "pgvector"
)

// Config holds all configuration for the journal API server.
type Config struct {
	LogLevel  slog.Level
	LogFormat string // "text" or "json"

	DBPath        string
	APIPort       string
	DefaultUserID string

	InferenceBaseURL string
	InferenceAPIKey  string
	VectorSize       int
	EmbeddingRetry   llm.RetryPolicy
	EmotionRetry     llm.RetryPolicy

	VectorStore      string
	QdrantURL        string
	QdrantCollection string
	PgVectorDSN      string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	SignedURLTTL   time.Duration

	AnalysisConcurrency int
	ResolveConcurrency  int
	SearchTopN          int
}

// InferenceConfig holds configuration for the inference gateway.
type InferenceConfig struct {
	LogLevel  slog.Level
	LogFormat string

	Port           string
	APIKey         string // bearer key callers must present; empty disables the check
	OpenAIAPIKey   string
	EmbeddingModel string
	HFAPIToken     string
	HFBaseURL      string
	EmotionModel   string
	Timeout        time.Duration
}

// loadDotEnv loads a .env file from the current directory or the nearest
// parent that has one. Environment variables already set take precedence.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or a parent, it is loaded first.
func Load() (*Config, error) {
	loadDotEnv()

	var p parser
	cfg := &Config{
		LogLevel:  p.level("LOG_LEVEL", slog.LevelInfo),
		LogFormat: p.oneOf("LOG_FORMAT", "text", "text", "json"),

		DBPath:        getEnv("DB_PATH", "./data/journal-ai.db"),
		APIPort:       getEnv("API_PORT", "9000"),
		DefaultUserID: getEnv("DEFAULT_USER_ID", "local"),

		InferenceBaseURL: getEnv("INFERENCE_BASE_URL", "http://localhost:9100"),
		InferenceAPIKey:  getEnv("INFERENCE_API_KEY", ""),
		VectorSize:       p.positiveInt("EMBEDDING_VECTOR_SIZE", 0),

		VectorStore:      p.oneOf("VECTOR_STORE", VectorStoreQdrant, VectorStoreQdrant, VectorStorePgVector),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6334"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "journal"),
		PgVectorDSN:      getEnv("PGVECTOR_DSN", ""),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9002"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "journal-attachments"),
		MinioRegion:    getEnv("MINIO_REGION", ""),
		MinioUseSSL:    p.boolean("MINIO_USE_SSL", false),
		SignedURLTTL:   p.duration("SIGNED_URL_TTL", 60*time.Second),

		AnalysisConcurrency: p.positiveInt("ANALYSIS_CONCURRENCY", 8),
		ResolveConcurrency:  p.positiveInt("RESOLVE_CONCURRENCY", 8),
		SearchTopN:          p.positiveInt("SEARCH_TOP_N", 25),
	}
	cfg.EmbeddingRetry = p.retry("EMBEDDING")
	cfg.EmotionRetry = p.retry("EMOTION")

	if p.err != nil {
		return nil, p.err
	}

	// The vector size must match the embedding model output. Changing it
	// requires recreating the collection.
	if cfg.VectorSize == 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE is required")
	}
	if cfg.VectorStore == VectorStorePgVector && cfg.PgVectorDSN == "" {
		return nil, fmt.Errorf("PGVECTOR_DSN is required when VECTOR_STORE=pgvector")
	}
	if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required")
	}

	// Create the data directory for the database file
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// LoadInference reads the inference gateway configuration.
func LoadInference() (*InferenceConfig, error) {
	loadDotEnv()

	var p parser
	cfg := &InferenceConfig{
		LogLevel:       p.level("LOG_LEVEL", slog.LevelInfo),
		LogFormat:      p.oneOf("LOG_FORMAT", "text", "text", "json"),
		Port:           getEnv("INFERENCE_PORT", "9100"),
		APIKey:         getEnv("INFERENCE_API_KEY", ""),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		HFAPIToken:     getEnv("HF_API_TOKEN", ""),
		HFBaseURL:      getEnv("HF_BASE_URL", "https://router.huggingface.co/hf-inference/models"),
		EmotionModel:   getEnv("EMOTION_MODEL", "j-hartmann/emotion-english-distilroberta-base"),
		Timeout:        p.duration("INFERENCE_TIMEOUT", 60*time.Second),
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.HFAPIToken == "" {
		return nil, fmt.Errorf("HF_API_TOKEN is required")
	}
	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser reads typed values and keeps the first error.
type parser struct {
	err error
}

func (p *parser) fail(key string, format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%s %s", key, fmt.Sprintf(format, args...))
	}
}

func (p *parser) positiveInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, "must be a valid integer: %v", err)
		return def
	}
	if v <= 0 {
		p.fail(key, "must be greater than 0")
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, "must be a duration such as 30s: %v", err)
		return def
	}
	if v <= 0 {
		p.fail(key, "must be greater than 0")
		return def
	}
	return v
}

func (p *parser) boolean(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, "must be true or false")
		return def
	}
	return v
}

func (p *parser) oneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(getEnv(key, def))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	p.fail(key, "must be one of %s", strings.Join(allowed, ", "))
	return def
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		p.fail(key, "must be debug, info, warn or error")
		return def
	}
	return lvl
}

// retry reads {prefix}_MAX_ATTEMPTS, {prefix}_TIMEOUT,
// {prefix}_RETRY_INITIAL_INTERVAL and {prefix}_RETRY_MAX_INTERVAL.
func (p *parser) retry(prefix string) llm.RetryPolicy {
	def := llm.DefaultRetryPolicy()
	return llm.RetryPolicy{
		MaxAttempts:     p.positiveInt(prefix+"_MAX_ATTEMPTS", def.MaxAttempts),
		Timeout:         p.duration(prefix+"_TIMEOUT", def.Timeout),
		InitialInterval: p.duration(prefix+"_RETRY_INITIAL_INTERVAL", def.InitialInterval),
		MaxInterval:     p.duration(prefix+"_RETRY_MAX_INTERVAL", def.MaxInterval),
	}
}
