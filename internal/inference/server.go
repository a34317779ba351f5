// Package inference implements the embedding and emotion services the
// journal API calls, backed by OpenAI embeddings and a Hugging Face
// emotion classifier.
package inference

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"journal-ai/internal/contextutil"
	"journal-ai/internal/emotion"
	"journal-ai/internal/llm"
)

// FullTextSeparator joins trimmed paragraphs into the full text. Both
// services use it so their fullText fields agree.
const FullTextSeparator = "\n\n"

const classifyConcurrency = 4

var errInvalidParagraphs = errors.New("paragraphs must be a non-empty array of non-empty strings")

// Server serves POST /embeddings and POST /sentiment.
type Server struct {
	embedder   TextEmbedder
	classifier EmotionClassifier
	apiKey     string
}

// NewServer creates a new inference server. An empty apiKey disables the
// bearer check.
func NewServer(embedder TextEmbedder, classifier EmotionClassifier, apiKey string) *Server {
	return &Server{embedder: embedder, classifier: classifier, apiKey: apiKey}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(s.authenticate)

	r.Post("/embeddings", s.handleEmbeddings)
	r.Post("/sentiment", s.handleSentiment)
	return r
}

// analyzeRequest mirrors llm.AnalyzeRequest; a missing analyzePgs means true.
type analyzeRequest struct {
	Paragraphs []string `json:"paragraphs"`
	AnalyzePgs *bool    `json:"analyzePgs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// decodeRequest validates the body and returns the trimmed paragraphs.
func decodeRequest(r *http.Request) ([]string, bool, error) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, false, errInvalidParagraphs
	}
	if len(req.Paragraphs) == 0 {
		return nil, false, errInvalidParagraphs
	}

	paragraphs := make([]string, len(req.Paragraphs))
	for i, p := range req.Paragraphs {
		paragraphs[i] = strings.TrimSpace(p)
		if paragraphs[i] == "" {
			return nil, false, errInvalidParagraphs
		}
	}

	analyzePgs := req.AnalyzePgs == nil || *req.AnalyzePgs
	return paragraphs, analyzePgs, nil
}

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	paragraphs, analyzePgs, err := decodeRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	fullText := strings.Join(paragraphs, FullTextSeparator)

	texts := []string{fullText}
	if analyzePgs {
		texts = append(texts, paragraphs...)
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err == nil && len(vectors) != len(texts) {
		err = errors.New("embedding count mismatch")
	}
	if err != nil {
		logger.ErrorContext(ctx, "embedding failed", "texts", len(texts), "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Embedding failed"})
		return
	}

	resp := llm.EmbeddingResponse{
		FullText: llm.EmbeddedText{Text: fullText, Embedding: vectors[0]},
	}
	if analyzePgs {
		resp.Paragraphs = make([]llm.EmbeddedParagraph, len(paragraphs))
		for i, p := range paragraphs {
			resp.Paragraphs[i] = llm.EmbeddedParagraph{Index: i, Text: p, Embedding: vectors[i+1]}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	paragraphs, analyzePgs, err := decodeRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	fullText := strings.Join(paragraphs, FullTextSeparator)

	texts := []string{fullText}
	if analyzePgs {
		texts = append(texts, paragraphs...)
	}

	scores := make([][]emotion.Score, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(classifyConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			out, err := s.classifier.Classify(gctx, text)
			if err != nil {
				return err
			}
			scores[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "emotion classification failed", "texts", len(texts), "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Emotion analysis failed"})
		return
	}

	resp := llm.EmotionResponse{
		FullText: llm.EmotionText{Text: fullText, Emotion: scores[0]},
	}
	if analyzePgs {
		resp.Paragraphs = make([]llm.EmotionParagraph, len(paragraphs))
		for i, p := range paragraphs {
			resp.Paragraphs[i] = llm.EmotionParagraph{Index: i, Text: p, Emotion: scores[i+1]}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
