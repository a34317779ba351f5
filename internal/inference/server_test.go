package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"journal-ai/internal/emotion"
	"journal-ai/internal/llm"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, texts)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), float32(i)}
	}
	return out, nil
}

type fakeClassifier struct {
	fail string // text that fails
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) ([]emotion.Score, error) {
	if f.fail != "" && text == f.fail {
		return nil, errors.New("model loading")
	}
	label := "joy"
	if strings.Contains(text, "sad") {
		label = "sadness"
	}
	return []emotion.Score{{Label: label, Score: 0.9}, {Label: "neutral", Score: 0.1}}, nil
}

func post(t *testing.T, h http.Handler, path, body, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Embeddings(t *testing.T) {
	embedder := &fakeEmbedder{}
	h := NewServer(embedder, &fakeClassifier{}, "").Handler()

	w := post(t, h, "/embeddings", `{"paragraphs":["  first day ","second"],"analyzePgs":true}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /embeddings status = %v, body %s", w.Code, w.Body.String())
	}

	var resp llm.EmbeddingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FullText.Text != "first day\n\nsecond" {
		t.Errorf("fullText = %q, want trimmed paragraphs joined by a blank line", resp.FullText.Text)
	}
	if len(resp.Paragraphs) != 2 || resp.Paragraphs[1].Index != 1 || resp.Paragraphs[1].Text != "second" {
		t.Errorf("paragraphs = %+v", resp.Paragraphs)
	}
	if resp.Paragraphs[0].Embedding[1] != 1 {
		t.Errorf("paragraph 0 got vector %v, want the second embedded text", resp.Paragraphs[0].Embedding)
	}
	if len(embedder.calls) != 1 || len(embedder.calls[0]) != 3 {
		t.Errorf("EmbedTexts calls = %v, want one batch of 3", embedder.calls)
	}
}

func TestServer_Embeddings_FullTextOnly(t *testing.T) {
	embedder := &fakeEmbedder{}
	h := NewServer(embedder, &fakeClassifier{}, "").Handler()

	w := post(t, h, "/embeddings", `{"paragraphs":["a","b"],"analyzePgs":false}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /embeddings status = %v", w.Code)
	}
	var resp llm.EmbeddingResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Paragraphs != nil {
		t.Errorf("paragraphs = %+v, want none", resp.Paragraphs)
	}
	if len(embedder.calls[0]) != 1 {
		t.Errorf("EmbedTexts texts = %v, want full text only", embedder.calls[0])
	}
}

func TestServer_Sentiment(t *testing.T) {
	h := NewServer(&fakeEmbedder{}, &fakeClassifier{}, "").Handler()

	w := post(t, h, "/sentiment", `{"paragraphs":["happy","sad"]}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /sentiment status = %v, body %s", w.Code, w.Body.String())
	}

	var resp llm.EmotionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FullText.Text != "happy\n\nsad" {
		t.Errorf("fullText = %q", resp.FullText.Text)
	}
	if len(resp.Paragraphs) != 2 {
		t.Fatalf("paragraphs = %d, want 2 (analyzePgs defaults to true)", len(resp.Paragraphs))
	}
	if resp.Paragraphs[1].Emotion[0].Label != "sadness" || resp.Paragraphs[0].Emotion[0].Label != "joy" {
		t.Errorf("paragraph emotions = %+v", resp.Paragraphs)
	}
}

func TestServer_Errors(t *testing.T) {
	tests := []struct {
		name       string
		server     *Server
		path       string
		body       string
		key        string
		wantStatus int
	}{
		{"empty array", NewServer(&fakeEmbedder{}, &fakeClassifier{}, ""), "/embeddings", `{"paragraphs":[]}`, "", http.StatusBadRequest},
		{"blank paragraph", NewServer(&fakeEmbedder{}, &fakeClassifier{}, ""), "/sentiment", `{"paragraphs":["a","  "]}`, "", http.StatusBadRequest},
		{"not strings", NewServer(&fakeEmbedder{}, &fakeClassifier{}, ""), "/embeddings", `{"paragraphs":[1,2]}`, "", http.StatusBadRequest},
		{"missing field", NewServer(&fakeEmbedder{}, &fakeClassifier{}, ""), "/sentiment", `{}`, "", http.StatusBadRequest},
		{"embedding upstream", NewServer(&fakeEmbedder{err: errors.New("rate limited")}, &fakeClassifier{}, ""), "/embeddings", `{"paragraphs":["a"]}`, "", http.StatusBadGateway},
		{"classifier upstream", NewServer(&fakeEmbedder{}, &fakeClassifier{fail: "b"}, ""), "/sentiment", `{"paragraphs":["a","b"]}`, "", http.StatusBadGateway},
		{"missing key", NewServer(&fakeEmbedder{}, &fakeClassifier{}, "secret"), "/embeddings", `{"paragraphs":["a"]}`, "", http.StatusUnauthorized},
		{"wrong key", NewServer(&fakeEmbedder{}, &fakeClassifier{}, "secret"), "/embeddings", `{"paragraphs":["a"]}`, "nope", http.StatusUnauthorized},
		{"right key", NewServer(&fakeEmbedder{}, &fakeClassifier{}, "secret"), "/embeddings", `{"paragraphs":["a"]}`, "secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, tt.server.Handler(), tt.path, tt.body, tt.key)
			if w.Code != tt.wantStatus {
				t.Errorf("POST %s status = %v, want %v", tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	h := NewServer(&fakeEmbedder{}, &fakeClassifier{}, "").Handler()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/embeddings", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /embeddings status = %v, want %v", w.Code, http.StatusMethodNotAllowed)
	}
}

// The journal API client must accept what the gateway produces.
func TestServer_CompatibleWithClient(t *testing.T) {
	srv := httptest.NewServer(NewServer(&fakeEmbedder{}, &fakeClassifier{}, "k").Handler())
	defer srv.Close()

	embeddings := llm.NewEmbeddingsClient(srv.URL, "k", 2, llm.DefaultRetryPolicy())
	resp, err := embeddings.Embed(context.Background(), []string{"one", "two"}, true)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(resp.Paragraphs) != 2 {
		t.Errorf("Embed() paragraphs = %d, want 2", len(resp.Paragraphs))
	}

	emotions := llm.NewEmotionClient(srv.URL, "k", llm.DefaultRetryPolicy())
	eresp, err := emotions.Analyze(context.Background(), []string{"one"}, false)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if eresp.Paragraphs != nil {
		t.Errorf("Analyze() paragraphs = %+v, want none", eresp.Paragraphs)
	}
}
