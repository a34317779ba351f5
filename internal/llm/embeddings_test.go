package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestNewEmbeddingsClient(t *testing.T) {
	client := NewEmbeddingsClient("http://localhost:8080/", "test-key", 768, DefaultRetryPolicy())
	if client == nil {
		t.Fatal("NewEmbeddingsClient() returned nil")
	}
	if client.http.baseURL != "http://localhost:8080" {
		t.Errorf("NewEmbeddingsClient() baseURL = %v, want trailing slash trimmed", client.http.baseURL)
	}
	if client.ExpectedSize != 768 {
		t.Errorf("NewEmbeddingsClient() ExpectedSize = %v, want 768", client.ExpectedSize)
	}
}

func vec(n int) []float32 {
	return make([]float32, n)
}

func TestEmbeddingsClient_Embed(t *testing.T) {
	tests := []struct {
		name         string
		paragraphs   []string
		analyzePgs   bool
		serverResp   func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantErr      bool
		wantBadResp  bool
		wantPgCount  int
		wantPgOrder  []string
		wantNoServer bool
	}{
		{
			name:       "full text and paragraphs",
			paragraphs: []string{"one", "two"},
			analyzePgs: true,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/embeddings" {
					t.Errorf("expected /embeddings, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("Authorization = %q", got)
				}
				var req AnalyzeRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				if !req.AnalyzePgs || len(req.Paragraphs) != 2 {
					t.Errorf("request = %+v", req)
				}
				_ = json.NewEncoder(w).Encode(EmbeddingResponse{
					FullText: EmbeddedText{Text: "one\n\ntwo", Embedding: vec(4)},
					Paragraphs: []EmbeddedParagraph{
						{Index: 0, Text: "one", Embedding: vec(4)},
						{Index: 1, Text: "two", Embedding: vec(4)},
					},
				})
			},
			wantPgCount: 2,
			wantPgOrder: []string{"one", "two"},
		},
		{
			name:       "out of order paragraphs are sorted by index",
			paragraphs: []string{"a", "b", "c"},
			analyzePgs: true,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingResponse{
					FullText: EmbeddedText{Embedding: vec(4)},
					Paragraphs: []EmbeddedParagraph{
						{Index: 2, Text: "c", Embedding: vec(4)},
						{Index: 0, Text: "a", Embedding: vec(4)},
						{Index: 1, Text: "b", Embedding: vec(4)},
					},
				})
			},
			wantPgCount: 3,
			wantPgOrder: []string{"a", "b", "c"},
		},
		{
			name:       "query embedding drops paragraphs",
			paragraphs: []string{"query"},
			analyzePgs: false,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingResponse{FullText: EmbeddedText{Text: "query", Embedding: vec(4)}})
			},
			wantPgCount: 0,
		},
		{
			name:         "empty input",
			paragraphs:   []string{},
			wantErr:      true,
			wantNoServer: true,
		},
		{
			name:         "blank paragraph",
			paragraphs:   []string{"ok", "   "},
			wantErr:      true,
			wantNoServer: true,
		},
		{
			name:       "wrong paragraph count",
			paragraphs: []string{"one", "two"},
			analyzePgs: true,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingResponse{
					FullText:   EmbeddedText{Embedding: vec(4)},
					Paragraphs: []EmbeddedParagraph{{Index: 0, Embedding: vec(4)}},
				})
			},
			wantErr:     true,
			wantBadResp: true,
		},
		{
			name:       "wrong vector size",
			paragraphs: []string{"one"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingResponse{FullText: EmbeddedText{Embedding: vec(3)}})
			},
			wantErr:     true,
			wantBadResp: true,
		},
		{
			name:       "invalid JSON",
			paragraphs: []string{"one"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			wantErr:     true,
			wantBadResp: true,
		},
		{
			name:       "client error",
			paragraphs: []string{"one"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"Paragraphs must be a non-empty array of strings"}`))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				if tt.serverResp != nil {
					tt.serverResp(t, w, r)
				}
			}))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "test-key", 4, fastPolicy(3))
			got, err := client.Embed(context.Background(), tt.paragraphs, tt.analyzePgs)

			if tt.wantNoServer && hits.Load() != 0 {
				t.Errorf("server called %d times, want 0", hits.Load())
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Embed() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantBadResp && !errors.Is(err, ErrBadResponse) {
				t.Errorf("Embed() error = %v, want ErrBadResponse", err)
			}
			if tt.wantErr {
				return
			}
			if len(got.Paragraphs) != tt.wantPgCount {
				t.Errorf("Embed() paragraphs = %d, want %d", len(got.Paragraphs), tt.wantPgCount)
			}
			for i, want := range tt.wantPgOrder {
				if got.Paragraphs[i].Text != want || got.Paragraphs[i].Index != i {
					t.Errorf("Embed() paragraphs[%d] = %+v, want text %q", i, got.Paragraphs[i], want)
				}
			}
		})
	}
}

func TestEmbeddingsClient_Embed_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(EmbeddingResponse{FullText: EmbeddedText{Embedding: vec(2)}})
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "", 2, fastPolicy(3))
	if _, err := client.Embed(context.Background(), []string{"x"}, false); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("server hits = %d, want 3", hits.Load())
	}
}

func TestEmbeddingsClient_Embed_ClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "", 2, fastPolicy(5))
	_, err := client.Embed(context.Background(), []string{"x"}, false)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Embed() error = %v, want StatusError 422", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
}
