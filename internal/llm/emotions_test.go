package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"journal-ai/internal/emotion"
)

func TestEmotionClient_Analyze(t *testing.T) {
	tests := []struct {
		name       string
		paragraphs []string
		analyzePgs bool
		resp       EmotionResponse
		wantErr    bool
		wantPgs    int
	}{
		{
			name:       "entry and paragraphs",
			paragraphs: []string{"I won", "then lost"},
			analyzePgs: true,
			resp: EmotionResponse{
				FullText: EmotionText{Text: "I won then lost", Emotion: []emotion.Score{{Label: "joy", Score: 0.6}, {Label: "sadness", Score: 0.4}}},
				Paragraphs: []EmotionParagraph{
					{Index: 1, Text: "then lost", Emotion: []emotion.Score{{Label: "sadness", Score: 0.9}}},
					{Index: 0, Text: "I won", Emotion: []emotion.Score{{Label: "joy", Score: 0.95}}},
				},
			},
			wantPgs: 2,
		},
		{
			name:       "full text only",
			paragraphs: []string{"calm"},
			resp:       EmotionResponse{FullText: EmotionText{Emotion: []emotion.Score{{Label: "neutral", Score: 1}}}},
		},
		{
			name:       "missing paragraph results",
			paragraphs: []string{"a", "b"},
			analyzePgs: true,
			resp:       EmotionResponse{FullText: EmotionText{}},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/sentiment" {
					t.Errorf("expected /sentiment, got %s", r.URL.Path)
				}
				_ = json.NewEncoder(w).Encode(tt.resp)
			}))
			defer server.Close()

			client := NewEmotionClient(server.URL, "k", fastPolicy(1))
			got, err := client.Analyze(context.Background(), tt.paragraphs, tt.analyzePgs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Analyze() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrBadResponse) {
					t.Errorf("Analyze() error = %v, want ErrBadResponse", err)
				}
				return
			}
			if len(got.Paragraphs) != tt.wantPgs {
				t.Fatalf("Analyze() paragraphs = %d, want %d", len(got.Paragraphs), tt.wantPgs)
			}
			for i, p := range got.Paragraphs {
				if p.Index != i || p.Text != tt.paragraphs[i] {
					t.Errorf("Analyze() paragraphs[%d] = %+v", i, p)
				}
			}
		})
	}
}

func TestEmotionClient_Analyze_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"upstream failed"}`, http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewEmotionClient(server.URL, "", fastPolicy(2))
	_, err := client.Analyze(context.Background(), []string{"x"}, true)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("Analyze() error = %v, want StatusError 502", err)
	}
}
