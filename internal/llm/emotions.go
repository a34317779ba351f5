package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_emotion_analyzer.go -package=mocks journal-ai/internal/llm EmotionAnalyzer

import (
	"context"
	"fmt"
	"sort"
)

// EmotionAnalyzer classifies paragraphs into emotion label scores.
type EmotionAnalyzer interface {
	// Analyze returns the full-text classification and, when analyzePgs is
	// true, one classification per paragraph sorted by index.
	Analyze(ctx context.Context, paragraphs []string, analyzePgs bool) (*EmotionResponse, error)
}

// EmotionClient is a client for the emotion inference service.
type EmotionClient struct {
	http jsonClient
}

// NewEmotionClient creates a new emotion client.
func NewEmotionClient(baseURL, apiKey string, retry RetryPolicy) *EmotionClient {
	return &EmotionClient{http: newJSONClient(baseURL, apiKey, retry)}
}

// Analyze calls POST /sentiment. Labels are passed through untouched;
// reduction to the known labels happens in emotion.FromScores.
func (c *EmotionClient) Analyze(ctx context.Context, paragraphs []string, analyzePgs bool) (*EmotionResponse, error) {
	if err := validateParagraphs(paragraphs); err != nil {
		return nil, err
	}

	var resp EmotionResponse
	if err := c.http.post(ctx, "/sentiment", AnalyzeRequest{Paragraphs: paragraphs, AnalyzePgs: analyzePgs}, &resp); err != nil {
		return nil, fmt.Errorf("emotion service: %w", err)
	}

	if !analyzePgs {
		resp.Paragraphs = nil
		return &resp, nil
	}

	sort.SliceStable(resp.Paragraphs, func(i, j int) bool {
		return resp.Paragraphs[i].Index < resp.Paragraphs[j].Index
	})
	if len(resp.Paragraphs) != len(paragraphs) {
		return nil, fmt.Errorf("emotion service: %w: expected %d paragraph results, got %d", ErrBadResponse, len(paragraphs), len(resp.Paragraphs))
	}
	for i, p := range resp.Paragraphs {
		if p.Index != i {
			return nil, fmt.Errorf("emotion service: %w: paragraph indexes are not 0..%d", ErrBadResponse, len(paragraphs)-1)
		}
	}
	return &resp, nil
}
