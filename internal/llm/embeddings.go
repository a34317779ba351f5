package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks journal-ai/internal/llm Embedder

import (
	"context"
	"fmt"
	"sort"
)

// Embedder produces embeddings for a list of paragraphs.
type Embedder interface {
	// Embed returns the full-text embedding and, when analyzePgs is true,
	// one embedding per paragraph sorted by index.
	Embed(ctx context.Context, paragraphs []string, analyzePgs bool) (*EmbeddingResponse, error)
}

// EmbeddingsClient is a client for the embedding inference service.
type EmbeddingsClient struct {
	ExpectedSize int // Expected vector size for validation; 0 disables the check
	http         jsonClient
}

// NewEmbeddingsClient creates a new embeddings client.
// expectedSize is the expected vector size (from EMBEDDING_VECTOR_SIZE config).
// Every embedding returned by Embed is validated against this size.
func NewEmbeddingsClient(baseURL, apiKey string, expectedSize int, retry RetryPolicy) *EmbeddingsClient {
	return &EmbeddingsClient{
		ExpectedSize: expectedSize,
		http:         newJSONClient(baseURL, apiKey, retry),
	}
}

// Embed calls POST /embeddings. Any non-2xx response or a response that
// breaks the contract is an error; no partial result is returned.
func (c *EmbeddingsClient) Embed(ctx context.Context, paragraphs []string, analyzePgs bool) (*EmbeddingResponse, error) {
	if err := validateParagraphs(paragraphs); err != nil {
		return nil, err
	}

	var resp EmbeddingResponse
	if err := c.http.post(ctx, "/embeddings", AnalyzeRequest{Paragraphs: paragraphs, AnalyzePgs: analyzePgs}, &resp); err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}

	if err := c.validate(&resp, len(paragraphs), analyzePgs); err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	return &resp, nil
}

func (c *EmbeddingsClient) validate(resp *EmbeddingResponse, n int, analyzePgs bool) error {
	if err := c.checkSize("full text", resp.FullText.Embedding); err != nil {
		return err
	}
	if !analyzePgs {
		resp.Paragraphs = nil
		return nil
	}

	sort.SliceStable(resp.Paragraphs, func(i, j int) bool {
		return resp.Paragraphs[i].Index < resp.Paragraphs[j].Index
	})
	if len(resp.Paragraphs) != n {
		return fmt.Errorf("%w: expected %d paragraph embeddings, got %d", ErrBadResponse, n, len(resp.Paragraphs))
	}
	for i, p := range resp.Paragraphs {
		if p.Index != i {
			return fmt.Errorf("%w: paragraph indexes are not 0..%d", ErrBadResponse, n-1)
		}
		if err := c.checkSize(fmt.Sprintf("paragraph %d", i), p.Embedding); err != nil {
			return err
		}
	}
	return nil
}

func (c *EmbeddingsClient) checkSize(what string, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: %s embedding is empty", ErrBadResponse, what)
	}
	if c.ExpectedSize > 0 && len(vec) != c.ExpectedSize {
		return fmt.Errorf("%w: %s embedding has size %d, expected %d", ErrBadResponse, what, len(vec), c.ExpectedSize)
	}
	return nil
}
