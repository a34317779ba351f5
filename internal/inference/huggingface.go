package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"journal-ai/internal/emotion"
	"journal-ai/internal/llm"
)

// EmotionClassifier scores one text against the emotion labels.
type EmotionClassifier interface {
	Classify(ctx context.Context, text string) ([]emotion.Score, error)
}

// HFClassifier calls a text-classification model on the Hugging Face
// inference router.
type HFClassifier struct {
	endpoint string
	token    string
	retry    llm.RetryPolicy
	client   *http.Client
}

// NewHFClassifier creates a classifier for model under baseURL.
func NewHFClassifier(baseURL, token, model string, retry llm.RetryPolicy) *HFClassifier {
	return &HFClassifier{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/" + model,
		token:    token,
		retry:    retry,
		client:   &http.Client{},
	}
}

type hfRequest struct {
	Inputs  string    `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Classify implements EmotionClassifier.
func (c *HFClassifier) Classify(ctx context.Context, text string) ([]emotion.Score, error) {
	body, err := json.Marshal(hfRequest{Inputs: text, Options: hfOptions{WaitForModel: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var scores []emotion.Score
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to call classifier: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read classifier response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &llm.StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
		}

		scores, err = decodeScores(raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// decodeScores accepts both [[{label,score}...]] and [{label,score}...].
func decodeScores(raw []byte) ([]emotion.Score, error) {
	var nested [][]emotion.Score
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("%w: empty classifier output", llm.ErrBadResponse)
		}
		return nested[0], nil
	}

	var flat []emotion.Score
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrBadResponse, err)
	}
	return flat, nil
}
