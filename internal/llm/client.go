package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of a failed response is kept in a StatusError.
const maxErrorBody = 4 << 10

// jsonClient posts JSON to one inference service with a retry policy.
type jsonClient struct {
	baseURL string
	apiKey  string
	retry   RetryPolicy
	client  *http.Client
}

func newJSONClient(baseURL, apiKey string, retry RetryPolicy) jsonClient {
	return jsonClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		retry:   retry,
		client:  http.DefaultClient,
	}
}

// post sends payload to path and decodes the 2xx body into out.
// Each retry re-sends the full request.
func (c jsonClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + path
	return c.retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		if c.apiKey != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send request: %w", err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", ErrBadResponse, err)
		}
		return nil
	})
}

// validateParagraphs enforces the request contract shared by both services.
func validateParagraphs(paragraphs []string) error {
	if len(paragraphs) == 0 {
		return fmt.Errorf("empty input array")
	}
	for i, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("paragraph %d is empty", i)
		}
	}
	return nil
}
