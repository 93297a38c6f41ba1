// Package pipeline provides an HTTP client for the Keepsake pipeline API,
// used by schedulers to trigger batch jobs.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// RevaluationSummary mirrors the response of POST /pipeline/valuations.
type RevaluationSummary struct {
	Evaluated int `json:"evaluated"`
	Appended  int `json:"appended"`
	Failed    int `json:"failed"`
}

// Client communicates with the pipeline API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a pipeline API client.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// RevalueAll asks the server to append a valuation to every eligible item.
func (c *Client) RevalueAll(ctx context.Context) (*RevaluationSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/pipeline/valuations", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("revaluing items: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error.Code != "" {
			return nil, fmt.Errorf("revaluing items: %s (%s)", body.Error.Message, body.Error.Code)
		}
		return nil, fmt.Errorf("revaluing items: unexpected status %d", resp.StatusCode)
	}

	var summary RevaluationSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decoding revaluation response: %w", err)
	}
	return &summary, nil
}
