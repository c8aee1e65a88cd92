package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mikeboe/research-orchestrator/pkg/research"
)

const serperEndpoint = "https://google.serper.dev/search"

// mockResultCount is how many placeholder records are synthesized when the
// search API is unreachable or unconfigured.
const mockResultCount = 3

// SerperClient searches the web via the Serper API
// (google.serper.dev/search). When no API key is configured, the request
// fails, or no organic results come back, it degrades to deterministic
// mock records instead of returning an error.
type SerperClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewSerperClient(apiKey string, logger *slog.Logger) *SerperClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &SerperClient{
		apiKey:     apiKey,
		baseURL:    serperEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Search implements research.SearchProvider. The error return is always
// nil: every failure path falls back to mock records.
func (c *SerperClient) Search(ctx context.Context, query string, maxResults int) ([]research.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	if c.apiKey == "" {
		c.logger.Info("websearch: SERPER_API_KEY not set, returning mock results", "query", query)
		return mockResults(query, min(maxResults, mockResultCount)), nil
	}

	results, err := c.search(ctx, query, maxResults)
	if err != nil {
		// Details stay out of the log line: the request URL and headers
		// carry the API key.
		c.logger.Info("websearch: Serper API call failed, using mock results", "query", query)
		return mockResults(query, min(maxResults, mockResultCount)), nil
	}
	if len(results) == 0 {
		c.logger.Info("websearch: no organic results from Serper, using mock results", "query", query)
		return mockResults(query, min(maxResults, mockResultCount)), nil
	}
	return results, nil
}

func (c *SerperClient) search(ctx context.Context, query string, maxResults int) ([]research.SearchResult, error) {
	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned non-200 status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var payload struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
			Source  string `json:"source"`
		} `json:"organic"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var results []research.SearchResult
	for _, item := range payload.Organic {
		if len(results) >= maxResults {
			break
		}
		title := item.Title
		if title == "" {
			title = item.Snippet
		}
		if title == "" {
			title = query
		}
		source := item.Source
		if source == "" {
			source = "serper"
		}
		content := item.Snippet
		if content == "" {
			content = item.Title
		}
		results = append(results, research.SearchResult{
			Title:   title,
			Source:  source,
			Content: content,
			URL:     item.Link,
		})
	}
	return results, nil
}

func mockResults(query string, k int) []research.SearchResult {
	results := make([]research.SearchResult, 0, k)
	for i := 1; i <= k; i++ {
		results = append(results, research.SearchResult{
			Title:   fmt.Sprintf("Mock result %d for: %s", i, query),
			Source:  "mock",
			Content: fmt.Sprintf("This is mocked web content snippet %d for query: %s.", i, query),
			URL:     fmt.Sprintf("https://example.com/mock/%d?q=%s", i, query),
		})
	}
	return results
}
