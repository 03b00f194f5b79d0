// Package websearch retrieves web snippets for a question. It talks to
// the Tavily search API when a key is configured and falls back to
// scraping DuckDuckGo's HTML results otherwise. Every failure is
// translated into ErrUnavailable so the pipeline can degrade to
// document-only answers instead of failing the question.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/askdoc/askdoc/internal/models"
)

// ErrUnavailable marks any web search failure: service errors,
// timeouts, or missing configuration. Recoverable at the pipeline
// level.
var ErrUnavailable = errors.New("web search unavailable")

const tavilyEndpoint = "https://api.tavily.com/search"

type SearchConfig struct {
	APIKey          string // Tavily API key; empty selects the HTML fallback
	Endpoint        string // Tavily endpoint override, used in tests
	DisableFallback bool   // fail on a missing key instead of scraping
	MaxResults      int
	RateLimit       float64 // requests per second
	Timeout         time.Duration
}

// Client queries an external search service. Implements
// types.WebSearcher.
type Client struct {
	config   SearchConfig
	client   *http.Client
	limiter  *rate.Limiter
	fallback *duckduckgo
}

func NewWithConfig(config SearchConfig) *Client {
	if config.Endpoint == "" {
		config.Endpoint = tavilyEndpoint
	}
	if config.MaxResults == 0 {
		config.MaxResults = 3
	}
	if config.RateLimit == 0 {
		config.RateLimit = 1
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	httpClient := &http.Client{Timeout: config.Timeout}

	c := &Client{
		config:  config,
		client:  httpClient,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
	if config.APIKey == "" && !config.DisableFallback {
		c.fallback = &duckduckgo{client: httpClient}
	}
	return c
}

// Search returns up to n snippets for the query, tagged as web results
// with their source URLs passed through for citation.
func (c *Client) Search(ctx context.Context, query string, n int) ([]models.SearchResult, error) {
	if n < 1 {
		n = c.config.MaxResults
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if c.fallback != nil {
		return c.fallback.search(ctx, query, n)
	}
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}
	return c.searchTavily(ctx, query, n)
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func (c *Client) searchTavily(ctx context.Context, query string, n int) ([]models.SearchResult, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:     c.config.APIKey,
		Query:      query,
		MaxResults: n,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search service returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}

	results := make([]models.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if len(results) >= n {
			break
		}
		results = append(results, models.SearchResult{
			Text:   r.Content,
			Source: models.SourceWeb,
			Score:  r.Score,
			URL:    r.URL,
		})
	}
	return results, nil
}
