// Package websearch wraps the Tavily search API. Any transport or parse
// failure degrades to an empty result instead of failing the caller.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sachinbkale27/agentic-rag/config"
	"github.com/sachinbkale27/agentic-rag/workflow"
)

const defaultMaxResults = 3

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Content string `json:"content"`
	} `json:"results"`
}

// Client issues one search request per call and concatenates result content
// with a single space.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *log.Logger
}

func NewClient(cfg config.SearchConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = "https://api.tavily.com/search"
	}

	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 8 * time.Second,
		},
		logger: logger,
	}
}

// Search returns "" on any failure; an empty result means no new information
// and must not be treated as fatal by the caller.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (string, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	c.logger.Printf("performing web search for: %s", query)

	body, err := json.Marshal(searchRequest{
		APIKey:     c.apiKey,
		Query:      query,
		MaxResults: maxResults,
	})
	if err != nil {
		c.logger.Printf("web search error: marshal request: %v", err)
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.logger.Printf("web search error: create request: %v", err)
		return "", nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Printf("web search error: %v", err)
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Printf("web search error: unexpected status %s", resp.Status)
		return "", nil
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.Printf("web search error: decode response: %v", err)
		return "", nil
	}

	parts := make([]string, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		parts = append(parts, result.Content)
	}

	return strings.Join(parts, " "), nil
}

var _ workflow.WebSearcher = (*Client)(nil)
