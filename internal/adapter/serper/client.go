// Package serper implements the search port against the Serper Google Search API.
package serper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Strob0t/professor/internal/port/search"
	"github.com/Strob0t/professor/internal/resilience"
)

// ErrMissingAPIKey is returned when no Serper API key is configured.
var ErrMissingAPIKey = errors.New("serper: api key is not configured")

type organicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

// Client queries the Serper search endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	maxResults int
	httpClient *http.Client
	breaker    *resilience.Breaker
}

var _ search.Provider = (*Client)(nil)

// NewClient creates a Serper client. maxResults <= 0 keeps every organic result.
func NewClient(endpoint, apiKey string, maxResults int) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Search returns the organic result links for query, in rank order.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	data, err := c.doRequest(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("serper search: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal serper response: %w", err)
	}

	links := make([]string, 0, len(resp.Organic))
	for _, r := range resp.Organic {
		if r.Link == "" {
			continue
		}
		links = append(links, r.Link)
		if c.maxResults > 0 && len(links) == c.maxResults {
			break
		}
	}
	return links, nil
}

func (c *Client) doRequest(ctx context.Context, query string) ([]byte, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	var result []byte
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		// The key travels in a header so transport errors, which quote the
		// URL, never carry it into task errors.
		req.Header.Set("X-API-KEY", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("serper API error %d: %s", resp.StatusCode, truncate(string(data), 512))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
