// Package scraper implements the scraper port: it fetches a page over HTTP and
// extracts the readable text of its main content region.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/html"

	"github.com/Strob0t/professor/internal/port/cache"
	"github.com/Strob0t/professor/internal/port/scraper"
)

const (
	maxBodyBytes = 5 << 20
	userAgent    = "Mozilla/5.0 (compatible; professor-research/1.0)"
)

// ErrNoText is returned when a page yields no readable text.
var ErrNoText = errors.New("no readable text")

// Scraper fetches and extracts pages, optionally through a cache.
type Scraper struct {
	httpClient *http.Client
	timeout    time.Duration
	cache      cache.Cache
	cacheTTL   time.Duration
}

var _ scraper.Scraper = (*Scraper)(nil)

// New creates a Scraper that bounds every fetch by timeout.
func New(timeout time.Duration) *Scraper {
	return &Scraper{
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// SetCache enables caching of extracted pages for ttl.
func (s *Scraper) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

func cacheKey(url string) string { return "page:" + url }

// Scrape fetches url and extracts its title and text.
func (s *Scraper) Scrape(ctx context.Context, url string) (*scraper.Page, error) {
	if page, ok := s.cached(ctx, url); ok {
		return page, nil
	}

	page, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(page); err == nil {
			if err := s.cache.Set(ctx, cacheKey(url), data, s.cacheTTL); err != nil {
				slog.DebugContext(ctx, "page cache set failed", "url", url, "error", err)
			}
		}
	}
	return page, nil
}

func (s *Scraper) cached(ctx context.Context, url string) (*scraper.Page, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, found, err := s.cache.Get(ctx, cacheKey(url))
	if err != nil || !found {
		return nil, false
	}
	var page scraper.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false
	}
	return &page, true
}

func (s *Scraper) fetch(ctx context.Context, url string) (*scraper.Page, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	title, body := extract(doc)
	if body == "" {
		return nil, fmt.Errorf("extract %s: %w", url, ErrNoText)
	}
	return &scraper.Page{URL: url, Title: title, Text: body}, nil
}
