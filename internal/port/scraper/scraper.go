// Package scraper defines the port for fetching a page and extracting its readable text.
package scraper

import "context"

// Page is the readable content extracted from one source.
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Scraper fetches a URL and extracts a best-effort text body.
// Implementations bound each call with their own timeout.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Page, error)
}
