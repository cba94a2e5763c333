// Package search defines the port for web search lookups.
package search

import "context"

// Provider resolves a topic to an ordered list of candidate source URLs.
type Provider interface {
	Search(ctx context.Context, query string) ([]string, error)
}
