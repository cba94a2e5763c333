// Package fragment defines the port for per-task fragment storage.
package fragment

import (
	"context"
	"time"
)

// Fragment is the extracted content of one source, persisted before combination.
type Fragment struct {
	Index     int // 1-based position in source order
	Title     string
	SourceURL string
	Text      string
	ScrapedAt time.Time
}

// Store persists fragments under a per-task location.
type Store interface {
	// Create allocates a fresh location for a task researching topic.
	Create(ctx context.Context, topic string) (string, error)

	// Save writes one fragment and returns its name within the location.
	Save(ctx context.Context, location string, f Fragment) (string, error)

	// List returns fragment names sorted lexicographically. A missing location
	// yields an empty list, not an error.
	List(ctx context.Context, location string) ([]string, error)

	// Read returns the stored content of one fragment.
	Read(ctx context.Context, location, name string) (string, error)

	// Remove deletes the location and everything in it.
	Remove(ctx context.Context, location string) error
}
