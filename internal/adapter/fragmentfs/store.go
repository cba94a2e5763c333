// Package fragmentfs implements the fragment store port on the local filesystem.
// Each task gets its own directory; each source becomes one markdown file whose
// zero-padded index prefix keeps lexicographic order equal to source order.
package fragmentfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/Strob0t/professor/internal/port/fragment"
)

const (
	maxNameRunes = 50
	fileExt      = ".md"
	stampLayout  = "20060102_150405"
)

// Store keeps fragments below a root directory.
type Store struct {
	root string
	now  func() time.Time
}

var _ fragment.Store = (*Store)(nil)

// New creates a Store rooted at dir. The directory is created on first use.
func New(dir string) *Store {
	return &Store{root: dir, now: time.Now}
}

// Create allocates <root>/<safe-topic>_<timestamp>, adding a numeric suffix
// when two tasks for the same topic start within the same second.
func (s *Store) Create(_ context.Context, topic string) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create fragment root: %w", err)
	}

	base := filepath.Join(s.root, safeName(topic, "research")+"_"+s.now().Format(stampLayout))
	dir := base
	for n := 2; ; n++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create fragment dir: %w", err)
		}
		dir = fmt.Sprintf("%s_%d", base, n)
	}
}

// Save writes f as markdown and returns the file name.
func (s *Store) Save(_ context.Context, location string, f fragment.Fragment) (string, error) {
	name := fmt.Sprintf("%03d_%s%s", f.Index, safeName(f.Title, fmt.Sprintf("Article_%d", f.Index)), fileExt)
	if err := os.WriteFile(filepath.Join(location, name), render(f), 0o644); err != nil { //nolint:gosec // fragments are not secrets
		return "", fmt.Errorf("write fragment %s: %w", name, err)
	}
	return name, nil
}

// List returns fragment file names in lexicographic order.
func (s *Store) List(_ context.Context, location string) ([]string, error) {
	entries, err := os.ReadDir(location)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list fragments: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), fileExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the content of one fragment file.
func (s *Store) Read(_ context.Context, location, name string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("read fragment: invalid name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(location, name)) //nolint:gosec // name is a bare file name
	if err != nil {
		return "", fmt.Errorf("read fragment %s: %w", name, err)
	}
	return string(data), nil
}

// Remove deletes the task directory. A missing directory is not an error.
func (s *Store) Remove(_ context.Context, location string) error {
	if err := os.RemoveAll(location); err != nil {
		return fmt.Errorf("remove fragments: %w", err)
	}
	return nil
}

func render(f fragment.Fragment) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", f.Title)
	fmt.Fprintf(&b, "**Source**: %s\n\n", f.SourceURL)
	fmt.Fprintf(&b, "**Scraped on**: %s\n\n", f.ScrapedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("---\n\n")
	b.WriteString(f.Text)
	b.WriteString("\n")
	return []byte(b.String())
}

// safeName keeps letters, digits, '-' and '_', maps whitespace to '_' and
// caps the result at maxNameRunes. Empty results fall back to fallback.
func safeName(s, fallback string) string {
	var b strings.Builder
	n := 0
	lastUnderscore := false
	for _, r := range strings.TrimSpace(s) {
		if n == maxNameRunes {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || unicode.IsSpace(r):
			if lastUnderscore {
				continue
			}
			b.WriteRune('_')
			lastUnderscore = true
		default:
			continue
		}
		n++
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return fallback
	}
	return out
}
