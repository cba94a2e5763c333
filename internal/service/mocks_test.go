package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/Strob0t/professor/internal/port/broadcast"
	"github.com/Strob0t/professor/internal/port/fragment"
	"github.com/Strob0t/professor/internal/port/llm"
	"github.com/Strob0t/professor/internal/port/scraper"
)

// mockSearch returns fixed URLs or an error.
type mockSearch struct {
	urls []string
	err  error
}

func (m *mockSearch) Search(_ context.Context, _ string) ([]string, error) {
	return m.urls, m.err
}

// mockScraper returns canned pages keyed by URL; unknown URLs fail.
type mockScraper struct {
	pages map[string]*scraper.Page
	block chan struct{} // when set, Scrape waits on it first
	panic bool
}

func (m *mockScraper) Scrape(_ context.Context, url string) (*scraper.Page, error) {
	if m.block != nil {
		<-m.block
	}
	if m.panic {
		panic("scraper exploded")
	}
	p, ok := m.pages[url]
	if !ok {
		return nil, fmt.Errorf("fetch %s: connection refused", url)
	}
	return p, nil
}

// mockCompleter records the prompt and returns a canned answer.
type mockCompleter struct {
	mu     sync.Mutex
	answer string
	err    error
	prompt string
	calls  int
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (*llm.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompt = prompt
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Completion{Text: m.answer, Model: "test-model"}, nil
}

func (m *mockCompleter) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompt
}

// memFragments is an in-memory fragment.Store.
type memFragments struct {
	mu        sync.Mutex
	locations map[string]map[string]string
	readErr   map[string]bool // fragment names that fail to read
	createErr error
	removed   []string
	reads     int
}

func newMemFragments() *memFragments {
	return &memFragments{locations: make(map[string]map[string]string), readErr: make(map[string]bool)}
}

func (m *memFragments) Create(_ context.Context, topic string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	loc := fmt.Sprintf("%s_%d", topic, len(m.locations)+1)
	m.locations[loc] = make(map[string]string)
	return loc, nil
}

func (m *memFragments) Save(_ context.Context, location string, f fragment.Fragment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	files, ok := m.locations[location]
	if !ok {
		return "", os.ErrNotExist
	}
	name := fmt.Sprintf("%03d_%s.md", f.Index, f.Title)
	files[name] = f.Text
	return name, nil
}

func (m *memFragments) List(_ context.Context, location string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	files := m.locations[location]
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memFragments) Read(_ context.Context, location, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.readErr[name] {
		return "", errors.New("permission denied")
	}
	text, ok := m.locations[location][name]
	if !ok {
		return "", os.ErrNotExist
	}
	return text, nil
}

func (m *memFragments) Remove(_ context.Context, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, location)
	m.removed = append(m.removed, location)
	return nil
}

// put stores a fragment directly, bypassing Save.
func (m *memFragments) put(location, name, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locations[location] == nil {
		m.locations[location] = make(map[string]string)
	}
	m.locations[location][name] = text
}

// recordingHub captures every status event in order.
type recordingHub struct {
	mu     sync.Mutex
	events []broadcast.TaskStatusEvent
}

func (h *recordingHub) BroadcastEvent(_ context.Context, eventType string, payload any) {
	if eventType != broadcast.EventTaskStatus {
		return
	}
	ev, ok := payload.(broadcast.TaskStatusEvent)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *recordingHub) snapshot() []broadcast.TaskStatusEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]broadcast.TaskStatusEvent(nil), h.events...)
}

// syncScheduler runs jobs inline.
type syncScheduler struct{ err error }

func (s syncScheduler) Go(fn func()) error {
	if s.err != nil {
		return s.err
	}
	fn()
	return nil
}
