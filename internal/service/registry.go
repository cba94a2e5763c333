package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Strob0t/professor/internal/domain/research"
)

// Registry is the in-memory set of research tasks, keyed by task id.
// It is constructed once per process and shared by the API and every pipeline run.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*research.Task
	now   func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*research.Task),
		now:   time.Now,
	}
}

// Add registers a task.
func (r *Registry) Add(t *research.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID()] = t
}

// Get returns the task with the given id.
func (r *Registry) Get(id string) (*research.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	return t, ok
}

// List returns every registered task, oldest first.
func (r *Registry) List() []*research.Task {
	r.mu.RLock()
	out := make([]*research.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime().Equal(out[j].StartTime()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].StartTime().Before(out[j].StartTime())
	})
	return out
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Sweep removes every task older than retention, whatever its status,
// and returns how many were removed. A pipeline still running for a removed
// task keeps its own reference and finishes unobserved.
func (r *Registry) Sweep(now time.Time, retention time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, t := range r.tasks {
		if t.Age(now) > retention {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (r *Registry) StartSweeper(ctx context.Context, interval, retention time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(r.now(), retention); n > 0 {
					slog.Info("swept expired research tasks", "removed", n, "remaining", r.Len())
				}
			}
		}
	}()
}

// Remove deletes the task with the given id, if present.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}
