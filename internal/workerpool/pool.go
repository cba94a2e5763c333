// Package workerpool runs background jobs with bounded concurrency.
package workerpool

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Go after Shutdown has been called.
var ErrClosed = errors.New("worker pool is shut down")

// Pool limits concurrently running jobs using a weighted semaphore.
// Jobs submitted while every slot is busy wait for a free slot in their own goroutine.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New creates a Pool that runs at most limit jobs at once.
func New(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Go schedules fn and returns immediately. A panic in fn is logged and
// does not take down the process.
func (p *Pool) Go(fn func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		// Background: queued jobs are still drained during Shutdown.
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				slog.Error("worker pool job panicked", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
	return nil
}

// Run acquires a slot, runs fn, and releases the slot.
// Returns ctx.Err() if the context is cancelled while waiting for a slot.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}

// Shutdown stops accepting jobs and waits for queued and running jobs,
// or until ctx is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
