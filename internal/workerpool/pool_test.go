package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolLimitsConcurrency(t *testing.T) {
	const limit = 3
	const jobs = 10
	pool := New(limit)

	var running atomic.Int32
	var maxSeen atomic.Int32

	for range jobs {
		err := pool.Go(func() {
			cur := running.Add(1)
			for {
				old := maxSeen.Load()
				if cur <= old || maxSeen.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := pool.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if m := maxSeen.Load(); m > limit {
		t.Errorf("max concurrent = %d, want <= %d", m, limit)
	}
}

func TestPoolGoReturnsImmediately(t *testing.T) {
	pool := New(1)
	release := make(chan struct{})

	start := time.Now()
	for range 3 {
		if err := pool.Go(func() { <-release }); err != nil {
			t.Fatal(err)
		}
	}
	if time.Since(start) > time.Second {
		t.Fatal("Go blocked on a busy pool")
	}
	close(release)
	if err := pool.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	pool := New(2)
	var ran atomic.Bool

	_ = pool.Go(func() { panic("boom") })
	_ = pool.Go(func() { ran.Store(true) })

	if err := pool.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !ran.Load() {
		t.Fatal("job after a panicking job did not run")
	}
}

func TestPoolRejectsAfterShutdown(t *testing.T) {
	pool := New(1)
	if err := pool.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := pool.Go(func() {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestPoolShutdownHonorsDeadline(t *testing.T) {
	pool := New(1)
	release := make(chan struct{})
	defer close(release)
	_ = pool.Go(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPoolRunContextCancellation(t *testing.T) {
	pool := New(1)
	occupied := make(chan struct{})
	release := make(chan struct{})
	_ = pool.Go(func() {
		close(occupied)
		<-release
	})
	<-occupied

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pool.Run(ctx, func() error {
		t.Error("fn should not have been called")
		return nil
	})
	if err == nil {
		t.Error("expected error from cancelled context")
	}
	close(release)
}

func TestPoolClampMinLimit(t *testing.T) {
	pool := New(0)
	if err := pool.Run(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("unexpected error with limit=0: %v", err)
	}
}
