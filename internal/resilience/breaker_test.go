package resilience

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var errUpstream = errors.New("search endpoint unavailable")

func fail() error { return errUpstream }
func ok() error { return nil }

// clockBreaker returns a breaker driven by a manual clock.
func clockBreaker(maxFailures int) (*Breaker, *time.Time) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewBreaker("search", maxFailures, time.Second)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreakerSequences(t *testing.T) {
	tests := []struct {
		name       string
		max        int
		calls      []func() error
		wantState  string
		wantReject bool // next call is rejected
	}{
		{"success keeps closed", 3, []func() error{ok, ok}, "closed", false},
		{"below threshold stays closed", 3, []func() error{fail, fail}, "closed", false},
		{"threshold opens", 3, []func() error{fail, fail, fail}, "open", true},
		{"success resets count", 3, []func() error{fail, fail, ok, fail, fail}, "closed", false},
		{"zero threshold treated as one", 0, []func() error{fail}, "open", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := clockBreaker(tt.max)
			for _, c := range tt.calls {
				_ = b.Execute(c)
			}
			if got := b.State(); got != tt.wantState {
				t.Fatalf("state = %s, want %s", got, tt.wantState)
			}
			called := false
			err := b.Execute(func() error { called = true; return nil })
			if tt.wantReject {
				if !errors.Is(err, ErrCircuitOpen) || called {
					t.Fatalf("expected rejection, got err=%v called=%v", err, called)
				}
				return
			}
			if err != nil || !called {
				t.Fatalf("expected call through, got err=%v called=%v", err, called)
			}
		})
	}
}

func TestRejectionNamesCollaborator(t *testing.T) {
	b, _ := clockBreaker(1)
	_ = b.Execute(fail)
	err := b.Execute(ok)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "search: ") {
		t.Fatalf("error %q does not name the breaker", err)
	}
	if b.Name() != "search" {
		t.Fatalf("name = %q", b.Name())
	}
}

func TestExecutePassesThroughCallError(t *testing.T) {
	b, _ := clockBreaker(5)
	if err := b.Execute(fail); !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestHalfOpenProbe(t *testing.T) {
	t.Run("success closes", func(t *testing.T) {
		b, now := clockBreaker(2)
		_ = b.Execute(fail)
		_ = b.Execute(fail)
		if err := b.Execute(ok); !errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("expected open before timeout, got %v", err)
		}

		*now = now.Add(2 * time.Second)
		if got := b.State(); got != "open" {
			t.Fatalf("state before probe = %s, want open", got)
		}
		if err := b.Execute(ok); err != nil {
			t.Fatalf("probe rejected: %v", err)
		}
		if got := b.State(); got != "closed" {
			t.Fatalf("state after probe = %s, want closed", got)
		}
	})

	t.Run("failure reopens", func(t *testing.T) {
		b, now := clockBreaker(2)
		_ = b.Execute(fail)
		_ = b.Execute(fail)

		*now = now.Add(2 * time.Second)
		_ = b.Execute(fail)

		if got := b.State(); got != "open" {
			t.Fatalf("state = %s, want open", got)
		}
		if err := b.Execute(ok); !errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("expected rejection after failed probe, got %v", err)
		}
	})
}
