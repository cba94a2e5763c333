// Package resilience guards calls to the research collaborators (search, LLM).
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while a breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker counts consecutive failures of one collaborator. After maxFailures
// it opens and fails fast for timeout, then lets a single probe through
// (half-open). Calls are never retried.
type Breaker struct {
	name        string
	mu          sync.Mutex
	state       state
	failures    int
	maxFailures int
	timeout     time.Duration
	openedAt    time.Time
	now         func() time.Time
}

// NewBreaker creates a breaker for the named collaborator. maxFailures below 1 is treated as 1.
func NewBreaker(name string, maxFailures int, timeout time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Execute runs fn unless the circuit is open. A rejected call returns an
// error wrapping ErrCircuitOpen that names the collaborator.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allowRequest() {
		return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) allowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if b.now().Sub(b.openedAt) < b.timeout {
			return false
		}
		b.transition(stateHalfOpen)
		return true
	default:
		return true
	}
}

// State reports "closed", "open" or "half_open". An open breaker whose
// timeout has elapsed still reports open until the next call probes it.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}

// Name returns the collaborator the breaker guards.
func (b *Breaker) Name() string { return b.name }

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure() {
	b.failures++
	if b.state == stateHalfOpen || b.failures >= b.maxFailures {
		b.openedAt = b.now()
		b.transition(stateOpen)
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess() {
	b.failures = 0
	b.transition(stateClosed)
}

// transition must be called with b.mu held.
func (b *Breaker) transition(to state) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	if to == stateOpen {
		slog.Warn("circuit opened", "breaker", b.name, "from", from.String(), "failures", b.failures, "retry_after", b.timeout)
		return
	}
	slog.Info("circuit state changed", "breaker", b.name, "from", from.String(), "to", to.String())
}
