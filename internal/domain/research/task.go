// Package research defines the research task record, its lifecycle rules,
// the context budgeting algorithm and the synthesis prompt.
package research

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/professor/internal/domain"
)

// Status represents the lifecycle state of a research task.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusSearching    Status = "searching"
	StatusScraping     Status = "scraping"
	StatusProcessing   Status = "processing"
	StatusGenerating   Status = "generating"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
)

// statusRank orders statuses; both terminal states share the highest rank.
var statusRank = map[Status]int{
	StatusInitializing: 0,
	StatusSearching:    1,
	StatusScraping:     2,
	StatusProcessing:   3,
	StatusGenerating:   4,
	StatusCompleted:    5,
	StatusError:        5,
}

// Rank returns the position of s in the forward-only lifecycle, or -1 if unknown.
func (s Status) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

// IsTerminal reports whether s is completed or error.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Style selects the tone of the synthesized answer.
type Style string

const (
	StyleComprehensive    Style = "Comprehensive"
	StyleConcise          Style = "Concise"
	StyleTechnical        Style = "Technical"
	StyleBeginnerFriendly Style = "Beginner-friendly"
)

// Styles lists all supported response styles.
var Styles = []Style{StyleComprehensive, StyleConcise, StyleTechnical, StyleBeginnerFriendly}

// ParseStyle resolves a caller-supplied style. Empty input yields Comprehensive;
// matching is case-insensitive.
func ParseStyle(raw string) (Style, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StyleComprehensive, nil
	}
	for _, s := range Styles {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown response_style %q", domain.ErrValidation, raw)
}

// FailureKind distinguishes expected empty outcomes from real faults.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureNoContent FailureKind = "no_content"
	FailureFault     FailureKind = "fault"
)

// NoContentMessage is recorded when the combiner had nothing to work with.
const NoContentMessage = "No information found for this topic"

var (
	// ErrTerminal is returned when mutating a task that already finished.
	ErrTerminal = errors.New("task already terminated")
	// ErrBackward is returned for a transition or progress update that moves backwards.
	ErrBackward = errors.New("task lifecycle cannot move backwards")
)

// Metadata is filled in while the task runs and finalized when it terminates.
type Metadata struct {
	SourcesCount   int     `json:"sources_count"`
	TokensUsed     int     `json:"tokens_used"`
	ProcessingTime float64 `json:"processing_time"`
}

// Request holds the caller-supplied parameters of a research task.
type Request struct {
	Topic          string `json:"topic"`
	Style          Style  `json:"response_style"`
	IncludeSources bool   `json:"include_sources"`
}

// Validate checks the request and fills defaults.
func (r *Request) Validate() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return fmt.Errorf("%w: topic is required", domain.ErrValidation)
	}
	style, err := ParseStyle(string(r.Style))
	if err != nil {
		return err
	}
	r.Style = style
	return nil
}

// Task is the mutable lifecycle record of one research request.
// Identity and request fields are immutable; everything else is guarded by mu.
type Task struct {
	id        string
	req       Request
	startTime time.Time

	mu          sync.RWMutex
	status      Status
	progress    int
	currentStep string
	result      string
	errMsg      string
	failure     FailureKind
	metadata    Metadata
}

// NewTask creates a task in the initializing state.
func NewTask(id string, req Request, startTime time.Time) *Task {
	return &Task{
		id:        id,
		req:       req,
		startTime: startTime,
		status:    StatusInitializing,
	}
}

func (t *Task) ID() string           { return t.id }
func (t *Task) Topic() string        { return t.req.Topic }
func (t *Task) Style() Style         { return t.req.Style }
func (t *Task) IncludeSources() bool { return t.req.IncludeSources }
func (t *Task) StartTime() time.Time { return t.startTime }

// Age returns how long ago the task was created.
func (t *Task) Age(now time.Time) time.Duration {
	return now.Sub(t.startTime)
}

// Status returns the current status.
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Advance moves the task to a later non-terminal stage.
func (t *Task) Advance(status Status, step string, progress int) error {
	if status.IsTerminal() || status.Rank() < 0 {
		return fmt.Errorf("advance to %q: not a pipeline stage", status)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.IsTerminal() {
		return ErrTerminal
	}
	if status.Rank() <= t.status.Rank() {
		return fmt.Errorf("%w: %s -> %s", ErrBackward, t.status, status)
	}
	if err := t.setProgressLocked(progress); err != nil {
		return err
	}
	t.status = status
	t.currentStep = step
	return nil
}

// SetProgress raises the progress percentage within the current stage.
func (t *Task) SetProgress(progress int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return ErrTerminal
	}
	return t.setProgressLocked(progress)
}

func (t *Task) setProgressLocked(progress int) error {
	if progress > 100 {
		progress = 100
	}
	if progress < t.progress {
		return fmt.Errorf("%w: progress %d -> %d", ErrBackward, t.progress, progress)
	}
	t.progress = progress
	return nil
}

// RecordSources stores the number of sources returned by the search stage.
func (t *Task) RecordSources(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.status.IsTerminal() {
		t.metadata.SourcesCount = n
	}
}

// RecordTokens stores the estimated prompt token count.
func (t *Task) RecordTokens(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.status.IsTerminal() {
		t.metadata.TokensUsed = n
	}
}

// Complete stores the synthesized answer and terminates the task successfully.
func (t *Task) Complete(result string, elapsed time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return ErrTerminal
	}
	t.result = result
	t.progress = 100
	t.status = StatusCompleted
	t.metadata.ProcessingTime = elapsed.Seconds()
	return nil
}

// Fail records an error message and terminates the task.
func (t *Task) Fail(kind FailureKind, msg string, elapsed time.Duration) error {
	if kind == FailureNone {
		kind = FailureFault
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return ErrTerminal
	}
	t.errMsg = msg
	t.failure = kind
	t.status = StatusError
	t.metadata.ProcessingTime = elapsed.Seconds()
	return nil
}

// Snapshot is a point-in-time copy of a task, safe to hand to readers.
type Snapshot struct {
	TaskID         string      `json:"task_id"`
	Topic          string      `json:"topic"`
	ResponseStyle  Style       `json:"response_style"`
	IncludeSources bool        `json:"include_sources"`
	Status         Status      `json:"status"`
	Progress       int         `json:"progress"`
	CurrentStep    string      `json:"current_step"`
	StartTime      time.Time   `json:"start_time"`
	Result         string      `json:"result,omitempty"`
	Error          string      `json:"error,omitempty"`
	ErrorKind      FailureKind `json:"error_kind,omitempty"`
	Metadata       Metadata    `json:"metadata"`
}

// Snapshot copies the current state of the task.
func (t *Task) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{
		TaskID:         t.id,
		Topic:          t.req.Topic,
		ResponseStyle:  t.req.Style,
		IncludeSources: t.req.IncludeSources,
		Status:         t.status,
		Progress:       t.progress,
		CurrentStep:    t.currentStep,
		StartTime:      t.startTime,
		Result:         t.result,
		Error:          t.errMsg,
		ErrorKind:      t.failure,
		Metadata:       t.metadata,
	}
}
