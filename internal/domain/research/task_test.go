package research

import (
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/professor/internal/domain"
)

func newTestTask() *Task {
	return NewTask("t1", Request{Topic: "Quantum Computing", Style: StyleConcise, IncludeSources: true}, time.Now())
}

func TestNewTaskDefaults(t *testing.T) {
	task := newTestTask()
	snap := task.Snapshot()

	if snap.Status != StatusInitializing {
		t.Fatalf("expected initializing, got %s", snap.Status)
	}
	if snap.Progress != 0 {
		t.Fatalf("expected progress 0, got %d", snap.Progress)
	}
	if snap.Result != "" || snap.Error != "" {
		t.Fatalf("expected empty result and error, got %q / %q", snap.Result, snap.Error)
	}
	if snap.ResponseStyle != StyleConcise || !snap.IncludeSources {
		t.Fatalf("unexpected request fields: %+v", snap)
	}
}

func TestAdvanceForwardOnly(t *testing.T) {
	task := newTestTask()

	if err := task.Advance(StatusSearching, "Searching web sources", 10); err != nil {
		t.Fatalf("advance searching: %v", err)
	}
	if err := task.Advance(StatusScraping, "Scraping content", 25); err != nil {
		t.Fatalf("advance scraping: %v", err)
	}

	err := task.Advance(StatusSearching, "again", 30)
	if !errors.Is(err, ErrBackward) {
		t.Fatalf("expected ErrBackward, got %v", err)
	}

	err = task.Advance(StatusScraping, "re-entry", 30)
	if !errors.Is(err, ErrBackward) {
		t.Fatalf("expected ErrBackward on re-entry, got %v", err)
	}
	if got := task.Status(); got != StatusScraping {
		t.Fatalf("status changed after rejected transition: %s", got)
	}
}

func TestAdvanceRejectsTerminalStatus(t *testing.T) {
	task := newTestTask()
	if err := task.Advance(StatusCompleted, "done", 100); err == nil {
		t.Fatal("expected error advancing directly to a terminal status")
	}
	if err := task.Advance(Status("bogus"), "x", 1); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestProgressMonotonic(t *testing.T) {
	task := newTestTask()
	if err := task.SetProgress(40); err != nil {
		t.Fatal(err)
	}
	if err := task.SetProgress(20); !errors.Is(err, ErrBackward) {
		t.Fatalf("expected ErrBackward, got %v", err)
	}
	if err := task.SetProgress(250); err != nil {
		t.Fatal(err)
	}
	if got := task.Snapshot().Progress; got != 100 {
		t.Fatalf("expected progress clamped to 100, got %d", got)
	}
}

func TestCompleteSetsResultOnly(t *testing.T) {
	task := newTestTask()
	task.RecordSources(3)
	if err := task.Complete("answer", 2*time.Second); err != nil {
		t.Fatal(err)
	}
	snap := task.Snapshot()
	if snap.Status != StatusCompleted || snap.Result != "answer" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Error != "" || snap.ErrorKind != FailureNone {
		t.Fatalf("error must be empty on completion, got %q/%q", snap.Error, snap.ErrorKind)
	}
	if snap.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", snap.Progress)
	}
	if snap.Metadata.ProcessingTime != 2 {
		t.Fatalf("expected processing time 2s, got %v", snap.Metadata.ProcessingTime)
	}
	if snap.Metadata.SourcesCount != 3 {
		t.Fatalf("expected 3 sources, got %d", snap.Metadata.SourcesCount)
	}
}

func TestExactlyOneTerminalState(t *testing.T) {
	task := newTestTask()
	if err := task.Fail(FailureNoContent, NoContentMessage, time.Second); err != nil {
		t.Fatal(err)
	}
	if err := task.Complete("late answer", time.Second); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}
	if err := task.Fail(FailureFault, "boom", time.Second); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}
	if err := task.Advance(StatusGenerating, "x", 90); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}

	task.RecordTokens(999)
	snap := task.Snapshot()
	if snap.Status != StatusError || snap.Error != NoContentMessage || snap.ErrorKind != FailureNoContent {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Result != "" {
		t.Fatalf("result must stay empty on error, got %q", snap.Result)
	}
	if snap.Metadata.TokensUsed != 0 {
		t.Fatalf("metadata mutated after termination: %+v", snap.Metadata)
	}
}

func TestFailDefaultsToFault(t *testing.T) {
	task := newTestTask()
	_ = task.Fail(FailureNone, "search failed", 0)
	if got := task.Snapshot().ErrorKind; got != FailureFault {
		t.Fatalf("expected fault kind, got %q", got)
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		input   string
		want    Style
		wantErr bool
	}{
		{"", StyleComprehensive, false},
		{"Comprehensive", StyleComprehensive, false},
		{"concise", StyleConcise, false},
		{"TECHNICAL", StyleTechnical, false},
		{"beginner-friendly", StyleBeginnerFriendly, false},
		{"Poetic", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStyle(tt.input)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStyle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{Topic: "Go generics"}, false},
		{"trimmed", Request{Topic: "  Rust  "}, false},
		{"empty", Request{Topic: ""}, true},
		{"blank", Request{Topic: " \t\n"}, true},
		{"bad style", Request{Topic: "x", Style: "Loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && req.Style != StyleComprehensive {
				t.Errorf("expected default style, got %q", req.Style)
			}
		})
	}
}

func TestStatusRank(t *testing.T) {
	order := []Status{StatusInitializing, StatusSearching, StatusScraping, StatusProcessing, StatusGenerating}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Fatalf("%s should rank after %s", order[i], order[i-1])
		}
	}
	if StatusCompleted.Rank() != StatusError.Rank() {
		t.Fatal("terminal states should share a rank")
	}
	if Status("nope").Rank() != -1 {
		t.Fatal("unknown status should rank -1")
	}
}
