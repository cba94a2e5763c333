package messagequeue

import (
	"strings"
	"testing"
)

func TestValidateResearchRequest(t *testing.T) {
	data := []byte(`{"topic":"Quantum Computing","response_style":"Concise","include_sources":false}`)
	if err := Validate(SubjectResearchRequest, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateResearchRequestBlankTopic(t *testing.T) {
	err := Validate(SubjectResearchRequest, []byte(`{"topic":"   "}`))
	if err == nil {
		t.Fatal("expected error for blank topic")
	}
	if !strings.Contains(err.Error(), "topic is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateTaskStatus(t *testing.T) {
	data := []byte(`{"task_id":"t1","topic":"x","status":"searching","progress":10,"current_step":"Searching web sources"}`)
	if err := Validate(TaskSubject("searching"), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(TaskSubject("error"), []byte(`{"status":"error"}`)); err == nil {
		t.Fatal("expected error for missing task_id")
	}
}

func TestValidateDLQSubjectAcceptsAnyJSON(t *testing.T) {
	if err := Validate(SubjectResearchRequest+DLQSuffix, []byte(`{"anything":1}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	if err := Validate("unknown.subject", []byte(`{"foo":"bar"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInvalidJSON(t *testing.T) {
	err := Validate(SubjectResearchRequest, []byte(`{not valid json`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("expected 'invalid JSON' in error, got: %v", err)
	}
}

func TestValidateInvalidSchema(t *testing.T) {
	err := Validate(SubjectResearchRequest, []byte(`"just a string"`))
	if err == nil {
		t.Fatal("expected schema validation error")
	}
	if !strings.Contains(err.Error(), "schema validation failed") {
		t.Fatalf("expected 'schema validation failed' in error, got: %v", err)
	}
}

func TestTaskSubject(t *testing.T) {
	if got := TaskSubject("completed"); got != "research.task.completed" {
		t.Fatalf("TaskSubject = %q", got)
	}
}
