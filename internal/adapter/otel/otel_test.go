package otel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/professor/internal/config"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OTEL{ServiceName: "test"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	if m.TasksStarted == nil || m.TasksCompleted == nil || m.TasksFailed == nil {
		t.Fatal("expected task counters")
	}
	if m.TaskDuration == nil || m.ContextChars == nil || m.SourcesSkipped == nil {
		t.Fatal("expected histograms and skip counter")
	}
	m.TasksStarted.Add(context.Background(), 1)
}

func TestSpansAreUsableWithoutProvider(t *testing.T) {
	ctx, task := StartTaskSpan(context.Background(), "t1", "topic")
	_, stage := StartStageSpan(ctx, "searching")
	_, fetch := StartFetchSpan(ctx, "https://example.com")
	fetch.End()
	stage.End()
	task.End()
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	h := HTTPMiddleware("professor")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
}

func TestSpanName(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/api/research/3f2a/status", "GET /api/research/{id}/status"},
		{http.MethodGet, "/api/research/3f2a/result", "GET /api/research/{id}/result"},
		{http.MethodGet, "/api/research/3f2a", "GET /api/research/{id}"},
		{http.MethodPost, "/api/research", "POST /api/research"},
		{http.MethodGet, "/api/tasks", "GET /api/tasks"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(tt.method, tt.path, http.NoBody)
		if got := SpanName(r); got != tt.want {
			t.Errorf("SpanName(%s %s) = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}
