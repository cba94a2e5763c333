package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/professor/internal/domain/research"
	"github.com/Strob0t/professor/internal/service"
)

type listOnly struct{ ResearchAPI }

func (listOnly) List() []service.TaskSummary {
	return []service.TaskSummary{{TaskID: "t1", Topic: "Go", Status: research.StatusScraping, StartTime: time.Now()}}
}

func TestTasksResource(t *testing.T) {
	s := NewServer(ServerConfig{Name: "test", Version: "0.1.0"}, listOnly{})

	req := mcplib.ReadResourceRequest{}
	req.Params.URI = tasksResourceURI
	contents, err := s.handleTasksResource(context.Background(), req)
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	text, ok := contents[0].(mcplib.TextResourceContents)
	if !ok {
		t.Fatal("expected TextResourceContents")
	}
	if text.URI != tasksResourceURI || !strings.Contains(text.Text, `"task_id":"t1"`) {
		t.Fatalf("unexpected resource contents: %+v", text)
	}
}
