package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/professor/internal/domain"
	"github.com/Strob0t/professor/internal/domain/research"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.startResearchTool(),
		s.getStatusTool(),
		s.getResultTool(),
		s.listTasksTool(),
	)
}

func (s *Server) startResearchTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("start_research",
		mcplib.WithDescription("Start a background research task: search the web, read the sources and synthesize an answer"),
		mcplib.WithString("topic",
			mcplib.Required(),
			mcplib.Description("The question or topic to research"),
		),
		mcplib.WithString("response_style",
			mcplib.Description("Comprehensive, Concise, Technical or Beginner-friendly"),
		),
		mcplib.WithBoolean("include_sources",
			mcplib.Description("Ask the model to cite sources (default true)"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleStartResearch}
}

func (s *Server) getStatusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_research_status",
		mcplib.WithDescription("Get the status and progress of a research task"),
		mcplib.WithString("task_id",
			mcplib.Required(),
			mcplib.Description("The task ID returned by start_research"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetStatus}
}

func (s *Server) getResultTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_research_result",
		mcplib.WithDescription("Get the synthesized answer of a completed research task"),
		mcplib.WithString("task_id",
			mcplib.Required(),
			mcplib.Description("The task ID returned by start_research"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetResult}
}

func (s *Server) listTasksTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_research_tasks",
		mcplib.WithDescription("List all research tasks currently held in memory"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListTasks}
}

func (s *Server) handleStartResearch(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()
	topic, _ := args["topic"].(string)
	style, _ := args["response_style"].(string)
	includeSources := true
	if v, ok := args["include_sources"].(bool); ok {
		includeSources = v
	}

	t, err := s.research.Start(ctx, research.Request{
		Topic:          topic,
		Style:          research.Style(style),
		IncludeSources: includeSources,
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to start research", err), nil
	}
	return marshalResult(map[string]string{
		"task_id": t.ID(),
		"status":  "started",
	})
}

func (s *Server) handleGetStatus(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	id, errResult := taskIDArg(req)
	if errResult != nil {
		return errResult, nil
	}
	snap, err := s.research.Status(id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get task %s", id), err), nil
	}
	return marshalResult(snap)
}

func (s *Server) handleGetResult(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	id, errResult := taskIDArg(req)
	if errResult != nil {
		return errResult, nil
	}
	snap, err := s.research.Result(id)
	switch {
	case errors.Is(err, domain.ErrNotReady):
		return marshalResult(map[string]any{
			"error":    "Task not completed yet",
			"status":   snap.Status,
			"progress": snap.Progress,
		})
	case err != nil:
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get task %s", id), err), nil
	}
	return marshalResult(map[string]any{
		"task_id":         snap.TaskID,
		"result":          snap.Result,
		"metadata":        snap.Metadata,
		"topic":           snap.Topic,
		"response_style":  snap.ResponseStyle,
		"include_sources": snap.IncludeSources,
	})
}

func (s *Server) handleListTasks(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	return marshalResult(s.research.List())
}

func taskIDArg(req mcplib.CallToolRequest) (string, *mcplib.CallToolResult) { //nolint:gocritic // hugeParam: mcp-go request type
	id, ok := req.GetArguments()["task_id"].(string)
	if !ok || id == "" {
		return "", mcplib.NewToolResultError("task_id is required")
	}
	return id, nil
}

func marshalResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return toolResultJSON(string(data)), nil
}
