// Package mcp exposes the research task API as Model Context Protocol tools
// over streamable HTTP.
package mcp

import (
	"context"
	"net/http"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/professor/internal/domain/research"
	"github.com/Strob0t/professor/internal/service"
)

// ResearchAPI is the subset of the research service used by the tools.
type ResearchAPI interface {
	Start(ctx context.Context, req research.Request) (*research.Task, error)
	Status(id string) (research.Snapshot, error)
	Result(id string) (research.Snapshot, error)
	List() []service.TaskSummary
}

// ServerConfig holds MCP server identity.
type ServerConfig struct {
	Name    string
	Version string
}

// Server wraps an mcp-go server exposing research tools and resources.
type Server struct {
	mcpServer *mcpserver.MCPServer
	research  ResearchAPI
}

// NewServer creates an MCP server with all tools and resources registered.
func NewServer(cfg ServerConfig, api ResearchAPI) *Server {
	s := &Server{
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithResourceCapabilities(false, false),
		),
		research: api,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the streamable HTTP transport, to be mounted at /mcp.
func (s *Server) Handler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer)
}

func toolResultJSON(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}
