// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes dayfinder tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dayfinder/internal/apperr"
	"github.com/starford/dayfinder/internal/noteservice"
)

const rulesURI = "dayfinder://resolution-rules"

// Server wraps the MCP server with dayfinder tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all dayfinder tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"dayfinder",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("resolve_task_date",
		mcp.WithDescription("Resolve the calendar date of a task that only names a clock time. "+
			"Returns the date, its source, a confidence grade, and the full start/end times."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. daily/2024-03-15.md)")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("Zero-based line of the task in the note")),
	), s.resolveTaskDate)

	s.mcp.AddTool(mcp.NewTool("file_date_info",
		mcp.WithDescription("Show the date facts known about a note: creation time, "+
			"frontmatter date, daily-note date, and whether it is a daily note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
	), s.fileDateInfo)

	s.mcp.AddTool(mcp.NewTool("tasks_on_date",
		mcp.WithDescription("List indexed time-only tasks that resolved to a date."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date as YYYY-MM-DD")),
	), s.tasksOnDate)

	s.mcp.AddTool(mcp.NewTool("clear_date_cache",
		mcp.WithDescription("Drop all cached file date facts so the next lookup re-reads the vault."),
	), s.clearCache)

	s.mcp.AddTool(mcp.NewTool("get_resolution_rules",
		mcp.WithDescription("Returns the rules used to pick a date, in priority order."),
	), s.getResolutionRules)

	s.mcp.AddResource(
		mcp.NewResource(rulesURI, "Date Resolution Rules",
			mcp.WithResourceDescription("How a time-only task gets its date, in priority order."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRulesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error, subject string) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", subject))
	case errors.Is(err, apperr.ErrNoTask):
		return mcp.NewToolResultError(fmt.Sprintf("no task at %s", subject))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) resolveTaskDate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := req.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ResolveAt(ctx, path, line)
	if err != nil {
		return toolError(err, fmt.Sprintf("%s:%d", path, line)), nil
	}
	return jsonResult(res)
}

func (s *Server) fileDateInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := s.svc.FileInfo(ctx, path)
	if err != nil {
		return toolError(err, path), nil
	}
	return jsonResult(info)
}

func (s *Server) tasksOnDate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := s.svc.TasksOnDate(ctx, date)
	if err != nil {
		return toolError(err, date), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no tasks on %s", date)), nil
	}
	return jsonResult(rows)
}

func (s *Server) clearCache(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := s.svc.ClearCache()
	return mcp.NewToolResultText(fmt.Sprintf("cleared %d cached files", n)), nil
}

func (s *Server) getResolutionRules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ResolutionRules), nil
}

func (s *Server) readRulesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      rulesURI,
			MIMEType: "text/markdown",
			Text:     ResolutionRules,
		},
	}, nil
}
