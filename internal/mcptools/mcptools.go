// Package mcptools implements the Model Context Protocol server for
// pairrank.
//
// It exposes listing tasks, adding comparisons and reading rankings
// (plus the recommended next pair) through MCP tools, so an
// MCP-compatible agent can itself be the "human" eliciting and
// consuming pairwise comparisons instead of a UI collaborator.
// Deleting an item and reading the comparison log have no MCP tool;
// they are available over HTTP only.
package mcptools

import (
	"context"
	"encoding/json"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/pairrank/pairrank/internal/apperr"
	"github.com/pairrank/pairrank/internal/registry"
)

const serverInstructions = `You have access to pairrank, an active pairwise-preference ranking engine.

WORKFLOW:

1. Use pairrank_list_tasks to see the current items of a list, or
   pairrank_add_comparison with task_a_content == task_b_content == winner_content
   to register a brand new item without expressing a preference.

2. Use pairrank_next_pair to ask which two items would most reduce ranking
   uncertainty if compared next. Present that pair to whoever is judging.

3. Record the judgement with pairrank_add_comparison: task_a_content,
   task_b_content, and winner_content (must equal one of the two tasks).

4. Use pairrank_get_rankings at any point to see the current ranking,
   per-item confidence, and overall convergence.

Every call takes a list_id: an opaque capability string of at least 8
characters. Anyone holding it can read and mutate that list — there is
no separate authentication.`

// Server wraps the MCP server with pairrank's registry.
type Server struct {
	mcpServer *mcpserver.MCPServer
	registry  *registry.Registry
	logger    *slog.Logger
}

// New creates and configures a new MCP server exposing reg's list
// operations as tools.
func New(reg *registry.Registry, logger *slog.Logger, version string) *Server {
	s := &Server{
		registry: reg,
		logger:   logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"pairrank",
		version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithInstructions(serverInstructions),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("failed to encode result: " + err.Error()), nil
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcplib.NewTool("pairrank_list_tasks",
			mcplib.WithDescription("List the items of a list, in insertion order, with their completed flag."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithString("list_id",
				mcplib.Description("Opaque capability identifying the list (>= 8 characters)."),
				mcplib.Required(),
			),
		),
		s.handleListTasks,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("pairrank_add_comparison",
			mcplib.WithDescription(`Record a pairwise judgement, or register a new item.

To register an item without a preference, pass the same content for
task_a_content, task_b_content, and winner_content.`),
			mcplib.WithIdempotentHintAnnotation(false),
			mcplib.WithString("list_id",
				mcplib.Description("Opaque capability identifying the list (>= 8 characters)."),
				mcplib.Required(),
			),
			mcplib.WithString("task_a_content",
				mcplib.Description("Content of the first task."),
				mcplib.Required(),
			),
			mcplib.WithString("task_b_content",
				mcplib.Description("Content of the second task."),
				mcplib.Required(),
			),
			mcplib.WithString("winner_content",
				mcplib.Description("Must equal task_a_content or task_b_content."),
				mcplib.Required(),
			),
		),
		s.handleAddComparison,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("pairrank_get_rankings",
			mcplib.WithDescription("Get the current ranking of a list's items, plus coverage and convergence statistics."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithString("list_id",
				mcplib.Description("Opaque capability identifying the list (>= 8 characters)."),
				mcplib.Required(),
			),
		),
		s.handleGetRankings,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("pairrank_next_pair",
			mcplib.WithDescription("Get the pair of items whose comparison would most reduce ranking uncertainty, if one exists."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithString("list_id",
				mcplib.Description("Opaque capability identifying the list (>= 8 characters)."),
				mcplib.Required(),
			),
		),
		s.handleNextPair,
	)
}

func (s *Server) handleListTasks(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	listID := request.GetString("list_id", "")
	list, err := s.registry.Get(listID)
	if err != nil {
		return errorResult(errMessage(err)), nil
	}
	return jsonResult(list.ListTasks())
}

func (s *Server) handleAddComparison(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	listID := request.GetString("list_id", "")
	taskA := request.GetString("task_a_content", "")
	taskB := request.GetString("task_b_content", "")
	winner := request.GetString("winner_content", "")

	list, err := s.registry.Get(listID)
	if err != nil {
		return errorResult(errMessage(err)), nil
	}

	c, err := list.AddComparison(ctx, taskA, taskB, winner)
	if err != nil {
		return errorResult(errMessage(err)), nil
	}
	return jsonResult(c)
}

func (s *Server) handleGetRankings(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	listID := request.GetString("list_id", "")
	list, err := s.registry.Get(listID)
	if err != nil {
		return errorResult(errMessage(err)), nil
	}
	return jsonResult(list.Rankings())
}

// handleNextPair reuses the optimal_next_pair already computed as part
// of a list's stats, rather than duplicating the selector call.
func (s *Server) handleNextPair(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	listID := request.GetString("list_id", "")
	list, err := s.registry.Get(listID)
	if err != nil {
		return errorResult(errMessage(err)), nil
	}

	stats := list.Rankings().Stats
	if stats.OptimalNextPair == nil {
		return jsonResult(map[string]any{"pair": nil, "reason": "fewer than two items"})
	}
	return jsonResult(map[string]any{
		"task_a_content": stats.OptimalNextPair[0],
		"task_b_content": stats.OptimalNextPair[1],
	})
}

func errMessage(err error) string {
	if appErr, ok := apperr.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}
