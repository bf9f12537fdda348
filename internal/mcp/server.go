package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/joescharf/bugtrack/internal/bugs"
	"github.com/joescharf/bugtrack/internal/models"
	"github.com/joescharf/bugtrack/internal/validation"
)

// Server exposes the bug service as MCP tools.
type Server struct {
	bugs    *bugs.Service
	version string
}

// NewServer creates the MCP server wrapper.
func NewServer(svc *bugs.Service, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{bugs: svc, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("bugtrack", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.listBugsTool())
	srv.AddTool(s.getBugTool())
	srv.AddTool(s.createBugTool())
	srv.AddTool(s.updateBugTool())
	srv.AddTool(s.deleteBugTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// bugs_list
func (s *Server) listBugsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bugs_list",
		mcp.WithDescription("List all bugs, newest first. Returns a JSON array of bugs with id, title, description, status, and createdAt."),
	)
	return tool, s.handleListBugs
}

func (s *Server) handleListBugs(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.bugs.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list bugs: %v", err)), nil
	}
	return jsonResult(list)
}

// bug_get
func (s *Server) getBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bug_get",
		mcp.WithDescription("Get a single bug by ID (full or unique prefix)."),
		mcp.WithString("bug_id", mcp.Required(), mcp.Description("Bug ID (full ULID or unique prefix)")),
	)
	return tool, s.handleGetBug
}

func (s *Server) handleGetBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bugID, err := request.RequireString("bug_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: bug_id"), nil
	}

	bug, err := s.bugs.Find(ctx, bugID)
	if err != nil {
		return toolError(err, bugID), nil
	}
	return jsonResult(bug)
}

// bug_create
func (s *Server) createBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bug_create",
		mcp.WithDescription("Create a new bug. Returns the created bug as JSON."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Bug title (must not be blank)")),
		mcp.WithString("description", mcp.Description("Bug description")),
		mcp.WithString("status", mcp.Description("Initial status: open, in-progress, closed (default: open)")),
	)
	return tool, s.handleCreateBug
}

func (s *Server) handleCreateBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := payloadFromArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bug, err := s.bugs.Create(ctx, p)
	if err != nil {
		return toolError(err, ""), nil
	}
	return jsonResult(bug)
}

// bug_update
func (s *Server) updateBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bug_update",
		mcp.WithDescription("Update an existing bug. Provide the bug ID (full or prefix) and at least one field to update. Returns the updated bug as JSON."),
		mcp.WithString("bug_id", mcp.Required(), mcp.Description("Bug ID (full ULID or unique prefix)")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("status", mcp.Description("New status: open, in-progress, closed")),
	)
	return tool, s.handleUpdateBug
}

func (s *Server) handleUpdateBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bugID, err := request.RequireString("bug_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: bug_id"), nil
	}

	p, err := payloadFromArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p.Title == nil && p.Description == nil && p.Status == nil {
		return mcp.NewToolResultError("no fields provided to update; specify at least one of: title, description, status"), nil
	}

	bug, err := s.bugs.Find(ctx, bugID)
	if err != nil {
		return toolError(err, bugID), nil
	}

	updated, err := s.bugs.Update(ctx, bug.ID, p)
	if err != nil {
		return toolError(err, bugID), nil
	}
	return jsonResult(updated)
}

// bug_delete
func (s *Server) deleteBugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("bug_delete",
		mcp.WithDescription("Permanently delete a bug by ID (full or unique prefix)."),
		mcp.WithString("bug_id", mcp.Required(), mcp.Description("Bug ID (full ULID or unique prefix)")),
	)
	return tool, s.handleDeleteBug
}

func (s *Server) handleDeleteBug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bugID, err := request.RequireString("bug_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: bug_id"), nil
	}

	bug, err := s.bugs.Find(ctx, bugID)
	if err != nil {
		return toolError(err, bugID), nil
	}
	if err := s.bugs.Delete(ctx, bug.ID); err != nil {
		return toolError(err, bugID), nil
	}
	return jsonResult(map[string]string{"id": bug.ID.String(), "message": "Deleted"})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// payloadFromArgs runs the editable tool arguments through the same decoder as
// HTTP request bodies, so both surfaces accept exactly the same input.
func payloadFromArgs(request mcp.CallToolRequest) (*models.Payload, error) {
	args := lo.PickByKeys(request.GetArguments(), []string{"title", "description", "status"})
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}
	return validation.ParsePayload(data)
}

func toolError(err error, bugID string) *mcp.CallToolResult {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("bug not found: %s", bugID))
	case errors.Is(err, models.ErrInvalidPayload):
		return mcp.NewToolResultError(err.Error())
	default:
		return mcp.NewToolResultError(fmt.Sprintf("store error: %v", err))
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
