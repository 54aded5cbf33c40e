// Package mcpserver exposes ToolWeaver operations as MCP tools over stdio,
// so agent clients can run pipelines and inspect the registry directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/toolweaver/toolweaver/internal/service"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all ToolWeaver tools registered.
func New(runner *service.Runner, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"toolweaver",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := &handlers{runner: runner, log: log}

	s.AddTool(mcp.NewTool("run_pipeline",
		mcp.WithDescription("Run a registered pipeline by id and return its step results."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Pipeline id as registered from the pipelines directory"),
		),
	), h.runPipeline)

	s.AddTool(mcp.NewTool("list_pipelines",
		mcp.WithDescription("List registered pipeline definitions."),
	), h.listPipelines)

	s.AddTool(mcp.NewTool("list_tools",
		mcp.WithDescription("List registered external tools and their commands."),
	), h.listTools)

	s.AddTool(mcp.NewTool("cache_stats",
		mcp.WithDescription("Show result cache hit/miss statistics and occupancy."),
	), h.cacheStats)

	s.AddTool(mcp.NewTool("resolve_path",
		mcp.WithDescription("Resolve a file path through the ordered lookup strategies, returning the attempt trail."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to resolve — absolute, relative, or just a filename"),
		),
	), h.resolvePath)

	s.AddTool(mcp.NewTool("invalidate_cache",
		mcp.WithDescription("Drop all cached results for a file path."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Resolved file path whose cached results should be dropped"),
		),
	), h.invalidateCache)

	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

type handlers struct {
	runner *service.Runner
	log    *slog.Logger
}

func (h *handlers) runPipeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	res, err := h.runner.RunByID(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run pipeline: %v", err)), nil
	}
	return jsonResult(res)
}

func (h *handlers) listPipelines(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.runner.Pipelines())
}

func (h *handlers) listTools(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.runner.Tools())
}

func (h *handlers) cacheStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.runner.CacheStats())
}

func (h *handlers) resolvePath(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	res, err := h.runner.ResolvePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (h *handlers) invalidateCache(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	dropped := h.runner.InvalidateCache(path)
	return jsonResult(map[string]any{"path": path, "dropped": dropped})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
