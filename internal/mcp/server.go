// Package mcp implements the Model Context Protocol server for adlint.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/adlint/internal/validator"
	"github.com/ajitpratap0/adlint/internal/workspace"
)

// Server wraps an MCPServer with adlint dependencies.
type Server struct {
	mcp    *mcpserver.MCPServer
	engine *validator.Engine
	ws     *workspace.Workspace
	logger *slog.Logger
}

// NewServer creates a new MCP server. If engine or ws are nil, the
// corresponding tool calls return an error response instead of panicking.
func NewServer(engine *validator.Engine, ws *workspace.Workspace, logger *slog.Logger) *Server {
	s := &Server{
		engine: engine,
		ws:     ws,
		logger: logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"adlint",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildValidateTool(), s.handleValidate)
	mcpSrv.AddTool(buildListArchitecturesTool(), s.handleListArchitectures)
	mcpSrv.AddTool(buildDescribeSchemaTool(), s.handleDescribeSchema)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleValidate is the exported handler for the "validate" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleValidate(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleValidate(ctx, req)
}

// HandleListArchitectures is the exported handler for the "list_architectures" tool.
func (s *Server) HandleListArchitectures(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleListArchitectures(ctx, req)
}

// HandleDescribeSchema is the exported handler for the "describe_schema" tool.
func (s *Server) HandleDescribeSchema(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleDescribeSchema(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// --- tool definitions ---

func buildValidateTool() mcpgo.Tool {
	return mcpgo.NewTool("validate",
		mcpgo.WithDescription("Validate an architecture's YAML collections and return the diagnostics report "+
			"(status, summary and ordered ERROR/WARN findings)."),
		mcpgo.WithString("architecture_id",
			mcpgo.Required(),
			mcpgo.Description("Architecture id as returned by list_architectures; _root is the specs root itself"),
		),
	)
}

func buildListArchitecturesTool() mcpgo.Tool {
	return mcpgo.NewTool("list_architectures",
		mcpgo.WithDescription("List the architecture ids available under the specs root."),
	)
}

func buildDescribeSchemaTool() mcpgo.Tool {
	return mcpgo.NewTool("describe_schema",
		mcpgo.WithDescription("Describe entity types. Without an entity, returns metadata for all types; "+
			"with one, returns its JSON Schema."),
		mcpgo.WithString("entity",
			mcpgo.Description("Entity type such as concerns or capabilities"),
		),
	)
}

// --- handlers ---

// handleValidate runs a validation and returns the report.
func (s *Server) handleValidate(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.engine == nil || s.ws == nil {
		return mcpgo.NewToolResultError("validator is unavailable"), nil
	}

	archID := strings.TrimSpace(req.GetString("architecture_id", ""))
	if archID == "" {
		return mcpgo.NewToolResultError("architecture_id is required and must not be empty"), nil
	}

	report := s.engine.Validate(ctx, s.ws.Root(), archID)
	s.logger.Info("mcp: validate", "architecture", archID, "status", report.Status,
		"errors", report.Summary.Errors, "warnings", report.Summary.Warnings)
	return toolResultJSON(report)
}

// handleListArchitectures lists architecture ids.
func (s *Server) handleListArchitectures(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.ws == nil {
		return mcpgo.NewToolResultError("workspace is unavailable"), nil
	}
	ids, err := s.ws.ListArchitectures()
	if err != nil {
		return mcpgo.NewToolResultErrorf("list failed: %s", err.Error()), nil
	}
	return toolResultJSON(map[string]any{"architectures": ids})
}

// handleDescribeSchema returns editor metadata or one entity's JSON Schema.
func (s *Server) handleDescribeSchema(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.engine == nil {
		return mcpgo.NewToolResultError("validator is unavailable"), nil
	}
	reg := s.engine.Registry()
	entity := strings.TrimSpace(req.GetString("entity", ""))
	if entity == "" {
		return toolResultJSON(reg.Metadata())
	}
	doc, err := reg.JSONSchema(entity)
	if err != nil {
		return mcpgo.NewToolResultErrorf("%s (known: %s)", err.Error(), strings.Join(reg.Order(), ", ")), nil
	}
	return toolResultJSON(doc)
}
