package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/schema"
	"github.com/ajitpratap0/adlint/internal/testfixture"
	"github.com/ajitpratap0/adlint/internal/validator"
	"github.com/ajitpratap0/adlint/internal/workspace"
)

func newMCPServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := schema.Default()
	root := testfixture.Root(t, "demo", testfixture.Minimal())
	engine, err := validator.New(reg, validator.WithLogger(logger))
	require.NoError(t, err)
	return NewServer(engine, workspace.New(root, reg), logger)
}

// makeReq builds a CallToolRequest with the given arguments.
func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

// textContent extracts the first TextContent string from a CallToolResult.
func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func TestMCPValidate_ReturnsReport(t *testing.T) {
	srv := newMCPServer(t)

	result, err := srv.HandleValidate(context.Background(), makeReq("validate", map[string]any{"architecture_id": "demo"}))
	require.NoError(t, err)
	require.False(t, result.IsError, textContent(t, result))

	var report diag.Report
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &report))
	assert.Equal(t, "demo", report.ArchitectureID)
	assert.Equal(t, diag.StatusOK, report.Status)
	assert.Equal(t, 1, report.Summary.Warnings)
}

func TestMCPValidate_UnknownArchitecture(t *testing.T) {
	srv := newMCPServer(t)

	result, err := srv.HandleValidate(context.Background(), makeReq("validate", map[string]any{"architecture_id": "nope"}))
	require.NoError(t, err)
	var report diag.Report
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &report))
	assert.Equal(t, diag.StatusError, report.Status)
	assert.Equal(t, diag.CodeArchNotFound, report.Diagnostics[0].Code)
}

func TestMCPValidate_MissingArgument(t *testing.T) {
	srv := newMCPServer(t)
	result, err := srv.HandleValidate(context.Background(), makeReq("validate", map[string]any{"architecture_id": "  "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPListArchitectures(t *testing.T) {
	srv := newMCPServer(t)
	result, err := srv.HandleListArchitectures(context.Background(), makeReq("list_architectures", nil))
	require.NoError(t, err)

	var out map[string][]string
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &out))
	assert.Equal(t, []string{"demo"}, out["architectures"])
}

func TestMCPDescribeSchema(t *testing.T) {
	srv := newMCPServer(t)

	result, err := srv.HandleDescribeSchema(context.Background(), makeReq("describe_schema", nil))
	require.NoError(t, err)
	var meta schema.Metadata
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &meta))
	assert.Len(t, meta.EntityOrder, 8)

	result, err = srv.HandleDescribeSchema(context.Background(), makeReq("describe_schema", map[string]any{"entity": "risks"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, textContent(t, result), `"owner"`)

	result, err = srv.HandleDescribeSchema(context.Background(), makeReq("describe_schema", map[string]any{"entity": "widgets"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "stakeholders")
}

func TestMCPNilDependencies(t *testing.T) {
	srv := NewServer(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, call := range []func(context.Context, mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error){
		srv.HandleValidate, srv.HandleListArchitectures, srv.HandleDescribeSchema,
	} {
		result, err := call(context.Background(), makeReq("x", map[string]any{"architecture_id": "demo"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	}
}
