package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	adlintmcp "github.com/ajitpratap0/adlint/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  validate            validate an architecture and return its report
  list_architectures  list architecture ids under the specs root
  describe_schema     entity metadata, or one entity's JSON Schema`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			engine, err := newEngine(logger)
			if err != nil {
				// Keep serving; tool calls report the problem per call.
				logger.Error("mcp: validator unavailable; tool calls will fail", "error", err)
			}
			var srv *adlintmcp.Server
			if engine != nil {
				srv = adlintmcp.NewServer(engine, newWorkspace(engine), logger)
			} else {
				srv = adlintmcp.NewServer(nil, nil, logger)
			}

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: adlint MCP server starting", "transport", "stdio", "specs_root", cfg.Specs.Root)

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
