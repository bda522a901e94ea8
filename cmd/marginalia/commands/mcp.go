// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents search and extend the reading library via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs marginalia as an MCP (Model Context Protocol) server, letting
LLM agents like Claude search your library, record interactions and
drive review sessions over stdio.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  marginalia mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "marginalia": {
  #       "command": "marginalia",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStorage()
	if err != nil {
		return err
	}

	server := mcpserver.NewMCPServer("marginalia", versionInfo.Version)
	mcp.RegisterTools(server, store, logger, cfg.SearchLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio", "db", cfg.DBPath)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := store.Close(); err != nil {
			logger.Warn("error closing storage", "err", err)
		}
	case err := <-serverErr:
		_ = store.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
