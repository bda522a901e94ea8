// ABOUTME: Main entry point for the marginalia MCP server with stdio transport
// ABOUTME: Loads config, opens the library and serves the MCP tools
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/marginalia/internal/config"
	"github.com/harper/marginalia/internal/mcp"
	"github.com/harper/marginalia/internal/storage/sqlite"
)

var version = "dev"

func main() {
	// stdout carries the protocol; logs go to stderr
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "marginalia-mcp", ReportTimestamp: true})

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	logger.SetLevel(cfg.Level())

	store, err := sqlite.NewStorageWithPath(cfg.DBPath, sqlite.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to initialize storage", "err", err)
	}
	defer func() { _ = store.Close() }()

	server := mcpserver.NewMCPServer("marginalia", version)
	mcp.RegisterTools(server, store, logger, cfg.SearchLimit)

	logger.Info("MCP server starting on stdio", "db", cfg.DBPath)
	if err := mcpserver.ServeStdio(server); err != nil {
		logger.Error("server error", "err", err)
		_ = store.Close()
		os.Exit(1)
	}
}
