// ABOUTME: Main entry point for the newsvec MCP server with stdio transport
// ABOUTME: Loads configuration, wires the corpus, and serves the MCP tools
package main

import (
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/harper/newsvec/internal/app"
	"github.com/harper/newsvec/internal/config"
	"github.com/harper/newsvec/internal/logging"
	"github.com/harper/newsvec/internal/mcp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet; fall back to JSON on stderr
		logger, _ := logging.New("error", "json", os.Stderr)
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// stdout carries the protocol, so logs always go to stderr
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}

// run serves until stdin closes; the store is closed on every return path
func run(cfg *config.Config, logger zerolog.Logger) error {
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	server := mcpserver.NewMCPServer("newsvec", "0.1.0")
	mcp.RegisterTools(server, a.Retriever, a.Ingestor, a.Store, cfg.RecentDays, logger)

	logger.Info().Str("db", a.Store.DB().Path()).Msg("MCP server starting on stdio")
	return mcpserver.ServeStdio(server)
}
