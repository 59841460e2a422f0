// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Lets LLM agents search and grow the corpus over stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/newsvec/internal/app"
	"github.com/harper/newsvec/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs newsvec as an MCP (Model Context Protocol) server on stdio with the
search_documents, ingest_document, and corpus_stats tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  newsvec mcp

  # Configure in the client's config file:
  # {
  #   "mcpServers": {
  #     "newsvec": {
  #       "command": "newsvec",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	server := mcpserver.NewMCPServer("newsvec", versionInfo.Version)
	mcp.RegisterTools(server, a.Retriever, a.Ingestor, a.Store, cfg.RecentDays, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("db", a.Store.DB().Path()).Msg("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing storage")
		}
		return nil
	case err := <-serverErr:
		_ = a.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
