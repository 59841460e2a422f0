// ABOUTME: MCP tool definitions and registration for the newsvec server
// ABOUTME: Exposes corpus search, single-document ingestion, and corpus statistics
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, searcher Searcher, ingestor DocumentIngestor, stats StatsSource, recentDays int, logger zerolog.Logger) *Handlers {
	handlers := NewHandlers(searcher, ingestor, stats, recentDays, logger)

	// 1. search_documents - Rank stored chunks and summaries against a query
	server.AddTool(mcp.Tool{
		Name:        "search_documents",
		Description: "Search the embedded article corpus. Returns the most similar stored chunks or summaries, most similar first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query text",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results to return (default: 5)",
					"default":     5,
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"all", "chunk", "summary"},
					"description": "Restrict to chunk or summary embeddings (default: all)",
					"default":     "all",
				},
				"recent_days": map[string]interface{}{
					"type":        "number",
					"description": "Only search documents added in the last N days (0 searches everything)",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchDocuments)

	// 2. ingest_document - Embed and store one document
	server.AddTool(mcp.Tool{
		Name:        "ingest_document",
		Description: "Embed a document as overlapping chunks plus an optional summary and append it to the corpus. Documents whose URL is already indexed are skipped.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Full document text",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Document title",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Publication or feed the document came from",
				},
				"url": map[string]interface{}{
					"type":        "string",
					"description": "Canonical URL, used to skip documents already ingested",
				},
				"summary": map[string]interface{}{
					"type":        "string",
					"description": "Optional summary to embed alongside the chunks",
				},
			},
			Required: []string{"text"},
		},
	}, handlers.IngestDocument)

	// 3. corpus_stats - Row counts for the store
	server.AddTool(mcp.Tool{
		Name:        "corpus_stats",
		Description: "Report document and embedding counts, including duplicate embedding IDs from reruns.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.CorpusStats)

	return handlers
}
