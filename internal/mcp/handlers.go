// ABOUTME: MCP tool handler implementations for the newsvec server
// ABOUTME: Tool failures are reported as tool errors, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/harper/newsvec/internal/core"
	"github.com/harper/newsvec/internal/models"
	"github.com/harper/newsvec/internal/retriever"
	"github.com/harper/newsvec/internal/storage/sqlite"
)

// Searcher ranks stored records against a query
type Searcher interface {
	Query(ctx context.Context, text string, topN int, filter sqlite.Filter) ([]models.SearchResult, error)
}

// DocumentIngestor embeds and stores documents
type DocumentIngestor interface {
	Ingest(ctx context.Context, docs []*models.Document) (*core.Report, error)
}

// StatsSource reports corpus counts
type StatsSource interface {
	Stats(ctx context.Context) (*sqlite.Stats, error)
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	searcher   Searcher
	ingestor   DocumentIngestor
	stats      StatsSource
	recentDays int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewHandlers creates handlers. recentDays is the default recency window for searches.
func NewHandlers(searcher Searcher, ingestor DocumentIngestor, stats StatsSource, recentDays int, logger zerolog.Logger) *Handlers {
	return &Handlers{
		searcher:   searcher,
		ingestor:   ingestor,
		stats:      stats,
		recentDays: recentDays,
		logger:     logger.With().Str("component", "mcp").Logger(),
		now:        time.Now,
	}
}

// SearchResponse is the search_documents payload
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Message string         `json:"message,omitempty"`
}

// SearchResult is one ranked record
type SearchResult struct {
	DocumentID  string  `json:"document_id"`
	EmbeddingID string  `json:"embedding_id"`
	Kind        string  `json:"kind"`
	Similarity  float64 `json:"similarity"`
	Text        string  `json:"text"`
}

// SearchDocuments handles the search_documents tool
func (h *Handlers) SearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query argument is required and must be a non-empty string"), nil
	}

	maxResults := request.GetInt("max_results", 5)
	if maxResults <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("max_results must be positive, got %d", maxResults)), nil
	}

	filter := sqlite.SinceDays(request.GetInt("recent_days", h.recentDays), h.now())
	switch kind := request.GetString("kind", "all"); kind {
	case "all", "":
	case string(models.KindChunk), string(models.KindSummary):
		filter.Kind = models.RecordKind(kind)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("kind must be all, chunk, or summary, got %q", kind)), nil
	}

	results, err := h.searcher.Query(ctx, query, maxResults, filter)
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("search failed")
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	response := SearchResponse{Query: query, Results: make([]SearchResult, 0, len(results))}
	for _, r := range results {
		response.Results = append(response.Results, SearchResult{
			DocumentID:  r.Record.DocumentID,
			EmbeddingID: r.Record.EmbeddingID,
			Kind:        string(r.Record.Kind()),
			Similarity:  r.Similarity,
			Text:        r.Record.Text,
		})
	}
	if len(results) == 0 {
		response.Message = retriever.NoContextFound
	}

	return jsonResult(response)
}

// IngestDocument handles the ingest_document tool
func (h *Handlers) IngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil || strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text argument is required and must be a non-empty string"), nil
	}

	doc := models.NewDocument(request.GetString("title", ""), request.GetString("source", "mcp"), text)
	doc.URL = request.GetString("url", "")
	doc.Summary = request.GetString("summary", "")

	report, err := h.ingestor.Ingest(ctx, []*models.Document{doc})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion interrupted: %v", err)), nil
	}
	if len(report.Failed) > 0 {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion failed: %s", report.Failed[0].Message)), nil
	}

	return jsonResult(map[string]interface{}{
		"document_id": doc.ID,
		"added":       len(report.Added) > 0,
		"skipped":     len(report.Skipped) > 0,
		"records":     report.Records,
	})
}

// CorpusStats handles the corpus_stats tool
func (h *Handlers) CorpusStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.stats.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read stats: %v", err)), nil
	}
	return jsonResult(stats)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
