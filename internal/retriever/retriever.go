// ABOUTME: Retriever binds a query embedder to the embedding store
// ABOUTME: Each query loads the filtered corpus and ranks it by cosine similarity
package retriever

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/harper/newsvec/internal/models"
	"github.com/harper/newsvec/internal/storage/sqlite"
)

// RecordLoader reads stored embedding records
type RecordLoader interface {
	Load(ctx context.Context, f sqlite.Filter) ([]models.EmbeddingRecord, error)
}

// Retriever answers similarity queries over the store
type Retriever struct {
	embedder QueryEmbedder
	store    RecordLoader
	logger   zerolog.Logger
}

// New creates a Retriever
func New(embedder QueryEmbedder, store RecordLoader, logger zerolog.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
		logger:   logger.With().Str("component", "retriever").Logger(),
	}
}

// Query returns the topN records matching filter ranked against text.
// An empty corpus returns no results and no error, without embedding text.
func (r *Retriever) Query(ctx context.Context, text string, topN int, filter sqlite.Filter) ([]models.SearchResult, error) {
	start := time.Now()

	records, err := r.store.Load(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(records) == 0 {
		r.logger.Debug().Msg("corpus is empty")
		return nil, nil
	}

	query, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := Rank(query, records, topN)
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Int("corpus", len(records)).
		Int("results", len(results)).
		Dur("took", time.Since(start)).
		Msg("query ranked")
	return results, nil
}

// Search is Query reduced to source texts, with the no-context sentinel for an empty corpus
func (r *Retriever) Search(ctx context.Context, text string, topN int, filter sqlite.Filter) ([]string, error) {
	results, err := r.Query(ctx, text, topN, filter)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []string{NoContextFound}, nil
	}
	return Texts(results), nil
}
