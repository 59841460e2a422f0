// ABOUTME: Cosine-similarity ranking of stored embedding records against a query vector
// ABOUTME: Ties keep store order; an empty corpus yields the no-context sentinel
package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/harper/newsvec/internal/models"
)

// NoContextFound is the single result returned when there is nothing to search
const NoContextFound = "No context was found in the knowledge base."

// QueryEmbedder embeds query text
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) (models.Vector, error)
}

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// A zero vector has similarity 0 with everything.
func CosineSimilarity(a, b models.Vector) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	return max(-1, min(1, sim))
}

// Rank scores every record against query and returns the topN most similar,
// highest first. topN <= 0 or larger than the corpus returns every record.
// A record whose dimension differs from the query is an error: the corpus
// was built with a different model.
func Rank(query models.Vector, records []models.EmbeddingRecord, topN int) ([]models.SearchResult, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", models.ErrInvalidParameter)
	}

	results := make([]models.SearchResult, len(records))
	for i, r := range records {
		if err := r.ValidateDimension(len(query)); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidParameter, err)
		}
		results[i] = models.SearchResult{Record: r, Similarity: CosineSimilarity(query, r.Vector)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if topN <= 0 || topN > len(results) {
		topN = len(results)
	}
	return results[:topN], nil
}

// Search embeds queryText and returns the source texts of the topN most
// similar records. An empty record set returns []string{NoContextFound}
// without calling the embedder.
func Search(ctx context.Context, embedder QueryEmbedder, queryText string, records []models.EmbeddingRecord, topN int) ([]string, error) {
	if len(records) == 0 {
		return []string{NoContextFound}, nil
	}

	query, err := embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ranked, err := Rank(query, records, topN)
	if err != nil {
		return nil, err
	}
	return Texts(ranked), nil
}

// Texts extracts the source text of each result, preserving order
func Texts(results []models.SearchResult) []string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Record.Text
	}
	return texts
}
