// ABOUTME: Tests for cosine ranking and text search over embedding records
// ABOUTME: Covers ordering, stable ties, topN clamping, and the empty-corpus sentinel
package retriever

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/newsvec/internal/models"
)

// mapEmbedder returns a fixed vector per query text
type mapEmbedder struct {
	vectors map[string]models.Vector
	calls   int
}

func (m *mapEmbedder) Embed(_ context.Context, text string) (models.Vector, error) {
	m.calls++
	v, ok := m.vectors[text]
	if !ok {
		return nil, models.ErrInvalidInput
	}
	return v, nil
}

func rec(id, text string, v ...float64) models.EmbeddingRecord {
	return models.EmbeddingRecord{DocumentID: "doc", EmbeddingID: id, Text: text, Vector: v}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity(models.Vector{1, 0}, models.Vector{2, 0}), 1e-12)
	assert.InDelta(t, 0.0, CosineSimilarity(models.Vector{1, 0}, models.Vector{0, 3}), 1e-12)
	assert.InDelta(t, -1.0, CosineSimilarity(models.Vector{1, 1}, models.Vector{-1, -1}), 1e-12)
	assert.InDelta(t, math.Sqrt2/2, CosineSimilarity(models.Vector{1, 0}, models.Vector{1, 1}), 1e-12)
	assert.Equal(t, 0.0, CosineSimilarity(models.Vector{0, 0}, models.Vector{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity(models.Vector{1}, models.Vector{1, 1}))
}

func TestRankOrdersBySimilarity(t *testing.T) {
	records := []models.EmbeddingRecord{
		rec("a", "north", 0, 1),
		rec("b", "east", 1, 0),
		rec("c", "north-east", 1, 1),
		rec("d", "west", -1, 0),
	}

	results, err := Rank(models.Vector{1, 0}, records, 0)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []string{"east", "north-east", "north", "west"}, Texts(results))
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-12)
}

func TestRankStableTies(t *testing.T) {
	records := []models.EmbeddingRecord{
		rec("1", "first", 1, 1),
		rec("2", "other", 0, 1),
		rec("3", "second", 1, 1),
		rec("4", "third", 1, 1),
	}

	results, err := Rank(models.Vector{1, 1}, records, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, Texts(results))
}

func TestRankClampsTopN(t *testing.T) {
	records := []models.EmbeddingRecord{rec("a", "a", 1), rec("b", "b", -1)}

	for _, n := range []int{-1, 0, 2, 50} {
		results, err := Rank(models.Vector{1}, records, n)
		require.NoError(t, err)
		assert.Len(t, results, 2, "topN=%d", n)
	}
	results, err := Rank(models.Vector{1}, records, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, Texts(results))
}

func TestRankRejectsMixedDimensions(t *testing.T) {
	_, err := Rank(models.Vector{1, 0}, []models.EmbeddingRecord{rec("a", "a", 1, 0, 0)}, 1)
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))

	_, err = Rank(nil, []models.EmbeddingRecord{rec("a", "a", 1)}, 1)
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))
}

func TestSearchEmptyCorpusReturnsSentinel(t *testing.T) {
	embedder := &mapEmbedder{}

	texts, err := Search(context.Background(), embedder, "anything", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{NoContextFound}, texts)
	assert.Zero(t, embedder.calls, "query must not be embedded for an empty corpus")
}

func TestSearchIdenticalTextRanksFirst(t *testing.T) {
	embedder := &mapEmbedder{vectors: map[string]models.Vector{
		"inflation is easing": {0.6, 0.8, 0},
	}}
	records := []models.EmbeddingRecord{
		rec("a", "football results", 0, 0, 1),
		rec("b", "inflation is easing", 0.6, 0.8, 0),
		rec("c", "prices are falling", 0.5, 0.8, 0.2),
	}

	texts, err := Search(context.Background(), embedder, "inflation is easing", records, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"inflation is easing", "prices are falling"}, texts)
}

func TestSearchPropagatesEmbedError(t *testing.T) {
	_, err := Search(context.Background(), &mapEmbedder{}, "unknown", []models.EmbeddingRecord{rec("a", "a", 1)}, 1)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}
