package embeddings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/newsvec/internal/models"
)

func TestAggregate_SingleVectorKeepsDirection(t *testing.T) {
	v := models.Vector{3, 4, 0}

	got, err := Aggregate([]models.Vector{v}, []float64{7})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.6, 0.8, 0}, []float64(got), 1e-12)
	assert.InDelta(t, 1.0, Norm(got), 1e-12)
}

func TestAggregate_WeightedMean(t *testing.T) {
	vectors := []models.Vector{{1, 0}, {0, 1}}

	// weights 3:1 → mean (0.75, 0.25), normalized
	got, err := Aggregate(vectors, []float64{3, 1})
	require.NoError(t, err)

	n := math.Sqrt(0.75*0.75 + 0.25*0.25)
	assert.InDeltaSlice(t, []float64{0.75 / n, 0.25 / n}, []float64(got), 1e-12)
}

func TestAggregate_LongerChunksDominate(t *testing.T) {
	vectors := []models.Vector{{1, 0}, {0, 1}}

	got, err := Aggregate(vectors, []float64{200, 12})
	require.NoError(t, err)
	assert.Greater(t, got[0], got[1])
}

func TestAggregate_UnitNorm(t *testing.T) {
	vectors := []models.Vector{
		{0.1, -2.5, 3.3, 0},
		{10, 0.2, -0.7, 1},
		{-0.4, 0.4, 0.4, -0.4},
	}
	weights := [][]float64{{1, 1, 1}, {200, 200, 13}, {0.5, 0, 9}}

	for _, w := range weights {
		got, err := Aggregate(vectors, w)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, Norm(got), 1e-9)
	}
}

func TestAggregate_DoesNotMutateInputs(t *testing.T) {
	a := models.Vector{2, 0}
	_, err := Aggregate([]models.Vector{a}, []float64{1})
	require.NoError(t, err)
	assert.Equal(t, models.Vector{2, 0}, a)
}

func TestAggregate_Degenerate(t *testing.T) {
	_, err := Aggregate([]models.Vector{{0, 0}, {0, 0}}, []float64{1, 2})
	assert.ErrorIs(t, err, models.ErrDegenerateInput)

	// Opposite vectors with equal weight cancel out
	_, err = Aggregate([]models.Vector{{1, 1}, {-1, -1}}, []float64{5, 5})
	assert.ErrorIs(t, err, models.ErrDegenerateInput)
}

func TestAggregate_InvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		vectors []models.Vector
		weights []float64
	}{
		{"no vectors", nil, nil},
		{"length mismatch", []models.Vector{{1}}, []float64{1, 2}},
		{"dimension mismatch", []models.Vector{{1, 2}, {1}}, []float64{1, 1}},
		{"negative weight", []models.Vector{{1}, {1}}, []float64{-1, 2}},
		{"zero weights", []models.Vector{{1}, {1}}, []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(tt.vectors, tt.weights)
			assert.ErrorIs(t, err, models.ErrInvalidParameter)
		})
	}
}

func TestChunkWeights(t *testing.T) {
	chunks := []models.Chunk{{Length: 200}, {Length: 37}}
	assert.Equal(t, []float64{200, 37}, ChunkWeights(chunks))
}
