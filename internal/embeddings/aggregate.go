// ABOUTME: Aggregator pooling chunk vectors into one unit-length document vector
// ABOUTME: Weighted arithmetic mean (weight = chunk length) followed by L2 normalization
package embeddings

import (
	"fmt"
	"math"

	"github.com/harper/newsvec/internal/models"
)

// Aggregate returns the weighted mean of vectors divided by its Euclidean norm
func Aggregate(vectors []models.Vector, weights []float64) (models.Vector, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors to aggregate", models.ErrInvalidParameter)
	}
	if len(vectors) != len(weights) {
		return nil, fmt.Errorf("%w: %d vectors but %d weights", models.ErrInvalidParameter, len(vectors), len(weights))
	}

	dim := len(vectors[0])
	var total float64
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d", models.ErrInvalidParameter, i, len(v), dim)
		}
		if weights[i] < 0 || math.IsNaN(weights[i]) {
			return nil, fmt.Errorf("%w: weight %d is %v", models.ErrInvalidParameter, i, weights[i])
		}
		total += weights[i]
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", models.ErrInvalidParameter)
	}

	mean := make(models.Vector, dim)
	for i, v := range vectors {
		w := weights[i] / total
		for j, x := range v {
			mean[j] += w * x
		}
	}

	return Normalize(mean)
}

// Norm returns the Euclidean length of v
func Norm(v models.Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize returns v scaled to unit length
func Normalize(v models.Vector) (models.Vector, error) {
	norm := Norm(v)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("%w: vector norm is %v", models.ErrDegenerateInput, norm)
	}
	out := make(models.Vector, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out, nil
}

// ChunkWeights returns the chunk lengths as aggregation weights
func ChunkWeights(chunks []models.Chunk) []float64 {
	weights := make([]float64, len(chunks))
	for i, c := range chunks {
		weights[i] = float64(c.Length)
	}
	return weights
}
