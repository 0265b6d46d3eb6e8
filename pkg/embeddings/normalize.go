// Package embeddings provides utilities for embedding vectors (normalization, validation, blending).
package embeddings

import (
	"errors"
	"math"
)

var (
	// ErrDimensionMismatch is returned when vectors that must share a dimension do not.
	ErrDimensionMismatch = errors.New("embeddings: vector dimension mismatch")
	// ErrNoVectors is returned when a weighted combination is requested over nothing.
	ErrNoVectors = errors.New("embeddings: no vectors to combine")
)

// NormalizeL2 scales the vector to unit length in place.
// A zero (or non-finite) magnitude leaves the vector untouched.
func NormalizeL2(vector []float32) {
	magnitude := Norm(vector)
	if magnitude == 0 || math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return
	}

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}

// Norm returns the L2 magnitude of the vector.
func Norm(vector []float32) float64 {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	return math.Sqrt(sumSquares)
}

// IsUsable reports whether the vector has the wanted dimension, only finite components
// and a non-zero magnitude. Vectors failing this check must never reach the store.
func IsUsable(vector []float32, dim int) bool {
	if len(vector) == 0 || (dim > 0 && len(vector) != dim) {
		return false
	}

	for _, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}

	return Norm(vector) > 0
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero magnitude.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, nil
	}

	return dot / (na * nb), nil
}

// WeightedMean returns sum(w_i * v_i) / max(sum(w_i), floor). It does not normalize.
func WeightedMean(vectors [][]float32, weights []float64, floor float64) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}

	if len(vectors) != len(weights) {
		return nil, ErrDimensionMismatch
	}

	sum, err := WeightedSum(vectors, weights)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, w := range weights {
		total += w
	}

	total = math.Max(total, floor)
	for i := range sum {
		sum[i] = float32(float64(sum[i]) / total)
	}

	return sum, nil
}

// WeightedSum returns sum(w_i * v_i) as a new slice.
func WeightedSum(vectors [][]float32, weights []float64) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}

	if len(vectors) != len(weights) {
		return nil, ErrDimensionMismatch
	}

	dim := len(vectors[0])
	acc := make([]float64, dim)

	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, ErrDimensionMismatch
		}

		for j, v := range vec {
			acc[j] += weights[i] * float64(v)
		}
	}

	out := make([]float32, dim)
	for j := range acc {
		out[j] = float32(acc[j])
	}

	return out, nil
}
