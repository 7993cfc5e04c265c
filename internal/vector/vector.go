// Package vector holds the small numeric routines the retrieval pipeline
// scores with: cosine similarity and centroid computation over the
// float32 vectors the embedding service produces.
package vector

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is returned when two vectors of different
	// lengths are compared.
	ErrDimensionMismatch = errors.New("embedding vectors must be of the same length")

	// ErrEmptyInput is returned when a centroid is requested for an
	// empty set.
	ErrEmptyInput = errors.New("cannot compute centroid of empty set")
)

// Cosine returns the cosine similarity between a and b in [-1, 1].
// If either vector has zero norm the similarity is defined as 0 so that
// downstream sorting and selection stay total.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Centroid returns the elementwise mean of the given vectors. All vectors
// must share the length of the first.
func Centroid(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyInput
	}

	dim := len(vectors[0])
	sums := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(v), dim)
		}
		for i := range v {
			sums[i] += float64(v[i])
		}
	}

	centroid := make([]float32, dim)
	n := float64(len(vectors))
	for i := range sums {
		centroid[i] = float32(sums[i] / n)
	}

	return centroid, nil
}
