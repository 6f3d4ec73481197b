// Package similarity provides pure vector similarity scoring.
package similarity

import (
	"fmt"
	"math"

	"github.com/meridian-ai/prodscout/internal/domain"
)

// Cosine computes the cosine similarity of two equal-length vectors.
// If either vector has zero norm the result is 0.0 by definition; comparing
// against a degenerate embedding is treated as "no similarity", not an error.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
