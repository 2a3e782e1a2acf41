// Package similarity provides the vector comparison used by both candidate
// retrieval and cross-package deduplication.
package similarity

import "math"

// Cosine returns the cosine similarity of a and b in [-1, 1]. If either
// vector has zero magnitude the result is exactly 0.0 rather than an error;
// the callers treat "no signal" and "orthogonal" the same way.
//
// Both vectors must have the same dimensionality. That is the caller's
// contract: vectors from different embedding model versions are fine as long
// as their lengths match, and behavior is undefined when they do not.
func Cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
