// Package similarity scores and ranks chunks against a query embedding.
package similarity

import "math"

// Cosine returns dot(a,b) / (|a| * |b|) accumulated in float64.
// Empty vectors, mismatched lengths and zero norms all score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(s) {
		return 0
	}
	return s
}
