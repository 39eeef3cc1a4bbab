// Package vecmath provides small vector helpers for similarity scoring.
package vecmath

import "math"

// Cosine returns the cosine similarity of a and b clamped to [-1, 1].
// A zero-norm vector on either side yields exactly 0: a missing or degraded
// embedding must read as "no signal", not as maximally (dis)similar.
// Mismatched lengths also yield 0.
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
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Clamp against floating-point drift
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}

// IsZero reports whether v has no non-zero component.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Zero returns a zero vector of length n.
func Zero(n int) []float32 { return make([]float32, n) }
