package similarity

import "math"

// Cosine returns the cosine similarity of a and b. It is 0 when either vector
// has zero magnitude or the lengths differ.
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
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Matrix computes the dense |a|x|b| cosine matrix. Rows or columns whose
// vector is nil are left at 0.
func Matrix(a, b [][]float32) [][]float64 {
	m := make([][]float64, len(a))
	for i, va := range a {
		m[i] = make([]float64, len(b))
		if va == nil {
			continue
		}
		for j, vb := range b {
			if vb == nil {
				continue
			}
			m[i][j] = Cosine(va, vb)
		}
	}
	return m
}

// IsCandidate reports whether a similarity score marks a duplicate pair.
// The comparison is strict: a score equal to the threshold is not a candidate.
func IsCandidate(score, threshold float64) bool {
	return score > threshold
}
