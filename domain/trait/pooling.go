package trait

import "math"

// poolEpsilon guards the mask sum against zero.
const poolEpsilon = 1e-9

// MeanPool averages token hidden states weighted by the attention mask:
// sum(hidden*mask) / max(sum(mask), eps). Masked positions never contribute.
// An empty sequence or an all-zero mask yields a zero vector of width dim.
func MeanPool(hidden [][]float64, mask []float64, dim int) []float64 {
	out := make([]float64, dim)
	total := 0.0
	for t, row := range hidden {
		if t >= len(mask) || mask[t] == 0 {
			continue
		}
		m := mask[t]
		total += m
		for j := 0; j < dim && j < len(row); j++ {
			out[j] += row[j] * m
		}
	}

	denom := math.Max(total, poolEpsilon)
	for j := range out {
		out[j] /= denom
	}
	return out
}

// L2Normalize returns v scaled to unit length. A zero vector is returned
// unchanged.
func L2Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	out := make([]float64, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Finite reports whether every element of v is a finite number.
func Finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
