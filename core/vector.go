package core

import "math"

// NormalizeVector returns a unit-length copy of v.
// Non-finite components are replaced with 0 first; a zero vector stays zero.
func NormalizeVector(v []float32) []float32 {
	result := make([]float32, len(v))
	var magnitude float64
	for i, val := range v {
		f := float64(val)
		if !IsFinite(f) {
			continue
		}
		result[i] = val
		magnitude += f * f
	}
	magnitude = math.Sqrt(magnitude)

	// Can't normalize zero vector
	if magnitude == 0 {
		return result
	}

	for i := range result {
		result[i] = float32(float64(result[i]) / magnitude)
	}
	return result
}

// Float64s widens a float32 vector.
func Float64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
