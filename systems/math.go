package systems

import "math"

// Clamp functions for common value ranges

// clampFloat clamps a float64 value between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps a float64 value to the [0, 1] range.
// NaN maps to 0 so a degenerate config never yields an invalid opacity.
func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clampFloat(v, 0, 1)
}

// maxf returns the larger of a and b.
func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
