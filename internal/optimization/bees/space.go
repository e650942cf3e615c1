package bees

import (
	"math"

	"github.com/heng-zhai/MSc-project/internal/optimization"
)

// SearchSpace is the box [lower[i], upper[i]] searched by the optimizer.
// It is immutable once constructed.
type SearchSpace struct {
	lower []float64
	upper []float64
}

// NewSearchSpace validates and copies the bound vectors.
func NewSearchSpace(lower, upper []float64) (SearchSpace, error) {
	const op = "NewSearchSpace"

	if len(lower) != len(upper) {
		return SearchSpace{}, optimization.InvalidConfigurationf(
			"the sizes of the lower (%d) and upper (%d) bounds don't match", len(lower), len(upper)).
			WithOperation(op)
	}
	if len(lower) == 0 {
		return SearchSpace{}, optimization.InvalidConfigurationf("bounds must not be empty").WithOperation(op)
	}
	for i := range lower {
		if math.IsNaN(lower[i]) || math.IsInf(lower[i], 0) || math.IsNaN(upper[i]) || math.IsInf(upper[i], 0) {
			return SearchSpace{}, optimization.InvalidConfigurationf(
				"bounds of dimension %d must be finite, got [%v, %v]", i, lower[i], upper[i]).WithOperation(op)
		}
		if lower[i] > upper[i] {
			return SearchSpace{}, optimization.InvalidConfigurationf(
				"lower bound %v exceeds upper bound %v in dimension %d", lower[i], upper[i], i).WithOperation(op)
		}
	}

	return SearchSpace{
		lower: append([]float64(nil), lower...),
		upper: append([]float64(nil), upper...),
	}, nil
}

// Dimensions returns the dimensionality D of the space.
func (s SearchSpace) Dimensions() int {
	return len(s.lower)
}

// Lower returns a copy of the lower bounds.
func (s SearchSpace) Lower() []float64 {
	return append([]float64(nil), s.lower...)
}

// Upper returns a copy of the upper bounds.
func (s SearchSpace) Upper() []float64 {
	return append([]float64(nil), s.upper...)
}

// Midpoint returns the centre of the box along dimension i.
func (s SearchSpace) Midpoint(i int) float64 {
	return (s.upper[i] + s.lower[i]) / 2.0
}

// HalfWidth returns half the extent of the box along dimension i.
func (s SearchSpace) HalfWidth(i int) float64 {
	return (s.upper[i] - s.lower[i]) / 2.0
}

// Clamp forces v into [lower[i], upper[i]].
func (s SearchSpace) Clamp(i int, v float64) float64 {
	v = math.Min(v, s.upper[i])
	return math.Max(v, s.lower[i])
}

// Contains reports whether x has the right dimensionality and lies in the box.
func (s SearchSpace) Contains(x []float64) bool {
	if len(x) != len(s.lower) {
		return false
	}
	for i, v := range x {
		if v < s.lower[i] || v > s.upper[i] {
			return false
		}
	}
	return true
}
