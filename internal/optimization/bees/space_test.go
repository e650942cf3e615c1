package bees

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heng-zhai/MSc-project/internal/optimization"
)

func TestNewSearchSpace(t *testing.T) {
	tests := []struct {
		name    string
		lower   []float64
		upper   []float64
		wantErr bool
	}{
		{name: "valid", lower: []float64{-1, 0}, upper: []float64{1, 2}},
		{name: "degenerate axis", lower: []float64{2}, upper: []float64{2}},
		{name: "length mismatch", lower: []float64{0, 0, 0}, upper: []float64{1, 1}, wantErr: true},
		{name: "empty", wantErr: true},
		{name: "inverted", lower: []float64{1}, upper: []float64{0}, wantErr: true},
		{name: "infinite", lower: []float64{math.Inf(-1)}, upper: []float64{0}, wantErr: true},
		{name: "NaN", lower: []float64{0}, upper: []float64{math.NaN()}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space, err := NewSearchSpace(tt.lower, tt.upper)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, optimization.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.lower), space.Dimensions())
		})
	}
}

func TestSearchSpaceGeometry(t *testing.T) {
	lower := []float64{-10, 2}
	upper := []float64{10, 4}
	space, err := NewSearchSpace(lower, upper)
	require.NoError(t, err)

	lower[0] = 100
	assert.Equal(t, []float64{-10, 2}, space.Lower(), "bounds are copied")
	assert.Equal(t, []float64{10, 4}, space.Upper())

	assert.Equal(t, 0.0, space.Midpoint(0))
	assert.Equal(t, 3.0, space.Midpoint(1))
	assert.Equal(t, 10.0, space.HalfWidth(0))
	assert.Equal(t, 1.0, space.HalfWidth(1))

	assert.Equal(t, 10.0, space.Clamp(0, 11))
	assert.Equal(t, 2.0, space.Clamp(1, -3))
	assert.Equal(t, 3.5, space.Clamp(1, 3.5))

	assert.True(t, space.Contains([]float64{0, 2}))
	assert.False(t, space.Contains([]float64{0, 5}))
	assert.False(t, space.Contains([]float64{0}))
}
