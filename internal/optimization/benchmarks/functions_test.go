package benchmarks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heng-zhai/MSc-project/internal/optimization"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		fn    Function
		point []float64
		want  float64
		delta float64
	}{
		{"Ackley origin", NewAckley(10), make([]float64, 10), 0, 1e-12},
		{"Ackley off origin", NewAckley(1), []float64{1}, 3.6253849384403627, 1e-9},
		{"Schaffer origin", NewSchaffer(), []float64{0, 0}, 0, 1e-12},
		{"Schwefel optimum", NewSchwefel(2), []float64{420.9687, 420.9687}, -837.9658, 1e-3},
		{"Easom optimum", NewEasom(), []float64{math.Pi, math.Pi}, -1, 1e-12},
		{"Easom plateau", NewEasom(), []float64{50, -50}, 0, 1e-12},
		{"GoldsteinPrice optimum", NewGoldsteinPrice(), []float64{0, -1}, 3, 1e-9},
		{"GoldsteinPrice origin", NewGoldsteinPrice(), []float64{0, 0}, 600, 1e-9},
		{"Rastrigin origin", NewRastrigin(10), make([]float64, 10), 0, 1e-12},
		{"Rastrigin integer lattice", NewRastrigin(2), []float64{1, -1}, 2, 1e-9},
		{"Hypersphere", NewHypersphere(3), []float64{1, 2, 3}, 14, 0},
		{"MartinGaddy optimum", NewMartinGaddy(), []float64{5, 5}, 0, 0},
		{"MartinGaddy origin", NewMartinGaddy(), []float64{0, 0}, 100.0 / 9.0, 1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn.Evaluate(tt.point)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.delta)
		})
	}
}

func TestEvaluateRejectsInvalidPoints(t *testing.T) {
	tests := []struct {
		name  string
		fn    Function
		point []float64
	}{
		{"too short", NewHypersphere(3), []float64{1, 2}},
		{"too long", NewEasom(), []float64{1, 2, 3}},
		{"nil", NewRastrigin(2), nil},
		{"NaN", NewAckley(2), []float64{0, math.NaN()}},
		{"infinite", NewMartinGaddy(), []float64{math.Inf(1), 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn.Evaluate(tt.point)
			require.Error(t, err)
			assert.ErrorIs(t, err, optimization.ErrInvalidPoint)
		})
	}
}

func TestObjective(t *testing.T) {
	fn := NewHypersphere(2)

	plain := Objective(fn, false)
	v, err := plain([]float64{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 25.0, v)

	opposite := Objective(fn, true)
	v, err = opposite([]float64{3, 4})
	require.NoError(t, err)
	assert.Equal(t, -25.0, v)

	_, err = opposite([]float64{3})
	assert.ErrorIs(t, err, optimization.ErrInvalidPoint)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		dims     int
		wantName string
		wantErr  bool
	}{
		{name: "ackley", dims: 10, wantName: "Ackley"},
		{name: "RASTRIGIN", dims: 3, wantName: "Rastrigin"},
		{name: "Goldstein and Price", dims: 2, wantName: "GoldsteinPrice"},
		{name: "martin-gaddy", dims: 2, wantName: "MartinGaddy"},
		{name: "Schaffer", dims: 3, wantErr: true},
		{name: "hypersphere", dims: 0, wantErr: true},
		{name: "rosenbrock", dims: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := New(tt.name, tt.dims)
			if tt.wantErr {
				assert.ErrorIs(t, err, optimization.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, fn.Name())
			assert.Equal(t, tt.dims, fn.Dimensions())
		})
	}
}

func TestAvailable(t *testing.T) {
	infos := Available()
	require.Len(t, infos, 8)
	assert.Equal(t, "Ackley", infos[0].Name)
	for _, info := range infos {
		dims := info.FixedDimensions
		if dims == 0 {
			dims = 4
		}
		_, err := New(info.Name, dims)
		assert.NoError(t, err, info.Name)
	}
}

func BenchmarkAckley(b *testing.B) {
	fn := NewAckley(10)
	point := []float64{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7, -0.8, 0.9, -1.0}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = fn.Evaluate(point)
	}
}
