package experiment

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heng-zhai/MSc-project/internal/optimization"
	"github.com/heng-zhai/MSc-project/internal/optimization/bees"
	"github.com/heng-zhai/MSc-project/internal/optimization/benchmarks"
)

func hypersphereCase(t *testing.T) Case {
	t.Helper()
	catalog, err := benchmarks.DefaultCatalog()
	require.NoError(t, err)
	c, err := NewCase(catalog, "hypersphere", 2, HypersphereParams)
	require.NoError(t, err)
	return c
}

func TestRunReachesTarget(t *testing.T) {
	c := hypersphereCase(t)
	assert.Equal(t, "Hypersphere(2D)", c.Name)

	runner := DefaultRunner()
	runner.Runs = 8
	runner.Workers = 4

	summary, err := runner.Run(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, summary.Runs, 8)
	assert.Equal(t, HypersphereParams, summary.Params)

	for i, r := range summary.Runs {
		assert.Equal(t, i, r.Run)
		assert.Equal(t, runner.Seed+int64(i), r.Seed)
		assert.True(t, r.Reached, "run %d", i)
		assert.GreaterOrEqual(t, r.Fitness, -runner.Tolerance)
		assert.Less(t, r.Iterations, runner.MaxIterations)
	}
	assert.GreaterOrEqual(t, summary.AvgFitness, -runner.Tolerance)
	assert.GreaterOrEqual(t, summary.SdIterations, 0.0)
}

func TestRunIsIndependentOfScheduling(t *testing.T) {
	c := hypersphereCase(t)

	runner := DefaultRunner()
	runner.Runs = 6
	runner.MaxIterations = 30
	runner.Tolerance = 0

	runner.Workers = 1
	serial, err := runner.Run(context.Background(), c)
	require.NoError(t, err)

	runner.Workers = 6
	parallel, err := runner.Run(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestSummaryStatistics(t *testing.T) {
	s := summarise(Case{Name: "x"}, []RunResult{
		{Fitness: 1, Iterations: 10},
		{Fitness: 3, Iterations: 30},
	})
	assert.Equal(t, 2.0, s.AvgFitness)
	assert.Equal(t, 1.0, s.SdFitness, "population standard deviation")
	assert.Equal(t, 20.0, s.AvgIterations)
	assert.Equal(t, 10.0, s.SdIterations)
}

func TestRunWithCacheAndObserver(t *testing.T) {
	c := hypersphereCase(t)

	var mu sync.Mutex
	generations := map[int]int{}

	runner := DefaultRunner()
	runner.Runs = 3
	runner.Workers = 3
	runner.MaxIterations = 10
	runner.Tolerance = -1 // unreachable target
	runner.CacheSize = 1024
	runner.Observer = func(_ Case, run int) bees.Observer {
		return func(bees.GenerationStats) {
			mu.Lock()
			generations[run]++
			mu.Unlock()
		}
	}

	summary, err := runner.Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 10, 1: 10, 2: 10}, generations)
	assert.Equal(t, 10.0, summary.AvgIterations)
	assert.Zero(t, summary.SdIterations)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := DefaultRunner()
	runner.Runs = 2
	_, err := runner.Run(ctx, hypersphereCase(t))
	assert.ErrorIs(t, err, optimization.ErrCancelled)
}

func TestRunRejectsInvalidRunner(t *testing.T) {
	runner := DefaultRunner()
	runner.Runs = 0
	_, err := runner.Run(context.Background(), hypersphereCase(t))
	assert.ErrorIs(t, err, optimization.ErrInvalidConfiguration)

	runner = DefaultRunner()
	runner.Runs = 1
	c := hypersphereCase(t)
	c.Params.BestSites = 1
	_, err = runner.Run(context.Background(), c)
	assert.ErrorIs(t, err, optimization.ErrInvalidConfiguration)
}

func TestDefaultSuite(t *testing.T) {
	catalog, err := benchmarks.DefaultCatalog()
	require.NoError(t, err)

	suite, err := DefaultSuite(catalog)
	require.NoError(t, err)
	require.Len(t, suite, 8)

	want := []struct {
		name    string
		params  Params
		optimum float64
	}{
		{"Ackley(10D)", AckleyParams, 0},
		{"Schaffer(2D)", SchafferParams, 0},
		{"Schwefel(2D)", SchwefelParams, 837.9658},
		{"Easom(2D)", EasomParams, 1},
		{"GoldsteinPrice(2D)", GoldsteinPriceParams, -3},
		{"Rastrigin(10D)", RastriginParams, 0},
		{"Hypersphere(10D)", HypersphereParams, 0},
		{"MartinGaddy(2D)", MartinGaddyParams, 0},
	}
	for i, w := range want {
		c := suite[i]
		assert.Equal(t, w.name, c.Name)
		assert.Equal(t, w.params, c.Params)
		assert.InDelta(t, w.optimum, c.Optimum, 1e-3, w.name)
		assert.Len(t, c.Lower, c.Function.Dimensions())
	}

	robust := suite.WithParams(RobustnessParams)
	assert.Equal(t, RobustnessParams, robust[0].Params)
	assert.Equal(t, AckleyParams, suite[0].Params, "WithParams returns a copy")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []Summary{
		{
			Name:          "Easom(2D)",
			Params:        EasomParams,
			AvgFitness:    0.9995,
			SdFitness:     0.0002,
			AvgIterations: 41.5,
			SdIterations:  12,
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Benchmark,stlim,ns,nb,nr,af,sdf,ai,sdi", lines[0])
	assert.Equal(t, "Easom(2D),10,35,8,80,0.9995,0.0002,41.5,12", lines[1])
}

func BenchmarkRunHypersphere(b *testing.B) {
	catalog, err := benchmarks.DefaultCatalog()
	require.NoError(b, err)
	c, err := NewCase(catalog, "hypersphere", 10, HypersphereParams)
	require.NoError(b, err)

	runner := DefaultRunner()
	runner.Runs = 1
	runner.MaxIterations = 20
	for i := 0; i < b.N; i++ {
		_, _ = runner.Run(context.Background(), c)
	}
}
