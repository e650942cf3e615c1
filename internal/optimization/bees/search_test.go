package bees

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter returns an objective whose value grows (step > 0) or falls
// (step < 0) with every call, so the newest candidate is always the best or
// always the worst.
func counter(step float64) func([]float64) (float64, error) {
	value := 0.0
	return func([]float64) (float64, error) {
		value += step
		return value, nil
	}
}

func newTestOptimizer(t *testing.T, cfg Config) *Optimizer {
	t.Helper()
	optimizer, err := New(cfg, WithSeed(1))
	require.NoError(t, err)
	return optimizer
}

func TestLocalSearchImproves(t *testing.T) {
	lower, upper := box(2, -10, 10)
	optimizer := newTestOptimizer(t, DefaultConfig(counter(1), lower, upper))

	optimizer.sites[0].PatchSize = []float64{0.5, 0.25}
	optimizer.sites[0].ShrinkTimes = 4
	parent := optimizer.sites[0].Clone()

	outcome, recruits, err := optimizer.localSearch(0, 5)
	require.NoError(t, err)
	assert.Equal(t, outcomeImproved, outcome)
	require.Len(t, recruits, 5)

	site := optimizer.sites[0]
	last := recruits[4]
	assert.Equal(t, 0, site.ShrinkTimes)
	assert.Equal(t, last.Position, site.Position, "the fittest recruit becomes the site")
	assert.Equal(t, last.Fitness, site.Fitness)
	assert.Equal(t, parent.PatchSize, site.PatchSize, "the patch is inherited, not widened")

	for _, r := range recruits {
		for i := range r.Position {
			assert.LessOrEqual(t, r.Position[i], parent.Position[i]+10*parent.PatchSize[i]+1e-9)
			assert.GreaterOrEqual(t, r.Position[i], parent.Position[i]-10*parent.PatchSize[i]-1e-9)
		}
	}

	site.PatchSize[0] = 99
	assert.Equal(t, 0.5, recruits[4].PatchSize[0], "site must not alias the recruit")
}

func TestLocalSearchShrinks(t *testing.T) {
	lower, upper := box(2, -10, 10)
	cfg := DefaultConfig(counter(-1), lower, upper)
	cfg.ShrinkFactor = 0.2
	optimizer := newTestOptimizer(t, cfg)

	before := optimizer.sites[3].Clone()
	outcome, recruits, err := optimizer.localSearch(3, 4)
	require.NoError(t, err)
	assert.Equal(t, outcomeShrunk, outcome)
	assert.Len(t, recruits, 4)

	site := optimizer.sites[3]
	assert.Equal(t, before.Position, site.Position)
	assert.Equal(t, before.Fitness, site.Fitness)
	assert.Equal(t, 1, site.ShrinkTimes)
	assert.InDeltaSlice(t, []float64{0.8, 0.8}, site.PatchSize, 1e-12)
}

func TestLocalSearchAbandons(t *testing.T) {
	lower, upper := box(2, -10, 10)
	cfg := DefaultConfig(counter(1), lower, upper)
	cfg.StagnationLimit = 3
	cfg.NeighborhoodScale = []float64{0.7, 0.3}

	for _, k := range []int{0, 1, 6} {
		optimizer := newTestOptimizer(t, cfg)
		optimizer.sites[2].ShrinkTimes = 3
		optimizer.sites[2].PatchSize = []float64{0.01, 0.01}
		evaluations := optimizer.Evaluations()

		outcome, recruits, err := optimizer.localSearch(2, k)
		require.NoError(t, err)
		assert.Equal(t, outcomeAbandoned, outcome)
		assert.Nil(t, recruits)

		site := optimizer.sites[2]
		assert.Equal(t, 0, site.ShrinkTimes)
		assert.Equal(t, []float64{0.7, 0.3}, site.PatchSize)
		assert.Equal(t, max(k, 1), optimizer.Evaluations()-evaluations)
		assert.Equal(t, float64(optimizer.Evaluations()), site.Fitness, "fittest scout is kept")
	}
}

func TestLocalSearchWithoutRecruits(t *testing.T) {
	lower, upper := box(2, -10, 10)
	optimizer := newTestOptimizer(t, DefaultConfig(counter(1), lower, upper))

	before := optimizer.sites[7].Clone()
	evaluations := optimizer.Evaluations()

	outcome, recruits, err := optimizer.localSearch(7, 0)
	require.NoError(t, err)
	assert.Equal(t, outcomeIdle, outcome)
	assert.Nil(t, recruits)
	assert.Equal(t, before, optimizer.sites[7])
	assert.Equal(t, evaluations, optimizer.Evaluations())
}

func TestSamplePositionZeroPatch(t *testing.T) {
	space, err := NewSearchSpace([]float64{-5, -5, 0}, []float64{5, 5, 1})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	centre := []float64{1.25, -4.5, 0.5}
	for i := 0; i < 200; i++ {
		p := samplePosition(rng, space, centre, []float64{0, 1, 0.1})
		assert.Equal(t, 1.25, p[0], "zero patch pins the coordinate")
		assert.True(t, space.Contains(p))
		assert.InDelta(t, 0.5, p[2], 0.05+1e-12)
	}
}

func TestSamplePositionClamps(t *testing.T) {
	space, err := NewSearchSpace([]float64{0}, []float64{1})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(8))
	low, high := 0, 0
	for i := 0; i < 500; i++ {
		p := samplePosition(rng, space, []float64{1}, []float64{1})
		require.True(t, space.Contains(p))
		switch p[0] {
		case 1:
			high++
		case 0:
			low++
		}
	}
	assert.Greater(t, high, 0, "offsets past the edge are clamped onto it")
	assert.Zero(t, low)
}

func TestFittest(t *testing.T) {
	assert.Equal(t, -1, fittest(nil))

	candidates := []Candidate{{Fitness: 1}, {Fitness: 3}, {Fitness: 3}, {Fitness: -2}}
	assert.Equal(t, 1, fittest(candidates), "ties keep the first encountered")
}

func TestSortSitesIsStable(t *testing.T) {
	sites := []Site{
		{Candidate: Candidate{Fitness: 1, Position: []float64{0}}},
		{Candidate: Candidate{Fitness: 2, Position: []float64{1}}},
		{Candidate: Candidate{Fitness: 1, Position: []float64{2}}},
		{Candidate: Candidate{Fitness: 2, Position: []float64{3}}},
	}
	sortSites(sites)

	var order []float64
	for _, s := range sites {
		order = append(order, s.Position[0])
	}
	assert.Equal(t, []float64{1, 3, 0, 2}, order)
}

func TestSiteShrinkDoesNotAlias(t *testing.T) {
	shared := []float64{1, 0.5}
	site := Site{Candidate: Candidate{PatchSize: shared}}
	site.shrink(0.5)

	assert.Equal(t, []float64{0.5, 0.25}, site.PatchSize)
	assert.Equal(t, []float64{1, 0.5}, shared)
	assert.Equal(t, 1, site.ShrinkTimes)
}
