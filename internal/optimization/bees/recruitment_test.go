package bees

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolWithFitness(policy RecruitmentPolicy, recruiters int, fitness ...float64) *Optimizer {
	o := &Optimizer{
		cfg: Config{Recruiters: recruiters, Recruitment: policy},
		rng: rand.New(rand.NewSource(99)),
	}
	for _, f := range fitness {
		o.sites = append(o.sites, Site{Candidate: Candidate{Fitness: f}})
	}
	return o
}

func TestSamplePairDistinct(t *testing.T) {
	o := poolWithFitness(TournamentRecruitment, 1)
	o.rng = rand.New(rand.NewSource(5))

	seen := make(map[[2]int]int)
	for i := 0; i < 5000; i++ {
		a, b := o.samplePair(4)
		require.NotEqual(t, a, b)
		require.True(t, a >= 0 && a < 4 && b >= 0 && b < 4)
		seen[[2]int{a, b}]++
	}
	assert.Len(t, seen, 12, "every ordered pair of distinct indices is reachable")
}

func TestChooseSite(t *testing.T) {
	tests := []struct {
		name   string
		policy RecruitmentPolicy
		a, b   int
		want   int
	}{
		{name: "tournament fitter wins", policy: TournamentRecruitment, a: 0, b: 1, want: 1},
		{name: "tournament fitter wins reversed", policy: TournamentRecruitment, a: 2, b: 0, want: 2},
		{name: "tournament tie goes to lower index", policy: TournamentRecruitment, a: 3, b: 1, want: 1},
		{name: "legacy lower index wins", policy: LegacyRecruitment, a: 0, b: 1, want: 0},
		{name: "legacy lower index wins reversed", policy: LegacyRecruitment, a: 2, b: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := poolWithFitness(tt.policy, 1, 1, 5, 3, 5)
			assert.Equal(t, tt.want, o.chooseSite(tt.a, tt.b))
		})
	}
}

func TestTournamentAllocation(t *testing.T) {
	o := poolWithFitness(TournamentRecruitment, 80, 9, 7, 5, 3, 1)

	counts := o.allocateRecruits()
	require.Len(t, counts, 5)

	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 80, total)
	assert.Zero(t, counts[4], "the worst site never wins a tournament")
	assert.Greater(t, counts[0], counts[3], "fitter sites attract more recruits")
}

func TestLegacyAllocation(t *testing.T) {
	o := poolWithFitness(LegacyRecruitment, 80, 9, 7, 5, 3, 1)

	counts := o.allocateRecruits()
	require.Len(t, counts, 5)
	for _, c := range counts {
		assert.GreaterOrEqual(t, c, 1)
	}
	assert.Equal(t, counts[3], counts[4], "the last site never wins and inherits its neighbour's count")
}

func TestLegacyCounts(t *testing.T) {
	tests := []struct {
		name      string
		followers []int
		want      []int
	}{
		{name: "all followed", followers: []int{4, 3, 2, 1}, want: []int{4, 3, 2, 1}},
		{name: "first site unfollowed", followers: []int{0, 3, 2}, want: []int{1, 3, 2}},
		{name: "gap inherits previous", followers: []int{5, 0, 0, 2, 0}, want: []int{5, 5, 5, 2, 2}},
		{name: "nobody followed", followers: []int{0, 0}, want: []int{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, legacyCounts(tt.followers))
		})
	}
}

func TestParseRecruitmentPolicy(t *testing.T) {
	for _, p := range []RecruitmentPolicy{TournamentRecruitment, LegacyRecruitment} {
		parsed, err := ParseRecruitmentPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	parsed, err := ParseRecruitmentPolicy("")
	require.NoError(t, err)
	assert.Equal(t, TournamentRecruitment, parsed)

	_, err = ParseRecruitmentPolicy("roulette")
	assert.Error(t, err)
	assert.Equal(t, "RecruitmentPolicy(9)", RecruitmentPolicy(9).String())
}
