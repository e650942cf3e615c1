package bees

import (
	"fmt"
	"strings"
)

// RecruitmentPolicy selects how the waggle dance turns recruiter draws into
// per-site recruit counts.
type RecruitmentPolicy int

const (
	// TournamentRecruitment lets every recruiter watch two distinct sites and
	// follow the fitter one; equal fitness goes to the lower index. A site
	// nobody followed receives no recruits, so the counts sum to the number
	// of recruiters.
	TournamentRecruitment RecruitmentPolicy = iota

	// LegacyRecruitment reproduces the first version of the allocator: the lower of the
	// two sampled indices wins, and a site with no followers inherits the
	// count of the closest preceding site that had some (1 for site 0).
	LegacyRecruitment
)

// String implements fmt.Stringer.
func (p RecruitmentPolicy) String() string {
	switch p {
	case TournamentRecruitment:
		return "tournament"
	case LegacyRecruitment:
		return "legacy"
	default:
		return fmt.Sprintf("RecruitmentPolicy(%d)", int(p))
	}
}

// ParseRecruitmentPolicy converts a policy name back into its value.
func ParseRecruitmentPolicy(name string) (RecruitmentPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tournament":
		return TournamentRecruitment, nil
	case "legacy":
		return LegacyRecruitment, nil
	default:
		return 0, fmt.Errorf("unknown recruitment policy %q", name)
	}
}

// samplePair draws two distinct indices from [0, n) uniformly without
// replacement. n must be at least 2.
func (o *Optimizer) samplePair(n int) (int, int) {
	a := o.rng.Intn(n)
	b := o.rng.Intn(n - 1)
	if b >= a {
		b++
	}
	return a, b
}

// allocateRecruits runs the waggle dance over the current sites and returns
// the recruit count of every site.
func (o *Optimizer) allocateRecruits() []int {
	n := len(o.sites)
	followers := make([]int, n)

	for r := 0; r < o.cfg.Recruiters; r++ {
		a, b := o.samplePair(n)
		followers[o.chooseSite(a, b)]++
	}

	if o.cfg.Recruitment == LegacyRecruitment {
		return legacyCounts(followers)
	}
	return followers
}

// legacyCounts carries the last non-zero follower count forward over sites
// nobody followed, starting from 1.
func legacyCounts(followers []int) []int {
	counts := make([]int, len(followers))
	running := 1
	for j, f := range followers {
		if f > 0 {
			running = f
		}
		counts[j] = running
	}
	return counts
}

func (o *Optimizer) chooseSite(a, b int) int {
	if o.cfg.Recruitment == LegacyRecruitment {
		return min(a, b)
	}

	fa, fb := o.sites[a].Fitness, o.sites[b].Fitness
	switch {
	case fa > fb:
		return a
	case fb > fa:
		return b
	default:
		return min(a, b)
	}
}
