package bees

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Site is a search focus kept across generations: the best candidate found
// around it and the number of consecutive generations it failed to improve.
type Site struct {
	Candidate
	ShrinkTimes int
}

func newSite(c Candidate) Site {
	return Site{Candidate: c.Clone()}
}

// Clone returns a deep copy of s.
func (s Site) Clone() Site {
	return Site{Candidate: s.Candidate.Clone(), ShrinkTimes: s.ShrinkTimes}
}

// shrink records a non-improving generation and contracts the patch by
// (1 - factor) on every axis.
func (s *Site) shrink(factor float64) {
	s.ShrinkTimes++
	patch := append([]float64(nil), s.PatchSize...)
	floats.Scale(1-factor, patch)
	s.PatchSize = patch
}

// sortSites orders sites by descending fitness. The sort is stable so equal
// sites keep the order they were encountered in.
func sortSites(sites []Site) {
	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].Fitness > sites[j].Fitness
	})
}

func cloneSites(sites []Site) []Site {
	out := make([]Site, len(sites))
	for i := range sites {
		out[i] = sites[i].Clone()
	}
	return out
}
