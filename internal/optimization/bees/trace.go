package bees

// GenerationTrace captures what one generation looked at, for visualisers
// that step the optimizer and draw the swarm between generations.
type GenerationTrace struct {
	// Generation is the 1-based number of the traced generation.
	Generation int
	// BestSites is the site pool as it was before the generation ran.
	BestSites []Candidate
	// Recruits holds the recruits evaluated for each site, indexed like
	// BestSites. Abandoned and idle sites have no entry.
	Recruits [][]Candidate
}

// GenerationStats summarises a completed generation.
type GenerationStats struct {
	Generation  int
	BestFitness float64
	// Evaluations is the cumulative number of objective calls, including the
	// initial scouts.
	Evaluations int
	Improved    int
	Shrunk      int
	Abandoned   int
	Idle        int
}

// Observer receives the statistics of every completed generation.
type Observer func(GenerationStats)

func (t *GenerationTrace) clone() *GenerationTrace {
	if t == nil {
		return nil
	}
	out := &GenerationTrace{
		Generation: t.Generation,
		BestSites:  make([]Candidate, len(t.BestSites)),
		Recruits:   make([][]Candidate, len(t.Recruits)),
	}
	for i, c := range t.BestSites {
		out.BestSites[i] = c.Clone()
	}
	for i, rs := range t.Recruits {
		if rs == nil {
			continue
		}
		out.Recruits[i] = make([]Candidate, len(rs))
		for j, c := range rs {
			out.Recruits[i][j] = c.Clone()
		}
	}
	return out
}
