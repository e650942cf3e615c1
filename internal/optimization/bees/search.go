package bees

// searchOutcome is what the local search did to a site.
type searchOutcome int

const (
	outcomeIdle searchOutcome = iota
	outcomeImproved
	outcomeShrunk
	outcomeAbandoned
)

func (s searchOutcome) String() string {
	switch s {
	case outcomeImproved:
		return "improved"
	case outcomeShrunk:
		return "shrunk"
	case outcomeAbandoned:
		return "abandoned"
	default:
		return "idle"
	}
}

// localSearch updates the site at index using k recruits. It returns the
// recruits it evaluated so a trace can record them.
//
// A site that reached the stagnation limit is replaced by the fittest of k
// fresh scouts (at least one). Otherwise the fittest recruit replaces the
// site only when strictly better; if not, the site's patch shrinks.
func (o *Optimizer) localSearch(index, k int) (searchOutcome, []Candidate, error) {
	site := &o.sites[index]

	if site.ShrinkTimes == o.cfg.StagnationLimit {
		scouts, err := o.generateScouts(max(k, 1))
		if err != nil {
			return outcomeIdle, nil, err
		}
		o.sites[index] = newSite(scouts[fittest(scouts)])
		return outcomeAbandoned, nil, nil
	}

	if k == 0 {
		return outcomeIdle, nil, nil
	}

	recruits := make([]Candidate, 0, k)
	for i := 0; i < k; i++ {
		recruit, err := o.generateRecruit(site.Candidate)
		if err != nil {
			return outcomeIdle, nil, err
		}
		recruits = append(recruits, recruit)
	}

	best := recruits[fittest(recruits)]
	if best.Fitness > site.Fitness {
		o.sites[index] = newSite(best)
		return outcomeImproved, recruits, nil
	}

	site.shrink(o.cfg.ShrinkFactor)
	return outcomeShrunk, recruits, nil
}
