package bees

import (
	"math"
	"math/rand"

	"github.com/heng-zhai/MSc-project/internal/optimization"
)

// Candidate is an evaluated point of the search space together with the
// neighbourhood it spawns recruits in.
//
// PatchSize holds one non-negative scale factor per dimension, relative to
// half the box width. A zero component pins recruits to the parent's
// coordinate on that axis.
type Candidate struct {
	Position  []float64
	Fitness   float64
	PatchSize []float64
}

// Clone returns a deep copy of c.
func (c Candidate) Clone() Candidate {
	return Candidate{
		Position:  append([]float64(nil), c.Position...),
		Fitness:   c.Fitness,
		PatchSize: append([]float64(nil), c.PatchSize...),
	}
}

// Solution converts c into the shared solution type.
func (c Candidate) Solution() optimization.Solution {
	return optimization.Solution{
		Parameters: append([]float64(nil), c.Position...),
		Value:      c.Fitness,
	}
}

// samplePosition draws a point around centre. Each coordinate is offset by
// U[-half, half] scaled by scale[i] and clamped into the box.
func samplePosition(rng *rand.Rand, space SearchSpace, centre, scale []float64) []float64 {
	position := make([]float64, space.Dimensions())
	for i := range position {
		half := space.HalfWidth(i)
		offset := -half + 2*half*rng.Float64()
		position[i] = space.Clamp(i, offset*scale[i]+centre[i])
	}
	return position
}

// fittest returns the index of the candidate with the highest fitness.
// Ties keep the first one encountered. It returns -1 for an empty slice.
func fittest(candidates []Candidate) int {
	best := -1
	for i := range candidates {
		if best < 0 || candidates[i].Fitness > candidates[best].Fitness {
			best = i
		}
	}
	return best
}

func (o *Optimizer) evaluate(position []float64) (float64, error) {
	const op = "Optimizer.evaluate"

	o.evaluations++
	value, err := o.cfg.Objective(position)
	if err != nil {
		// Never annotate err in place: objectives may return shared sentinels.
		wrapped := optimization.WrapError(err, "objective evaluation failed").
			WithOperation(op).
			WithComponent(component)
		if wrapped.Kind == optimization.KindUnknown {
			wrapped.WithKind(optimization.KindEvaluation)
		}
		return 0, wrapped
	}
	if math.IsNaN(value) {
		return 0, optimization.NewErrorf("objective returned NaN at %v", position).
			WithKind(optimization.KindEvaluation).
			WithOperation(op).
			WithComponent(component)
	}
	return value, nil
}

// generateScout samples the whole box around its midpoint. The scout carries
// the configured neighbourhood scale as its patch size.
func (o *Optimizer) generateScout() (Candidate, error) {
	d := o.space.Dimensions()
	centre := make([]float64, d)
	full := make([]float64, d)
	for i := range centre {
		centre[i] = o.space.Midpoint(i)
		full[i] = 1.0
	}

	position := samplePosition(o.rng, o.space, centre, full)
	fitness, err := o.evaluate(position)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		Position:  position,
		Fitness:   fitness,
		PatchSize: append([]float64(nil), o.neighborhood...),
	}, nil
}

// generateRecruit samples the neighbourhood of parent, scaled by the
// parent's patch size. The recruit inherits a copy of that patch size.
func (o *Optimizer) generateRecruit(parent Candidate) (Candidate, error) {
	position := samplePosition(o.rng, o.space, parent.Position, parent.PatchSize)
	fitness, err := o.evaluate(position)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		Position:  position,
		Fitness:   fitness,
		PatchSize: append([]float64(nil), parent.PatchSize...),
	}, nil
}

func (o *Optimizer) generateScouts(n int) ([]Candidate, error) {
	scouts := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		scout, err := o.generateScout()
		if err != nil {
			return nil, err
		}
		scouts = append(scouts, scout)
	}
	return scouts, nil
}
