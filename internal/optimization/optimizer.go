package optimization

import (
	"context"
)

// Optimizer defines the interface for population based search engines that
// advance one generation at a time.
type Optimizer interface {
	// Step advances the search by exactly one generation.
	Step(ctx context.Context) error

	// Run executes generations until one of the stopping criteria trips.
	Run(ctx context.Context, criteria StoppingCriteria) (*Result, error)

	// BestSolution returns a copy of the best solution found so far.
	BestSolution() Solution

	// ConvergenceRecord returns the best fitness after every completed generation.
	ConvergenceRecord() []float64
}

// ObjectiveFunction maps a position to a fitness value. Higher is better;
// minimisation problems negate the objective before handing it over.
type ObjectiveFunction func([]float64) (float64, error)

// Solution represents a solution in the optimization space
type Solution struct {
	Parameters []float64
	Value      float64
}

// Clone returns a copy that shares no memory with s.
func (s Solution) Clone() Solution {
	return Solution{
		Parameters: append([]float64(nil), s.Parameters...),
		Value:      s.Value,
	}
}

// StoppingCriteria holds the two composable halting conditions of a run.
// At least one of them must be set.
type StoppingCriteria struct {
	// MaxIterations caps the number of generations run.
	MaxIterations *int

	// TargetFitness stops the run once the best fitness reaches it.
	TargetFitness *float64
}

// StopAfter returns criteria that stop after n generations.
func StopAfter(n int) StoppingCriteria {
	return StoppingCriteria{MaxIterations: &n}
}

// StopAtFitness returns criteria that stop once the best fitness is >= target.
func StopAtFitness(target float64) StoppingCriteria {
	return StoppingCriteria{TargetFitness: &target}
}

// WithMaxIterations returns a copy of c with the generation cap set.
func (c StoppingCriteria) WithMaxIterations(n int) StoppingCriteria {
	c.MaxIterations = &n
	return c
}

// WithTargetFitness returns a copy of c with the fitness target set.
func (c StoppingCriteria) WithTargetFitness(target float64) StoppingCriteria {
	c.TargetFitness = &target
	return c
}

// Validate reports an InvalidConfiguration error when no condition is set or
// when the generation cap is negative.
func (c StoppingCriteria) Validate() error {
	if c.MaxIterations == nil && c.TargetFitness == nil {
		return InvalidConfigurationf("a stopping criterion is required").
			WithOperation("StoppingCriteria.Validate")
	}
	if c.MaxIterations != nil && *c.MaxIterations < 0 {
		return InvalidConfigurationf("maximum number of iterations must not be negative, got %d", *c.MaxIterations).
			WithOperation("StoppingCriteria.Validate")
	}
	return nil
}

// Done reports whether a run with the given iteration count and best fitness
// has met either condition.
func (c StoppingCriteria) Done(iterations int, bestFitness float64) bool {
	if c.MaxIterations != nil && iterations >= *c.MaxIterations {
		return true
	}
	if c.TargetFitness != nil && bestFitness >= *c.TargetFitness {
		return true
	}
	return false
}

// Result contains the result of an optimization run
type Result struct {
	// Iterations is the number of generations executed by this run.
	Iterations int
	// BestFitness is the fitness of BestSolution.
	BestFitness float64
	// BestSolution is a copy of the best solution ever observed.
	BestSolution Solution
	// Record is the best fitness after every generation of the optimizer,
	// including generations run before this call.
	Record []float64
	// TargetReached is true when the run stopped on the fitness target.
	TargetReached bool
}
