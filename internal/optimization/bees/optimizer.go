// Package bees implements the Enhanced Bees Algorithm, a population based
// metaheuristic for bounded continuous optimization.
//
// A fixed number of sites is exploited each generation. Recruiters are split
// across sites through a pairwise tournament (the waggle dance), recruits are
// sampled in a neighbourhood that shrinks while a site stagnates, and a site
// that stagnates for too long is abandoned for a fresh scout. Fitness is
// maximised; minimisation problems negate their objective.
//
// An Optimizer is not safe for concurrent use.
package bees

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/heng-zhai/MSc-project/internal/optimization"
)

const component = "bees"

// Default parameters of the algorithm.
const (
	DefaultScouts          = 35
	DefaultBestSites       = 8
	DefaultRecruiters      = 80
	DefaultShrinkFactor    = 0.2
	DefaultStagnationLimit = 10
)

// Config contains the problem and the algorithm parameters.
type Config struct {
	// Objective is maximised over the box. It must not retain or modify the
	// slice it is given.
	Objective optimization.ObjectiveFunction

	// Bounds of the search box, one entry per dimension.
	LowerBounds []float64
	UpperBounds []float64

	// NeighborhoodScale is the patch size given to every new scout.
	// Nil means 1.0 on every axis.
	NeighborhoodScale []float64

	// Scouts (ns) is the size of the pool before truncation.
	Scouts int

	// BestSites (nb) is the number of sites kept between generations.
	BestSites int

	// Recruiters (nr) is the number of recruiter draws per generation.
	Recruiters int

	// ShrinkFactor (sf) contracts a stagnant site's patch by (1 - sf).
	ShrinkFactor float64

	// StagnationLimit (stlim) is the number of consecutive non-improving
	// generations after which a site is abandoned.
	StagnationLimit int

	// Recruitment selects the waggle dance policy.
	Recruitment RecruitmentPolicy
}

// DefaultConfig returns a configuration with the default parameters.
func DefaultConfig(objective optimization.ObjectiveFunction, lower, upper []float64) Config {
	return Config{
		Objective:       objective,
		LowerBounds:     lower,
		UpperBounds:     upper,
		Scouts:          DefaultScouts,
		BestSites:       DefaultBestSites,
		Recruiters:      DefaultRecruiters,
		ShrinkFactor:    DefaultShrinkFactor,
		StagnationLimit: DefaultStagnationLimit,
		Recruitment:     TournamentRecruitment,
	}
}

// Option customises an Optimizer.
type Option func(*Optimizer)

// WithSeed seeds the optimizer's random source.
func WithSeed(seed int64) Option {
	return func(o *Optimizer) {
		o.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand injects the random source. The optimizer takes ownership of it.
func WithRand(rng *rand.Rand) Option {
	return func(o *Optimizer) {
		o.rng = rng
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger.Named(component)
		}
	}
}

// WithTrace records a GenerationTrace for every generation.
func WithTrace() Option {
	return func(o *Optimizer) {
		o.keepTrace = true
	}
}

// WithObserver registers a callback run after every generation.
func WithObserver(observer Observer) Option {
	return func(o *Optimizer) {
		o.observer = observer
	}
}

// Optimizer runs the Enhanced Bees Algorithm.
type Optimizer struct {
	cfg          Config
	space        SearchSpace
	neighborhood []float64

	rng      *rand.Rand
	logger   *zap.Logger
	observer Observer

	// Site pool, sorted by descending fitness between generations.
	sites []Site

	best   Candidate
	record []float64

	generation  int
	evaluations int

	keepTrace bool
	trace     *GenerationTrace

	// err is the objective failure that aborted a generation. The site pool
	// may be partially updated, so no further generation is run.
	err error
}

var _ optimization.Optimizer = (*Optimizer)(nil)

// New validates cfg, scatters the initial scouts and keeps the best sites.
func New(cfg Config, opts ...Option) (*Optimizer, error) {
	const op = "New"

	space, err := validate(cfg)
	if err != nil {
		return nil, err.WithOperation(op).WithComponent(component)
	}

	neighborhood := cfg.NeighborhoodScale
	if neighborhood == nil {
		neighborhood = make([]float64, space.Dimensions())
		for i := range neighborhood {
			neighborhood[i] = 1.0
		}
	}

	o := &Optimizer{
		cfg:          cfg,
		space:        space,
		neighborhood: append([]float64(nil), neighborhood...),
		logger:       zap.NewNop(),
		record:       make([]float64, 0, 64),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if err := o.initialise(); err != nil {
		return nil, err
	}
	return o, nil
}

func validate(cfg Config) (SearchSpace, *optimization.Error) {
	if cfg.Objective == nil {
		return SearchSpace{}, optimization.InvalidConfigurationf("objective function is required")
	}

	space, err := NewSearchSpace(cfg.LowerBounds, cfg.UpperBounds)
	if err != nil {
		e, _ := optimization.IsOptimizationError(err)
		return SearchSpace{}, e
	}

	switch {
	case cfg.BestSites < 2:
		return SearchSpace{}, optimization.InvalidConfigurationf(
			"the number of best sites should be greater than or equal to 2, got %d", cfg.BestSites)
	case cfg.Scouts < cfg.BestSites:
		return SearchSpace{}, optimization.InvalidConfigurationf(
			"the number of scouts (%d) must not be less than the number of best sites (%d)", cfg.Scouts, cfg.BestSites)
	case cfg.Recruiters < 1:
		return SearchSpace{}, optimization.InvalidConfigurationf(
			"the number of recruiters must be positive, got %d", cfg.Recruiters)
	case cfg.StagnationLimit < 1:
		return SearchSpace{}, optimization.InvalidConfigurationf(
			"the stagnation limit must be positive, got %d", cfg.StagnationLimit)
	case math.IsNaN(cfg.ShrinkFactor) || cfg.ShrinkFactor < 0 || cfg.ShrinkFactor > 1:
		return SearchSpace{}, optimization.InvalidConfigurationf(
			"the shrink factor should be within [0, 1], got %v", cfg.ShrinkFactor)
	case cfg.Recruitment != TournamentRecruitment && cfg.Recruitment != LegacyRecruitment:
		return SearchSpace{}, optimization.InvalidConfigurationf("unknown recruitment policy %v", cfg.Recruitment)
	}

	if cfg.NeighborhoodScale != nil {
		if len(cfg.NeighborhoodScale) != space.Dimensions() {
			return SearchSpace{}, optimization.InvalidConfigurationf(
				"neighborhood scale has %d entries, expected %d", len(cfg.NeighborhoodScale), space.Dimensions())
		}
		for i, v := range cfg.NeighborhoodScale {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return SearchSpace{}, optimization.InvalidConfigurationf(
					"neighborhood scale of dimension %d must be a finite non-negative number, got %v", i, v)
			}
		}
	}

	return space, nil
}

func (o *Optimizer) initialise() error {
	scouts, err := o.generateScouts(o.cfg.Scouts)
	if err != nil {
		return err
	}

	o.sites = make([]Site, len(scouts))
	for i, s := range scouts {
		o.sites[i] = Site{Candidate: s}
	}
	sortSites(o.sites)
	o.sites = o.sites[:o.cfg.BestSites]
	o.best = o.sites[0].Candidate.Clone()

	o.logger.Debug("Initialised site pool",
		zap.Int("dimensions", o.space.Dimensions()),
		zap.Int("scouts", o.cfg.Scouts),
		zap.Int("best_sites", o.cfg.BestSites),
		zap.Stringer("recruitment", o.cfg.Recruitment),
		zap.Float64("best_fitness", o.best.Fitness),
	)
	return nil
}

// Step runs one generation: recruitment, local search on every site, scout
// replenishment, truncation to the best sites and the global best update.
func (o *Optimizer) Step(ctx context.Context) error {
	const op = "Optimizer.Step"

	if o.err != nil {
		return o.err
	}
	if err := ctx.Err(); err != nil {
		return optimization.WrapError(err, "optimization cancelled").
			WithKind(optimization.KindCancelled).
			WithOperation(op).
			WithComponent(component)
	}

	stats := GenerationStats{Generation: o.generation + 1}

	var trace *GenerationTrace
	if o.keepTrace {
		trace = &GenerationTrace{
			Generation: stats.Generation,
			BestSites:  make([]Candidate, len(o.sites)),
			Recruits:   make([][]Candidate, len(o.sites)),
		}
		for i := range o.sites {
			trace.BestSites[i] = o.sites[i].Candidate.Clone()
		}
	}

	counts := o.allocateRecruits()
	for i, k := range counts {
		outcome, recruits, err := o.localSearch(i, k)
		if err != nil {
			return o.fail(err, op)
		}
		switch outcome {
		case outcomeImproved:
			stats.Improved++
		case outcomeShrunk:
			stats.Shrunk++
		case outcomeAbandoned:
			stats.Abandoned++
		default:
			stats.Idle++
		}
		if trace != nil {
			trace.Recruits[i] = recruits
		}
	}

	scouts, err := o.generateScouts(o.cfg.Scouts - o.cfg.BestSites)
	if err != nil {
		return o.fail(err, op)
	}
	for _, s := range scouts {
		o.sites = append(o.sites, Site{Candidate: s})
	}
	sortSites(o.sites)
	o.sites = o.sites[:o.cfg.BestSites:o.cfg.BestSites]

	if o.sites[0].Fitness > o.best.Fitness {
		o.best = o.sites[0].Candidate.Clone()
	}
	o.record = append(o.record, o.best.Fitness)
	o.generation++
	o.trace = trace

	stats.BestFitness = o.best.Fitness
	stats.Evaluations = o.evaluations

	o.logger.Debug("Generation completed",
		zap.Int("generation", stats.Generation),
		zap.Float64("best_fitness", stats.BestFitness),
		zap.Int("evaluations", stats.Evaluations),
		zap.Int("improved", stats.Improved),
		zap.Int("shrunk", stats.Shrunk),
		zap.Int("abandoned", stats.Abandoned),
	)

	if o.observer != nil {
		o.observer(stats)
	}
	return nil
}

func (o *Optimizer) fail(err error, op string) error {
	o.logger.Warn("Generation aborted",
		zap.String("op", op),
		zap.Int("generation", o.generation+1),
		zap.Error(err),
	)
	o.err = err
	return err
}

// Run executes generations until either stopping condition trips and
// reports the number of generations it ran together with the best fitness.
func (o *Optimizer) Run(ctx context.Context, criteria optimization.StoppingCriteria) (*optimization.Result, error) {
	const op = "Optimizer.Run"

	if err := criteria.Validate(); err != nil {
		if e, ok := optimization.IsOptimizationError(err); ok {
			e.WithComponent(component)
		}
		return nil, err
	}
	if o.err != nil {
		return nil, o.err
	}

	start := time.Now()
	iterations := 0
	for !criteria.Done(iterations, o.best.Fitness) {
		if err := o.Step(ctx); err != nil {
			return nil, err
		}
		iterations++
	}

	result := &optimization.Result{
		Iterations:    iterations,
		BestFitness:   o.best.Fitness,
		BestSolution:  o.best.Solution(),
		Record:        o.ConvergenceRecord(),
		TargetReached: criteria.TargetFitness != nil && o.best.Fitness >= *criteria.TargetFitness,
	}

	o.logger.Info("Optimization finished",
		zap.String("op", op),
		zap.Int("iterations", result.Iterations),
		zap.Float64("best_fitness", result.BestFitness),
		zap.Bool("target_reached", result.TargetReached),
		zap.Int("evaluations", o.evaluations),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// BestSolution returns a copy of the best solution ever observed.
func (o *Optimizer) BestSolution() optimization.Solution {
	return o.best.Solution()
}

// Best returns a copy of the best candidate ever observed.
func (o *Optimizer) Best() Candidate {
	return o.best.Clone()
}

// ConvergenceRecord returns a copy of the best fitness after each generation.
func (o *Optimizer) ConvergenceRecord() []float64 {
	return append([]float64(nil), o.record...)
}

// Sites returns a copy of the current site pool, best first.
func (o *Optimizer) Sites() []Site {
	return cloneSites(o.sites)
}

// Generation returns the number of completed generations.
func (o *Optimizer) Generation() int {
	return o.generation
}

// Evaluations returns the number of objective calls made so far.
func (o *Optimizer) Evaluations() int {
	return o.evaluations
}

// Space returns the search box.
func (o *Optimizer) Space() SearchSpace {
	return o.space
}

// LastTrace returns a copy of the trace of the latest generation, or nil when
// tracing is off or no generation has run.
func (o *Optimizer) LastTrace() *GenerationTrace {
	return o.trace.clone()
}
