// Package experiment measures the bees optimizer on benchmark functions by
// repeating independent seeded runs and summarising fitness and iteration
// counts.
package experiment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/heng-zhai/MSc-project/internal/optimization"
	"github.com/heng-zhai/MSc-project/internal/optimization/bees"
	"github.com/heng-zhai/MSc-project/internal/optimization/benchmarks"
	"github.com/heng-zhai/MSc-project/internal/optimization/memo"
)

// Params are the tuned algorithm parameters of a case.
type Params struct {
	Scouts          int `json:"ns" yaml:"ns"`
	BestSites       int `json:"nb" yaml:"nb"`
	Recruiters      int `json:"nr" yaml:"nr"`
	StagnationLimit int `json:"stlim" yaml:"stlim"`
}

// Case is one benchmark function with its search box and parameters. The
// optimizer maximises the opposite of the function, so Optimum is the known
// maximum of the negated function.
type Case struct {
	Name     string
	Function benchmarks.Function
	Lower    []float64
	Upper    []float64
	Params   Params
	Optimum  float64
}

// Suite is an ordered list of cases.
type Suite []Case

// Runner repeats independent runs of a case.
type Runner struct {
	// Runs is the number of independent runs per case.
	Runs int
	// MaxIterations caps every run.
	MaxIterations int
	// Tolerance is subtracted from the case optimum to form the target
	// fitness of a run.
	Tolerance float64
	// Seed of run i is Seed+i.
	Seed int64
	// Workers bounds the number of concurrent runs. 0 or less means one.
	Workers int
	// ShrinkFactor and Recruitment are passed to every run.
	ShrinkFactor float64
	Recruitment  bees.RecruitmentPolicy
	// CacheSize enables a per run evaluation cache when positive.
	CacheSize int
	// Logger receives progress. Nil discards it.
	Logger *zap.Logger
	// Observer, when set, returns the observer of one run of a case.
	Observer func(c Case, run int) bees.Observer
}

// DefaultRunner returns the runner of the published experiment: 50 runs of at
// most 5000 generations, stopping 0.001 short of the optimum.
func DefaultRunner() Runner {
	return Runner{
		Runs:          50,
		MaxIterations: 5000,
		Tolerance:     0.001,
		Seed:          1,
		Workers:       1,
		ShrinkFactor:  bees.DefaultShrinkFactor,
		Recruitment:   bees.TournamentRecruitment,
	}
}

// RunResult is the outcome of one run.
type RunResult struct {
	Run        int     `json:"run"`
	Seed       int64   `json:"seed"`
	Iterations int     `json:"iterations"`
	Fitness    float64 `json:"fitness"`
	Reached    bool    `json:"reached"`
	CacheHits  int64   `json:"cache_hits,omitempty"`
}

// Summary aggregates the runs of a case. Standard deviations are population
// standard deviations.
type Summary struct {
	Name          string      `json:"name"`
	Params        Params      `json:"params"`
	AvgFitness    float64     `json:"af"`
	SdFitness     float64     `json:"sdf"`
	AvgIterations float64     `json:"ai"`
	SdIterations  float64     `json:"sdi"`
	Runs          []RunResult `json:"runs"`
}

// Run executes the runs of c and summarises them. The first failing run
// cancels the others.
func (r Runner) Run(ctx context.Context, c Case) (Summary, error) {
	if r.Runs < 1 {
		return Summary{}, optimization.InvalidConfigurationf("the number of runs must be positive, got %d", r.Runs).
			WithComponent("experiment").
			WithOperation("Runner.Run")
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("experiment").With(zap.String("case", c.Name))

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	start := time.Now()
	results := make([]RunResult, r.Runs)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < r.Runs; i++ {
		g.Go(func() error {
			res, err := r.runOnce(ctx, c, i)
			if err != nil {
				return fmt.Errorf("%s run %d: %w", c.Name, i, err)
			}
			results[i] = res
			if i%5 == 0 {
				logger.Info("Run finished",
					zap.Int("run", i),
					zap.Int("iterations", res.Iterations),
					zap.Float64("fitness", res.Fitness),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := summarise(c, results)
	logger.Info("Case finished",
		zap.Float64("af", summary.AvgFitness),
		zap.Float64("sdf", summary.SdFitness),
		zap.Float64("ai", summary.AvgIterations),
		zap.Float64("sdi", summary.SdIterations),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}

// RunSuite runs every case in order.
func (r Runner) RunSuite(ctx context.Context, suite Suite) ([]Summary, error) {
	out := make([]Summary, 0, len(suite))
	for _, c := range suite {
		s, err := r.Run(ctx, c)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r Runner) runOnce(ctx context.Context, c Case, run int) (RunResult, error) {
	seed := r.Seed + int64(run)

	objective, cache, err := memo.Wrap(benchmarks.Objective(c.Function, true), r.CacheSize)
	if err != nil {
		return RunResult{}, err
	}

	cfg := bees.DefaultConfig(objective, c.Lower, c.Upper)
	cfg.Scouts = c.Params.Scouts
	cfg.BestSites = c.Params.BestSites
	cfg.Recruiters = c.Params.Recruiters
	cfg.StagnationLimit = c.Params.StagnationLimit
	cfg.ShrinkFactor = r.ShrinkFactor
	cfg.Recruitment = r.Recruitment

	opts := []bees.Option{bees.WithSeed(seed)}
	if r.Observer != nil {
		opts = append(opts, bees.WithObserver(r.Observer(c, run)))
	}
	optimizer, err := bees.New(cfg, opts...)
	if err != nil {
		return RunResult{}, err
	}

	criteria := optimization.StopAfter(r.MaxIterations).WithTargetFitness(c.Optimum - r.Tolerance)
	result, err := optimizer.Run(ctx, criteria)
	if err != nil {
		return RunResult{}, err
	}

	res := RunResult{
		Run:        run,
		Seed:       seed,
		Iterations: result.Iterations,
		Fitness:    result.BestFitness,
		Reached:    result.TargetReached,
	}
	if cache != nil {
		res.CacheHits = cache.Stats().Hits
	}
	return res, nil
}

func summarise(c Case, results []RunResult) Summary {
	fitness := make([]float64, len(results))
	iterations := make([]float64, len(results))
	for i, r := range results {
		fitness[i] = r.Fitness
		iterations[i] = float64(r.Iterations)
	}

	s := Summary{Name: c.Name, Params: c.Params, Runs: results}
	s.AvgFitness, s.SdFitness = stat.PopMeanStdDev(fitness, nil)
	s.AvgIterations, s.SdIterations = stat.PopMeanStdDev(iterations, nil)
	return s
}
