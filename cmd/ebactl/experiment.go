package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heng-zhai/MSc-project/internal/experiment"
	"github.com/heng-zhai/MSc-project/internal/optimization/bees"
)

type experimentOptions struct {
	runs        int
	iters       int
	tolerance   float64
	seed        int64
	workers     int
	cache       int
	shrink      float64
	recruitment string
	robustness  bool
	functions   []string
	out         string
}

func newExperimentCmd(a *app) *cobra.Command {
	defaults := experiment.DefaultRunner()
	opts := &experimentOptions{}

	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Repeat runs over the benchmark suite and write a CSV summary",
		Long: `Runs every benchmark of the suite --runs times and writes one CSV row
per function with the mean and standard deviation of the final value and of
the number of generations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExperiment(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.runs, "runs", defaults.Runs, "Independent runs per function")
	cmd.Flags().IntVar(&opts.iters, "iters", defaults.MaxIterations, "Max generations per run")
	cmd.Flags().Float64Var(&opts.tolerance, "tolerance", defaults.Tolerance, "Distance from the optimum that ends a run")
	cmd.Flags().Int64Var(&opts.seed, "seed", defaults.Seed, "Seed of the first run")
	cmd.Flags().IntVar(&opts.workers, "workers", defaults.Workers, "Concurrent runs")
	cmd.Flags().IntVar(&opts.cache, "cache", 0, "Per run evaluation cache size (0 disables)")
	cmd.Flags().Float64Var(&opts.shrink, "sf", defaults.ShrinkFactor, "Neighbourhood shrink factor")
	cmd.Flags().StringVar(&opts.recruitment, "recruitment", defaults.Recruitment.String(), "Recruitment policy: tournament, legacy")
	cmd.Flags().BoolVar(&opts.robustness, "robustness", false, "Use one parameter set for every function")
	cmd.Flags().StringSliceVar(&opts.functions, "functions", nil, "Only run these functions")
	cmd.Flags().StringVar(&opts.out, "out", "", "CSV output path (default stdout)")
	return cmd
}

func (a *app) runExperiment(cmd *cobra.Command, opts *experimentOptions) error {
	suite, err := experiment.DefaultSuite(a.catalog)
	if err != nil {
		return err
	}
	if opts.robustness {
		suite = suite.WithParams(experiment.RobustnessParams)
	}
	if suite, err = filterSuite(suite, opts.functions); err != nil {
		return err
	}

	runner := experiment.DefaultRunner()
	runner.Runs = opts.runs
	runner.MaxIterations = opts.iters
	runner.Tolerance = opts.tolerance
	runner.Seed = opts.seed
	runner.Workers = opts.workers
	runner.CacheSize = opts.cache
	runner.ShrinkFactor = opts.shrink
	runner.Logger = a.zap
	if runner.Recruitment, err = bees.ParseRecruitmentPolicy(opts.recruitment); err != nil {
		return err
	}

	summaries, err := runner.RunSuite(cmd.Context(), suite)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := experiment.WriteCSV(out, summaries); err != nil {
		return err
	}

	a.logger.Info("Experiment finished", map[string]interface{}{
		"cases":  len(summaries),
		"runs":   opts.runs,
		"output": opts.out,
	})
	return nil
}

// filterSuite keeps the cases whose function matches one of names,
// case-insensitively. An empty list keeps everything.
func filterSuite(suite experiment.Suite, names []string) (experiment.Suite, error) {
	if len(names) == 0 {
		return suite, nil
	}
	var out experiment.Suite
	for _, name := range names {
		found := false
		for _, c := range suite {
			if strings.EqualFold(c.Function.Name(), strings.TrimSpace(name)) {
				out = append(out, c)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("no benchmark named %q in the suite", name)
		}
	}
	return out, nil
}
