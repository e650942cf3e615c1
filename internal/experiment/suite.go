package experiment

import (
	"fmt"

	"github.com/heng-zhai/MSc-project/internal/optimization/benchmarks"
)

// Tuned parameters of the published experiment.
var (
	AckleyParams         = Params{Scouts: 30, BestSites: 8, Recruiters: 80, StagnationLimit: 5}
	SchafferParams       = Params{Scouts: 40, BestSites: 5, Recruiters: 100, StagnationLimit: 10}
	SchwefelParams       = Params{Scouts: 35, BestSites: 8, Recruiters: 80, StagnationLimit: 10}
	EasomParams          = Params{Scouts: 35, BestSites: 8, Recruiters: 80, StagnationLimit: 10}
	GoldsteinPriceParams = Params{Scouts: 35, BestSites: 10, Recruiters: 80, StagnationLimit: 10}
	RastriginParams      = Params{Scouts: 30, BestSites: 10, Recruiters: 80, StagnationLimit: 5}
	HypersphereParams    = Params{Scouts: 35, BestSites: 10, Recruiters: 80, StagnationLimit: 10}
	MartinGaddyParams    = Params{Scouts: 30, BestSites: 8, Recruiters: 100, StagnationLimit: 10}

	// RobustnessParams is the single parameter set used to compare functions
	// without per function tuning.
	RobustnessParams = Params{Scouts: 35, BestSites: 8, Recruiters: 80, StagnationLimit: 10}
)

// NewCase builds the case of the named function on dims dimensions, taking
// the search box and optimum from catalog.
func NewCase(catalog *benchmarks.Catalog, name string, dims int, params Params) (Case, error) {
	fn, err := benchmarks.New(name, dims)
	if err != nil {
		return Case{}, err
	}
	lower, upper, err := catalog.SuggestedBounds(fn.Name(), dims)
	if err != nil {
		return Case{}, err
	}
	optimum, err := catalog.Maximum(fn, true)
	if err != nil {
		return Case{}, err
	}
	return Case{
		Name:     fmt.Sprintf("%s(%dD)", fn.Name(), dims),
		Function: fn,
		Lower:    lower,
		Upper:    upper,
		Params:   params,
		Optimum:  optimum.Value,
	}, nil
}

// DefaultSuite returns the eight cases of the published experiment.
func DefaultSuite(catalog *benchmarks.Catalog) (Suite, error) {
	specs := []struct {
		name   string
		dims   int
		params Params
	}{
		{"Ackley", 10, AckleyParams},
		{"Schaffer", 2, SchafferParams},
		{"Schwefel", 2, SchwefelParams},
		{"Easom", 2, EasomParams},
		{"GoldsteinPrice", 2, GoldsteinPriceParams},
		{"Rastrigin", 10, RastriginParams},
		{"Hypersphere", 10, HypersphereParams},
		{"MartinGaddy", 2, MartinGaddyParams},
	}

	suite := make(Suite, 0, len(specs))
	for _, s := range specs {
		c, err := NewCase(catalog, s.name, s.dims, s.params)
		if err != nil {
			return nil, err
		}
		suite = append(suite, c)
	}
	return suite, nil
}

// WithParams returns a copy of s where every case uses params.
func (s Suite) WithParams(params Params) Suite {
	out := make(Suite, len(s))
	for i, c := range s {
		c.Params = params
		out[i] = c
	}
	return out
}
