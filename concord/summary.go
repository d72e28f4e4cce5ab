package main

import (
	"github.com/khaled-space/concord-khldl/fit"
	"github.com/khaled-space/concord-khldl/optimize"
)

// ParameterSummary stores the posterior summary of one parameter.
type ParameterSummary struct {
	// Name is the parameter name.
	Name string `json:"name"`
	// Mean is the posterior chain mean.
	Mean float64 `json:"mean"`
	// Interval is the credible interval around the mean; Bounded
	// is false for an unconstrained parameter.
	Interval optimize.Interval `json:"interval"`
}

// RunSummary stores the run summary information.
type RunSummary struct {
	// Version stores the concord version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// Source is the burst source name from the run spec.
	Source string `json:"source"`
	// Optimizer is the optimizer run summary.
	Optimizer optimize.Summary `json:"optimizer"`
	// Posterior stores per-parameter chain statistics; only
	// present for sampling methods.
	Posterior []ParameterSummary `json:"posterior,omitempty"`
	// Covariance is the posterior covariance matrix in parameter
	// order; only present for sampling methods.
	Covariance [][]float64 `json:"covariance,omitempty"`
	// Breakdown stores the per-epoch chi-square terms at the
	// maximum.
	Breakdown []fit.EpochChi2 `json:"breakdown,omitempty"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`
}

// intervalLevel is the 1 sigma credible level.
const intervalLevel = 0.6827

// posteriorSummary extracts the per-parameter statistics from the
// recorded chain.
func posteriorSummary(samples *optimize.Samples) ([]ParameterSummary, [][]float64) {
	if samples == nil || samples.N() == 0 {
		return nil, nil
	}
	names := samples.Names()
	mean := samples.Mean()
	out := make([]ParameterSummary, len(names))
	for i, name := range names {
		out[i] = ParameterSummary{
			Name:     name,
			Mean:     mean[i],
			Interval: samples.Interval(i, intervalLevel),
		}
	}
	cov := samples.Covariance()
	if cov == nil {
		return out, nil
	}
	c := make([][]float64, len(names))
	for i := range c {
		c[i] = make([]float64, len(names))
		for j := range c[i] {
			c[i][j] = cov.At(i, j)
		}
	}
	return out, c
}
