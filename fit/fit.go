// Package fit computes the likelihood of observed burst light curves
// given model bursts and system parameters (distance, inclination,
// redshift, per-epoch time shifts).
package fit

import (
	"fmt"
	"math"

	"github.com/op/go-logging"

	"github.com/khaled-space/concord-khldl/anisotropy"
	"github.com/khaled-space/concord-khldl/burst"
	"github.com/khaled-space/concord-khldl/optimize"
)

// log is the global logging variable.
var log = logging.MustGetLogger("fit")

// penaltyLnL is returned for parameter values outside the physical
// domain. It is finite so that a sampler can always compute an
// acceptance ratio and move back.
const penaltyLnL = -1e30

// Weights multiply the flux and recurrence-time residual families.
type Weights struct {
	FluxWt float64
	TdelWt float64
}

// DefaultWeights returns the standard weighting: recurrence times
// carry far fewer samples than light curves, so they are upweighted.
func DefaultWeights() Weights {
	return Weights{FluxWt: 1, TdelWt: 100}
}

// Fit pairs observed bursts with model bursts, epoch by epoch, and
// evaluates the joint log-likelihood. The observed and model data are
// treated as immutable; Lhood is safe to call from multiple
// goroutines.
type Fit struct {
	obs     []*burst.ObservedBurst
	models  []*burst.ModelBurst
	weights Weights
	disc    anisotropy.Model

	d      float64
	incl   float64
	opz    float64
	tshift []float64

	parameters optimize.FloatParameters
	as         *optimize.AdaptiveSettings
}

// New creates a Fit from paired observed and model bursts. Epoch k of
// the observations is compared against model k; the same model
// pointer may appear for several epochs.
func New(obs []*burst.ObservedBurst, models []*burst.ModelBurst, weights Weights, disc anisotropy.Model) (*Fit, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("no observed bursts")
	}
	if len(obs) != len(models) {
		return nil, fmt.Errorf("number of observed bursts (%d) does not match number of model bursts (%d)",
			len(obs), len(models))
	}
	f := &Fit{
		obs:     obs,
		models:  models,
		weights: weights,
		disc:    disc,
		tshift:  make([]float64, len(obs)),
	}
	f.SetDefaults()
	f.setupParameters()
	return f, nil
}

// NEpochs returns the number of observed epochs.
func (f *Fit) NEpochs() int {
	return len(f.obs)
}

// SetDefaults sets a generic starting point.
func (f *Fit) SetDefaults() {
	f.d = 8
	f.incl = 30
	f.opz = 1.26
	for k := range f.tshift {
		f.tshift[k] = 0
	}
}

// SetStart sets the starting point of the fit.
func (f *Fit) SetStart(d, incl, opz float64, tshift []float64) error {
	if len(tshift) != len(f.tshift) {
		return fmt.Errorf("expected %d time shifts, got %d", len(f.tshift), len(tshift))
	}
	f.d = d
	f.incl = incl
	f.opz = opz
	copy(f.tshift, tshift)
	return nil
}

// SetAdaptive enables adaptive MCMC for all parameters.
func (f *Fit) SetAdaptive(as *optimize.AdaptiveSettings) {
	f.as = as
	f.setupParameters()
}

// GetFloatParameters returns all the optimization parameters.
func (f *Fit) GetFloatParameters() optimize.FloatParameters {
	return f.parameters
}

// setupParameters first deletes all the parameters and then adds
// them. This is useful after switching to adaptive MCMC mode.
func (f *Fit) setupParameters() {
	f.parameters = nil
	var fpg optimize.FloatParameterGenerator
	if f.as != nil {
		fpg = f.as.ParameterGenerator
	} else {
		fpg = optimize.BasicFloatParameterGenerator
	}
	f.addParameters(fpg)
}

func (f *Fit) addParameters(fpg optimize.FloatParameterGenerator) {
	d := fpg(&f.d, "d")
	d.SetPriorFunc(optimize.UniformPrior(0, 50, false, false))
	d.SetProposalFunc(optimize.NormalProposal(0.1))
	d.SetMin(1e-3)
	d.SetMax(50)
	f.parameters.Append(d)

	incl := fpg(&f.incl, "i")
	incl.SetPriorFunc(optimize.UniformPrior(0, 90, true, true))
	incl.SetProposalFunc(optimize.NormalProposal(1))
	incl.SetMin(0)
	incl.SetMax(90)
	f.parameters.Append(incl)

	opz := fpg(&f.opz, "opz")
	opz.SetPriorFunc(optimize.UniformPrior(1, 2, true, true))
	opz.SetProposalFunc(optimize.NormalProposal(0.01))
	opz.SetMin(1)
	opz.SetMax(2)
	f.parameters.Append(opz)

	for k := range f.tshift {
		t := fpg(&f.tshift[k], fmt.Sprintf("t%d", k+1))
		t.SetPriorFunc(optimize.UniformPrior(-100, 100, true, true))
		t.SetProposalFunc(optimize.NormalProposal(0.5))
		t.SetMin(-100)
		t.SetMax(100)
		f.parameters.Append(t)
	}
}

// Copy returns an independent copy of the fit sharing the (immutable)
// burst data.
func (f *Fit) Copy() optimize.Optimizable {
	newF := &Fit{
		obs:     f.obs,
		models:  f.models,
		weights: f.weights,
		disc:    f.disc,
		d:       f.d,
		incl:    f.incl,
		opz:     f.opz,
		tshift:  append([]float64(nil), f.tshift...),
		as:      f.as,
	}
	newF.setupParameters()
	return newF
}

// Likelihood computes the log-likelihood at the current parameter
// values.
func (f *Fit) Likelihood() float64 {
	return f.lnL(f.d, f.incl, f.opz, f.tshift)
}

// Lhood computes the log-likelihood for a parameter vector laid out
// as (d, i, opz, t1..tN). It never mutates the fit, so concurrent
// calls with different vectors are safe. Parameter values outside the
// physical domain yield a finite penalty instead of an error.
func (f *Fit) Lhood(params []float64) float64 {
	if len(params) != 3+len(f.tshift) {
		panic(fmt.Sprintf("expected %d parameters, got %d", 3+len(f.tshift), len(params)))
	}
	return f.lnL(params[0], params[1], params[2], params[3:])
}

func (f *Fit) lnL(d, incl, opz float64, tshift []float64) float64 {
	if !valid(d, incl, opz, tshift) {
		return penaltyLnL
	}

	factors, err := anisotropy.Anisotropy(anisotropy.Degrees(incl), f.disc)
	if err != nil {
		// unknown model is a setup mistake, not a bad draw
		log.Fatal(err)
	}

	chi2 := 0.0
	for k, o := range f.obs {
		pred, err := f.models[k].Observe(d, factors.Burst, opz, tshift[k])
		if err != nil {
			return penaltyLnL
		}
		for j, t := range o.Time {
			r := (o.Flux[j] - pred.At(t)) / o.FluxErr[j]
			chi2 += f.weights.FluxWt * r * r
		}
	}

	// one recurrence-time term per unique model
	seen := make(map[*burst.ModelBurst]bool, len(f.models))
	for k, m := range f.models {
		if seen[m] {
			continue
		}
		seen[m] = true
		o := f.obs[k]
		if o.Tdel <= 0 {
			continue
		}
		sigma2 := o.TdelErr*o.TdelErr + m.TdelErr*opz*m.TdelErr*opz
		r := o.Tdel - m.Tdel*opz
		chi2 += f.weights.TdelWt * r * r / sigma2
	}

	return -0.5 * chi2
}

// Lhood is a one-shot convenience: it pairs the bursts and evaluates
// the log-likelihood at the given parameter vector. For repeated
// evaluations construct a Fit once and call its Lhood method.
func Lhood(params []float64, obs []*burst.ObservedBurst, models []*burst.ModelBurst,
	weights Weights, disc anisotropy.Model) (float64, error) {
	f, err := New(obs, models, weights, disc)
	if err != nil {
		return 0, err
	}
	return f.Lhood(params), nil
}

func valid(d, incl, opz float64, tshift []float64) bool {
	if math.IsNaN(d) || math.IsNaN(incl) || math.IsNaN(opz) {
		return false
	}
	if d <= 0 || opz < 1 || incl < 0 || incl > 90 {
		return false
	}
	for _, t := range tshift {
		if math.IsNaN(t) {
			return false
		}
	}
	return true
}

// EpochChi2 is the contribution of one epoch to the total chi
// square.
type EpochChi2 struct {
	// Epoch is the observed burst identifier.
	Epoch string
	// Flux is the weighted light-curve term.
	Flux float64
	// Tdel is the weighted recurrence-time term; zero for epochs
	// whose model already contributed through an earlier epoch.
	Tdel float64
}

// Breakdown returns the per-epoch chi-square terms for a parameter
// vector laid out as (d, i, opz, t1..tN). Invalid parameter values
// yield a nil slice.
func (f *Fit) Breakdown(params []float64) []EpochChi2 {
	if len(params) != 3+len(f.tshift) {
		panic(fmt.Sprintf("expected %d parameters, got %d", 3+len(f.tshift), len(params)))
	}
	d, incl, opz, tshift := params[0], params[1], params[2], params[3:]
	if !valid(d, incl, opz, tshift) {
		return nil
	}
	factors, err := anisotropy.Anisotropy(anisotropy.Degrees(incl), f.disc)
	if err != nil {
		log.Fatal(err)
	}

	out := make([]EpochChi2, len(f.obs))
	seen := make(map[*burst.ModelBurst]bool, len(f.models))
	for k, o := range f.obs {
		out[k].Epoch = o.Epoch
		pred, err := f.models[k].Observe(d, factors.Burst, opz, tshift[k])
		if err != nil {
			return nil
		}
		for j, t := range o.Time {
			r := (o.Flux[j] - pred.At(t)) / o.FluxErr[j]
			out[k].Flux += f.weights.FluxWt * r * r
		}
		m := f.models[k]
		if !seen[m] && o.Tdel > 0 {
			seen[m] = true
			sigma2 := o.TdelErr*o.TdelErr + m.TdelErr*opz*m.TdelErr*opz
			r := o.Tdel - m.Tdel*opz
			out[k].Tdel = f.weights.TdelWt * r * r / sigma2
		}
	}
	return out
}

// LogBreakdown logs the per-epoch chi-square terms.
func (f *Fit) LogBreakdown(params []float64) {
	for _, e := range f.Breakdown(params) {
		log.Noticef("epoch %s: flux chi2=%g, tdel chi2=%g", e.Epoch, e.Flux, e.Tdel)
	}
}
