// Package optimize provides samplers and likelihood maximizers
// driving an Optimizable model.
package optimize

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/op/go-logging"

	"github.com/khaled-space/concord-khldl/checkpoint"
)

// log is the global logging variable.
var log = logging.MustGetLogger("optimize")

// Optimizable is a model with a likelihood function of its float
// parameters.
type Optimizable interface {
	// GetFloatParameters returns the model parameters.
	GetFloatParameters() FloatParameters
	// Copy returns an independent copy of the model; the copy's
	// likelihood can be evaluated concurrently with the
	// original's.
	Copy() Optimizable
	// Likelihood computes the log-likelihood at the current
	// parameter values.
	Likelihood() float64
}

// Optimizer maximizes or samples an Optimizable.
type Optimizer interface {
	SetOptimizable(Optimizable)
	WatchSignals(...os.Signal)
	SetReportPeriod(period int)
	SetTrajectoryOutput(io.Writer)
	SetCheckpoint(*checkpoint.Store)
	SetSampleRecorder(*Samples)
	Run(iterations int)
	GetMaxL() float64
	GetMaxLParameters() []float64
	PrintResults()
	Summary() Summary
}

// Summary stores the result of an optimizer run.
type Summary struct {
	// MaxLnL is the maximum log-likelihood found.
	MaxLnL float64 `json:"maxLnL"`
	// MaxLParameters maps parameter names to their values at the
	// maximum.
	MaxLParameters map[string]float64 `json:"maxLParameters"`
	// Iterations is the number of iterations performed.
	Iterations int `json:"iterations"`
	// LikelihoodCalls is the number of likelihood evaluations.
	LikelihoodCalls int `json:"likelihoodCalls"`
}

// BaseOptimizer provides the functionality shared by all optimizers.
type BaseOptimizer struct {
	Optimizable
	parameters FloatParameters
	i          int
	calls      int
	maxL       float64
	maxLPar    []float64
	repPeriod  int
	output     io.Writer
	sig        chan os.Signal
	chk        *checkpoint.Store
	samples    *Samples
	// Quiet disables trajectory and result output.
	Quiet bool
}

// SetOptimizable sets the model to optimize.
func (o *BaseOptimizer) SetOptimizable(opt Optimizable) {
	o.Optimizable = opt
	o.parameters = opt.GetFloatParameters()
}

// WatchSignals makes the optimizer stop gracefully on the given
// signals.
func (o *BaseOptimizer) WatchSignals(sigs ...os.Signal) {
	o.sig = make(chan os.Signal, 1)
	signal.Notify(o.sig, sigs...)
}

// SetReportPeriod sets the number of iterations between trajectory
// lines.
func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

// SetTrajectoryOutput sets the writer for the trajectory output.
func (o *BaseOptimizer) SetTrajectoryOutput(w io.Writer) {
	o.output = w
}

// SetCheckpoint enables checkpointing to the given store.
func (o *BaseOptimizer) SetCheckpoint(chk *checkpoint.Store) {
	o.chk = chk
}

// SetSampleRecorder enables recording of accepted states.
func (o *BaseOptimizer) SetSampleRecorder(s *Samples) {
	o.samples = s
}

func (o *BaseOptimizer) trajectory() io.Writer {
	if o.output == nil {
		return os.Stdout
	}
	return o.output
}

// PrintHeader prints the trajectory header.
func (o *BaseOptimizer) PrintHeader() {
	if !o.Quiet {
		fmt.Fprintf(o.trajectory(), "iteration\tlikelihood\t%s\n", o.parameters.NamesString())
	}
}

// PrintLine prints one trajectory line if the current iteration falls
// on the report period.
func (o *BaseOptimizer) PrintLine(l float64, period int) {
	if !o.Quiet && o.i%period == 0 {
		fmt.Fprintf(o.trajectory(), "%d\t%f\t%s\n", o.i, l, o.parameters.ValuesString())
	}
}

// PrintResults prints the maximum likelihood and the corresponding
// parameter values.
func (o *BaseOptimizer) PrintResults() {
	if o.Quiet {
		return
	}
	log.Noticef("Maximum likelihood: %v", o.maxL)
	log.Noticef("Likelihood function calls: %v", o.calls)
	for i, par := range o.parameters {
		log.Noticef("%s=%v", par.Name(), o.maxLPar[i])
	}
}

// updateMax remembers the parameter values if l is the new maximum.
func (o *BaseOptimizer) updateMax(l float64) {
	if l > o.maxL {
		o.maxL = l
		o.maxLPar = o.parameters.Values(o.maxLPar)
	}
}

// recordSample passes the current state to the sample recorder.
func (o *BaseOptimizer) recordSample(l float64) {
	if o.samples != nil {
		o.samples.Add(o.i, o.parameters, l)
	}
}

// SaveCheckpoint saves the sampler state if checkpointing is enabled
// and the last save is old enough (or the state is final).
func (o *BaseOptimizer) SaveCheckpoint(l float64, final bool) {
	if o.chk == nil {
		return
	}
	if !final && !o.chk.Old() {
		return
	}
	o.chk.Save(&checkpoint.State{
		Parameters: o.parameters.ParamsMap(),
		Lhood:      l,
		Iter:       o.i,
		Final:      final,
	})
}

// GetMaxL returns the maximum log-likelihood found.
func (o *BaseOptimizer) GetMaxL() float64 {
	return o.maxL
}

// GetMaxLParameters returns the parameter values at the maximum.
func (o *BaseOptimizer) GetMaxLParameters() []float64 {
	return o.maxLPar
}

// Summary returns the run summary.
func (o *BaseOptimizer) Summary() Summary {
	s := Summary{
		MaxLnL:          o.maxL,
		MaxLParameters:  make(map[string]float64, len(o.parameters)),
		Iterations:      o.i,
		LikelihoodCalls: o.calls,
	}
	for i, par := range o.parameters {
		if o.maxLPar != nil {
			s.MaxLParameters[par.Name()] = o.maxLPar[i]
		}
	}
	return s
}
