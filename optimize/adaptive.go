package optimize

import (
	"math"
	"math/rand"
)

// AdaptiveSettings are settings for adaptive MCMC proposals.
type AdaptiveSettings struct {
	// WSize is the window size for the convergence check.
	WSize int
	// K specifies how often the proposal mean is updated.
	K int
	// Skip is the number of iterations before adaptation starts.
	Skip int
	// MaxAdapt is the iteration adaptation stops at.
	MaxAdapt int
	// MaxUpdate is the maximum number of updates per parameter.
	MaxUpdate int
	// Epsilon is the SD/mean threshold declaring convergence.
	Epsilon float64
	// C and Nu are Robbins-Monro algorithm parameters.
	C  float64
	Nu float64
	// Lambda is the proposal multiplier.
	Lambda float64
	// SD is the initial proposal standard deviation.
	SD float64
}

// NewAdaptiveSettings creates default adaptive MCMC settings.
func NewAdaptiveSettings() *AdaptiveSettings {
	return &AdaptiveSettings{
		WSize:     10,
		K:         20,
		Skip:      500,
		MaxAdapt:  2000,
		MaxUpdate: 200,
		Epsilon:   5e-1,
		C:         1,
		Nu:        3,
		Lambda:    2.4,
		SD:        1e-2,
	}
}

// ParameterGenerator generates an adaptive MCMC parameter.
func (as *AdaptiveSettings) ParameterGenerator(par *float64, name string) FloatParameter {
	return NewAdaptiveParameter(par, name, as)
}

// AdaptiveParameter is a parameter whose proposal variance adapts to
// the accepted values using the Robbins-Monro algorithm.
type AdaptiveParameter struct {
	*BasicFloatParameter
	t    int
	loct int

	mean     float64
	variance float64
	delta    bool

	// current batch accumulators
	bmean float64
	bm2   float64

	// convergence check window
	vals      chan float64
	cmean     float64
	cm2       float64
	converged bool

	*AdaptiveSettings
}

// NewAdaptiveParameter creates a new adaptive MCMC parameter.
func NewAdaptiveParameter(par *float64, name string, as *AdaptiveSettings) (a *AdaptiveParameter) {
	a = &AdaptiveParameter{
		BasicFloatParameter: NewBasicFloatParameter(par, name),
		AdaptiveSettings:    as,
	}
	if a.SD <= 0 {
		panic("SD should be positive")
	}
	if a.K < 2 {
		panic("K should be >= 2")
	}
	a.mean = math.NaN()
	a.variance = square(a.SD)
	a.vals = make(chan float64, a.WSize)
	a.proposalFunc = func(x float64) float64 {
		return x + rand.NormFloat64()*math.Sqrt(a.variance)*a.Lambda
	}
	return
}

func square(x float64) float64 {
	return x * x
}

// Accept updates the proposal distribution on accepted values while
// adaptation is running.
func (a *AdaptiveParameter) Accept(iter int) {
	if iter >= a.Skip && iter < a.MaxAdapt {
		a.updateMu()
	}
}

// robbinsMonro returns the current step size.
func (a *AdaptiveParameter) robbinsMonro() (gamma float64) {
	delta := a.bmean - a.mean
	if (delta > 0 && !a.delta) || (delta < 0 && a.delta) {
		a.loct++
	}
	a.delta = delta > 0
	beta := 1 / math.Max(1, 1+a.Nu)
	return a.C / math.Pow(float64(a.loct+1), beta)
}

// checkConvergence tracks a moving window of accepted values and
// declares convergence once their SD/mean ratio is small enough or the
// update budget is spent.
func (a *AdaptiveParameter) checkConvergence() {
	if len(a.vals) == a.WSize {
		oldVal := <-a.vals
		delta := oldVal - a.cmean
		a.cmean -= delta / float64(len(a.vals))
		a.cm2 -= delta * (oldVal - a.cmean)
	}

	a.vals <- *a.float64
	delta := *a.float64 - a.cmean
	a.cmean += delta / float64(len(a.vals))
	a.cm2 += delta * (*a.float64 - a.cmean)

	if len(a.vals) == a.WSize {
		sd := math.Sqrt(a.cm2 / float64(len(a.vals)-1))
		if sd/a.cmean < a.Epsilon || a.t/a.K > a.MaxUpdate {
			a.converged = true
			reason := "max update"
			if sd/a.cmean < a.Epsilon {
				reason = "SD/mean"
			}
			log.Infof("%s converged, reason: %s", a.Name(), reason)
		}
	}
}

// updateMu updates the proposal mean and variance from the current
// batch of accepted values.
func (a *AdaptiveParameter) updateMu() {
	if a.converged {
		return
	}
	if math.IsNaN(a.mean) {
		a.mean = *a.float64
	}
	bi := a.t % a.K

	if a.t > 0 && bi == 0 {
		gamma := a.robbinsMonro()
		bvariance := a.bm2 / float64(a.K-1)

		a.mean += gamma * (a.bmean - a.mean)
		a.variance += gamma * (bvariance - a.variance)

		a.checkConvergence()

		a.bmean = 0
		a.bm2 = 0
	}

	delta := *a.float64 - a.bmean
	a.bmean += delta / float64(bi+1)
	a.bm2 += delta * (*a.float64 - a.bmean)

	a.t++
}
