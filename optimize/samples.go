package optimize

import (
	"math"

	"github.com/gonum/mathext"
	"github.com/gonum/matrix/mat64"
)

// Samples records the states visited by a sampler after a burn-in
// period and computes posterior summary statistics.
type Samples struct {
	// Skip is the number of initial iterations to discard
	// (burn-in).
	Skip  int
	names []string
	// lnL of each recorded state
	lhoods []float64
	vals   [][]float64
}

// Interval is a credible interval for one parameter. Bounded is false
// when the posterior gives no meaningful constraint (too few samples,
// zero variance, or an interval escaping the parameter bounds).
type Interval struct {
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Bounded bool    `json:"bounded"`
}

// minSamples is the smallest number of recorded states the summary
// statistics are meaningful for.
const minSamples = 10

// NewSamples creates a recorder discarding the first skip iterations.
func NewSamples(names []string, skip int) *Samples {
	return &Samples{
		Skip:  skip,
		names: append([]string(nil), names...),
	}
}

// Add records the current parameter values if the iteration is past
// the burn-in period.
func (s *Samples) Add(iter int, parameters FloatParameters, lnL float64) {
	if iter < s.Skip {
		return
	}
	s.vals = append(s.vals, parameters.Values(nil))
	s.lhoods = append(s.lhoods, lnL)
}

// N returns the number of recorded states.
func (s *Samples) N() int {
	return len(s.vals)
}

// Names returns the parameter names.
func (s *Samples) Names() []string {
	return s.names
}

// Mean returns the posterior mean of every parameter.
func (s *Samples) Mean() []float64 {
	mean := make([]float64, len(s.names))
	if len(s.vals) == 0 {
		return mean
	}
	for _, v := range s.vals {
		for i, x := range v {
			mean[i] += x
		}
	}
	for i := range mean {
		mean[i] /= float64(len(s.vals))
	}
	return mean
}

// Covariance returns the sample covariance matrix of the parameters,
// or nil if there are not enough samples.
func (s *Samples) Covariance() *mat64.SymDense {
	n := len(s.vals)
	np := len(s.names)
	if n < 2 {
		return nil
	}
	mean := s.Mean()
	c := mat64.NewSymDense(np, nil)
	for i := 0; i < np; i++ {
		for j := i; j < np; j++ {
			sum := 0.0
			for _, v := range s.vals {
				sum += (v[i] - mean[i]) * (v[j] - mean[j])
			}
			c.SetSym(i, j, sum/float64(n-1))
		}
	}
	return c
}

// Interval returns the credible interval of parameter p at the given
// level (e.g. 0.68 for 1 sigma), using a normal approximation of the
// marginal posterior.
func (s *Samples) Interval(p int, level float64) Interval {
	if len(s.vals) < minSamples {
		return Interval{Bounded: false}
	}
	cov := s.Covariance()
	sd := math.Sqrt(cov.At(p, p))
	if sd == 0 || math.IsNaN(sd) {
		return Interval{Bounded: false}
	}
	mean := s.Mean()[p]
	z := mathext.NormalQuantile(0.5 + level/2)
	return Interval{
		Low:     mean - z*sd,
		High:    mean + z*sd,
		Bounded: true,
	}
}
