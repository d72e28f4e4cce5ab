// Package interp provides piecewise-linear interpolation over tabulated
// samples.
package interp

import (
	"errors"
	"fmt"
	"sort"
)

// Policy specifies what happens when an interpolant is evaluated
// outside of its domain.
type Policy int

const (
	// Clamp returns the nearest endpoint value.
	Clamp Policy = iota
	// Zero returns 0.
	Zero
)

// Linear is a piecewise-linear interpolant over (x, y) samples. It is
// read-only after construction and safe for concurrent use.
type Linear struct {
	xs     []float64
	ys     []float64
	policy Policy
}

// NewLinear creates a piecewise-linear interpolant. The x values must
// be strictly increasing and there must be at least two samples. The
// slices are not copied; callers must not modify them afterwards.
func NewLinear(xs, ys []float64, policy Policy) (*Linear, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("mismatched sample lengths: %d x values, %d y values", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, errors.New("need at least two samples")
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("x values not strictly increasing at index %d (%v <= %v)", i, xs[i], xs[i-1])
		}
	}
	return &Linear{xs: xs, ys: ys, policy: policy}, nil
}

// Domain returns the range of x covered by the samples.
func (l *Linear) Domain() (min, max float64) {
	return l.xs[0], l.xs[len(l.xs)-1]
}

// At evaluates the interpolant at x. Outside the domain the
// out-of-range policy applies.
func (l *Linear) At(x float64) float64 {
	n := len(l.xs)
	switch {
	case x < l.xs[0]:
		if l.policy == Zero {
			return 0
		}
		return l.ys[0]
	case x > l.xs[n-1]:
		if l.policy == Zero {
			return 0
		}
		return l.ys[n-1]
	}
	// index of the right node of the bracketing interval
	i := sort.SearchFloat64s(l.xs, x)
	if i < n && l.xs[i] == x {
		return l.ys[i]
	}
	x0, x1 := l.xs[i-1], l.xs[i]
	y0, y1 := l.ys[i-1], l.ys[i]
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}
