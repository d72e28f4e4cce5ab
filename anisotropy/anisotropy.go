// Package anisotropy maps a viewing inclination to burst and
// persistent anisotropy factors.
//
// Factors are defined as in Fujimoto et al. 1988, i.e. the xi_b,p such
// that L_b,p = 4 pi d^2 xi_b,p F_b,p. A factor below one indicates
// flux beamed preferentially towards the observer (the luminosity
// would be overestimated if the factor were ignored), a factor above
// one indicates flux beamed away.
package anisotropy

import (
	"fmt"
	"math"

	"github.com/op/go-logging"
)

// log is the global logging variable.
var log = logging.MustGetLogger("anisotropy")

// Angle is a plane angle stored in radians. Constructors carry the
// unit explicitly; a bare float64 is never interpreted as either unit.
type Angle float64

// Degrees creates an Angle from a value in degrees.
func Degrees(d float64) Angle {
	return Angle(d * math.Pi / 180)
}

// Radians creates an Angle from a value in radians.
func Radians(r float64) Angle {
	return Angle(r)
}

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Radians returns the angle in radians.
func (a Angle) Radians() float64 {
	return float64(a)
}

// Factors are the burst and persistent anisotropy factors for a given
// inclination.
type Factors struct {
	// Burst is xi_b.
	Burst float64
	// Persistent is xi_p.
	Persistent float64
}

// Model selects the disc model used to compute anisotropy factors.
type Model int

const (
	// Fujimoto88 is the analytic approximation for an isotropic
	// disk geometry.
	Fujimoto88 Model = iota
	// He16 uses tabulated values for a thin-disk geometry,
	// interpolated over inclination.
	He16
)

// ModelFromString returns a disc model from its name.
func ModelFromString(name string) (Model, error) {
	switch name {
	case "fuji88":
		return Fujimoto88, nil
	case "he16":
		return He16, nil
	}
	return Fujimoto88, fmt.Errorf("unknown anisotropy model: %s", name)
}

// String returns the model name.
func (m Model) String() string {
	switch m {
	case Fujimoto88:
		return "fuji88"
	case He16:
		return "he16"
	}
	return fmt.Sprintf("model(%d)", int(m))
}

// Factors returns the anisotropy factors at the given inclination.
//
// The analytic model is xi_b = 1/(0.5+|cos i|), xi_p = 0.5/|cos i|.
// It is singular at i=90 degrees, where xi_p is +Inf; this is a
// property of the approximation, not masked here. The tabulated model
// is defined on [0, 90] degrees and clamps outside that range.
func (m Model) Factors(inclination Angle) (Factors, error) {
	switch m {
	case Fujimoto88:
		ct := math.Abs(math.Cos(inclination.Radians()))
		// math.Cos does not hit exactly zero near pi/2; without
		// snapping, the singularity would turn into a huge
		// finite factor instead of +Inf.
		if math.Abs(inclination.Degrees()-90) < 1e-12 {
			ct = 0
		}
		return Factors{
			Burst:      1 / (0.5 + ct),
			Persistent: 0.5 / ct,
		}, nil
	case He16:
		t, err := he16()
		if err != nil {
			return Factors{}, err
		}
		deg := inclination.Degrees()
		return Factors{
			Burst:      1 / (t.invDisk.At(deg) + t.invRefl.At(deg)),
			Persistent: 1 / t.invPers.At(deg),
		}, nil
	}
	return Factors{}, fmt.Errorf("unknown anisotropy model: %s", m)
}

// Anisotropy returns the burst and persistent anisotropy factors at
// the given inclination for the given disc model.
func Anisotropy(inclination Angle, model Model) (Factors, error) {
	return model.Factors(inclination)
}
