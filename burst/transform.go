package burst

import (
	"fmt"
	"math"

	"github.com/khaled-space/concord-khldl/anisotropy"
	"github.com/khaled-space/concord-khldl/interp"
)

const (
	// kpc in cm.
	kpcCm = 3.0857e21
	// fluxUnit is the flux unit of the observed light curves,
	// erg/s/cm^2.
	fluxUnit = 1e-9
)

// Observe transforms the local-frame light curve into the predicted
// observer-frame curve for distance (kpc), burst anisotropy factor
// xi_b, redshift factor opz=1+z and time shift (s).
//
// Adopted general-relativistic conventions: observed time dilates as
// (1+z), flux dims as (1+z)^-2, recurrence time (handled by the
// likelihood) scales as (1+z)^+1. The flux is further diluted by
// 4 pi d^2 xi_b following L = 4 pi d^2 xi_b F. At opz=1 no redshift
// correction is applied.
//
// The returned interpolant is sampled at the transformed model times
// and evaluates to zero outside the model's time span.
func (m *ModelBurst) Observe(distanceKpc, xiBurst, opz, tshift float64) (*interp.Linear, error) {
	if !(distanceKpc > 0) {
		return nil, fmt.Errorf("model run %d: non-positive distance %v", m.Run, distanceKpc)
	}
	if !(opz > 0) {
		return nil, fmt.Errorf("model run %d: non-positive redshift factor %v", m.Run, opz)
	}
	if !(xiBurst > 0) {
		return nil, fmt.Errorf("model run %d: non-positive anisotropy factor %v", m.Run, xiBurst)
	}

	d := distanceKpc * kpcCm
	scale := 1 / (xiBurst * 4 * math.Pi * d * d * opz * opz * fluxUnit)

	ts := make([]float64, len(m.Time))
	fs := make([]float64, len(m.Lum))
	for i, t := range m.Time {
		ts[i] = t*opz + tshift
		fs[i] = m.Lum[i] * scale
	}
	return interp.NewLinear(ts, fs, interp.Zero)
}

// Transform is the observer-frame prediction for a candidate
// (distance, inclination, 1+z, time shift) parameter tuple: it queries
// the disc model for the anisotropy factors at the given inclination
// and applies Observe.
func Transform(m *ModelBurst, distanceKpc float64, inclination anisotropy.Angle,
	opz, tshift float64, disc anisotropy.Model) (*interp.Linear, error) {
	factors, err := disc.Factors(inclination)
	if err != nil {
		return nil, err
	}
	return m.Observe(distanceKpc, factors.Burst, opz, tshift)
}
