// Package burst provides observed and simulated burst light curves and
// the transform from the simulation frame to the observer frame.
package burst

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
)

// log is the global logging variable.
var log = logging.MustGetLogger("burst")

// ObservedBurst is a per-epoch observed burst light curve. It is
// created by LoadObserved and read-only afterwards.
type ObservedBurst struct {
	// Epoch identifies the source epoch, e.g. "gs1826_1998".
	Epoch string
	// Time is burst-local time, seconds.
	Time []float64
	// Flux and FluxErr are the measured burst flux and its
	// uncertainty, 1e-9 erg/s/cm^2.
	Flux    []float64
	FluxErr []float64
	// Tdel and TdelErr are the observed burst recurrence time and
	// its uncertainty, hours.
	Tdel    float64
	TdelErr float64
}

// LoadObserved loads an observed burst time series from a whitespace
// table with columns time, flux and u_flux. The recurrence time is
// measured separately from the light curve and is provided alongside.
func LoadObserved(fileName, epoch string, tdel, tdelErr float64) (*ObservedBurst, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := readTable(f)
	if err != nil {
		return nil, fmt.Errorf("observed burst %s: %v", epoch, err)
	}

	b := &ObservedBurst{
		Epoch:   epoch,
		Tdel:    tdel,
		TdelErr: tdelErr,
	}
	if b.Time, err = t.column("time"); err != nil {
		return nil, fmt.Errorf("observed burst %s: %v", epoch, err)
	}
	if b.Flux, err = t.column("flux"); err != nil {
		return nil, fmt.Errorf("observed burst %s: %v", epoch, err)
	}
	if b.FluxErr, err = t.column("u_flux"); err != nil {
		return nil, fmt.Errorf("observed burst %s: %v", epoch, err)
	}

	if err = b.validate(); err != nil {
		return nil, err
	}
	log.Infof("Read observed burst %s: %d samples, tdel=%.3f h", epoch, len(b.Time), b.Tdel)
	return b, nil
}

// validate checks the invariants the likelihood core relies on. They
// are enforced here, at setup time, so that sampling never has to deal
// with degenerate data.
func (b *ObservedBurst) validate() error {
	if len(b.Time) < 2 {
		return fmt.Errorf("observed burst %s: need at least two time samples, got %d", b.Epoch, len(b.Time))
	}
	for i := 1; i < len(b.Time); i++ {
		if b.Time[i] <= b.Time[i-1] {
			return fmt.Errorf("observed burst %s: time not strictly increasing at sample %d", b.Epoch, i)
		}
	}
	for i, u := range b.FluxErr {
		if u <= 0 {
			return fmt.Errorf("observed burst %s: non-positive flux uncertainty at sample %d", b.Epoch, i)
		}
	}
	if b.TdelErr <= 0 {
		return fmt.Errorf("observed burst %s: non-positive recurrence time uncertainty", b.Epoch)
	}
	return nil
}
