package burst

import (
	"fmt"
	"math"
	"os"
)

// Physical constants, cgs.
const (
	gravConstant = 6.67430e-8    // cm^3 g^-1 s^-2
	lightSpeed   = 2.99792458e10 // cm/s
	solarMass    = 1.98892e33    // g
)

const (
	// DefaultRadiusKm is the neutron-star radius assumed for model
	// runs that do not carry one.
	DefaultRadiusKm = 12.1
	// secondsPerHour converts the recurrence times stored in the
	// summary tables (seconds) to hours.
	secondsPerHour = 3600
)

// ModelBurst is a simulated burst: the run-averaged local-frame light
// curve plus the physical parameters of the run. It is constructed
// once per loaded model and reused across many likelihood
// evaluations.
type ModelBurst struct {
	// Run is the run identifier within the model batch.
	Run int
	// Time is local (Newtonian-frame) time, seconds.
	Time []float64
	// Lum is the local burst luminosity, erg/s.
	Lum []float64
	// G is the redshifted surface gravity, cm/s^2.
	G float64
	// RadiusKm is the neutron-star radius, km.
	RadiusKm float64
	// Xi is the anisotropy multiplier applied to the accretion
	// rate of the run.
	Xi float64
	// LAcc is the accretion luminosity in Eddington units,
	// including the Xi multiplier.
	LAcc float64
	// X and Z are the hydrogen and CNO mass fractions.
	X, Z float64
	// Tdel and TdelErr are the mean recurrence time of the run and
	// its statistical error, hours, local frame.
	Tdel    float64
	TdelErr float64
}

// NeutronStarGravity returns the redshifted surface gravity (cm/s^2)
// and the surface redshift 1+z for a neutron star of the given mass
// (solar masses) and radius (km).
func NeutronStarGravity(massSolar, radiusKm float64) (g, opz float64) {
	m := massSolar * solarMass
	r := radiusKm * 1e5
	opz = 1 / math.Sqrt(1-2*gravConstant*m/(lightSpeed*lightSpeed*r))
	g = gravConstant * m / (r * r / opz)
	return g, opz
}

// LoadModel loads one model run: physical parameters from the
// parameter table (columns run, mass, x, z, accrate, xi), recurrence
// time from the summary table (columns run, tDel, uTDel; seconds) and
// the mean light curve from meanFileName (columns time, lum).
func LoadModel(run int, meanFileName, paramFileName, summFileName string) (*ModelBurst, error) {
	ptable, err := readTableFile(paramFileName)
	if err != nil {
		return nil, fmt.Errorf("parameter table: %v", err)
	}
	stable, err := readTableFile(summFileName)
	if err != nil {
		return nil, fmt.Errorf("summary table: %v", err)
	}

	idx, err := ptable.findRow("run", float64(run))
	if err != nil {
		return nil, fmt.Errorf("parameter table: %v", err)
	}
	sidx, err := stable.findRow("run", float64(run))
	if err != nil {
		return nil, fmt.Errorf("summary table: %v", err)
	}

	m := &ModelBurst{
		Run:      run,
		RadiusKm: DefaultRadiusKm,
	}
	cols := map[string]*float64{
		"x":  &m.X,
		"z":  &m.Z,
		"xi": &m.Xi,
	}
	var mass, accrate float64
	cols["mass"] = &mass
	cols["accrate"] = &accrate
	for name, dst := range cols {
		col, err := ptable.column(name)
		if err != nil {
			return nil, fmt.Errorf("parameter table: %v", err)
		}
		*dst = col[idx]
	}
	// accrate includes the xi_p multiplier
	m.LAcc = accrate * m.Xi
	m.G, _ = NeutronStarGravity(mass, m.RadiusKm)

	tdel, err := stable.column("tDel")
	if err != nil {
		return nil, fmt.Errorf("summary table: %v", err)
	}
	uTdel, err := stable.column("uTDel")
	if err != nil {
		return nil, fmt.Errorf("summary table: %v", err)
	}
	m.Tdel = tdel[sidx] / secondsPerHour
	m.TdelErr = uTdel[sidx] / secondsPerHour

	mtable, err := readTableFile(meanFileName)
	if err != nil {
		return nil, fmt.Errorf("mean light curve: %v", err)
	}
	if m.Time, err = mtable.column("time"); err != nil {
		return nil, fmt.Errorf("mean light curve: %v", err)
	}
	if m.Lum, err = mtable.column("lum"); err != nil {
		return nil, fmt.Errorf("mean light curve: %v", err)
	}

	if err = m.validate(); err != nil {
		return nil, err
	}
	log.Infof("Read model run %d: %d samples, tdel=%.3f h, g=%.3e cm/s^2", run, len(m.Time), m.Tdel, m.G)
	return m, nil
}

func readTableFile(fileName string) (*table, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readTable(f)
}

func (m *ModelBurst) validate() error {
	if len(m.Time) < 2 {
		return fmt.Errorf("model run %d: need at least two light-curve samples, got %d", m.Run, len(m.Time))
	}
	for i := 1; i < len(m.Time); i++ {
		if m.Time[i] <= m.Time[i-1] {
			return fmt.Errorf("model run %d: time not strictly increasing at sample %d", m.Run, i)
		}
	}
	if m.Tdel <= 0 || m.TdelErr <= 0 {
		return fmt.Errorf("model run %d: non-positive recurrence time or error", m.Run)
	}
	return nil
}
