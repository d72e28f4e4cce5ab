// Package runspec reads the YAML description of a fit: which observed
// bursts to compare against which model runs, the residual weights,
// the disc model and the starting point.
package runspec

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/khaled-space/concord-khldl/anisotropy"
)

// envPrefix is the prefix for environment overrides, e.g.
// CONCORD_SOURCE or CONCORD_DISC_MODEL.
const envPrefix = "CONCORD_"

// Epoch pairs one observed burst with one model run.
type Epoch struct {
	// Name identifies the epoch in output; defaults to the
	// observation file name.
	Name string `koanf:"name"`
	// Obs is the observed light-curve table.
	Obs string `koanf:"obs"`
	// Tdel and UTdel are the observed recurrence time and its
	// uncertainty (hours).
	Tdel  float64 `koanf:"tdel"`
	UTdel float64 `koanf:"u_tdel"`
	// Run selects the model in the parameter and summary tables.
	Run int `koanf:"run"`
	// Mean is the model mean light-curve file.
	Mean string `koanf:"mean"`
}

// Weights are the residual family weights.
type Weights struct {
	Flux float64 `koanf:"flux"`
	Tdel float64 `koanf:"tdel"`
}

// Start is the starting point of the fit.
type Start struct {
	D      float64 `koanf:"d"`
	I      float64 `koanf:"i"`
	Opz    float64 `koanf:"opz"`
	Tshift float64 `koanf:"tshift"`
}

// RunSpec is one fit specification.
type RunSpec struct {
	// Source is the burst source name, used as the checkpoint
	// label.
	Source string `koanf:"source"`
	// ParamTable and SummTable are the model grid tables.
	ParamTable string `koanf:"param_table"`
	SummTable  string `koanf:"summ_table"`
	// DiscModel selects the anisotropy model.
	DiscModel string  `koanf:"disc_model"`
	Weights   Weights `koanf:"weights"`
	Start     Start   `koanf:"start"`
	Epochs    []Epoch `koanf:"epochs"`
}

// defaults returns a RunSpec with the standard weighting and starting
// point.
func defaults() *RunSpec {
	return &RunSpec{
		DiscModel: "fuji88",
		Weights:   Weights{Flux: 1, Tdel: 100},
		Start:     Start{D: 8, I: 30, Opz: 1.26},
	}
}

// Load reads a run spec from a YAML file, applies CONCORD_*
// environment overrides and validates the result.
func Load(path string) (*RunSpec, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("reading run spec %s: %v", path, err)
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	s := defaults()
	if err := k.UnmarshalWithConf("", s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("parsing run spec %s: %v", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("run spec %s: %v", path, err)
	}
	return s, nil
}

func (s *RunSpec) validate() error {
	if s.Source == "" {
		return fmt.Errorf("no source name")
	}
	if s.ParamTable == "" || s.SummTable == "" {
		return fmt.Errorf("param_table and summ_table are required")
	}
	if _, err := s.Model(); err != nil {
		return err
	}
	if len(s.Epochs) == 0 {
		return fmt.Errorf("no epochs")
	}
	for i := range s.Epochs {
		e := &s.Epochs[i]
		if e.Obs == "" {
			return fmt.Errorf("epoch %d: no observation file", i+1)
		}
		if e.Mean == "" {
			return fmt.Errorf("epoch %d: no model light-curve file", i+1)
		}
		if e.Run <= 0 {
			return fmt.Errorf("epoch %d: no model run", i+1)
		}
		if e.Tdel <= 0 || e.UTdel <= 0 {
			return fmt.Errorf("epoch %d: recurrence time and uncertainty must be positive", i+1)
		}
		if e.Name == "" {
			e.Name = e.Obs
		}
	}
	if s.Weights.Flux <= 0 || s.Weights.Tdel < 0 {
		return fmt.Errorf("invalid weights %+v", s.Weights)
	}
	return nil
}

// Model returns the anisotropy model selected by the spec.
func (s *RunSpec) Model() (anisotropy.Model, error) {
	return anisotropy.ModelFromString(s.DiscModel)
}

// StartValues returns the starting parameter vector (d, i, opz,
// t1..tN).
func (s *RunSpec) StartValues() []float64 {
	v := []float64{s.Start.D, s.Start.I, s.Start.Opz}
	for range s.Epochs {
		v = append(v, s.Start.Tshift)
	}
	return v
}
