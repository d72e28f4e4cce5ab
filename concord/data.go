package main

import (
	"github.com/khaled-space/concord-khldl/burst"
	"github.com/khaled-space/concord-khldl/fit"
	"github.com/khaled-space/concord-khldl/runspec"
)

// loadFit loads the observed and model bursts named by the run spec
// and assembles the fit. Epochs referring to the same model run share
// one ModelBurst, so the recurrence time of that run is counted once.
func loadFit(s *runspec.RunSpec) (*fit.Fit, error) {
	disc, err := s.Model()
	if err != nil {
		return nil, err
	}

	obs := make([]*burst.ObservedBurst, 0, len(s.Epochs))
	models := make([]*burst.ModelBurst, 0, len(s.Epochs))
	cache := make(map[int]*burst.ModelBurst)

	for _, e := range s.Epochs {
		o, err := burst.LoadObserved(e.Obs, e.Name, e.Tdel, e.UTdel)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)

		m := cache[e.Run]
		if m == nil {
			m, err = burst.LoadModel(e.Run, e.Mean, s.ParamTable, s.SummTable)
			if err != nil {
				return nil, err
			}
			cache[e.Run] = m
		}
		models = append(models, m)
	}

	weights := fit.Weights{FluxWt: s.Weights.Flux, TdelWt: s.Weights.Tdel}
	f, err := fit.New(obs, models, weights, disc)
	if err != nil {
		return nil, err
	}
	start := s.StartValues()
	if err = f.SetStart(start[0], start[1], start[2], start[3:]); err != nil {
		return nil, err
	}
	return f, nil
}
