package fit

import (
	"math"
	"sync"
	"testing"

	"github.com/khaled-space/concord-khldl/anisotropy"
	"github.com/khaled-space/concord-khldl/burst"
	"github.com/khaled-space/concord-khldl/optimize"
)

const smallDiff = 1e-10

var _ optimize.Optimizable = (*Fit)(nil)

// flatModel returns a model burst with a constant luminosity.
func flatModel(tdel, tdelErr float64) *burst.ModelBurst {
	return &burst.ModelBurst{
		Run:     1,
		Time:    []float64{0, 10, 20, 30},
		Lum:     []float64{1e38, 1e38, 1e38, 1e38},
		Tdel:    tdel,
		TdelErr: tdelErr,
	}
}

// matchedObserved returns an observed burst whose fluxes are exactly
// the model prediction at (d, i=60 deg, opz=1, tshift=0) under the
// analytic disc model. At 60 degrees xi_b is exactly 1.
func matchedObserved(tst *testing.T, m *burst.ModelBurst, d float64, n int) *burst.ObservedBurst {
	pred, err := m.Observe(d, 1, 1, 0)
	if err != nil {
		tst.Fatal("Error computing prediction: ", err)
	}
	o := &burst.ObservedBurst{
		Epoch:   "test",
		Tdel:    m.Tdel,
		TdelErr: 0.05,
	}
	for j := 0; j < n; j++ {
		t := 1.0 + float64(j)*28/float64(n-1)
		o.Time = append(o.Time, t)
		o.Flux = append(o.Flux, pred.At(t))
		o.FluxErr = append(o.FluxErr, 0.01)
	}
	return o
}

func matchedFit(tst *testing.T, n int) *Fit {
	m := flatModel(4, 0.1)
	o := matchedObserved(tst, m, 6.1, n)
	f, err := New([]*burst.ObservedBurst{o}, []*burst.ModelBurst{m}, DefaultWeights(), anisotropy.Fujimoto88)
	if err != nil {
		tst.Fatal("Error creating fit: ", err)
	}
	return f
}

func TestPerfectMatch(tst *testing.T) {
	f := matchedFit(tst, 10)
	l := f.Lhood([]float64{6.1, 60, 1, 0})
	if math.Abs(l) > smallDiff {
		tst.Error("Expected likelihood 0 for a perfect match, got ", l)
	}
	// any perturbation can only decrease the likelihood
	for _, p := range [][]float64{
		{6.2, 60, 1, 0},
		{6.1, 50, 1, 0},
		{6.1, 60, 1.01, 0},
		{6.1, 60, 1, 50},
	} {
		if lp := f.Lhood(p); lp >= l {
			tst.Error("Expected perturbed likelihood below maximum, got ", lp, " for ", p)
		}
	}
}

func TestConcurrentLhood(tst *testing.T) {
	f := matchedFit(tst, 10)
	params := [][]float64{
		{6.1, 60, 1, 0},
		{6.2, 60, 1, 0},
		{6.1, 45, 1.1, 2},
		{8, 30, 1.26, -5},
		{6.1, 60, 1, 50},
	}
	expected := make([]float64, len(params))
	for j, p := range params {
		expected[j] = f.Lhood(p)
	}
	var wg sync.WaitGroup
	got := make([]float64, 64)
	for j := range got {
		wg.Add(1)
		go func(j int) {
			defer wg.Done()
			got[j] = f.Lhood(params[j%len(params)])
		}(j)
	}
	wg.Wait()
	for j, l := range got {
		if l != expected[j%len(params)] {
			tst.Error("Expected ", expected[j%len(params)], ", got ", l, " from goroutine ", j)
		}
	}
}

func TestFluxOffsetScaling(tst *testing.T) {
	for _, n := range []int{5, 10} {
		f := matchedFit(tst, n)
		for j := range f.obs[0].Flux {
			f.obs[0].Flux[j] += 0.01 * 100
		}
		l := f.Lhood([]float64{6.1, 60, 1, 0})
		// each sample is offset by 100 sigma
		expected := -0.5 * float64(n) * 1e4
		if math.Abs(l-expected) > 1e-4 {
			tst.Error("Expected ", expected, ", got ", l)
		}
	}
}

func TestResidualSignSymmetry(tst *testing.T) {
	fPlus := matchedFit(tst, 10)
	fMinus := matchedFit(tst, 10)
	for j := range fPlus.obs[0].Flux {
		fPlus.obs[0].Flux[j] += 0.3
		fMinus.obs[0].Flux[j] -= 0.3
	}
	p := []float64{6.1, 60, 1, 0}
	lPlus := fPlus.Lhood(p)
	lMinus := fMinus.Lhood(p)
	if math.Abs(lPlus-lMinus) > 1e-6 {
		tst.Error("Expected symmetric residuals, got ", lPlus, " and ", lMinus)
	}
}

func TestInvalidParameters(tst *testing.T) {
	f := matchedFit(tst, 10)
	for _, p := range [][]float64{
		{-1, 60, 1, 0},
		{0, 60, 1, 0},
		{6.1, -5, 1, 0},
		{6.1, 95, 1, 0},
		{6.1, 60, 0.9, 0},
		{math.NaN(), 60, 1, 0},
		{6.1, 60, 1, math.NaN()},
	} {
		l := f.Lhood(p)
		if math.IsNaN(l) || math.IsInf(l, 0) {
			tst.Error("Expected a finite penalty, got ", l, " for ", p)
		}
		if l > -1e29 {
			tst.Error("Expected a strongly negative penalty, got ", l, " for ", p)
		}
	}
}

func TestCountMismatch(tst *testing.T) {
	m := flatModel(4, 0.1)
	o := matchedObserved(tst, m, 6.1, 5)
	_, err := New([]*burst.ObservedBurst{o, o}, []*burst.ModelBurst{m}, DefaultWeights(), anisotropy.Fujimoto88)
	if err == nil {
		tst.Error("Expected an error for mismatched counts")
	}
	_, err = New(nil, nil, DefaultWeights(), anisotropy.Fujimoto88)
	if err == nil {
		tst.Error("Expected an error for empty data")
	}
}

func TestRecurrenceOncePerModel(tst *testing.T) {
	// two epochs share one model; the model tdel is off by one
	// observed sigma
	shared := flatModel(4, 1e-9)
	o1 := matchedObserved(tst, shared, 6.1, 5)
	o2 := matchedObserved(tst, shared, 6.1, 5)
	o1.TdelErr = 0.05
	o2.TdelErr = 0.05
	o1.Tdel = 4.05
	o2.Tdel = 4.05

	fShared, err := New([]*burst.ObservedBurst{o1, o2}, []*burst.ModelBurst{shared, shared},
		DefaultWeights(), anisotropy.Fujimoto88)
	if err != nil {
		tst.Fatal("Error creating fit: ", err)
	}
	lShared := fShared.Lhood([]float64{6.1, 60, 1, 0, 0})

	// same data with two distinct model copies
	fDistinct, err := New([]*burst.ObservedBurst{o1, o2}, []*burst.ModelBurst{shared, flatModel(4, 1e-9)},
		DefaultWeights(), anisotropy.Fujimoto88)
	if err != nil {
		tst.Fatal("Error creating fit: ", err)
	}
	lDistinct := fDistinct.Lhood([]float64{6.1, 60, 1, 0, 0})

	// one sigma offset, tdelwt=100
	term := 0.5 * 100.0
	if math.Abs(lShared+term) > 1e-6 {
		tst.Error("Expected ", -term, ", got ", lShared)
	}
	if math.Abs(lDistinct+2*term) > 1e-6 {
		tst.Error("Expected ", -2*term, ", got ", lDistinct)
	}
}

func TestBreakdown(tst *testing.T) {
	f := matchedFit(tst, 10)
	for j := range f.obs[0].Flux {
		f.obs[0].Flux[j] += 0.02
	}
	f.obs[0].Tdel = 4.1
	p := []float64{6.1, 60, 1, 0}
	b := f.Breakdown(p)
	if len(b) != 1 {
		tst.Fatal("Expected one epoch, got ", len(b))
	}
	total := -0.5 * (b[0].Flux + b[0].Tdel)
	if math.Abs(total-f.Lhood(p)) > smallDiff {
		tst.Error("Expected breakdown total ", f.Lhood(p), ", got ", total)
	}
	if b[0].Epoch != "test" {
		tst.Error("Expected epoch 'test', got ", b[0].Epoch)
	}
	if f.Breakdown([]float64{-1, 60, 1, 0}) != nil {
		tst.Error("Expected no breakdown for invalid parameters")
	}
}

func TestCopy(tst *testing.T) {
	f := matchedFit(tst, 10)
	p := []float64{6.1, 60, 1, 0}
	if err := f.GetFloatParameters().SetValues(p); err != nil {
		tst.Fatal("Error setting values: ", err)
	}
	l := f.Likelihood()

	c := f.Copy().(*Fit)
	if err := c.GetFloatParameters().SetValues([]float64{10, 30, 1.2, 5}); err != nil {
		tst.Fatal("Error setting values: ", err)
	}
	if f.Likelihood() != l {
		tst.Error("Copy is not independent")
	}
	if c.Likelihood() == l {
		tst.Error("Expected a different likelihood for the copy")
	}
}

func TestPackageLhood(tst *testing.T) {
	m := flatModel(4, 0.1)
	o := matchedObserved(tst, m, 6.1, 10)
	p := []float64{6.1, 60, 1, 0}
	l, err := Lhood(p, []*burst.ObservedBurst{o}, []*burst.ModelBurst{m},
		DefaultWeights(), anisotropy.Fujimoto88)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if math.Abs(l) > smallDiff {
		tst.Error("Expected likelihood 0, got ", l)
	}
	if _, err = Lhood(p, nil, nil, DefaultWeights(), anisotropy.Fujimoto88); err == nil {
		tst.Error("Expected an error for empty data")
	}
}

func TestLikelihoodMatchesLhood(tst *testing.T) {
	f := matchedFit(tst, 10)
	p := []float64{7.3, 45, 1.2, 2}
	if err := f.GetFloatParameters().SetValues(p); err != nil {
		tst.Fatal("Error setting values: ", err)
	}
	if f.Likelihood() != f.Lhood(p) {
		tst.Error("Expected Likelihood to match Lhood, got ",
			f.Likelihood(), " and ", f.Lhood(p))
	}
}
