package optimize

import (
	"math"
	"testing"
)

const smallDiff = 1e-10

func sampleParameters(a, b *float64) FloatParameters {
	var pars FloatParameters
	pars.Append(NewBasicFloatParameter(a, "a"))
	pars.Append(NewBasicFloatParameter(b, "b"))
	return pars
}

func TestSamplesMean(tst *testing.T) {
	a, b := 0.0, 0.0
	pars := sampleParameters(&a, &b)
	s := NewSamples(pars.Names(nil), 0)
	for i := 0; i < 10; i++ {
		a = float64(i)
		b = 2 * float64(i)
		s.Add(i, pars, 0)
	}
	if s.N() != 10 {
		tst.Error("Expected 10 samples, got ", s.N())
	}
	mean := s.Mean()
	if math.Abs(mean[0]-4.5) > smallDiff || math.Abs(mean[1]-9) > smallDiff {
		tst.Error("Incorrect mean: ", mean)
	}
}

func TestSamplesSkip(tst *testing.T) {
	a, b := 0.0, 0.0
	pars := sampleParameters(&a, &b)
	s := NewSamples(pars.Names(nil), 5)
	for i := 0; i < 10; i++ {
		a = float64(i)
		s.Add(i, pars, 0)
	}
	if s.N() != 5 {
		tst.Error("Expected 5 samples after burn-in, got ", s.N())
	}
	mean := s.Mean()
	if math.Abs(mean[0]-7) > smallDiff {
		tst.Error("Expected mean 7, got ", mean[0])
	}
}

func TestSamplesCovariance(tst *testing.T) {
	a, b := 0.0, 0.0
	pars := sampleParameters(&a, &b)
	s := NewSamples(pars.Names(nil), 0)
	for i := 0; i < 10; i++ {
		a = float64(i)
		b = -3 * float64(i)
		s.Add(i, pars, 0)
	}
	cov := s.Covariance()
	if cov == nil {
		tst.Fatal("Expected a covariance matrix")
	}
	// variance of 0..9 with n-1 normalization
	if math.Abs(cov.At(0, 0)-55.0/6) > smallDiff {
		tst.Error("Incorrect variance: ", cov.At(0, 0))
	}
	if math.Abs(cov.At(0, 1)+3*55.0/6) > smallDiff {
		tst.Error("Incorrect covariance: ", cov.At(0, 1))
	}
	if math.Abs(cov.At(1, 1)-9*55.0/6) > smallDiff {
		tst.Error("Incorrect variance: ", cov.At(1, 1))
	}
}

func TestSamplesInterval(tst *testing.T) {
	a, b := 0.0, 0.0
	pars := sampleParameters(&a, &b)
	s := NewSamples(pars.Names(nil), 0)
	for i := 0; i < 100; i++ {
		a = float64(i % 2)
		s.Add(i, pars, 0)
	}
	in := s.Interval(0, 0.6827)
	if !in.Bounded {
		tst.Fatal("Expected a bounded interval")
	}
	if in.Low >= in.High {
		tst.Error("Expected low < high, got ", in)
	}
	if math.Abs((in.Low+in.High)/2-0.5) > smallDiff {
		tst.Error("Interval not centered on the mean: ", in)
	}
	// b is constant, no constraint
	in = s.Interval(1, 0.6827)
	if in.Bounded {
		tst.Error("Expected an unbounded interval for a constant parameter")
	}
}

func TestSamplesTooFew(tst *testing.T) {
	a, b := 0.0, 0.0
	pars := sampleParameters(&a, &b)
	s := NewSamples(pars.Names(nil), 0)
	for i := 0; i < 3; i++ {
		a = float64(i)
		s.Add(i, pars, 0)
	}
	if in := s.Interval(0, 0.6827); in.Bounded {
		tst.Error("Expected an unbounded interval for too few samples")
	}
}
