package optimize

import (
	"math/rand"
)

// Rand returns a random value in the range [0, 1], including 1.
func Rand() float64 {
	// 1.0 is not included and we would like to be symmetric
	r := float64(1)
	for r > 0.999 {
		r = rand.Float64()
	}
	return r / 0.999
}

// UniformProposal returns a uniform proposal function of a given
// width centered on the current value.
func UniformProposal(width float64) func(float64) float64 {
	if width <= 0 {
		panic("width should be positive")
	}
	return func(x float64) float64 {
		return x + Rand()*width - width/2
	}
}

// NormalProposal returns a normal proposal function with standard
// deviation sd.
func NormalProposal(sd float64) func(float64) float64 {
	if sd <= 0 {
		panic("sd should be positive")
	}
	return func(x float64) float64 {
		return x + rand.NormFloat64()*sd
	}
}
