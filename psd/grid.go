package psd

import (
	"fmt"
	"math"
)

// DefaultSamplesPerPeak is the oversampling of the frequency grid relative
// to the natural resolution 1/baseline.
const DefaultSamplesPerPeak = 10

// Grid is an evenly spaced frequency axis.
type Grid struct {
	Start float64
	Step  float64
	N     int
}

// AutoGrid returns the grid used for a series spanning baseline:
//
//	Step  = 1 / (baseline * samplesPerPeak)
//	Start = Step / 2
//	N     = 1 + round((fmax - Start) / Step)
//
// N is at least one.
func AutoGrid(baseline float64, samplesPerPeak int, fmax float64) (Grid, error) {
	if !(baseline > 0) || math.IsInf(baseline, 0) {
		return Grid{}, fmt.Errorf("%w: baseline %v", ErrTooFewSamples, baseline)
	}

	if samplesPerPeak <= 0 {
		samplesPerPeak = DefaultSamplesPerPeak
	}

	step := 1 / (baseline * float64(samplesPerPeak))
	start := step / 2

	n := 1 + int(math.Round((fmax-start)/step))
	if n < 1 {
		n = 1
	}

	return Grid{Start: start, Step: step, N: n}, nil
}

// At returns the i-th frequency.
func (g Grid) At(i int) float64 {
	return g.Start + float64(i)*g.Step
}

// Frequencies materialises the grid.
func (g Grid) Frequencies() []float64 {
	out := make([]float64, g.N)
	for i := range out {
		out[i] = g.At(i)
	}

	return out
}

// Max returns the last frequency of the grid.
func (g Grid) Max() float64 {
	return g.At(g.N - 1)
}
