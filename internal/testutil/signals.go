package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

// Uniform builds a segment with n samples at start, start+step, ... carrying
// flux. flux must have length n.
func Uniform(start, step float64, n int, flux []float64) lightcurve.Segment {
	tm := make([]float64, n)
	for i := range tm {
		tm[i] = start + float64(i)*step
	}

	return lightcurve.Segment{Time: tm, Flux: append([]float64(nil), flux...)}
}

// WithGap returns a copy of seg where every sample from index at onward is
// delayed so that the spacing between samples at-1 and at becomes k times
// the original step. seg must be uniformly sampled.
func WithGap(seg lightcurve.Segment, at, k int) lightcurve.Segment {
	out := seg.Clone()
	if seg.Len() < 2 || at <= 0 || at >= seg.Len() {
		return out
	}

	step := seg.Time[1] - seg.Time[0]
	for i := at; i < out.Len(); i++ {
		out.Time[i] += float64(k-1) * step
	}

	return out
}

// Ramp returns n values start, start+slope, start+2*slope, ...
func Ramp(start, slope float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + slope*float64(i)
	}

	return out
}

// DeterministicSine generates a sine of the given frequency (cycles per time
// unit) sampled at the given times.
func DeterministicSine(times []float64, freq, amplitude, offset float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = offset + amplitude*math.Sin(2*math.Pi*freq*t)
	}

	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Add returns the element-wise sum of a and b, truncated to the shorter one.
func Add(a, b []float64) []float64 {
	n := min(len(a), len(b))
	out := make([]float64, n)
	for i := range out {
		out[i] = a[i] + b[i]
	}
	return out
}
