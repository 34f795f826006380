// Package frequency summarises a power spectral density sampled on an
// explicit frequency axis.
package frequency

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// DefaultRolloff is the power fraction used by [Calculate] for Rolloff.
const DefaultRolloff = 0.85

// Stats holds frequency-domain statistics of a power spectrum. Frequencies
// are in the unit of the axis passed in.
type Stats struct {
	Bins      int
	Peak      float64 // frequency of the largest power
	PeakBin   int
	PeakPower float64
	Mean      float64 // mean power
	// Spectral shape descriptors
	Centroid float64 // power-weighted mean frequency
	Spread   float64 // power-weighted standard deviation of frequency
	Flatness float64 // geometric over arithmetic mean power, 0..1
	Rolloff  float64 // frequency below which DefaultRolloff of the power lies
	Integral float64 // trapezoidal integral of power over frequency
}

// Calculate computes all statistics of power over freq. Both slices must
// have the same length; extra elements of the longer one are ignored.
func Calculate(freq, power []float64) Stats {
	n := min(len(freq), len(power))
	if n == 0 {
		return Stats{PeakBin: -1}
	}

	freq, power = freq[:n], power[:n]

	s := Stats{Bins: n, PeakPower: power[0]}

	for i, p := range power {
		if p > s.PeakPower {
			s.PeakPower, s.PeakBin = p, i
		}
	}

	s.Peak = freq[s.PeakBin]

	sum := vecmath.Sum(power)
	s.Mean = sum / float64(n)
	s.Centroid = centroid(freq, power, sum)
	s.Spread = spread(freq, power, s.Centroid, sum)
	s.Flatness = Flatness(power)
	s.Rolloff = rolloff(freq, power, DefaultRolloff, sum)
	s.Integral = Integral(freq, power)

	return s
}

// Centroid returns the power-weighted mean frequency
//
//	centroid = sum(f_i * P_i) / sum(P_i)
//
// or zero when the total power is zero.
func Centroid(freq, power []float64) float64 {
	n := min(len(freq), len(power))
	return centroid(freq[:n], power[:n], vecmath.Sum(power[:n]))
}

func centroid(freq, power []float64, sum float64) float64 {
	if sum == 0 {
		return 0
	}

	return vecmath.DotProduct(freq, power) / sum
}

func spread(freq, power []float64, cent, sum float64) float64 {
	if sum == 0 {
		return 0
	}

	var acc float64

	for i, p := range power {
		d := freq[i] - cent
		acc += d * d * p
	}

	return math.Sqrt(acc / sum)
}

// Flatness returns the spectral flatness (Wiener entropy), the ratio of the
// geometric to the arithmetic mean power. It is 1 for white noise and tends
// to 0 for a single line. Any zero bin makes it 0.
func Flatness(power []float64) float64 {
	if len(power) == 0 {
		return 0
	}

	var logSum, sum float64

	for _, p := range power {
		if p <= 0 {
			return 0
		}

		logSum += math.Log(p)
		sum += p
	}

	n := float64(len(power))

	return math.Exp(logSum/n) / (sum / n)
}

// Rolloff returns the lowest frequency at which the cumulative power reaches
// fraction of the total. fraction is clamped to [0, 1].
func Rolloff(freq, power []float64, fraction float64) float64 {
	n := min(len(freq), len(power))
	return rolloff(freq[:n], power[:n], fraction, vecmath.Sum(power[:n]))
}

func rolloff(freq, power []float64, fraction, sum float64) float64 {
	if len(power) == 0 {
		return 0
	}

	fraction = math.Max(0, math.Min(1, fraction))
	target := fraction * sum

	var acc float64

	for i, p := range power {
		acc += p
		if acc >= target {
			return freq[i]
		}
	}

	return freq[len(freq)-1]
}

// Integral returns the trapezoidal integral of power over freq.
func Integral(freq, power []float64) float64 {
	n := min(len(freq), len(power))

	var acc float64

	for i := 1; i < n; i++ {
		acc += 0.5 * (power[i] + power[i-1]) * (freq[i] - freq[i-1])
	}

	return acc
}
