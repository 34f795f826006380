// Package localnorm removes slow trends from a lightcurve by dividing each
// flux sample by the median of its neighbourhood in time.
//
// The window around sample j holds every sample k with
//
//	|t_k - t_j| <= width
//
// Both ends are inclusive and the window is symmetric in time, not in sample
// count, so it stays correct across gaps and for unsorted input.
package localnorm

import (
	"math"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// DefaultWidth is the half-width of the window in days.
const DefaultWidth = 10.0

// Passes is the number of times [Normalize] applies [Pass].
const Passes = 2

// Normalize divides the flux of seg by its running median twice. The second
// pass runs on the output of the first. Missing flux stays missing and a
// window with no valid flux yields NaN; nothing is imputed.
//
// The result keeps the sample order of seg. A zero width only pools samples
// taken at the same time; a negative width leaves every window empty.
func Normalize(seg lightcurve.Segment, width float64) lightcurve.Segment {
	out := seg.Clone()
	if out.Empty() {
		return out
	}

	idx := lightcurve.Order(out.Time)
	for range Passes {
		out.Flux = pass(out.Time, out.Flux, idx, width)
	}

	return out
}

// Pass returns flux[j] / nanmedian(window(j)) for every j. time and flux
// must have equal length; time must not contain NaN.
func Pass(time, flux []float64, width float64) []float64 {
	return pass(time, flux, lightcurve.Order(time), width)
}

// pass walks the samples in time order. lo and hi bound the window in idx
// and only move forward, since both edges are monotone in t_j.
func pass(time, flux []float64, idx []int, width float64) []float64 {
	n := len(idx)
	out := make([]float64, len(flux))
	buf := make([]float64, 0, 64)

	lo, hi := 0, 0
	for p := range n {
		j := idx[p]
		tj := time[j]

		for lo < n && tj-time[idx[lo]] > width {
			lo++
		}

		if hi < p {
			hi = p
		}

		for hi+1 < n && time[idx[hi+1]]-tj <= width {
			hi++
		}

		buf = buf[:0]
		for q := lo; q <= hi; q++ {
			if v := flux[idx[q]]; !math.IsNaN(v) {
				buf = append(buf, v)
			}
		}

		out[j] = flux[j] / robust.MedianInPlace(buf)
	}

	return out
}
