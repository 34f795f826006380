// Package concat merges the segments of one group onto a single time axis and
// collapses observing-window breaks longer than a threshold.
package concat

import (
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// DefaultThreshold is the smallest break, in days, that is collapsed.
const DefaultThreshold = 80.0

// Gap is one break that triggered a shift.
type Gap struct {
	// Index is the position, in the sorted pool, of the sample left of the gap.
	Index int
	// Size is the break length measured on the unshifted axis.
	Size float64
}

// Report describes what [Concatenate] did.
type Report struct {
	// MedianStep is the median consecutive difference of the sorted pool, or
	// zero with fewer than two samples.
	MedianStep float64
	Gaps       []Gap
	// TotalShift is the shift applied to the first sample.
	TotalShift float64
	// Discarded lists the input positions of empty segments.
	Discarded []int
}

// Concatenate pools the samples of segs, sorts them by time and closes every
// break strictly longer than threshold.
//
// Breaks are folded left to right. For the break after sorted index i the
// running shift grows by size+MedianStep and the whole prefix [0, i] is moved
// forward by the running shift. Sizes are read from the unshifted axis, so
// the prefix of an earlier break receives the sum of every later increment.
//
// The shift is applied to the time column only; the result is left in pool
// order and is not re-sorted. Empty input yields an empty, unshifted series.
func Concatenate(segs []lightcurve.Segment, threshold float64) (lightcurve.Series, Report) {
	var rep Report

	n := 0
	for i, s := range segs {
		if s.Empty() {
			rep.Discarded = append(rep.Discarded, i)
			continue
		}

		n += s.Len()
	}

	pool := lightcurve.Segment{
		Time: make([]float64, 0, n),
		Flux: make([]float64, 0, n),
	}

	for _, s := range segs {
		pool.Time = append(pool.Time, s.Time...)
		pool.Flux = append(pool.Flux, s.Flux...)
	}

	pool = pool.SortByTime()

	if step, ok := robust.MedianStep(pool.Time); ok {
		rep.MedianStep = step
	}

	for i, d := range lightcurve.Diffs(pool.Time) {
		if d > threshold {
			rep.Gaps = append(rep.Gaps, Gap{Index: i, Size: d})
		}
	}

	if len(rep.Gaps) == 0 {
		return lightcurve.Series{Segment: pool}, rep
	}

	shifted := append([]float64(nil), pool.Time...)

	var total float64
	for _, g := range rep.Gaps {
		total += g.Size + rep.MedianStep
		rep.TotalShift += total
		for k := 0; k <= g.Index; k++ {
			shifted[k] += total
		}
	}

	pool.Time = shifted

	return lightcurve.Series{Segment: pool, Shifted: true}, rep
}
