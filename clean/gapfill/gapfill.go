// Package gapfill repairs short interruptions in a lightcurve by linear
// interpolation at the segment's own cadence.
//
// The cadence is the median of consecutive time differences. A gap d between
// two neighbouring samples is filled when
//
//	CadenceFactor*step < d < Threshold
//
// Gaps at or above Threshold are real data absences and are left alone; gaps
// up to CadenceFactor*step are ordinary sampling jitter.
package gapfill

import (
	"github.com/cwbudde/algo-lightcurve/dsp/interp"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

const (
	// DefaultCadenceFactor is the multiple of the median step above which a
	// difference counts as a gap.
	DefaultCadenceFactor = 1.95

	// DefaultThreshold is the largest gap repaired, in days (1.5 hours).
	DefaultThreshold = 1.5 / 24

	// stepTolerance, in steps, keeps rounding in stored timestamps from
	// adding a point on top of the right-hand sample when a gap is a whole
	// multiple of the step.
	stepTolerance = 1e-3
)

// Options configures [Fill].
type Options struct {
	// Threshold is the exclusive upper bound on repaired gaps, in time units.
	// Zero selects DefaultThreshold.
	Threshold float64
	// CadenceFactor is the exclusive lower bound on gaps in units of the
	// median step. Zero selects DefaultCadenceFactor.
	CadenceFactor float64
}

// Report describes what [Fill] did.
type Report struct {
	// Step is the median sampling step; zero when undefined.
	Step float64
	// Filled counts gaps that received interpolated samples.
	Filled int
	// Kept counts gaps at or above the threshold that were left open.
	Kept int
	// Inserted is the total number of synthesised samples.
	Inserted int
}

// Fill returns a time-sorted copy of seg with every eligible gap filled.
// Original samples are preserved; synthesised ones lie on the straight line
// between the gap's endpoints.
func Fill(seg lightcurve.Segment, opts Options) (lightcurve.Segment, Report) {
	factor := opts.CadenceFactor
	if factor <= 0 {
		factor = DefaultCadenceFactor
	}

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	src := seg.SortByTime()

	step, ok := robust.MedianStep(src.Time)
	if !ok {
		return src, Report{}
	}

	rep := Report{Step: step}
	lower := factor * step

	var addT, addF []float64

	for i := 1; i < src.Len(); i++ {
		t0, t1 := src.Time[i-1], src.Time[i]
		d := t1 - t0

		if d >= threshold {
			if d > lower {
				rep.Kept++
			}

			continue
		}

		if !(d > lower) {
			continue
		}

		f0, f1 := src.Flux[i-1], src.Flux[i]

		pts := interp.Steps(t0, t1, step, stepTolerance)
		if len(pts) == 0 {
			continue
		}

		for _, x := range pts {
			addT = append(addT, x)
			addF = append(addF, interp.Between(x, t0, t1, f0, f1))
		}

		rep.Filled++
		rep.Inserted += len(pts)
	}

	if rep.Inserted == 0 {
		return src, rep
	}

	return merge(src, addT, addF), rep
}

// merge interleaves the sorted synthetic samples into the sorted segment.
// Synthetic points lie strictly between two originals, so a two-way merge
// yields a sorted result without a full re-sort.
func merge(src lightcurve.Segment, addT, addF []float64) lightcurve.Segment {
	n := src.Len() + len(addT)
	out := lightcurve.Segment{
		Source: src.Source,
		Time:   make([]float64, 0, n),
		Flux:   make([]float64, 0, n),
	}

	j := 0
	for i := range src.Time {
		for j < len(addT) && addT[j] < src.Time[i] {
			out.Time = append(out.Time, addT[j])
			out.Flux = append(out.Flux, addF[j])
			j++
		}

		out.Time = append(out.Time, src.Time[i])
		out.Flux = append(out.Flux, src.Flux[i])
	}

	out.Time = append(out.Time, addT[j:]...)
	out.Flux = append(out.Flux, addF[j:]...)

	return out
}
