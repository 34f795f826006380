// Package sigmaclip removes flux outliers lying outside a symmetric band
// around the median.
package sigmaclip

import (
	"math"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// DefaultSigma is the band half-width in standard deviations.
const DefaultSigma = 4.0

// Report describes what [Clip] did.
type Report struct {
	Median  float64
	Std     float64
	Lower   float64
	Upper   float64
	Removed int
}

// Clip returns the samples of seg whose flux lies in
//
//	[median - sigma*std, median + sigma*std]
//
// with the median and the sample standard deviation (ddof=1) taken over the
// whole segment. The clip is a single pass. When the deviation is zero or
// undefined every sample is kept. NaN flux never lies inside the band.
func Clip(seg lightcurve.Segment, sigma float64) (lightcurve.Segment, Report) {
	if seg.Empty() {
		return seg.Clone(), Report{Median: math.NaN(), Std: math.NaN()}
	}

	valid := make([]float64, 0, seg.Len())
	for _, f := range seg.Flux {
		if !math.IsNaN(f) {
			valid = append(valid, f)
		}
	}

	rep := Report{
		Median: robust.Median(valid),
		Std:    robust.Std(valid, 1),
	}

	if math.IsNaN(rep.Std) || rep.Std == 0 {
		rep.Lower, rep.Upper = math.Inf(-1), math.Inf(1)
	} else {
		rep.Lower = rep.Median - sigma*rep.Std
		rep.Upper = rep.Median + sigma*rep.Std
	}

	out := lightcurve.Segment{
		Source: seg.Source,
		Time:   make([]float64, 0, seg.Len()),
		Flux:   make([]float64, 0, seg.Len()),
	}

	for i, f := range seg.Flux {
		if !(f >= rep.Lower && f <= rep.Upper) {
			rep.Removed++
			continue
		}

		out.Time = append(out.Time, seg.Time[i])
		out.Flux = append(out.Flux, f)
	}

	return out, rep
}
