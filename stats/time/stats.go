// Package time summarises the flux column of a lightcurve: moments, extremes
// and the point-to-point scatter used to judge a cleaned segment.
//
// Missing samples (NaN) are counted and otherwise ignored.
package time

import (
	"math"

	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// Stats holds time-domain statistics of a flux series.
type Stats struct {
	Count   int // valid samples
	Missing int
	Mean    float64
	RMS     float64 // about the mean
	Max     float64
	MaxPos  int
	Min     float64
	MinPos  int
	Range   float64 // max - min
	// Skewness and Kurtosis (excess) are zero for a constant series.
	Skewness float64
	Kurtosis float64
	// PointToPoint is the median absolute difference of consecutive valid
	// samples. It tracks white noise and ignores slow trends.
	PointToPoint float64
}

func emptyStats(missing int) Stats {
	return Stats{
		Missing:      missing,
		Mean:         math.NaN(),
		RMS:          math.NaN(),
		Max:          math.NaN(),
		Min:          math.NaN(),
		Range:        math.NaN(),
		PointToPoint: math.NaN(),
		MaxPos:       -1,
		MinPos:       -1,
	}
}

// moments accumulates central moments with Welford's online update.
type moments struct {
	n          int
	mean       float64
	m2, m3, m4 float64
}

func (m *moments) add(x float64) {
	m.n++

	ni := float64(m.n)
	delta := x - m.mean
	deltaN := delta / ni
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * float64(m.n-1)

	m.m4 += term1*deltaN2*(ni*ni-3*ni+3) + 6*deltaN2*m.m2 - 4*deltaN*m.m3
	m.m3 += term1*deltaN*(float64(m.n-1)-1) - 3*deltaN*m.m2
	m.m2 += term1
	m.mean += deltaN
}

// result returns the population variance, skewness and excess kurtosis.
// Shape terms are zero for a constant series.
func (m *moments) result() (variance, skewness, kurtosis float64) {
	n := float64(m.n)

	variance = m.m2 / n
	if variance > 0 {
		skewness = (m.m3 / n) / (variance * math.Sqrt(variance))
		kurtosis = (m.m4/n)/(variance*variance) - 3
	}

	return variance, skewness, kurtosis
}

// Calculate computes all statistics of flux in one pass plus the scatter.
func Calculate(flux []float64) Stats {
	s := emptyStats(0)

	var m moments

	for i, x := range flux {
		if math.IsNaN(x) {
			s.Missing++
			continue
		}

		if m.n == 0 || x > s.Max {
			s.Max, s.MaxPos = x, i
		}

		if m.n == 0 || x < s.Min {
			s.Min, s.MinPos = x, i
		}

		m.add(x)
	}

	if m.n == 0 {
		return s
	}

	variance, skew, kurt := m.result()

	s.Count = m.n
	s.Mean = m.mean
	s.RMS = math.Sqrt(variance)
	s.Range = s.Max - s.Min
	s.Skewness, s.Kurtosis = skew, kurt
	s.PointToPoint = PointToPoint(flux)

	return s
}

// Moments returns the mean, population variance, skewness and excess
// kurtosis of the valid samples of flux. All are NaN without valid samples.
func Moments(flux []float64) (mean, variance, skewness, kurtosis float64) {
	var m moments

	for _, x := range flux {
		if !math.IsNaN(x) {
			m.add(x)
		}
	}

	if m.n == 0 {
		nan := math.NaN()
		return nan, nan, nan, nan
	}

	variance, skewness, kurtosis = m.result()

	return m.mean, variance, skewness, kurtosis
}

// PointToPoint returns the median of |x[i+1]-x[i]| over consecutive pairs
// where both samples are valid, or NaN when there is no such pair.
func PointToPoint(flux []float64) float64 {
	diffs := make([]float64, 0, len(flux))

	for i := 1; i < len(flux); i++ {
		a, b := flux[i-1], flux[i]
		if math.IsNaN(a) || math.IsNaN(b) {
			continue
		}

		diffs = append(diffs, math.Abs(b-a))
	}

	if len(diffs) == 0 {
		return math.NaN()
	}

	return robust.MedianInPlace(diffs)
}
