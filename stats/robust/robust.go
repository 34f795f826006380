package robust

import (
	"math"
	"sort"
)

// Median returns the median of x. For an even count it is the mean of the
// two central values. Returns NaN for an empty slice. x is not modified.
//
// NaN values are ordered first by the sort and are not skipped; use
// [NaNMedian] when x may contain missing values.
func Median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}

	buf := append([]float64(nil), x...)

	return MedianInPlace(buf)
}

// MedianInPlace is [Median] without the copy: buf is sorted in place.
func MedianInPlace(buf []float64) float64 {
	n := len(buf)
	if n == 0 {
		return math.NaN()
	}

	sort.Float64s(buf)

	mid := n / 2
	if n%2 == 1 {
		return buf[mid]
	}

	return 0.5 * (buf[mid-1] + buf[mid])
}

// NaNMedian returns the median of the non-NaN values of x, or NaN when there
// are none.
func NaNMedian(x []float64) float64 {
	buf := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			buf = append(buf, v)
		}
	}

	return MedianInPlace(buf)
}

// Mean returns the arithmetic mean of x using Kahan summation.
// Returns NaN for an empty slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}

	var sum, c float64
	for _, v := range x {
		y := v - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(x))
}

// Variance returns the variance of x with ddof delta degrees of freedom
// (ddof=0 population, ddof=1 sample), computed with Welford's algorithm.
// Returns NaN when len(x) <= ddof.
func Variance(x []float64, ddof int) float64 {
	n := len(x)
	if n <= ddof {
		return math.NaN()
	}

	var mean, m2 float64

	for i, v := range x {
		delta := v - mean
		mean += delta / float64(i+1)
		m2 += delta * (v - mean)
	}

	return m2 / float64(n-ddof)
}

// Std returns the standard deviation of x with ddof delta degrees of freedom.
func Std(x []float64, ddof int) float64 {
	return math.Sqrt(Variance(x, ddof))
}

// MedianStep returns the median of the consecutive differences of times.
// ok is false when fewer than two samples are given.
func MedianStep(times []float64) (step float64, ok bool) {
	if len(times) < 2 {
		return 0, false
	}

	d := make([]float64, len(times)-1)
	for i := range d {
		d[i] = times[i+1] - times[i]
	}

	return MedianInPlace(d), true
}
