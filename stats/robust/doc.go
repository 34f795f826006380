// Package robust provides the order and moment statistics used to clean
// lightcurves: medians (optionally ignoring NaN), Kahan-summed means,
// Welford variance with a ddof parameter, and the median sampling step of a
// time axis.
package robust
