// Package lightcurve defines the sample containers shared by the cleaning,
// concatenation and spectral stages.
//
// A [Segment] holds one observing window of a target as parallel time and
// flux slices. Missing flux is represented as NaN. A [Series] is the result
// of concatenating all segments of one target and instrument configuration.
package lightcurve
