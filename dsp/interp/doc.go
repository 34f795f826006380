// Package interp provides the linear interpolation primitives used to repair
// lightcurve gaps and to put unevenly sampled data on a uniform grid.
//
//   - [Linear2]:  fractional interpolation between two values
//   - [Between]:  the line through two (x, y) points evaluated at x
//   - [Steps]:    evenly spaced points strictly inside an interval
//   - [Resample]: piecewise-linear resampling of sorted data onto a grid
package interp
