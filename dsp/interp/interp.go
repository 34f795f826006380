package interp

import "math"

// Linear2 interpolates between a and b at fraction frac in [0,1].
func Linear2(frac, a, b float64) float64 {
	return a + frac*(b-a)
}

// Between evaluates the straight line through (x0, y0) and (x1, y1) at x.
// Returns y0 when x0 == x1.
func Between(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}

	return Linear2((x-x0)/(x1-x0), y0, y1)
}

// Steps returns the points start+k*step, k = 1, 2, ..., that lie strictly
// inside the open interval (start, end). A point within tol*step of end is
// treated as equal to end and excluded. Returns nil for a non-positive step
// or an empty interval.
func Steps(start, end, step, tol float64) []float64 {
	if !(step > 0) || !(end > start) {
		return nil
	}

	limit := end - tol*step

	n := int(math.Ceil((end-start)/step)) - 1
	if n < 0 {
		n = 0
	}

	out := make([]float64, 0, n+1)
	for k := 1; ; k++ {
		x := start + float64(k)*step
		if x >= limit {
			break
		}

		out = append(out, x)
	}

	return out
}

// Resample evaluates the piecewise-linear function through the sorted points
// (xs, ys) at each grid position. Positions outside [xs[0], xs[n-1]] take the
// nearest endpoint value. xs must be ascending and len(xs) == len(ys).
func Resample(xs, ys, grid []float64) []float64 {
	out := make([]float64, len(grid))
	if len(xs) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}

		return out
	}

	last := len(xs) - 1
	j := 0

	for i, x := range grid {
		switch {
		case x <= xs[0]:
			out[i] = ys[0]
			continue
		case x >= xs[last]:
			out[i] = ys[last]
			continue
		}

		// grid is usually ascending; restart the scan only when it is not.
		if j > 0 && xs[j] > x {
			j = 0
		}

		for j < last-1 && xs[j+1] <= x {
			j++
		}

		out[i] = Between(x, xs[j], xs[j+1], ys[j], ys[j+1])
	}

	return out
}
