package frequency

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// axis returns n frequencies f0, f0+df, ...
func axis(n int, f0, df float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f0 + float64(i)*df
	}

	return out
}

// makeSingleBinSpectrum creates a spectrum of given length with a single
// non-zero bin at the specified index.
func makeSingleBinSpectrum(n, bin int, power float64) []float64 {
	out := make([]float64, n)
	if bin >= 0 && bin < n {
		out[bin] = power
	}

	return out
}

// makeFlatSpectrum creates a spectrum where all bins have the same power.
func makeFlatSpectrum(n int, power float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = power
	}

	return out
}

func TestCalculateEmpty(t *testing.T) {
	s := Calculate(nil, nil)
	if s.Bins != 0 || s.PeakBin != -1 {
		t.Fatalf("unexpected stats for empty input: %+v", s)
	}
}

func TestCalculateSingleLine(t *testing.T) {
	freq := axis(100, 0.5, 1)
	power := makeSingleBinSpectrum(100, 30, 4)

	s := Calculate(freq, power)

	if s.PeakBin != 30 || s.Peak != 30.5 || s.PeakPower != 4 {
		t.Fatalf("peak %+v", s)
	}

	if !almostEqual(s.Centroid, 30.5, tolerance) || !almostEqual(s.Spread, 0, tolerance) {
		t.Fatalf("centroid %v spread %v", s.Centroid, s.Spread)
	}

	if s.Flatness != 0 {
		t.Fatalf("flatness %v, want 0", s.Flatness)
	}

	if s.Rolloff != 30.5 {
		t.Fatalf("rolloff %v, want 30.5", s.Rolloff)
	}

	// Trapezoids on either side of the line: 2 * 0.5 * 4 * 1.
	if !almostEqual(s.Integral, 4, tolerance) {
		t.Fatalf("integral %v, want 4", s.Integral)
	}
}

func TestCalculateFlat(t *testing.T) {
	freq := axis(11, 0, 10)
	power := makeFlatSpectrum(11, 2)

	s := Calculate(freq, power)

	if !almostEqual(s.Flatness, 1, tolerance) {
		t.Fatalf("flatness %v, want 1", s.Flatness)
	}

	if !almostEqual(s.Centroid, 50, tolerance) {
		t.Fatalf("centroid %v, want 50", s.Centroid)
	}

	if !almostEqual(s.Mean, 2, tolerance) || !almostEqual(s.Integral, 200, tolerance) {
		t.Fatalf("mean %v integral %v", s.Mean, s.Integral)
	}

	if s.PeakBin != 0 {
		t.Fatalf("peak bin %d, want the first of equal bins", s.PeakBin)
	}
}

func TestCentroidZeroPower(t *testing.T) {
	if got := Centroid(axis(4, 0, 1), make([]float64, 4)); got != 0 {
		t.Fatalf("centroid %v, want 0", got)
	}
}

func TestRolloffFraction(t *testing.T) {
	freq := axis(4, 1, 1)
	power := []float64{1, 1, 1, 1}

	tests := []struct {
		fraction float64
		want     float64
	}{
		{0.25, 1},
		{0.5, 2},
		{0.85, 4},
		{2, 4},
		{-1, 1},
	}

	for _, tt := range tests {
		if got := Rolloff(freq, power, tt.fraction); got != tt.want {
			t.Fatalf("Rolloff(%v) = %v, want %v", tt.fraction, got, tt.want)
		}
	}
}

func TestMismatchedLengths(t *testing.T) {
	s := Calculate(axis(3, 0, 1), []float64{1, 2, 3, 4, 5})
	if s.Bins != 3 || s.PeakBin != 2 {
		t.Fatalf("stats %+v, want 3 bins with peak at 2", s)
	}
}
