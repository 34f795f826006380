package time

import (
	"math"
	"testing"
)

const tolerance = 1e-10

func almostEqual(a, b, tol float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}

	return math.Abs(a-b) <= tol
}

func TestCalculateEmpty(t *testing.T) {
	s := Calculate(nil)
	if s.Count != 0 || !math.IsNaN(s.Mean) || !math.IsNaN(s.PointToPoint) || s.MaxPos != -1 {
		t.Fatalf("unexpected stats for empty input: %+v", s)
	}
}

func TestCalculateAllMissing(t *testing.T) {
	nan := math.NaN()

	s := Calculate([]float64{nan, nan})
	if s.Count != 0 || s.Missing != 2 || !math.IsNaN(s.RMS) {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestCalculateBasic(t *testing.T) {
	flux := []float64{1, 3, math.NaN(), 5, 7}

	s := Calculate(flux)

	if s.Count != 4 || s.Missing != 1 {
		t.Fatalf("count %d missing %d", s.Count, s.Missing)
	}

	if !almostEqual(s.Mean, 4, tolerance) {
		t.Fatalf("mean %v, want 4", s.Mean)
	}

	if !almostEqual(s.RMS, math.Sqrt(5), tolerance) {
		t.Fatalf("rms %v, want sqrt(5)", s.RMS)
	}

	if s.Max != 7 || s.MaxPos != 4 || s.Min != 1 || s.MinPos != 0 || s.Range != 6 {
		t.Fatalf("extremes %+v", s)
	}

	if !almostEqual(s.Skewness, 0, tolerance) {
		t.Fatalf("skewness %v, want 0", s.Skewness)
	}

	// Pairs (1,3) and (5,7); the NaN breaks (3,nan) and (nan,5).
	if !almostEqual(s.PointToPoint, 2, tolerance) {
		t.Fatalf("point-to-point %v, want 2", s.PointToPoint)
	}
}

func TestCalculateConstant(t *testing.T) {
	s := Calculate([]float64{2, 2, 2, 2})
	if s.RMS != 0 || s.Skewness != 0 || s.Kurtosis != 0 || s.PointToPoint != 0 {
		t.Fatalf("constant series: %+v", s)
	}
}

func TestMomentsMatchesCalculate(t *testing.T) {
	flux := make([]float64, 200)
	for i := range flux {
		x := float64(i) / 10
		flux[i] = math.Exp(-x) + 0.1*math.Sin(3*x)
	}

	s := Calculate(flux)
	mean, variance, skew, kurt := Moments(flux)

	if !almostEqual(mean, s.Mean, tolerance) || !almostEqual(math.Sqrt(variance), s.RMS, tolerance) {
		t.Fatalf("moments %v %v, stats %v %v", mean, variance, s.Mean, s.RMS)
	}

	if !almostEqual(skew, s.Skewness, tolerance) || !almostEqual(kurt, s.Kurtosis, tolerance) {
		t.Fatalf("shape %v %v, stats %v %v", skew, kurt, s.Skewness, s.Kurtosis)
	}

	if skew <= 0 {
		t.Fatalf("decaying exponential should be right-skewed, got %v", skew)
	}
}

func TestMomentsTwoPoint(t *testing.T) {
	mean, variance, skew, kurt := Moments([]float64{-1, 1})

	if mean != 0 || variance != 1 || !almostEqual(skew, 0, tolerance) || !almostEqual(kurt, -2, tolerance) {
		t.Fatalf("got %v %v %v %v", mean, variance, skew, kurt)
	}
}

func TestPointToPointIgnoresTrend(t *testing.T) {
	flux := make([]float64, 101)
	for i := range flux {
		flux[i] = 0.5 * float64(i)
		if i%2 == 1 {
			flux[i] += 1
		}
	}

	// Alternating +1 on a 0.5 slope: steps are 1.5 and -0.5.
	got := PointToPoint(flux)
	if !almostEqual(got, 1, tolerance) {
		t.Fatalf("point-to-point %v, want 1", got)
	}
}

func TestPointToPointNoPairs(t *testing.T) {
	if got := PointToPoint([]float64{1}); !math.IsNaN(got) {
		t.Fatalf("got %v, want NaN", got)
	}
}
