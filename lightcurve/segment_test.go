package lightcurve

import (
	"errors"
	"math"
	"testing"
)

func TestNewCopiesInput(t *testing.T) {
	tm := []float64{0, 1, 2}
	fl := []float64{1, 2, 3}

	s, err := New("a.txt", tm, fl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tm[0] = 99
	fl[0] = 99

	if s.Time[0] != 0 || s.Flux[0] != 1 {
		t.Fatalf("segment aliases caller slices: %v %v", s.Time, s.Flux)
	}
	if s.Len() != 3 || s.Empty() {
		t.Fatalf("Len=%d Empty=%v", s.Len(), s.Empty())
	}
}

func TestNewLengthMismatch(t *testing.T) {
	_, err := New("", []float64{1, 2}, []float64{1})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("got %v, want ErrLengthMismatch", err)
	}
}

func TestSortByTimeStable(t *testing.T) {
	s := Segment{
		Time: []float64{3, 1, 2, 1},
		Flux: []float64{30, 10, 20, 11},
	}

	got := s.SortByTime()

	wantT := []float64{1, 1, 2, 3}
	wantF := []float64{10, 11, 20, 30}
	for i := range wantT {
		if got.Time[i] != wantT[i] || got.Flux[i] != wantF[i] {
			t.Fatalf("index %d: got (%v,%v), want (%v,%v)", i, got.Time[i], got.Flux[i], wantT[i], wantF[i])
		}
	}

	if s.Time[0] != 3 {
		t.Fatalf("SortByTime modified its receiver")
	}
}

func TestDiffs(t *testing.T) {
	if d := Diffs([]float64{5}); d != nil {
		t.Fatalf("single sample: got %v, want nil", d)
	}

	d := Diffs([]float64{0, 1, 3, 6})
	want := []float64{1, 2, 3}
	for i := range want {
		if d[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, d[i], want[i])
		}
	}
}

func TestDropMissing(t *testing.T) {
	nan := math.NaN()
	s := Segment{
		Time: []float64{0, 1, nan, 3},
		Flux: []float64{1, nan, 2, 4},
	}

	if s.Missing() != 1 {
		t.Fatalf("Missing: got %d, want 1", s.Missing())
	}

	got := s.DropMissing()
	if got.Len() != 2 || got.Time[0] != 0 || got.Time[1] != 3 {
		t.Fatalf("DropMissing: got %v", got.Time)
	}
}
