package lightcurve

import (
	"fmt"
	"math"
	"sort"
)

// Segment is one lightcurve as loaded from a single source: parallel time and
// flux columns. Time is in days; flux is in instrument units or, after
// normalisation, relative units.
//
// Transform stages never modify a Segment in place; each returns a new one.
type Segment struct {
	Source string
	Time   []float64
	Flux   []float64
}

// New returns a Segment over copies of time and flux.
func New(source string, time, flux []float64) (Segment, error) {
	if len(time) != len(flux) {
		return Segment{}, fmt.Errorf("%w: time %d, flux %d", ErrLengthMismatch, len(time), len(flux))
	}

	return Segment{
		Source: source,
		Time:   append([]float64(nil), time...),
		Flux:   append([]float64(nil), flux...),
	}, nil
}

// Len returns the number of samples.
func (s Segment) Len() int { return len(s.Time) }

// Empty reports whether the segment holds no samples.
func (s Segment) Empty() bool { return len(s.Time) == 0 }

// Clone returns a deep copy of s.
func (s Segment) Clone() Segment {
	return Segment{
		Source: s.Source,
		Time:   append([]float64(nil), s.Time...),
		Flux:   append([]float64(nil), s.Flux...),
	}
}

// Sorted reports whether the time column is non-decreasing.
func (s Segment) Sorted() bool {
	return sort.Float64sAreSorted(s.Time)
}

// SortByTime returns a copy of s ordered by ascending time. The sort is
// stable so samples with equal timestamps keep their relative order.
func (s Segment) SortByTime() Segment {
	if s.Sorted() {
		return s.Clone()
	}

	idx := Order(s.Time)
	out := Segment{
		Source: s.Source,
		Time:   make([]float64, len(idx)),
		Flux:   make([]float64, len(idx)),
	}

	for i, j := range idx {
		out.Time[i] = s.Time[j]
		out.Flux[i] = s.Flux[j]
	}

	return out
}

// Order returns the permutation that sorts values ascending (stable).
func Order(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	return idx
}

// Diffs returns the consecutive differences x[i+1]-x[i]. The result has
// len(x)-1 elements, or none when x has fewer than two.
func Diffs(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}

	out := make([]float64, len(x)-1)
	for i := range out {
		out[i] = x[i+1] - x[i]
	}

	return out
}

// DropMissing returns a copy of s without samples whose time or flux is NaN.
func (s Segment) DropMissing() Segment {
	out := Segment{
		Source: s.Source,
		Time:   make([]float64, 0, len(s.Time)),
		Flux:   make([]float64, 0, len(s.Flux)),
	}

	for i := range s.Time {
		if math.IsNaN(s.Time[i]) || math.IsNaN(s.Flux[i]) {
			continue
		}

		out.Time = append(out.Time, s.Time[i])
		out.Flux = append(out.Flux, s.Flux[i])
	}

	return out
}

// Missing returns the number of samples with NaN flux.
func (s Segment) Missing() int {
	var n int

	for _, f := range s.Flux {
		if math.IsNaN(f) {
			n++
		}
	}

	return n
}

// Series is the merge of all segments sharing a group key, on one time axis.
// Shifted records whether any inter-segment gap correction was applied.
type Series struct {
	Segment

	Shifted bool
}
