package psd

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// DefaultChunkSize is the number of frequencies one worker evaluates before
// re-seeding its phase recurrence.
const DefaultChunkSize = 512

// LombScargle evaluates the classic floating-tau Lomb-Scargle periodogram of
// the mean-subtracted series:
//
//	P(f) = 1/2 * [ (Σ y cos ω(t-τ))² / Σ cos² ω(t-τ) + (Σ y sin ω(t-τ))² / Σ sin² ω(t-τ) ]
//
// with ω = 2πf and tan 2ωτ = Σ sin 2ωt / Σ cos 2ωt. The mean is removed once
// for the whole series and not fitted per frequency, so this is not the
// floating-mean (generalised) periodogram; the two differ mostly at low
// frequency where a partial cycle leaves a non-zero mean.
//
// The grid is split into chunks evaluated concurrently; within a chunk the
// per-sample phases advance by rotation instead of fresh sine and cosine calls.
type LombScargle struct {
	// Workers bounds the number of concurrent chunks. Zero uses GOMAXPROCS.
	Workers int
	// ChunkSize is the number of frequencies per chunk. Zero uses
	// DefaultChunkSize.
	ChunkSize int
}

// Name implements [Estimator].
func (LombScargle) Name() string { return "lomb-scargle" }

// Estimate implements [Estimator].
func (ls LombScargle) Estimate(ctx context.Context, t, y []float64, g Grid) ([]float64, error) {
	n := len(t)
	if n < minSamples || len(y) != n {
		return nil, fmt.Errorf("%w: %d samples", ErrTooFewSamples, n)
	}

	workers := ls.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	chunk := ls.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	// The periodogram does not depend on the time origin or the mean flux.
	// Removing both keeps the phase arguments small.
	t0 := t[0]
	for _, v := range t {
		t0 = math.Min(t0, v)
	}

	mean := robust.Mean(y)

	tc := make([]float64, n)
	yc := make([]float64, n)

	for i := range t {
		tc[i] = t[i] - t0
		yc[i] = y[i] - mean
	}

	out := make([]float64, g.N)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for lo := 0; lo < g.N; lo += chunk {
		hi := min(lo+chunk, g.N)

		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			lombScargleChunk(tc, yc, g, lo, hi, out[lo:hi])

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// lombScargleChunk fills dst with P(g.At(k)) for k in [lo, hi).
func lombScargleChunk(t, y []float64, g Grid, lo, hi int, dst []float64) {
	n := len(t)

	c := make([]float64, n)
	s := make([]float64, n)
	cd := make([]float64, n)
	sd := make([]float64, n)

	w0 := 2 * math.Pi * g.At(lo)
	dw := 2 * math.Pi * g.Step

	for i, ti := range t {
		s[i], c[i] = math.Sincos(w0 * ti)
		sd[i], cd[i] = math.Sincos(dw * ti)
	}

	for k := range hi - lo {
		var yc, ys, cc, ss, cs float64

		for i := range t {
			ci, si := c[i], s[i]
			yc += y[i] * ci
			ys += y[i] * si
			cc += ci * ci
			ss += si * si
			cs += ci * si
		}

		dst[k] = lombScarglePower(yc, ys, cc, ss, cs)

		for i := range t {
			ci, si := c[i], s[i]
			c[i] = ci*cd[i] - si*sd[i]
			s[i] = si*cd[i] + ci*sd[i]
		}
	}
}

// lombScarglePower rotates the sums by the time offset τ and evaluates the
// periodogram. A vanishing denominator drops its term.
func lombScarglePower(yc, ys, cc, ss, cs float64) float64 {
	theta := 0.5 * math.Atan2(2*cs, cc-ss)
	st, ct := math.Sincos(theta)

	ycT := yc*ct + ys*st
	ysT := ys*ct - yc*st
	ccT := ct*ct*cc + 2*ct*st*cs + st*st*ss
	ssT := st*st*cc - 2*ct*st*cs + ct*ct*ss

	eps := 1e-12 * (cc + ss)

	var p float64
	if ccT > eps {
		p += ycT * ycT / ccT
	}

	if ssT > eps {
		p += ysT * ysT / ssT
	}

	return 0.5 * p
}
