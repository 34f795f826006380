package psd

import (
	"context"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-lightcurve/dsp/interp"
	"github.com/cwbudde/algo-lightcurve/dsp/window"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// DefaultMaxFFTSize bounds the zero padding of the FFT estimator.
const DefaultMaxFFTSize = 1 << 22

// FFT estimates the periodogram by resampling the series onto its median
// step, tapering, zero padding to a power of two and taking the one-sided
// power of a single transform. Grid frequencies between bins are linearly
// interpolated; frequencies above the resampled Nyquist limit get zero.
//
// It is much faster than [LombScargle] on long series but smears power
// across gaps, since the resampling bridges them with straight lines.
type FFT struct {
	Window window.Type
	// MaxSize caps the transform length used for oversampling. The series
	// itself is never truncated. Zero uses DefaultMaxFFTSize.
	MaxSize int
}

// Name implements [Estimator].
func (FFT) Name() string { return "fft" }

// Estimate implements [Estimator].
func (e FFT) Estimate(ctx context.Context, t, y []float64, g Grid) ([]float64, error) {
	if len(t) < minSamples || len(y) != len(t) {
		return nil, fmt.Errorf("%w: %d samples", ErrTooFewSamples, len(t))
	}

	sorted := lightcurve.Segment{Time: t, Flux: y}.SortByTime()

	step, _ := robust.MedianStep(sorted.Time)
	if !(step > 0) {
		return nil, fmt.Errorf("%w: non-positive median step", ErrTooFewSamples)
	}

	first := sorted.Time[0]
	n := int(math.Floor((sorted.Time[sorted.Len()-1]-first)/step)) + 1

	grid := make([]float64, n)
	for i := range grid {
		grid[i] = first + float64(i)*step
	}

	frame := interp.Resample(sorted.Time, sorted.Flux, grid)

	mean := robust.Mean(frame)
	for i := range frame {
		frame[i] -= mean
	}

	coeffs := window.Generate(e.Window, n)
	vecmath.MulBlockInPlace(frame, coeffs)

	gain, err := window.PowerGain(coeffs)
	if err != nil {
		return nil, fmt.Errorf("psd fft window: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fftSize := e.size(n, step, g.Step)

	in := make([]complex128, fftSize)
	for i, v := range frame {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("psd fft plan: %w", err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("psd fft forward: %w", err)
	}

	half := fftSize/2 + 1
	re := make([]float64, half)
	im := make([]float64, half)
	bins := make([]float64, half)
	binWidth := 1 / (float64(fftSize) * step)

	for k := range half {
		re[k] = real(out[k])
		im[k] = imag(out[k])
		bins[k] = float64(k) * binWidth
	}

	power := make([]float64, half)
	vecmath.Power(power, re, im)
	vecmath.ScaleBlockInPlace(power, 1/(float64(n)*gain))

	freqs := g.Frequencies()
	res := interp.Resample(bins, power, freqs)

	nyquist := bins[half-1]
	for i, f := range freqs {
		if f > nyquist {
			res[i] = 0
		}
	}

	return res, nil
}

// size picks the transform length: at least the frame, and long enough for
// the bin width to match the grid step unless that exceeds MaxSize.
func (e FFT) size(n int, step, df float64) int {
	limit := e.MaxSize
	if limit <= 0 {
		limit = DefaultMaxFFTSize
	}

	want := n
	if df > 0 {
		w := math.Ceil(1 / (step * df))
		if w > float64(limit) {
			w = float64(limit)
		}

		want = max(want, int(w))
	}

	return max(nextPowerOf2(n), min(nextPowerOf2(want), nextPowerOf2(limit)))
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p *= 2
	}

	return p
}
