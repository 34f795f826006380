// Package psd computes power spectral densities of concatenated lightcurves.
//
// Input times are in days and fluxes are relative. [Compute] converts them to
// megaseconds and parts per million, evaluates a periodogram on an
// oversampled frequency grid up to a cadence-dependent limit, and scales the
// result to ppm²/µHz so that it integrates to twice the flux variance.
package psd

import (
	"context"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-lightcurve/dsp/window"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

const minSamples = 3

// Estimator evaluates an unnormalised periodogram of (t, y) on a frequency
// grid. Implementations must not modify t or y.
type Estimator interface {
	Name() string
	Estimate(ctx context.Context, t, y []float64, g Grid) ([]float64, error)
}

// Estimator names accepted by [NewEstimator].
const (
	EstimatorLombScargle = "lomb-scargle"
	EstimatorFFT         = "fft"
)

// NewEstimator returns the estimator registered under name. win only
// affects the FFT estimator; workers only affects Lomb-Scargle.
func NewEstimator(name string, win window.Type, workers int) (Estimator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EstimatorLombScargle:
		return LombScargle{Workers: workers}, nil
	case EstimatorFFT:
		return FFT{Window: win}, nil
	default:
		return nil, fmt.Errorf("%w: estimator %q", ErrUnsupportedConfiguration, name)
	}
}

// Options configures [Compute].
type Options struct {
	// Estimator defaults to LombScargle.
	Estimator Estimator
	// SamplesPerPeak defaults to DefaultSamplesPerPeak.
	SamplesPerPeak int
}

// Spectrum is a power spectral density in ppm²/µHz over frequencies in µHz.
type Spectrum struct {
	Frequency []float64
	Power     []float64
	// Variance is the sample variance (ddof=1) of the flux in ppm².
	Variance float64
	// Samples is the number of valid samples used.
	Samples int
}

// Compute returns the power spectral density of a lightcurve recorded at
// cadence seconds for a target of the given class.
func Compute(ctx context.Context, time, flux []float64, cadence int, class string, opts Options) (Spectrum, error) {
	fmax, err := MaxFrequency(cadence, class)
	if err != nil {
		return Spectrum{}, err
	}

	t, f := Prepare(time, flux)
	if len(t) < minSamples {
		return Spectrum{}, fmt.Errorf("%w: %d valid samples", ErrTooFewSamples, len(t))
	}

	lo, hi := t[0], t[0]
	for _, v := range t {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	grid, err := AutoGrid(hi-lo, opts.SamplesPerPeak, fmax)
	if err != nil {
		return Spectrum{}, err
	}

	est := opts.Estimator
	if est == nil {
		est = LombScargle{}
	}

	power, err := est.Estimate(ctx, t, f, grid)
	if err != nil {
		return Spectrum{}, fmt.Errorf("%s: %w", est.Name(), err)
	}

	variance := robust.Variance(f, 1)
	Normalize(power, variance, grid.Step)

	return Spectrum{
		Frequency: grid.Frequencies(),
		Power:     power,
		Variance:  variance,
		Samples:   len(t),
	}, nil
}

// Normalize scales power in place to
//
//	P = 2 * P * variance / (sum(P) * df)
//
// A periodogram with zero total power is left unchanged.
func Normalize(power []float64, variance, df float64) {
	sum := vecmath.Sum(power)
	if sum == 0 || df == 0 {
		return
	}

	vecmath.ScaleBlockInPlace(power, 2*variance/(sum*df))
}
