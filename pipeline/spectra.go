package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/cwbudde/algo-lightcurve/internal/config"
	"github.com/cwbudde/algo-lightcurve/internal/lcio"
	"github.com/cwbudde/algo-lightcurve/psd"
	frequencystats "github.com/cwbudde/algo-lightcurve/stats/frequency"
)

// SpectrumResult describes one written spectrum.
type SpectrumResult struct {
	Output  string
	Samples int
	// Variance is the flux variance in ppm².
	Variance float64
	Stats    frequencystats.Stats
}

func (r SpectrumResult) attrs() []slog.Attr {
	if r.Stats.Bins == 0 {
		return nil
	}

	return []slog.Attr{
		slog.Int("bins", r.Stats.Bins),
		slog.Float64("peak_uhz", r.Stats.Peak),
		slog.Float64("centroid_uhz", r.Stats.Centroid),
		slog.Float64("spread_uhz", r.Stats.Spread),
		slog.Float64("rolloff_uhz", r.Stats.Rolloff),
		slog.Float64("flatness", r.Stats.Flatness),
		slog.Float64("integral_ppm2", r.Stats.Integral),
		slog.Float64("variance_ppm2", r.Variance),
	}
}

// SpectrumFile computes the spectrum of one indexed series read from inDir
// and writes it into outDir.
func SpectrumFile(ctx context.Context, row lcio.IndexRow, inDir, outDir string, opts psd.Options) (SpectrumResult, error) {
	res := SpectrumResult{Output: filepath.Join(outDir, lcio.SpectrumName(row.FileName))}
	if lcio.Exists(res.Output) {
		return res, fmt.Errorf("%w: %s", ErrOutputExists, res.Output)
	}

	seg, err := lcio.ReadSegment(filepath.Join(inDir, row.FileName), lcio.DefaultReadOptions)
	if err != nil {
		return res, err
	}

	if seg.Empty() {
		return res, fmt.Errorf("%w: %s", ErrEmptySegment, row.FileName)
	}

	spec, err := psd.Compute(ctx, seg.Time, seg.Flux, row.Cadence, row.Class, opts)
	if err != nil {
		return res, fmt.Errorf("%s: %w", row.FileName, err)
	}

	res.Samples = spec.Samples
	res.Variance = spec.Variance
	res.Stats = frequencystats.Calculate(spec.Frequency, spec.Power)

	if err := lcio.WriteSpectrum(res.Output, spec.Frequency, spec.Power); err != nil {
		return res, fmt.Errorf("write %s: %w", res.Output, err)
	}

	return res, nil
}

// Spectra runs stage three over every row of the spectral index. Rows whose
// cadence and class have no frequency limit fail individually.
func Spectra(ctx context.Context, cfg config.Config, env Env) (Summary, error) {
	env = env.withDefaults()

	if err := requireDirs(map[string]string{"concat": cfg.Dirs.Concat, "psd": cfg.Dirs.PSD}); err != nil {
		return Summary{Stage: StageSpectra}, err
	}

	if err := makeDirs(cfg.Dirs.PSD); err != nil {
		return Summary{Stage: StageSpectra}, err
	}

	est, err := cfg.Estimator()
	if err != nil {
		return Summary{Stage: StageSpectra}, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	rows, err := lcio.ReadIndex(cfg.IndexPath())
	if err != nil {
		return Summary{Stage: StageSpectra}, fmt.Errorf("read index: %w", err)
	}

	r, err := begin(ctx, env, StageSpectra)
	if err != nil {
		return Summary{Stage: StageSpectra}, err
	}

	opts := psd.Options{Estimator: est, SamplesPerPeak: cfg.Spectra.SamplesPerPeak}

	err = each(ctx, cfg.Workers, rows, func(ctx context.Context, row lcio.IndexRow) {
		res, err := SpectrumFile(ctx, row, cfg.Dirs.Concat, cfg.Dirs.PSD, opts)
		r.record(ctx, row.FileName, res.Samples, err, res.attrs()...)
	})

	return r.finish(ctx, err), err
}
