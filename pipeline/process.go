package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/cwbudde/algo-lightcurve/clean/gapfill"
	"github.com/cwbudde/algo-lightcurve/clean/localnorm"
	"github.com/cwbudde/algo-lightcurve/clean/sigmaclip"
	"github.com/cwbudde/algo-lightcurve/internal/config"
	"github.com/cwbudde/algo-lightcurve/internal/lcio"
	"github.com/cwbudde/algo-lightcurve/meta"
	timestats "github.com/cwbudde/algo-lightcurve/stats/time"
)

// FileResult describes one cleaned segment.
type FileResult struct {
	Input   string
	Output  string
	Samples int
	Fill    gapfill.Report
	Clip    sigmaclip.Report
	// Stats describes the normalised flux written.
	Stats timestats.Stats
}

func (r FileResult) attrs() []slog.Attr {
	if r.Samples == 0 {
		return nil
	}

	return []slog.Attr{
		slog.Int("filled", r.Fill.Inserted),
		slog.Int("clipped", r.Clip.Removed),
		slog.Float64("scatter_ppm", r.Stats.PointToPoint*1e6),
		slog.Float64("rms_ppm", r.Stats.RMS*1e6),
		slog.Float64("range_ppm", r.Stats.Range*1e6),
		slog.Float64("skewness", r.Stats.Skewness),
		slog.Float64("kurtosis", r.Stats.Kurtosis),
	}
}

// ProcessFile cleans the raw segment at path and writes it into outDir under
// its processed name. Rows with missing time or flux are dropped on read,
// then gaps are filled, outliers clipped and the flux normalised.
//
// An existing output yields [ErrOutputExists] with Output set; a segment
// without valid samples yields [ErrEmptySegment] and writes nothing.
func ProcessFile(path, outDir string, p config.Process) (FileResult, error) {
	res := FileResult{
		Input:  path,
		Output: filepath.Join(outDir, meta.ProcessedName(filepath.Base(path))),
	}

	if lcio.Exists(res.Output) {
		return res, fmt.Errorf("%w: %s", ErrOutputExists, res.Output)
	}

	seg, err := lcio.ReadSegment(path, lcio.ReadOptions{
		TimeColumn:  p.TimeColumn,
		FluxColumn:  p.FluxColumn,
		Header:      lcio.HeaderSniff,
		DropMissing: true,
	})
	if err != nil {
		return res, err
	}

	if seg.Empty() {
		return res, fmt.Errorf("%w: %s", ErrEmptySegment, path)
	}

	filled, fill := gapfill.Fill(seg, gapfill.Options{
		Threshold:     p.GapThreshold,
		CadenceFactor: p.CadenceFactor,
	})

	clipped, clip := sigmaclip.Clip(filled, p.SigmaClip)
	res.Fill, res.Clip = fill, clip

	if clipped.Empty() {
		return res, fmt.Errorf("%w: %s after clipping", ErrEmptySegment, path)
	}

	out := localnorm.Normalize(clipped, p.NormalizeWidth)
	res.Samples = out.Len()
	res.Stats = timestats.Calculate(out.Flux)

	if err := lcio.WriteSegment(res.Output, out, lcio.Processed); err != nil {
		return res, fmt.Errorf("write %s: %w", res.Output, err)
	}

	return res, nil
}

// Process runs stage one over every .txt file in cfg.Dirs.Raw.
func Process(ctx context.Context, cfg config.Config, env Env) (Summary, error) {
	env = env.withDefaults()

	if err := requireDirs(map[string]string{"raw": cfg.Dirs.Raw, "processed": cfg.Dirs.Processed}); err != nil {
		return Summary{Stage: StageProcess}, err
	}

	if err := makeDirs(cfg.Dirs.Processed); err != nil {
		return Summary{Stage: StageProcess}, err
	}

	files, err := listInputs(cfg.Dirs.Raw)
	if err != nil {
		return Summary{Stage: StageProcess}, err
	}

	r, err := begin(ctx, env, StageProcess)
	if err != nil {
		return Summary{Stage: StageProcess}, err
	}

	err = each(ctx, cfg.Workers, files, func(ctx context.Context, path string) {
		res, err := ProcessFile(path, cfg.Dirs.Processed, cfg.Process)
		r.record(ctx, path, res.Samples, err, res.attrs()...)
	})

	return r.finish(ctx, err), err
}
