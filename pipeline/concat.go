package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/cwbudde/algo-lightcurve/concat"
	"github.com/cwbudde/algo-lightcurve/internal/config"
	"github.com/cwbudde/algo-lightcurve/internal/lcio"
	"github.com/cwbudde/algo-lightcurve/internal/ledger"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/meta"
)

// GroupResult describes one concatenated group.
type GroupResult struct {
	Key     meta.GroupKey
	Output  string
	Numbers []int
	Shifted bool
	Samples int
	Report  concat.Report
	// Failed holds the members that could not be read. They are left out
	// of the series.
	Failed map[string]error
	// Empty lists the members that were read but held no samples.
	Empty []string
}

// ConcatGroup merges the processed files of one group and writes the series
// into outDir. The output name depends on whether a shift was applied; if a
// file under either name exists the group yields [ErrOutputExists] with
// Output set to it. Members without samples are listed in Empty and a group
// without readable samples yields [ErrEmptySegment].
func ConcatGroup(key meta.GroupKey, paths []string, outDir string, threshold float64) (GroupResult, error) {
	res := GroupResult{Key: key, Numbers: meta.Numbers(paths, key.Mission)}

	for _, shifted := range []bool{false, true} {
		out := filepath.Join(outDir, meta.ConcatenatedName(key, res.Numbers, shifted))
		if lcio.Exists(out) {
			res.Output, res.Shifted = out, shifted
			return res, fmt.Errorf("%w: %s", ErrOutputExists, out)
		}
	}

	segs := make([]lightcurve.Segment, 0, len(paths))
	read := make([]string, 0, len(paths))

	for _, p := range paths {
		seg, err := lcio.ReadSegment(p, lcio.DefaultReadOptions)
		if err != nil {
			if res.Failed == nil {
				res.Failed = make(map[string]error)
			}

			res.Failed[p] = err

			continue
		}

		segs = append(segs, seg)
		read = append(read, p)
	}

	series, rep := concat.Concatenate(segs, threshold)
	res.Report = rep

	for _, i := range rep.Discarded {
		res.Empty = append(res.Empty, read[i])
	}

	if series.Empty() {
		return res, fmt.Errorf("%w: group %s", ErrEmptySegment, key)
	}

	res.Shifted = series.Shifted
	res.Samples = series.Len()
	res.Output = filepath.Join(outDir, meta.ConcatenatedName(key, res.Numbers, series.Shifted))

	if err := lcio.WriteSegment(res.Output, series.Segment, lcio.Concatenated); err != nil {
		return res, fmt.Errorf("write %s: %w", res.Output, err)
	}

	return res, nil
}

// index collects the rows of the spectral index from concurrent groups.
type index struct {
	mu   sync.Mutex
	rows []lcio.IndexRow
}

func (x *index) add(row lcio.IndexRow) {
	x.mu.Lock()
	x.rows = append(x.rows, row)
	x.mu.Unlock()
}

// sorted returns the rows ordered by file name.
func (x *index) sorted() []lcio.IndexRow {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := slices.Clone(x.rows)
	slices.SortFunc(out, func(a, b lcio.IndexRow) int {
		switch {
		case a.FileName < b.FileName:
			return -1
		case a.FileName > b.FileName:
			return 1
		default:
			return 0
		}
	})

	return out
}

// concatGroup runs one group, records its members and the series, and adds
// the output to idx when a spectrum can be computed for it.
func (r *run) concatGroup(ctx context.Context, cfg config.Config, key meta.GroupKey, paths []string, idx *index) {
	slices.Sort(paths)

	if len(paths) == 0 {
		r.record(ctx, key.String(), 0, fmt.Errorf("%w: group %s has no processed members", ErrEmptySegment, key))
		return
	}

	res, err := ConcatGroup(key, paths, cfg.Dirs.Concat, cfg.Concat.GapThreshold)

	for _, p := range paths {
		if ferr, ok := res.Failed[p]; ok {
			r.record(ctx, p, 0, ferr)
		}
	}

	for _, p := range res.Empty {
		r.record(ctx, p, 0, fmt.Errorf("%w: %s discarded from group %s", ErrEmptySegment, p, key))
	}

	path := res.Output
	if path == "" {
		path = key.String()
	}

	r.record(ctx, path, res.Samples, err)

	if err == nil {
		r.env.Logger.DebugContext(ctx, "group concatenated",
			"group", key.String(), "gaps", len(res.Report.Gaps),
			"shift", res.Report.TotalShift, "shifted", res.Shifted)

		s := ledger.Series{
			RunID:    r.id,
			GroupKey: key.String(),
			Path:     res.Output,
			Shifted:  res.Shifted,
			Samples:  res.Samples,
			Numbers:  res.Numbers,
		}
		if rerr := r.env.Recorder.RecordSeries(context.WithoutCancel(ctx), s); rerr != nil {
			r.env.Logger.WarnContext(ctx, "ledger write failed", "path", res.Output, "error", rerr)
		}
	}

	if st := status(err); res.Output == "" || (st != ledger.StatusOK && st != ledger.StatusSkipped) {
		return
	}

	cadence, ok := meta.Cadence(key.Exptime)
	if !ok {
		r.env.Logger.WarnContext(ctx, "no cadence for group, left out of index",
			"group", key.String(), "exptime", key.Exptime)

		return
	}

	idx.add(lcio.IndexRow{
		FileName: filepath.Base(res.Output),
		Cadence:  cadence,
		Class:    cfg.Concat.Class,
	})
}

func writeIndex(ctx context.Context, cfg config.Config, env Env, idx *index) error {
	rows := idx.sorted()

	if err := lcio.WriteIndex(cfg.IndexPath(), rows); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	env.Logger.InfoContext(ctx, "index written", "path", cfg.IndexPath(), "rows", len(rows))

	return nil
}

// Concat runs stage two: it groups the files of cfg.Dirs.Processed by
// target, cadence and mission, writes one series per group into
// cfg.Dirs.Concat and finally the spectral index.
func Concat(ctx context.Context, cfg config.Config, env Env) (Summary, error) {
	env = env.withDefaults()

	if err := requireDirs(map[string]string{"processed": cfg.Dirs.Processed, "concat": cfg.Dirs.Concat}); err != nil {
		return Summary{Stage: StageConcat}, err
	}

	if err := makeDirs(cfg.Dirs.Concat, filepath.Dir(cfg.IndexPath())); err != nil {
		return Summary{Stage: StageConcat}, err
	}

	files, err := listInputs(cfg.Dirs.Processed)
	if err != nil {
		return Summary{Stage: StageConcat}, err
	}

	groups := meta.Group(files)

	r, err := begin(ctx, env, StageConcat)
	if err != nil {
		return Summary{Stage: StageConcat}, err
	}

	idx := &index{}

	err = each(ctx, cfg.Workers, meta.Keys(groups), func(ctx context.Context, key meta.GroupKey) {
		r.concatGroup(ctx, cfg, key, slices.Clone(groups[key]), idx)
	})
	if err == nil {
		err = writeIndex(ctx, cfg, env, idx)
	}

	return r.finish(ctx, err), err
}
