package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-lightcurve/internal/config"
	"github.com/cwbudde/algo-lightcurve/meta"
)

// RunSummary holds the summaries of a full run.
type RunSummary struct {
	Process Summary
	Concat  Summary
	Spectra Summary
}

// barrier counts the outstanding members of each group. When the last member
// of a group is done the group's finished outputs are released.
type barrier struct {
	mu      sync.Mutex
	pending map[meta.GroupKey]int
	ready   map[meta.GroupKey][]string
}

func newBarrier(groups map[meta.GroupKey][]string) *barrier {
	b := &barrier{
		pending: make(map[meta.GroupKey]int, len(groups)),
		ready:   make(map[meta.GroupKey][]string, len(groups)),
	}

	for k, members := range groups {
		b.pending[k] = len(members)
	}

	return b
}

// done marks one member of key finished. output is empty when the member
// produced nothing. The second result reports whether key is complete.
func (b *barrier) done(key meta.GroupKey, output string) ([]string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if output != "" {
		b.ready[key] = append(b.ready[key], output)
	}

	b.pending[key]--
	if b.pending[key] > 0 {
		return nil, false
	}

	return b.ready[key], true
}

// Run executes all three stages. A group is concatenated as soon as its last
// raw file has been cleaned, while other files are still being processed.
// Spectra start once every group is done and the index is written.
func Run(ctx context.Context, cfg config.Config, env Env) (RunSummary, error) {
	env = env.withDefaults()

	var sum RunSummary

	err := requireDirs(map[string]string{
		"raw": cfg.Dirs.Raw, "processed": cfg.Dirs.Processed,
		"concat": cfg.Dirs.Concat, "psd": cfg.Dirs.PSD,
	})
	if err != nil {
		return sum, err
	}

	if _, err := cfg.Estimator(); err != nil {
		return sum, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	err = makeDirs(cfg.Dirs.Processed, cfg.Dirs.Concat, filepath.Dir(cfg.IndexPath()), cfg.Dirs.PSD)
	if err != nil {
		return sum, err
	}

	files, err := listInputs(cfg.Dirs.Raw)
	if err != nil {
		return sum, err
	}

	groups := meta.Group(files)

	keyOf := make(map[string]meta.GroupKey, len(files))
	for k, members := range groups {
		for _, m := range members {
			keyOf[m] = k
		}
	}

	pr, err := begin(ctx, env, StageProcess)
	if err != nil {
		return sum, err
	}

	cr, err := begin(ctx, env, StageConcat)
	if err != nil {
		sum.Process = pr.finish(ctx, err)
		return sum, err
	}

	b := newBarrier(groups)
	idx := &index{}

	// Concatenation gets its own pool so a process worker handing off a
	// group never waits on a slot it holds itself.
	cg, cctx := errgroup.WithContext(ctx)
	cg.SetLimit(max(cfg.Workers, 1))

	perr := each(ctx, cfg.Workers, files, func(ctx context.Context, path string) {
		res, err := ProcessFile(path, cfg.Dirs.Processed, cfg.Process)
		pr.record(ctx, path, res.Samples, err, res.attrs()...)

		key, ok := keyOf[path]
		if !ok {
			env.Logger.WarnContext(ctx, "file has no group key, not concatenated", "path", path)
			return
		}

		out := ""
		if err == nil || errors.Is(err, ErrOutputExists) {
			out = res.Output
		}

		members, complete := b.done(key, out)
		if !complete {
			return
		}

		cg.Go(func() error {
			if err := cctx.Err(); err != nil {
				return err
			}

			cr.concatGroup(cctx, cfg, key, members, idx)

			return nil
		})
	})

	cerr := cg.Wait()
	if cerr == nil {
		cerr = perr
	}

	if cerr == nil {
		cerr = writeIndex(ctx, cfg, env, idx)
	}

	sum.Process = pr.finish(ctx, perr)
	sum.Concat = cr.finish(ctx, cerr)

	if cerr != nil {
		return sum, cerr
	}

	sum.Spectra, err = Spectra(ctx, cfg, env)

	return sum, err
}
