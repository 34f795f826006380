// Package pipeline drives the three batch stages over directories of files:
// cleaning raw segments, concatenating them per group and computing spectra.
//
// Every stage runs its items on a bounded worker pool. A failure on one item
// is logged, recorded and counted; it never stops sibling items. Only setup
// errors and context cancellation end a stage early.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-lightcurve/internal/config"
	"github.com/cwbudde/algo-lightcurve/internal/ledger"
	"github.com/cwbudde/algo-lightcurve/internal/logging"
)

// Stage names as recorded in the ledger and in log records.
const (
	StageProcess = "process"
	StageConcat  = "concat"
	StageSpectra = "psd"
)

var (
	// ErrOutputExists marks an item whose output is already present. The
	// item counts as skipped, not failed.
	ErrOutputExists = errors.New("pipeline: output exists")

	// ErrEmptySegment marks an item with no valid samples. It produces no
	// output and is excluded from grouping.
	ErrEmptySegment = errors.New("pipeline: empty segment")
)

// Recorder persists runs and their outcomes. [ledger.Ledger] implements it.
type Recorder interface {
	StartRun(ctx context.Context, stage string) (string, error)
	FinishRun(ctx context.Context, id, status string) error
	RecordOutcome(ctx context.Context, o ledger.Outcome) error
	RecordSeries(ctx context.Context, s ledger.Series) error
}

var _ Recorder = (*ledger.Ledger)(nil)

// NopRecorder hands out run ids and discards everything else.
type NopRecorder struct{}

func (NopRecorder) StartRun(context.Context, string) (string, error) { return uuid.NewString(), nil }

func (NopRecorder) FinishRun(context.Context, string, string) error { return nil }

func (NopRecorder) RecordOutcome(context.Context, ledger.Outcome) error { return nil }

func (NopRecorder) RecordSeries(context.Context, ledger.Series) error { return nil }

// Env carries the collaborators shared by all stages. Zero fields fall back
// to a discarding logger and [NopRecorder].
type Env struct {
	Logger   *slog.Logger
	Recorder Recorder
}

func (e Env) withDefaults() Env {
	if e.Logger == nil {
		e.Logger = logging.Discard()
	}

	if e.Recorder == nil {
		e.Recorder = NopRecorder{}
	}

	return e
}

// Summary counts the item outcomes of one stage run.
type Summary struct {
	Run       string
	Stage     string
	Processed int
	Skipped   int
	Empty     int
	Failed    int
}

// Total is the number of items the stage saw.
func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.Empty + s.Failed
}

// run is one stage execution bound to a ledger run.
type run struct {
	env   Env
	id    string
	stage string

	mu      sync.Mutex
	summary Summary
}

func begin(ctx context.Context, env Env, stage string) (*run, error) {
	// Bookkeeping outlives cancellation so an aborted run is still closed out.
	id, err := env.Recorder.StartRun(context.WithoutCancel(ctx), stage)
	if err != nil {
		return nil, fmt.Errorf("start %s run: %w", stage, err)
	}

	env.Logger.InfoContext(ctx, "stage started", "stage", stage, "run", id)

	return &run{env: env, id: id, stage: stage, summary: Summary{Run: id, Stage: stage}}, nil
}

func status(err error) string {
	switch {
	case err == nil:
		return ledger.StatusOK
	case errors.Is(err, ErrOutputExists):
		return ledger.StatusSkipped
	case errors.Is(err, ErrEmptySegment):
		return ledger.StatusEmpty
	default:
		return ledger.StatusFailed
	}
}

// record logs, persists and counts the outcome of one item. extra is added
// to the log record only.
func (r *run) record(ctx context.Context, path string, samples int, err error, extra ...slog.Attr) {
	st := status(err)

	r.mu.Lock()
	switch st {
	case ledger.StatusOK:
		r.summary.Processed++
	case ledger.StatusSkipped:
		r.summary.Skipped++
	case ledger.StatusEmpty:
		r.summary.Empty++
	default:
		r.summary.Failed++
	}
	r.mu.Unlock()

	attrs := []slog.Attr{
		slog.String("stage", r.stage),
		slog.String("run", r.id),
		slog.String("path", path),
		slog.String("status", st),
		slog.Int("samples", samples),
	}
	attrs = append(attrs, extra...)

	level := slog.LevelInfo

	var msg string
	if err != nil {
		msg = err.Error()
		attrs = append(attrs, slog.String("error", msg))

		switch st {
		case ledger.StatusFailed:
			level = slog.LevelError
		case ledger.StatusEmpty:
			level = slog.LevelWarn
		}
	}

	r.env.Logger.LogAttrs(ctx, level, "item done", attrs...)

	o := ledger.Outcome{RunID: r.id, Stage: r.stage, Path: path, Status: st, Message: msg, Samples: samples}
	if rerr := r.env.Recorder.RecordOutcome(context.WithoutCancel(ctx), o); rerr != nil {
		r.env.Logger.WarnContext(ctx, "ledger write failed", "path", path, "error", rerr)
	}
}

// finish closes the ledger run and returns the summary. err is the stage's
// own error, not an item error.
func (r *run) finish(ctx context.Context, err error) Summary {
	r.mu.Lock()
	s := r.summary
	r.mu.Unlock()

	st := ledger.RunDone
	if err != nil {
		st = ledger.RunFailed
	}

	if ferr := r.env.Recorder.FinishRun(context.WithoutCancel(ctx), s.Run, st); ferr != nil {
		r.env.Logger.WarnContext(ctx, "ledger write failed", "run", s.Run, "error", ferr)
	}

	r.env.Logger.InfoContext(ctx, "stage finished",
		"stage", s.Stage, "run", s.Run, "status", st,
		"processed", s.Processed, "skipped", s.Skipped, "empty", s.Empty, "failed", s.Failed)

	return s
}

// each calls fn for every item on at most workers goroutines and waits.
// fn handles its own errors; each only reports cancellation.
func each[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fn(gctx, item)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return ctx.Err()
}

// listInputs returns the .txt files of dir in name order. Hidden files,
// including in-flight temporary outputs, are ignored.
func listInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}

	var out []string

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".txt") {
			continue
		}

		out = append(out, filepath.Join(dir, name))
	}

	return out, nil
}

func requireDirs(dirs map[string]string) error {
	for name, dir := range dirs {
		if dir == "" {
			return fmt.Errorf("%w: dirs.%s is not set", config.ErrInvalid, name)
		}
	}

	return nil
}

// makeDirs creates the output directories of a stage.
func makeDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	return nil
}
