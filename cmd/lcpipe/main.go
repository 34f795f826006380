// Command lcpipe cleans, concatenates and analyses space-telescope
// lightcurves.
//
// Usage:
//
//	lcpipe <command> [flags]
//
// Commands:
//
//	process   clean every raw segment (gap fill, sigma clip, normalise)
//	concat    merge processed segments per target, cadence and mission
//	psd       compute the power spectral density of every indexed series
//	run       all three stages, concatenating each group as soon as it is ready
//	summary   print the per-target availability table of a raw directory
//	windows   list the taper windows available to the FFT estimator
//
// Examples:
//
//	lcpipe run -raw data/raw -processed data/proc -concat data/concat -psd data/psd
//	lcpipe process -config pipeline.json -workers 8
//	lcpipe psd -config pipeline.json -estimator fft -window blackman
//	lcpipe summary -raw data/raw > summary.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/cwbudde/algo-lightcurve/dsp/window"
	"github.com/cwbudde/algo-lightcurve/internal/config"
	"github.com/cwbudde/algo-lightcurve/internal/ledger"
	"github.com/cwbudde/algo-lightcurve/internal/logging"
	"github.com/cwbudde/algo-lightcurve/meta"
	"github.com/cwbudde/algo-lightcurve/pipeline"
)

// Exit codes.
const (
	exitOK    = 0
	exitSetup = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: lcpipe <command> [flags]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  process   clean raw segments\n")
	fmt.Fprintf(w, "  concat    concatenate processed segments per group\n")
	fmt.Fprintf(w, "  psd       compute spectra of the indexed series\n")
	fmt.Fprintf(w, "  run       all stages\n")
	fmt.Fprintf(w, "  summary   per-target availability table\n")
	fmt.Fprintf(w, "  windows   list FFT taper windows\n")
	fmt.Fprintf(w, "\nRun 'lcpipe <command> -h' for the flags of a command.\n")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case pipeline.StageProcess, pipeline.StageConcat, pipeline.StageSpectra, "run":
		return runStage(ctx, cmd, rest, stdout, stderr)
	case "summary":
		return runSummary(rest, stdout, stderr)
	case "windows":
		return runWindows(rest, stdout, stderr)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "error: unknown command %q\n\n", cmd)
		usage(stderr)

		return exitUsage
	}
}

// stageFlags binds the overridable settings to fs. Values land in the
// returned config; only flags that were set are copied over the loaded file
// by [applyFlags].
func stageFlags(fs *flag.FlagSet) (configPath *string, over *config.Config) {
	over = new(config.Config)
	*over = config.Defaults()

	configPath = fs.String("config", "", "JSON configuration file")

	fs.StringVar(&over.Dirs.Raw, "raw", "", "directory of raw segment files")
	fs.StringVar(&over.Dirs.Processed, "processed", "", "directory of processed segments")
	fs.StringVar(&over.Dirs.Concat, "concat", "", "directory of concatenated series")
	fs.StringVar(&over.Dirs.PSD, "psd", "", "directory of spectra")
	fs.StringVar(&over.Dirs.Index, "index", "", "spectral index file (default <concat>/index.csv)")
	fs.IntVar(&over.Workers, "workers", over.Workers, "parallel workers")
	fs.StringVar(&over.Ledger, "ledger", "", "sqlite file recording runs and outcomes")

	fs.Float64Var(&over.Process.GapThreshold, "gap-threshold", over.Process.GapThreshold, "largest gap filled, in days")
	fs.Float64Var(&over.Process.SigmaClip, "sigma", over.Process.SigmaClip, "sigma clipping band half-width")
	fs.Float64Var(&over.Process.NormalizeWidth, "width", over.Process.NormalizeWidth, "normalisation half-window, in days")
	fs.IntVar(&over.Process.TimeColumn, "time-column", over.Process.TimeColumn, "zero-based time column of raw files")
	fs.IntVar(&over.Process.FluxColumn, "flux-column", over.Process.FluxColumn, "zero-based flux column of raw files")

	fs.Float64Var(&over.Concat.GapThreshold, "concat-threshold", over.Concat.GapThreshold, "smallest break collapsed on concatenation, in days")
	fs.StringVar(&over.Concat.Class, "class", over.Concat.Class, "target class written to the index")

	fs.StringVar(&over.Spectra.Estimator, "estimator", over.Spectra.Estimator, "spectral estimator: lomb-scargle or fft")
	fs.StringVar(&over.Spectra.Window, "window", over.Spectra.Window, "taper window of the fft estimator")
	fs.IntVar(&over.Spectra.SamplesPerPeak, "oversample", over.Spectra.SamplesPerPeak, "frequency grid samples per peak")

	fs.StringVar(&over.Logging.Level, "log-level", over.Logging.Level, "log level: debug, info, warn, error")
	fs.StringVar(&over.Logging.Format, "log-format", over.Logging.Format, "log format: text or json")
	fs.StringVar(&over.Logging.File, "log-file", "", "append log records to this file as well")

	return configPath, over
}

var overrides = map[string]func(dst, src *config.Config){
	"raw":              func(d, s *config.Config) { d.Dirs.Raw = s.Dirs.Raw },
	"processed":        func(d, s *config.Config) { d.Dirs.Processed = s.Dirs.Processed },
	"concat":           func(d, s *config.Config) { d.Dirs.Concat = s.Dirs.Concat },
	"psd":              func(d, s *config.Config) { d.Dirs.PSD = s.Dirs.PSD },
	"index":            func(d, s *config.Config) { d.Dirs.Index = s.Dirs.Index },
	"workers":          func(d, s *config.Config) { d.Workers = s.Workers },
	"ledger":           func(d, s *config.Config) { d.Ledger = s.Ledger },
	"gap-threshold":    func(d, s *config.Config) { d.Process.GapThreshold = s.Process.GapThreshold },
	"sigma":            func(d, s *config.Config) { d.Process.SigmaClip = s.Process.SigmaClip },
	"width":            func(d, s *config.Config) { d.Process.NormalizeWidth = s.Process.NormalizeWidth },
	"time-column":      func(d, s *config.Config) { d.Process.TimeColumn = s.Process.TimeColumn },
	"flux-column":      func(d, s *config.Config) { d.Process.FluxColumn = s.Process.FluxColumn },
	"concat-threshold": func(d, s *config.Config) { d.Concat.GapThreshold = s.Concat.GapThreshold },
	"class":            func(d, s *config.Config) { d.Concat.Class = s.Concat.Class },
	"estimator":        func(d, s *config.Config) { d.Spectra.Estimator = s.Spectra.Estimator },
	"window":           func(d, s *config.Config) { d.Spectra.Window = s.Spectra.Window },
	"oversample":       func(d, s *config.Config) { d.Spectra.SamplesPerPeak = s.Spectra.SamplesPerPeak },
	"log-level":        func(d, s *config.Config) { d.Logging.Level = s.Logging.Level },
	"log-format":       func(d, s *config.Config) { d.Logging.Format = s.Logging.Format },
	"log-file":         func(d, s *config.Config) { d.Logging.File = s.Logging.File },
}

// applyFlags loads the configuration file, if any, and copies every flag
// that was set on the command line over it.
func applyFlags(fs *flag.FlagSet, path string, over *config.Config) (config.Config, error) {
	cfg := config.Defaults()

	if path != "" {
		var err error

		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply(&cfg, over)
		}
	})

	return cfg, cfg.Validate()
}

func runStage(ctx context.Context, cmd string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath, over := stageFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}

		return exitUsage
	}

	cfg, err := applyFlags(fs, *configPath, over)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitSetup
	}

	logger, err := logging.New(stderr, logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitSetup
	}
	defer logger.Close()

	env := pipeline.Env{Logger: logger.Logger}

	if cfg.Ledger != "" {
		l, err := ledger.Open(cfg.Ledger)
		if err != nil {
			logger.Error("open ledger", "path", cfg.Ledger, "error", err)
			return exitSetup
		}
		defer l.Close()

		env.Recorder = l
	}

	var sums []pipeline.Summary

	switch cmd {
	case pipeline.StageProcess:
		var s pipeline.Summary
		s, err = pipeline.Process(ctx, cfg, env)
		sums = append(sums, s)
	case pipeline.StageConcat:
		var s pipeline.Summary
		s, err = pipeline.Concat(ctx, cfg, env)
		sums = append(sums, s)
	case pipeline.StageSpectra:
		var s pipeline.Summary
		s, err = pipeline.Spectra(ctx, cfg, env)
		sums = append(sums, s)
	default:
		var rs pipeline.RunSummary
		rs, err = pipeline.Run(ctx, cfg, env)
		sums = append(sums, rs.Process, rs.Concat, rs.Spectra)
	}

	printSummaries(stdout, sums)

	if err != nil {
		logger.Error("stage failed", "command", cmd, "error", err)
		return exitSetup
	}

	return exitOK
}

func printSummaries(w io.Writer, sums []pipeline.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tRUN\tOK\tSKIPPED\tEMPTY\tFAILED")

	for _, s := range sums {
		if s.Run == "" {
			continue
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", s.Stage, s.Run, s.Processed, s.Skipped, s.Empty, s.Failed)
	}

	tw.Flush()
}

func runSummary(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(stderr)
	raw := fs.String("raw", "", "directory of raw segment files")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}

		return exitUsage
	}

	if *raw == "" {
		fmt.Fprintf(stderr, "error: -raw is required\n")
		return exitUsage
	}

	names, err := filepath.Glob(filepath.Join(*raw, "*.txt"))
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitSetup
	}

	if err := meta.WriteSummary(stdout, meta.Summarize(names)); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitSetup
	}

	return exitOK
}

func runWindows(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(stderr)
	size := fs.Int("size", 1024, "window length in samples")
	periodic := fs.Bool("periodic", false, "use the periodic (FFT) form instead of symmetric")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}

		return exitUsage
	}

	if *size < 1 {
		fmt.Fprintf(stderr, "error: -size must be positive\n")
		return exitUsage
	}

	var opts []window.Option
	if *periodic {
		opts = append(opts, window.WithPeriodic())
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW\tPOWER GAIN\tENBW (bins)")

	for _, typ := range window.Types() {
		coeffs := window.Generate(typ, *size, opts...)

		gain, err := window.PowerGain(coeffs)
		if err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\n", typ)
			continue
		}

		enbw, err := window.EquivalentNoiseBandwidth(coeffs)
		if err != nil {
			fmt.Fprintf(tw, "%s\t%.4f\t-\n", typ, gain)
			continue
		}

		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", typ, gain, enbw)
	}

	tw.Flush()

	return exitOK
}
