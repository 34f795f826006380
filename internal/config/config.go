// Package config holds the pipeline configuration: defaults, strict JSON
// loading and validation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-lightcurve/clean/gapfill"
	"github.com/cwbudde/algo-lightcurve/clean/localnorm"
	"github.com/cwbudde/algo-lightcurve/clean/sigmaclip"
	"github.com/cwbudde/algo-lightcurve/concat"
	"github.com/cwbudde/algo-lightcurve/dsp/window"
	"github.com/cwbudde/algo-lightcurve/psd"
)

// ErrInvalid reports a configuration that fails validation.
var ErrInvalid = errors.New("config: invalid")

// Config is the full pipeline configuration. Directories have no defaults;
// every stage that needs one must be given it.
type Config struct {
	Dirs    Dirs    `json:"dirs"`
	Workers int     `json:"workers"`
	Ledger  string  `json:"ledger"`
	Process Process `json:"process"`
	Concat  Concat  `json:"concat"`
	Spectra Spectra `json:"spectra"`
	Logging Logging `json:"logging"`
}

// Dirs are the stage input and output locations.
type Dirs struct {
	Raw       string `json:"raw"`
	Processed string `json:"processed"`
	Concat    string `json:"concat"`
	PSD       string `json:"psd"`
	// Index is the path of the file_name,cadence,RGB index. Empty means
	// index.csv inside Concat.
	Index string `json:"index"`
}

// Process configures stage one: gap filling, clipping and normalisation.
type Process struct {
	GapThreshold   float64 `json:"gap_threshold"`
	CadenceFactor  float64 `json:"cadence_factor"`
	SigmaClip      float64 `json:"sigma_clip"`
	NormalizeWidth float64 `json:"normalize_width"`
	TimeColumn     int     `json:"time_column"`
	FluxColumn     int     `json:"flux_column"`
}

// Concat configures stage two.
type Concat struct {
	GapThreshold float64 `json:"gap_threshold"`
	// Class is written to the RGB column of the generated index.
	Class string `json:"class"`
}

// Spectra configures stage three.
type Spectra struct {
	Estimator      string `json:"estimator"`
	Window         string `json:"window"`
	SamplesPerPeak int    `json:"samples_per_peak"`
}

// Logging configures the logger.
type Logging struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		Workers: 4,
		Process: Process{
			GapThreshold:   gapfill.DefaultThreshold,
			CadenceFactor:  gapfill.DefaultCadenceFactor,
			SigmaClip:      sigmaclip.DefaultSigma,
			NormalizeWidth: localnorm.DefaultWidth,
			TimeColumn:     0,
			FluxColumn:     1,
		},
		Concat: Concat{
			GapThreshold: concat.DefaultThreshold,
			Class:        psd.ClassRGB,
		},
		Spectra: Spectra{
			Estimator:      psd.EstimatorLombScargle,
			Window:         "hann",
			SamplesPerPeak: psd.DefaultSamplesPerPeak,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load reads a JSON file over Defaults. Unknown fields are rejected.
func Load(path string) (Config, error) {
	cfg := Defaults()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}

	return cfg, nil
}

// IndexPath returns the effective index file location.
func (c Config) IndexPath() string {
	if c.Dirs.Index != "" {
		return c.Dirs.Index
	}

	if c.Dirs.Concat == "" {
		return ""
	}

	return filepath.Join(c.Dirs.Concat, "index.csv")
}

// Validate checks the numeric settings. Directories are checked by the
// stage that uses them.
func (c Config) Validate() error {
	var errs []error

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}

	p := c.Process
	if !(p.GapThreshold > 0) {
		errs = append(errs, fmt.Errorf("process.gap_threshold must be > 0, got %v", p.GapThreshold))
	}

	if !(p.CadenceFactor > 0) {
		errs = append(errs, fmt.Errorf("process.cadence_factor must be > 0, got %v", p.CadenceFactor))
	}

	if !(p.SigmaClip > 0) {
		errs = append(errs, fmt.Errorf("process.sigma_clip must be > 0, got %v", p.SigmaClip))
	}

	if !(p.NormalizeWidth > 0) {
		errs = append(errs, fmt.Errorf("process.normalize_width must be > 0, got %v", p.NormalizeWidth))
	}

	if p.TimeColumn < 0 || p.FluxColumn < 0 || p.TimeColumn == p.FluxColumn {
		errs = append(errs, fmt.Errorf("process columns must be distinct and >= 0, got %d and %d", p.TimeColumn, p.FluxColumn))
	}

	if !(c.Concat.GapThreshold > 0) {
		errs = append(errs, fmt.Errorf("concat.gap_threshold must be > 0, got %v", c.Concat.GapThreshold))
	}

	if _, err := window.Parse(c.Spectra.Window); err != nil {
		errs = append(errs, err)
	}

	if _, err := psd.NewEstimator(c.Spectra.Estimator, window.TypeHann, 1); err != nil {
		errs = append(errs, err)
	}

	if c.Spectra.SamplesPerPeak < 1 {
		errs = append(errs, fmt.Errorf("spectra.samples_per_peak must be >= 1, got %d", c.Spectra.SamplesPerPeak))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Estimator builds the configured spectral estimator.
func (c Config) Estimator() (psd.Estimator, error) {
	win, err := window.Parse(c.Spectra.Window)
	if err != nil {
		return nil, err
	}

	return psd.NewEstimator(c.Spectra.Estimator, win, c.Workers)
}
