package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestDefaultsValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"dirs": {"raw": "/data/raw", "concat": "/data/concat/"},
		"workers": 8,
		"process": {"sigma_clip": 3},
		"spectra": {"estimator": "fft"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	d := Defaults()
	if cfg.Workers != 8 || cfg.Process.SigmaClip != 3 || cfg.Spectra.Estimator != "fft" {
		t.Fatalf("overrides lost: %+v", cfg)
	}
	if cfg.Process.NormalizeWidth != d.Process.NormalizeWidth || cfg.Concat.GapThreshold != d.Concat.GapThreshold {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.IndexPath() != "/data/concat/index.csv" {
		t.Fatalf("index path %q", cfg.IndexPath())
	}

	est, err := cfg.Estimator()
	if err != nil || est.Name() != "fft" {
		t.Fatalf("estimator %v, %v", est, err)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `{"workers": 2, "wrokers": 3}`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"workers", func(c *Config) { c.Workers = 0 }},
		{"gap threshold", func(c *Config) { c.Process.GapThreshold = -1 }},
		{"sigma", func(c *Config) { c.Process.SigmaClip = 0 }},
		{"width", func(c *Config) { c.Process.NormalizeWidth = 0 }},
		{"negative width", func(c *Config) { c.Process.NormalizeWidth = -2 }},
		{"columns", func(c *Config) { c.Process.FluxColumn = c.Process.TimeColumn }},
		{"concat threshold", func(c *Config) { c.Concat.GapThreshold = 0 }},
		{"window", func(c *Config) { c.Spectra.Window = "kaiser" }},
		{"estimator", func(c *Config) { c.Spectra.Estimator = "welch" }},
		{"samples per peak", func(c *Config) { c.Spectra.SamplesPerPeak = 0 }},
	}

	for _, tt := range tests {
		cfg := Defaults()
		tt.mutate(&cfg)

		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: err = %v", tt.name, err)
		}
	}
}

func TestIndexPath(t *testing.T) {
	var c Config
	if c.IndexPath() != "" {
		t.Fatalf("got %q", c.IndexPath())
	}

	c.Dirs.Index = "/tmp/i.csv"
	c.Dirs.Concat = "/x"
	if c.IndexPath() != "/tmp/i.csv" {
		t.Fatalf("got %q", c.IndexPath())
	}
}
