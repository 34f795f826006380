// Package lcio reads and writes the delimited text files exchanged between
// pipeline stages: segments, concatenated series, the spectral index and
// spectra.
package lcio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

// HeaderMode decides how the first data line of a file is treated.
type HeaderMode int

const (
	// HeaderSniff skips the first line only when its time field is not a
	// number.
	HeaderSniff HeaderMode = iota
	// HeaderAlways skips the first line whatever it holds. Files written
	// by the pipeline carry a header, which may itself be numeric ("0,1").
	HeaderAlways
	// HeaderNone reads the first line as data.
	HeaderNone
)

// ReadOptions selects the columns holding time and flux.
type ReadOptions struct {
	TimeColumn int
	FluxColumn int
	Header     HeaderMode
	// DropMissing removes rows whose time or flux is missing.
	DropMissing bool
}

// DefaultReadOptions reads the first two columns of a file with one header
// line and keeps missing values.
var DefaultReadOptions = ReadOptions{TimeColumn: 0, FluxColumn: 1, Header: HeaderAlways}

// ReadSegment reads the time and flux columns of path. The segment's Source
// is the base name of path.
func ReadSegment(path string, opts ReadOptions) (lightcurve.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return lightcurve.Segment{}, err
	}
	defer f.Close()

	seg, err := ParseSegment(f, opts)
	if err != nil {
		return lightcurve.Segment{}, fmt.Errorf("%s: %w", path, err)
	}

	seg.Source = filepath.Base(path)

	return seg, nil
}

// ParseSegment reads rows from r. Fields are separated by commas or, when a
// line has no comma, by whitespace. Blank lines and lines starting with '#'
// are skipped. The first remaining line is a header or data as opts.Header
// decides. Empty fields and "nan" read as missing.
func ParseSegment(r io.Reader, opts ReadOptions) (lightcurve.Segment, error) {
	var seg lightcurve.Segment

	need := max(opts.TimeColumn, opts.FluxColumn) + 1

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	line, first := 0, true

	for sc.Scan() {
		line++

		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := splitFields(text)

		if first {
			first = false

			if isHeader(opts, fields) {
				continue
			}
		}

		if len(fields) < need {
			return seg, fmt.Errorf("%w: line %d has %d fields, need %d", ErrMalformedInput, line, len(fields), need)
		}

		t, terr := parseField(fields[opts.TimeColumn])
		if terr != nil {
			return seg, fmt.Errorf("%w: line %d time: %w", ErrMalformedInput, line, terr)
		}

		f, ferr := parseField(fields[opts.FluxColumn])
		if ferr != nil {
			return seg, fmt.Errorf("%w: line %d flux: %w", ErrMalformedInput, line, ferr)
		}

		if opts.DropMissing && (math.IsNaN(t) || math.IsNaN(f)) {
			continue
		}

		seg.Time = append(seg.Time, t)
		seg.Flux = append(seg.Flux, f)
	}

	if err := sc.Err(); err != nil {
		return seg, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	return seg, nil
}

func isHeader(opts ReadOptions, fields []string) bool {
	switch opts.Header {
	case HeaderAlways:
		return true
	case HeaderNone:
		return false
	default:
		if opts.TimeColumn >= len(fields) {
			return false
		}

		_, err := parseField(fields[opts.TimeColumn])

		return err != nil
	}
}

func splitFields(line string) []string {
	if !strings.Contains(line, ",") {
		return strings.Fields(line)
	}

	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	return fields
}

func parseField(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}

	return strconv.ParseFloat(s, 64)
}

// Layout fixes the header and number format of a written segment.
type Layout struct {
	Header string
	// Precision is the number of decimals, or -1 for the shortest
	// representation that reads back exactly.
	Precision int
}

// Layouts of the two segment-shaped outputs.
var (
	Processed    = Layout{Header: "time,flux_normalized", Precision: -1}
	Concatenated = Layout{Header: "TIME,FLUX", Precision: 10}
)

// WriteSegment writes seg to path atomically in the given layout. Missing
// values are written as "nan".
func WriteSegment(path string, seg lightcurve.Segment, layout Layout) error {
	if len(seg.Time) != len(seg.Flux) {
		return fmt.Errorf("%w: time %d, flux %d", lightcurve.ErrLengthMismatch, len(seg.Time), len(seg.Flux))
	}

	return writeColumns(path, layout, seg.Time, seg.Flux)
}

func writeColumns(path string, layout Layout, a, b []float64) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		if _, err := w.WriteString(layout.Header + "\n"); err != nil {
			return err
		}

		buf := make([]byte, 0, 64)
		for i := range a {
			buf = appendFloat(buf[:0], a[i], layout.Precision)
			buf = append(buf, ',')
			buf = appendFloat(buf, b[i], layout.Precision)
			buf = append(buf, '\n')

			if _, err := w.Write(buf); err != nil {
				return err
			}
		}

		return nil
	})
}

func appendFloat(dst []byte, v float64, prec int) []byte {
	if math.IsNaN(v) {
		return append(dst, "nan"...)
	}

	if prec < 0 {
		return strconv.AppendFloat(dst, v, 'g', -1, 64)
	}

	return strconv.AppendFloat(dst, v, 'f', prec, 64)
}
