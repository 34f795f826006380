package lcio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// IndexRow is one entry of the spectral index: a concatenated file, its
// cadence in seconds and the target class.
type IndexRow struct {
	FileName string
	Cadence  int
	Class    string
}

var indexHeader = []string{"file_name", "cadence", "RGB"}

// ReadIndex reads an index file. Columns are located by header name, so
// extra columns and any column order are accepted.
func ReadIndex(path string) ([]IndexRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ParseIndex(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rows, nil
}

// ParseIndex reads index rows from r.
func ParseIndex(r io.Reader) ([]IndexRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: index header: %w", ErrMalformedInput, err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}

	pos := make([]int, len(indexHeader))
	for i, name := range indexHeader {
		j, ok := col[name]
		if !ok {
			return nil, fmt.Errorf("%w: index has no %s column", ErrMalformedInput, name)
		}

		pos[i] = j
	}

	var rows []IndexRow

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
		}

		line, _ := cr.FieldPos(0)

		if len(rec) <= max(pos[0], pos[1], pos[2]) {
			return nil, fmt.Errorf("%w: index line %d is short", ErrMalformedInput, line)
		}

		cadence, err := parseCadence(rec[pos[1]])
		if err != nil {
			return nil, fmt.Errorf("%w: index line %d cadence: %w", ErrMalformedInput, line, err)
		}

		rows = append(rows, IndexRow{
			FileName: strings.TrimSpace(rec[pos[0]]),
			Cadence:  cadence,
			Class:    strings.TrimSpace(rec[pos[2]]),
		})
	}

	return rows, nil
}

// parseCadence accepts integral values written as floats, like "120.0".
func parseCadence(s string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}

	if v != float64(int(v)) {
		return 0, fmt.Errorf("cadence %v is not whole seconds", v)
	}

	return int(v), nil
}

// WriteIndex writes rows to path atomically.
func WriteIndex(path string, rows []IndexRow) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		cw := csv.NewWriter(w)

		if err := cw.Write(indexHeader); err != nil {
			return err
		}

		for _, r := range rows {
			if err := cw.Write([]string{r.FileName, strconv.Itoa(r.Cadence), r.Class}); err != nil {
				return err
			}
		}

		cw.Flush()

		return cw.Error()
	})
}
