package meta

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// NoData marks an exposure time a target has no file for.
const NoData = "NO"

// SummaryRow is one target of the describe-files table.
type SummaryRow struct {
	Prefix string
	Target string
	// Missions maps each exposure time code to the mission info of every
	// file with that code, in file name order.
	Missions map[string][]string
}

// Summarize builds one row per prefix from names. Names are visited in
// sorted order; the first non-empty target of a prefix wins.
func Summarize(names []string) []SummaryRow {
	sorted := slices.Clone(names)
	slices.SortFunc(sorted, func(a, b string) int {
		return strings.Compare(filepath.Base(a), filepath.Base(b))
	})

	index := make(map[string]int)

	var rows []SummaryRow

	for _, name := range sorted {
		md := Parse(name)

		i, ok := index[md.Prefix]
		if !ok {
			i = len(rows)
			index[md.Prefix] = i
			rows = append(rows, SummaryRow{Prefix: md.Prefix, Missions: make(map[string][]string)})
		}

		row := &rows[i]
		if row.Target == "" {
			row.Target = md.Target
		}

		if md.Exptime != "" && md.MissionInfo != "" {
			row.Missions[md.Exptime] = append(row.Missions[md.Exptime], md.MissionInfo)
		}
	}

	slices.SortFunc(rows, func(a, b SummaryRow) int { return strings.Compare(a.Prefix, b.Prefix) })

	return rows
}

// Exptimes returns every exposure time code used by rows. Numeric codes sort
// by value and come before any other code, which sort lexically.
func Exptimes(rows []SummaryRow) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for code := range r.Missions {
			seen[code] = struct{}{}
		}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}

	slices.SortFunc(codes, compareExptime)

	return codes
}

func compareExptime(a, b string) int {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)

	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(x, y); c != 0 {
			return c
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}

	return strings.Compare(a, b)
}

// WriteSummary writes rows as CSV with the header
//
//	irow,tel_target,<exptime>...
//
// Each exposure cell joins the row's mission info with commas, or holds
// [NoData].
func WriteSummary(w io.Writer, rows []SummaryRow) error {
	codes := Exptimes(rows)

	cw := csv.NewWriter(w)

	header := append([]string{"irow", "tel_target"}, codes...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	for _, r := range rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, r.Prefix, r.Target)

		for _, code := range codes {
			if m, ok := r.Missions[code]; ok {
				rec = append(rec, strings.Join(m, ","))
			} else {
				rec = append(rec, NoData)
			}
		}

		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write summary row %s: %w", r.Prefix, err)
		}
	}

	cw.Flush()

	return cw.Error()
}
