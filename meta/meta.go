// Package meta parses the structured lightcurve file names produced by the
// download step and derives group keys and output names from them.
//
// A typical name is
//
//	00042_target_TIC123_LK_targetname_X_LK_exptime_120_LK_mission_TESS_Sector_14_LK_author_SPOC.txt
//
// Parsing is soft: a field that does not match stays at its zero value and
// no function in this package returns an error for an unexpected name.
package meta

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Missions.
const (
	TESS = "TESS"
	K2   = "K2"
)

// PrefixLen is the length of the row prefix that identifies a target.
const PrefixLen = 5

var (
	groupPattern    = regexp.MustCompile(`LK_exptime_(\w+)_LK_mission_(TESS|K2)_`)
	sectorPattern   = regexp.MustCompile(`TESS_Sector_(\d+)`)
	campaignPattern = regexp.MustCompile(`K2_Campaign_(\d+)`)
)

// GroupKey identifies the files of one target, cadence and mission.
type GroupKey struct {
	Prefix  string
	Exptime string
	Mission string
}

func (k GroupKey) String() string {
	return k.Prefix + "/" + k.Exptime + "/" + k.Mission
}

// Metadata is everything recoverable from one file name.
type Metadata struct {
	Prefix  string
	Target  string
	Exptime string
	// Mission is TESS or K2 when the name carries a group key.
	Mission string
	// MissionInfo is the full text between "LK_mission_" and "_LK_author",
	// for example "TESS_Sector_14".
	MissionInfo string
	// Numbers holds the sector or campaign numbers, ascending and unique.
	Numbers []int
}

// Key returns the group key and whether the name carried one.
func (m Metadata) Key() (GroupKey, bool) {
	if m.Mission == "" {
		return GroupKey{}, false
	}

	return GroupKey{Prefix: m.Prefix, Exptime: m.Exptime, Mission: m.Mission}, true
}

// Parse extracts the metadata of name. Directory components are ignored.
func Parse(name string) Metadata {
	base := filepath.Base(name)

	md := Metadata{
		Prefix:      prefix(base),
		Target:      target(base),
		MissionInfo: between(base, "LK_mission_", "_LK_author"),
	}

	if m := groupPattern.FindStringSubmatch(base); m != nil {
		md.Exptime = m[1]
		md.Mission = m[2]
		md.Numbers = Numbers([]string{base}, md.Mission)
	} else {
		md.Exptime = between(base, "LK_exptime_", "_LK_mission")
	}

	return md
}

// Group buckets names by group key. Names without a key are ignored. Each
// bucket is sorted.
func Group(names []string) map[GroupKey][]string {
	groups := make(map[GroupKey][]string)

	for _, name := range names {
		m := groupPattern.FindStringSubmatch(filepath.Base(name))
		if m == nil {
			continue
		}

		key := GroupKey{Prefix: prefix(filepath.Base(name)), Exptime: m[1], Mission: m[2]}
		groups[key] = append(groups[key], name)
	}

	for _, list := range groups {
		slices.Sort(list)
	}

	return groups
}

// Keys returns the keys of groups in a stable order.
func Keys(groups map[GroupKey][]string) []GroupKey {
	keys := make([]GroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b GroupKey) int {
		return strings.Compare(a.String(), b.String())
	})

	return keys
}

// Numbers returns the sector (TESS) or campaign (K2) numbers found in names,
// ascending and without duplicates.
func Numbers(names []string, mission string) []int {
	pattern := sectorPattern
	if mission == K2 {
		pattern = campaignPattern
	}

	var out []int

	for _, name := range names {
		for _, m := range pattern.FindAllStringSubmatch(filepath.Base(name), -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}

			out = append(out, n)
		}
	}

	slices.Sort(out)

	return slices.Compact(out)
}

// ProcessedName is the file name stage one writes for the input name.
func ProcessedName(name string) string {
	const split = 6

	if len(name) < split {
		return name + "fill_sigclip_hipass_"
	}

	return name[:split] + "fill_sigclip_hipass_" + name[split:]
}

// ConcatenatedName is the file name of a group's concatenated series.
func ConcatenatedName(key GroupKey, numbers []int, shifted bool) string {
	label := "Sectors"
	if key.Mission == K2 {
		label = "Campaigns"
	}

	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}

	flag := "NOT"
	if shifted {
		flag = "IS"
	}

	return fmt.Sprintf("%s_LK_exptime_%s_LK_mission_%s_%s_%s_SHIFTED_CONCATENATED.txt",
		key.Prefix, key.Exptime, label, strings.Join(parts, "_"), flag)
}

// Cadence returns the exposure time code as whole seconds.
func Cadence(exptime string) (int, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(exptime), 64)
	if err != nil || v <= 0 {
		return 0, false
	}

	return int(v + 0.5), true
}

func prefix(base string) string {
	if len(base) < PrefixLen {
		return base
	}

	return base[:PrefixLen]
}

// target reads the text after "target_" up to "_LK_targetname". A name
// without the target-name field has no target.
func target(base string) string {
	return between(base, "target_", "_LK_targetname")
}

// between returns the text after the first start and before the next end,
// or "" when either marker is missing.
func between(s, start, end string) string {
	_, rest, ok := strings.Cut(s, start)
	if !ok {
		return ""
	}

	v, _, ok := strings.Cut(rest, end)
	if !ok {
		return ""
	}

	return v
}
