// Package layout builds the deterministic file paths of inputs, outputs,
// weight surfaces and cut sets.
package layout

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/eleflat/internal/physics"
)

// ErrUnknownFormat is returned for an output format other than root or sqlite.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is the container of a flat table.
type Format string

const (
	FormatROOT   Format = "root"
	FormatSQLite Format = "sqlite"
)

// ParseFormat accepts "root" or "sqlite" (case-insensitive), plus "db".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "root":
		return FormatROOT, nil
	case "sqlite", "db":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == FormatSQLite {
		return ".db"
	}
	return ".root"
}

// InputPath returns <inputDir>/<Sample>.root.
func InputPath(inputDir string, sample physics.Sample) string {
	return filepath.Join(inputDir, sample.String()+".root")
}

// OutputPath returns
// <tagDir>/<Sample>_flat_ntuple<truth><eta><events><ext>.
func OutputPath(tagDir string, sample physics.Sample, match physics.MatchMode, region physics.Region, maxEvents int64, format Format) string {
	name := sample.String() + "_flat_ntuple" +
		truthSuffix(match) +
		regionSuffix(region) +
		EventCountSuffix(maxEvents) +
		format.Ext()
	return filepath.Join(tagDir, name)
}

func truthSuffix(m physics.MatchMode) string {
	switch m {
	case physics.MatchTrue:
		return "_true"
	case physics.MatchFake:
		return "_fake"
	}
	return "_trueAndFake"
}

func regionSuffix(r physics.Region) string {
	switch r {
	case physics.RegionBarrel:
		return "_barrel"
	case physics.RegionEndcap:
		return "_endcap"
	}
	return "_alleta"
}

var powers = []string{"", "K", "M", "G", "T", "P"}

// EventCountSuffix is "_full" when maxEvents <= 0, otherwise the count
// abbreviated to the largest power of 1000 not above it, truncated:
// 20000000 -> "_20M", 1500 -> "_1K", 999 -> "_999".
func EventCountSuffix(maxEvents int64) string {
	if maxEvents <= 0 {
		return "_full"
	}
	k := int(math.Log10(float64(maxEvents))) / 3
	if k >= len(powers) {
		k = len(powers) - 1
	}
	short := maxEvents
	for i := 0; i < k; i++ {
		short /= 1000
	}
	return fmt.Sprintf("_%d%s", short, powers[k])
}

// WeightsPath returns <tagDir>/<file>.
func WeightsPath(tagDir, file string) string {
	return filepath.Join(tagDir, file)
}

// CutSetPath returns <repo>/cuts_<region>_<dateTag>_WP_<wp>.cue.
func CutSetPath(repo, region, dateTag, wp string) string {
	return filepath.Join(repo, fmt.Sprintf("cuts_%s_%s_WP_%s.cue", region, dateTag, wp))
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return nil
}
