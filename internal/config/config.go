// Package config defines the eleflat configuration and its loader.
package config

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/roach88/eleflat/internal/physics"
)

// Config contains process configuration. It is loaded once at start-up and
// passed explicitly to the components that need it.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// InputDir holds the <Sample>.root event ntuples.
	InputDir string `koanf:"input_dir" validate:"required"`

	// TagDir receives flat ntuples and holds the weight surface.
	TagDir string `koanf:"tag_dir" validate:"required"`

	// TreeName is the event tree path inside each input file.
	TreeName string `koanf:"tree_name" validate:"required"`

	// OutputTree names the flat tree in ROOT outputs.
	OutputTree string `koanf:"output_tree" validate:"required"`

	// WeightsFile and WeightsHist locate the kinematic weight surface
	// inside TagDir.
	WeightsFile string `koanf:"weights_file" validate:"required"`
	WeightsHist string `koanf:"weights_hist" validate:"required"`

	// CutRepository and CutDateTag locate the working point cut sets.
	CutRepository string `koanf:"cut_repository" validate:"required"`
	CutDateTag    string `koanf:"cut_date_tag" validate:"required"`

	// MaxEvents > 0 converts only the first MaxEvents events.
	MaxEvents int64 `koanf:"max_events" validate:"gte=0"`

	// ProgressEvery is the progress log interval in events.
	ProgressEvery int64 `koanf:"progress_every" validate:"gte=0"`

	// Ledger is the run ledger database. Unset means <tag_dir>/ledger.db;
	// an explicit empty value disables the ledger.
	Ledger string `koanf:"ledger"`

	// MetricsFile, when set, receives a prometheus textfile after each run.
	MetricsFile string `koanf:"metrics_file"`

	// OutputFormat is root or sqlite.
	OutputFormat string `koanf:"output_format" validate:"oneof=root sqlite db"`

	Physics physics.Constants `koanf:"physics"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		InputDir:      "/user/tomc/eleIdTuning/tuples",
		TagDir:        "2019-08-23",
		TreeName:      "ntupler/ElectronTree",
		OutputTree:    "electronTree",
		WeightsFile:   "kinematicWeights.root",
		WeightsHist:   "hKinematicWeights",
		CutRepository: "./cut_repository",
		CutDateTag:    "2019-08-23",
		ProgressEvery: 100_000,
		OutputFormat:  "root",
		Physics:       physics.Default(),
	}
}

// DefaultLedger returns the ledger path used when none is configured.
func DefaultLedger(tagDir string) string {
	return filepath.Join(tagDir, "ledger.db")
}

// Level maps LogLevel to a slog level. Unknown values map to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
