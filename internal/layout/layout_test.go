package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eleflat/internal/physics"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		sample physics.Sample
		match  physics.MatchMode
		region physics.Region
		max    int64
		format Format
		want   string
	}{
		{"dy true barrel", physics.SampleDY, physics.MatchTrue, physics.RegionBarrel, 0, FormatROOT,
			"2019-08-23/DY_flat_ntuple_true_barrel_full.root"},
		{"tt fake endcap", physics.SampleTT, physics.MatchFake, physics.RegionEndcap, 0, FormatROOT,
			"2019-08-23/TT_flat_ntuple_fake_endcap_full.root"},
		{"dy any full small", physics.SampleDY, physics.MatchAny, physics.RegionFull, 20000000, FormatROOT,
			"2019-08-23/DY_flat_ntuple_trueAndFake_alleta_20M.root"},
		{"sqlite", physics.SampleGJ, physics.MatchFake, physics.RegionFull, 0, FormatSQLite,
			"2019-08-23/GJ_flat_ntuple_fake_alleta_full.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutputPath("2019-08-23", tt.sample, tt.match, tt.region, tt.max, tt.format)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestEventCountSuffix(t *testing.T) {
	assert.Equal(t, "_full", EventCountSuffix(0))
	assert.Equal(t, "_full", EventCountSuffix(-5))
	assert.Equal(t, "_7", EventCountSuffix(7))
	assert.Equal(t, "_999", EventCountSuffix(999))
	assert.Equal(t, "_1K", EventCountSuffix(1500))
	assert.Equal(t, "_20M", EventCountSuffix(20000000))
	assert.Equal(t, "_3G", EventCountSuffix(3000000000))
	// Beyond peta the suffix stays at P.
	assert.Equal(t, "_5000P", EventCountSuffix(5000000000000000000))
}

func TestInputAndAuxPaths(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("/tuples/DoubleEleFlat300to6500.root"),
		InputPath("/tuples", physics.SampleDoubleEle300to6500))
	assert.Equal(t, filepath.FromSlash("tag/kinematicWeights.root"),
		WeightsPath("tag", "kinematicWeights.root"))
	assert.Equal(t, filepath.FromSlash("repo/cuts_barrel_2019-08-23_WP_Tight.cue"),
		CutSetPath("repo", "barrel", "2019-08-23", "Tight"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("SQLite")
	require.NoError(t, err)
	assert.Equal(t, FormatSQLite, f)
	assert.Equal(t, ".db", f.Ext())

	_, err = ParseFormat("csv")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.root")
	require.NoError(t, EnsureDir(path))
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
