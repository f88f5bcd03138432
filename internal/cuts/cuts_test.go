package cuts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eleflat/internal/physics"
)

const dateTag = "2019-08-23"

func writeCutSet(t *testing.T, dir, region, wp, body string) {
	t.Helper()
	name := filepath.Join(dir, "cuts_"+region+"_"+dateTag+"_WP_"+wp+".cue")
	require.NoError(t, os.WriteFile(name, []byte(body), 0o644))
}

func testRepository(t *testing.T) *Repository {
	t.Helper()
	dir := t.TempDir()
	for i, wp := range []string{"Veto", "Loose", "Medium", "Tight"} {
		sieie := []string{"0.0126", "0.0112", "0.0106", "0.0104"}[i]
		writeCutSet(t, dir, "barrel", wp, `
cuts: {
	full5x5_sigmaIetaIeta: value: `+sieie+`
	dEtaSeed: {value: 0.00463, symmetric: true}
	expectedMissingInnerHits: value: 2.7
}
`)
	}
	repo, err := OpenRepository(dir, dateTag)
	require.NoError(t, err)
	return repo
}

func TestEvaluate_HandTunedOverrides(t *testing.T) {
	e := NewEvaluator(nil)

	d0, err := e.Evaluate(Veto, physics.RegionBarrel, "d0")
	require.NoError(t, err)
	assert.Equal(t, 0.05, d0.Value)
	assert.True(t, d0.Symmetric)
	assert.Equal(t, SourceOverride, d0.Source)

	hits, err := e.Evaluate(Veto, physics.RegionEndcap, "expectedMissingInnerHits")
	require.NoError(t, err)
	assert.Equal(t, 3.0, hits.Value)
	assert.False(t, hits.Symmetric)

	dz, err := e.Evaluate(Tight, physics.RegionEndcap, "dz")
	require.NoError(t, err)
	assert.Equal(t, 0.20, dz.Value)
	mirror, ok := dz.Mirror()
	assert.True(t, ok)
	assert.Equal(t, -0.20, mirror)
}

func TestEvaluate_OverridesWinOverRepository(t *testing.T) {
	e := NewEvaluator(testRepository(t))

	hits, err := e.Evaluate(Loose, physics.RegionBarrel, "expectedMissingInnerHits")
	require.NoError(t, err)
	assert.Equal(t, 1.0, hits.Value)
	assert.Equal(t, SourceOverride, hits.Source)
}

func TestEvaluate_Repository(t *testing.T) {
	e := NewEvaluator(testRepository(t))

	all, err := e.EvaluateAll(physics.RegionBarrel, "full5x5_sigmaIetaIeta")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []float64{0.0126, 0.0112, 0.0106, 0.0104},
		[]float64{all[0].Value, all[1].Value, all[2].Value, all[3].Value})
	for i, th := range all {
		assert.Equal(t, WorkingPoints[i], th.WorkingPoint)
		assert.False(t, th.Symmetric)
		assert.Equal(t, SourceRepository, th.Source)
		_, ok := th.Mirror()
		assert.False(t, ok)
	}

	deta, err := e.Evaluate(Medium, physics.RegionBarrel, "dEtaSeed")
	require.NoError(t, err)
	assert.True(t, deta.Symmetric)
}

func TestEvaluate_Errors(t *testing.T) {
	e := NewEvaluator(testRepository(t))

	_, err := e.Evaluate(Veto, physics.RegionBarrel, "ooEmooP")
	assert.ErrorIs(t, err, ErrUnknownVariable)

	_, err = e.Evaluate(Veto, physics.RegionEndcap, "full5x5_sigmaIetaIeta")
	assert.ErrorIs(t, err, ErrCutSetNotFound)

	_, err = e.Evaluate(Veto, physics.RegionFull, "d0")
	assert.ErrorIs(t, err, ErrUnsupportedRegion)

	_, err = e.Evaluate(WorkingPoint(7), physics.RegionBarrel, "d0")
	assert.ErrorIs(t, err, ErrUnknownWorkingPoint)

	_, err = NewEvaluator(nil).Evaluate(Veto, physics.RegionBarrel, "hOverE")
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestOpenRepository_Missing(t *testing.T) {
	_, err := OpenRepository(filepath.Join(t.TempDir(), "cut_repository"), dateTag)
	assert.ErrorIs(t, err, ErrRepositoryNotFound)
}

func TestParseCutSet_SchemaRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"string value", `cuts: hOverE: value: "0.05"`},
		{"missing value", `cuts: hOverE: symmetric: true`},
		{"unknown field", `cuts: hOverE: {value: 0.05, weight: 2}`},
		{"not cue", `cuts: {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCutSet("bad.cue", []byte(tt.body))
			assert.ErrorIs(t, err, ErrInvalidCutSet)
		})
	}
}

func TestParseCutSet_DefaultsSymmetric(t *testing.T) {
	cs, err := ParseCutSet("ok.cue", []byte(`cuts: {hOverE: value: 0.05, dPhiIn: {value: 0.2, symmetric: true}}`))
	require.NoError(t, err)
	assert.Equal(t, Cut{Value: 0.05}, cs["hOverE"])
	assert.Equal(t, Cut{Value: 0.2, Symmetric: true}, cs["dPhiIn"])
	assert.Equal(t, []string{"dPhiIn", "hOverE"}, cs.Variables())
}

func TestParseWorkingPoint(t *testing.T) {
	wp, err := ParseWorkingPoint("tight")
	require.NoError(t, err)
	assert.Equal(t, Tight, wp)

	wp, err = ParseWorkingPoint("1")
	require.NoError(t, err)
	assert.Equal(t, Loose, wp)

	_, err = ParseWorkingPoint("ultra")
	assert.ErrorIs(t, err, ErrUnknownWorkingPoint)
	assert.Equal(t, "Medium", Medium.String())
}

func TestNormalize_TruncatesIntegerColumns(t *testing.T) {
	assert.Equal(t, 2.0, normalize("expectedMissingInnerHits", 2.7))
	assert.Equal(t, 0.0104, normalize("full5x5_sigmaIetaIeta", 0.0104))
}
