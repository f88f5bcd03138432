package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"

	"github.com/roach88/eleflat/internal/physics"
)

// 3 pt bins [20,40,60,80] x 2 eta bins [-2.5,0,2.5].
func testSurface(t *testing.T) *Surface {
	t.Helper()
	s, err := NewSurface(
		[]float64{20, 40, 60, 80},
		[]float64{-2.5, 0, 2.5},
		[][]float64{
			{1.0, 2.0, 3.0},
			{4.0, 5.0, 6.0},
		},
	)
	require.NoError(t, err)
	return s
}

func TestLookup_ClampsBelowRange(t *testing.T) {
	s := testSurface(t)

	// pt below the lowest bin: exactly the lowest bin's content, no extrapolation.
	assert.Equal(t, 1.0, s.Lookup(5, -1.0))
	assert.Equal(t, 4.0, s.Lookup(5, 1.0))
	// Both out of range: corner bin.
	assert.Equal(t, 1.0, s.Lookup(-10, -9))
}

func TestLookup_ClampsAboveRange(t *testing.T) {
	s := testSurface(t)

	assert.Equal(t, 3.0, s.Lookup(500, -1.0))
	assert.Equal(t, 6.0, s.Lookup(500, 1.0))
	// Upper edge is outside [low, high).
	assert.Equal(t, 3.0, s.Lookup(80, -1.0))
	// eta out of range, pt inside: pt bin kept, eta clamped.
	assert.Equal(t, 5.0, s.Lookup(45, 3.0))
	assert.Equal(t, 2.0, s.Lookup(45, -3.0))
}

func TestLookup_InterpolatesInside(t *testing.T) {
	s := testSurface(t)

	// Exactly at a bin centre returns that bin.
	assert.InDelta(t, 2.0, s.Lookup(50, -1.25), 1e-12)

	// Midway between centres in both axes: mean of the four neighbours.
	got := s.Lookup(40, 0)
	assert.InDelta(t, (1.0+2.0+4.0+5.0)/4, got, 1e-12)

	// Quarter of the way along pt between centres 30 and 50, on the eta centre.
	assert.InDelta(t, 1.25, s.Lookup(35, -1.25), 1e-12)
}

func TestLookup_InterpolationBoundedByNeighbours(t *testing.T) {
	s := testSurface(t)
	for _, pt := range []float64{20, 21, 29.9, 33, 47, 55, 61, 70, 79.99} {
		for _, eta := range []float64{-2.5, -2.0, -0.3, 0, 0.7, 1.9, 2.49} {
			w := s.Lookup(pt, eta)
			assert.GreaterOrEqual(t, w, 1.0, "pt=%v eta=%v", pt, eta)
			assert.LessOrEqual(t, w, 6.0, "pt=%v eta=%v", pt, eta)
		}
	}
	// Outer half of an edge bin is flat along that axis.
	assert.InDelta(t, 1.0, s.Lookup(21, -2.4), 1e-12)
}

func TestNewSurface_Validates(t *testing.T) {
	_, err := NewSurface([]float64{1}, []float64{0, 1}, [][]float64{{1}})
	assert.ErrorIs(t, err, ErrInvalidSurface)

	_, err = NewSurface([]float64{0, 2, 1}, []float64{0, 1}, [][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrInvalidSurface)

	_, err = NewSurface([]float64{0, 1, 2}, []float64{0, 1}, [][]float64{{1}})
	assert.ErrorIs(t, err, ErrInvalidSurface)
}

func TestFromH2D(t *testing.T) {
	h := hbook.NewH2D(3, 20, 80, 2, -2.5, 2.5)
	h.Fill(30, -1, 1.0)
	h.Fill(50, -1, 2.0)
	h.Fill(70, -1, 3.0)
	h.Fill(30, 1, 4.0)
	h.Fill(50, 1, 5.0)
	h.Fill(70, 1, 6.0)

	s, err := FromH2D(h)
	require.NoError(t, err)

	nx, ny := s.Dims()
	assert.Equal(t, 3, nx)
	assert.Equal(t, 2, ny)
	assert.InDelta(t, 1.0, s.Content(0, 0), 1e-12)
	assert.InDelta(t, 6.0, s.Content(2, 1), 1e-12)
	assert.InDelta(t, 1.0, s.Lookup(5, -1), 1e-12)
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeSurface, ModeFor(physics.SampleDY, physics.MatchTrue))
	assert.Equal(t, ModeUnit, ModeFor(physics.SampleDY, physics.MatchAny))
	assert.Equal(t, ModeUnit, ModeFor(physics.SampleTT, physics.MatchTrue))
	assert.Equal(t, ModeHighMassRatio, ModeFor(physics.SampleDoubleEle300to6500, physics.MatchAny))
	assert.Equal(t, ModeUnit, ModeFor(physics.SampleDoubleEle1to300, physics.MatchAny))
}

func TestHighMassRatio(t *testing.T) {
	r, err := HighMassRatio(EntryCounts{Low: 2000, High: 1000})
	require.NoError(t, err)
	assert.InDelta(t, 6200.0/299.0*2, r, 1e-12)

	// No integer truncation of the span or the count ratio.
	r, err = HighMassRatio(EntryCounts{Low: 1, High: 3})
	require.NoError(t, err)
	assert.InDelta(t, 6200.0/299.0/3, r, 1e-12)

	_, err = HighMassRatio(EntryCounts{Low: 10})
	assert.ErrorIs(t, err, ErrMissingEntryCounts)
}

func TestReweighter(t *testing.T) {
	_, err := NewReweighter(ModeSurface, nil, EntryCounts{})
	assert.ErrorIs(t, err, ErrMissingSurface)

	unit, err := NewReweighter(ModeUnit, nil, EntryCounts{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, unit.Weight(1000, 5))

	s := testSurface(t)
	surf, err := NewReweighter(ModeSurface, s, EntryCounts{})
	require.NoError(t, err)
	assert.Equal(t, 6.0, surf.Weight(1000, 2))

	ratio, err := NewReweighter(ModeHighMassRatio, nil, EntryCounts{Low: 299, High: 6200})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ratio.Weight(25, 0), 1e-12)
	assert.InDelta(t, 1.0, ratio.Weight(2500, 2.4), 1e-12)
}
