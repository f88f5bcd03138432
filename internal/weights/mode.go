package weights

import (
	"fmt"

	"github.com/roach88/eleflat/internal/physics"
)

// Mode selects how the kinematic weight of an electron is computed.
type Mode int

const (
	// ModeUnit assigns weight 1 to every electron.
	ModeUnit Mode = iota
	// ModeSurface looks the weight up on the kinematic surface.
	ModeSurface
	// ModeHighMassRatio assigns the fixed high-mass control-sample ratio.
	ModeHighMassRatio
)

func (m Mode) String() string {
	switch m {
	case ModeUnit:
		return "unit"
	case ModeSurface:
		return "surface"
	case ModeHighMassRatio:
		return "high_mass_ratio"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ModeFor returns the weighting mode of a (sample, match) combination.
// Only genuine electrons of the Drell-Yan signal sample are reweighted on
// the surface; the high-mass DoubleEle sample gets the fixed ratio for any
// match mode.
func ModeFor(sample physics.Sample, match physics.MatchMode) Mode {
	switch {
	case sample == physics.SampleDY && match == physics.MatchTrue:
		return ModeSurface
	case sample == physics.SampleDoubleEle300to6500:
		return ModeHighMassRatio
	}
	return ModeUnit
}

// EntryCounts are the event counts of the two flat DoubleEle samples.
type EntryCounts struct {
	Low  int64 // DoubleEleFlat1to300
	High int64 // DoubleEleFlat300to6500
}

// Mass ranges (GeV) of the flat DoubleEle generator samples.
const (
	lowMassMin  = 1
	lowMassMax  = 300
	highMassMin = 300
	highMassMax = 6500
)

// HighMassRatio returns (6500-300)/(300-1) * N_low/N_high, the factor that
// brings the high-mass sample to the per-GeV density of the low-mass one.
// The ratio does not depend on pt or eta. It is computed in float64; the
// ROOT macro this replaces used integer arithmetic (span 20, truncated
// count division), so old outputs differ slightly.
func HighMassRatio(c EntryCounts) (float64, error) {
	if c.Low <= 0 || c.High <= 0 {
		return 0, fmt.Errorf("%w: low=%d high=%d", ErrMissingEntryCounts, c.Low, c.High)
	}
	span := float64(highMassMax-highMassMin) / float64(lowMassMax-lowMassMin)
	return span * float64(c.Low) / float64(c.High), nil
}

// Reweighter computes kinematic weights for one conversion job.
type Reweighter struct {
	mode    Mode
	surface *Surface
	ratio   float64
}

// NewReweighter validates that the inputs the mode needs are present.
// A surface job without a surface fails with ErrMissingSurface; the caller
// decides whether to regenerate it and retry.
func NewReweighter(mode Mode, surface *Surface, counts EntryCounts) (*Reweighter, error) {
	r := &Reweighter{mode: mode, surface: surface, ratio: 1}
	switch mode {
	case ModeUnit:
	case ModeSurface:
		if surface == nil {
			return nil, ErrMissingSurface
		}
	case ModeHighMassRatio:
		ratio, err := HighMassRatio(counts)
		if err != nil {
			return nil, err
		}
		r.ratio = ratio
	default:
		return nil, fmt.Errorf("unknown weight mode %d", int(mode))
	}
	return r, nil
}

// Mode returns the reweighter's mode.
func (r *Reweighter) Mode() Mode { return r.mode }

// Weight returns the kinematic weight for an electron.
func (r *Reweighter) Weight(pt, etaSC float64) float64 {
	if r.mode == ModeSurface {
		return r.surface.Lookup(pt, etaSC)
	}
	return r.ratio
}
