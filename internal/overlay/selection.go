package overlay

import (
	"math"

	"github.com/roach88/eleflat/internal/ntuple"
	"github.com/roach88/eleflat/internal/physics"
)

// Selection is the plotting preselection. It is tighter than the flat
// ntuple preselection: the region boundary is exclusive on the barrel side
// and missing inner hits are bounded.
type Selection struct {
	PtMin          float64 `json:"pt_min"`
	Boundary       float64 `json:"boundary"`
	EtaMax         float64 `json:"eta_max"`
	DzMax          float64 `json:"dz_max"`
	MaxMissingHits int32   `json:"max_missing_hits"`
}

// DefaultSelection returns the standard plotting preselection.
func DefaultSelection() Selection {
	return Selection{PtMin: 20, Boundary: 1.479, EtaMax: 2.5, DzMax: 1, MaxMissingHits: 2}
}

// Pass reports whether r enters the plot for region.
func (s Selection) Pass(r *ntuple.FlatElectron, region physics.Region) bool {
	absEta := float32(math.Abs(float64(r.EtaSC)))
	boundary, etaMax := float32(s.Boundary), float32(s.EtaMax)
	switch region {
	case physics.RegionBarrel:
		if !(absEta < boundary) {
			return false
		}
	case physics.RegionEndcap:
		if absEta < boundary || !(absEta < etaMax) {
			return false
		}
	default:
		if !(absEta < etaMax) {
			return false
		}
	}
	return r.Pt >= float32(s.PtMin) &&
		r.PassConversionVeto != 0 &&
		float32(math.Abs(float64(r.Dz))) < float32(s.DzMax) &&
		r.ExpectedMissingInnerHits <= s.MaxMissingHits
}

// Role selects the truth class a source contributes.
type Role int

const (
	RoleSignal Role = iota + 1
	RoleBackground
)

// Accepts reports whether the truth flag belongs to the role. Fakes are
// unmatched (0) or matched to a non-prompt electron (3).
func (r Role) Accepts(isTrue int32) bool {
	switch r {
	case RoleSignal:
		return isTrue == 1
	case RoleBackground:
		return isTrue == 0 || isTrue == 3
	}
	return false
}

func (r Role) String() string {
	switch r {
	case RoleSignal:
		return "signal"
	case RoleBackground:
		return "background"
	}
	return "unknown"
}
