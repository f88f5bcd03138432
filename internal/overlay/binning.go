package overlay

import (
	"fmt"

	"github.com/roach88/eleflat/internal/physics"
)

// Binning is the histogram axis of one variable.
type Binning struct {
	Bins int     `json:"bins" yaml:"bins"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// Validate checks the axis is usable.
func (b Binning) Validate() error {
	if b.Bins <= 0 || !(b.Max > b.Min) {
		return fmt.Errorf("%w: %d bins over [%g, %g]", ErrInvalidBinning, b.Bins, b.Min, b.Max)
	}
	return nil
}

type regionBinning struct {
	barrel, endcap Binning
}

func same(b Binning) regionBinning { return regionBinning{barrel: b, endcap: b} }

// DefaultVariables lists the distributions of the standard overlay, in
// plotting order.
var DefaultVariables = []string{
	"full5x5_sigmaIetaIeta",
	"dEtaSeed",
	"dPhiIn",
	"hOverE",
	"relIsoWithEA",
	"ooEmooP",
	"d0",
	"dz",
	"expectedMissingInnerHits",
}

var defaultBinnings = map[string]regionBinning{
	"full5x5_sigmaIetaIeta":    {barrel: Binning{100, 0, 0.018}, endcap: Binning{100, 0, 0.06}},
	"dEtaSeed":                 {barrel: Binning{100, -0.0125, 0.0125}, endcap: Binning{100, -0.03, 0.03}},
	"dPhiIn":                   {barrel: Binning{100, -0.1, 0.1}, endcap: Binning{100, -0.2, 0.2}},
	"hOverE":                   same(Binning{100, 0, 0.1}),
	"relIsoWithEA":             {barrel: Binning{100, 0, 0.25}, endcap: Binning{100, 0, 0.3}},
	"ooEmooP":                  same(Binning{100, 0, 0.15}),
	"d0":                       same(Binning{100, -0.1, 0.1}),
	"dz":                       same(Binning{100, -0.2, 0.2}),
	"expectedMissingInnerHits": same(Binning{5, -0.5, 4.5}),
}

// DefaultBinning returns the standard axis of variable in region. Endcap
// axes apply to the endcap only; every other region uses the barrel axis.
func DefaultBinning(variable string, region physics.Region) (Binning, bool) {
	rb, ok := defaultBinnings[variable]
	if !ok {
		return Binning{}, false
	}
	if region == physics.RegionEndcap {
		return rb.endcap, true
	}
	return rb.barrel, true
}
