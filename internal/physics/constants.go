package physics

import (
	"fmt"
	"math"
	"slices"
)

// EffectiveAreas maps ascending |eta| bin edges to pileup effective areas.
// len(Edges) must equal len(Values)+1.
type EffectiveAreas struct {
	Edges  []float64 `koanf:"edges" yaml:"edges" validate:"required,min=2"`
	Values []float64 `koanf:"values" yaml:"values" validate:"required,min=1"`
}

// HOverECoefficients are the energy and rho terms of the H/E correction.
type HOverECoefficients struct {
	CE   float64 `koanf:"c_e" yaml:"c_e"`
	CRho float64 `koanf:"c_rho" yaml:"c_rho"`
}

// HOverE configures the H/E correction. Barrel coefficients apply when
// |etaSC| < Boundary.
type HOverE struct {
	Boundary float64            `koanf:"boundary" yaml:"boundary" validate:"gt=0"`
	Barrel   HOverECoefficients `koanf:"barrel" yaml:"barrel"`
	Endcap   HOverECoefficients `koanf:"endcap" yaml:"endcap"`
}

// Preselection holds the flat-ntuple preselection thresholds. They must
// match or be looser than the cuts used in the ID optimization.
type Preselection struct {
	PtMin        float64 `koanf:"pt_min" yaml:"pt_min" validate:"gte=0"`
	EtaMax       float64 `koanf:"eta_max" yaml:"eta_max" validate:"gt=0"`
	DzMax        float64 `koanf:"dz_max" yaml:"dz_max" validate:"gt=0"`
	BoundaryEBEE float64 `koanf:"boundary_eb_ee" yaml:"boundary_eb_ee" validate:"gt=0"`
}

// Constants bundles every physics constant the flattener needs.
type Constants struct {
	EffectiveAreas EffectiveAreas `koanf:"effective_areas" yaml:"effective_areas"`
	HOverE         HOverE         `koanf:"hoe" yaml:"hoe"`
	Preselection   Preselection   `koanf:"preselection" yaml:"preselection"`

	// MinEnergy is the smallest |eSC| (GeV) accepted by the H/E correction.
	MinEnergy float64 `koanf:"min_energy" yaml:"min_energy" validate:"gt=0"`
}

// Default returns the Fall17 effective areas, the H/E scaling coefficients
// and the standard preselection.
func Default() Constants {
	return Constants{
		EffectiveAreas: EffectiveAreas{
			Edges:  []float64{0.0, 1.0, 1.479, 2.0, 2.2, 2.3, 2.4, 2.5},
			Values: []float64{0.0978, 0.1033, 0.0552, 0.0247, 0.0255, 0.0208, 0.0960},
		},
		HOverE: HOverE{
			Boundary: 1.4442,
			Barrel:   HOverECoefficients{CE: 1.12, CRho: 0.0368},
			Endcap:   HOverECoefficients{CE: 2.35, CRho: 0.201},
		},
		Preselection: Preselection{
			PtMin:        20,
			EtaMax:       2.5,
			DzMax:        1.0,
			BoundaryEBEE: 1.479,
		},
		MinEnergy: 1e-6,
	}
}

// Clone returns a deep copy so the caller's slices cannot alias ours.
func (c Constants) Clone() Constants {
	c.EffectiveAreas.Edges = slices.Clone(c.EffectiveAreas.Edges)
	c.EffectiveAreas.Values = slices.Clone(c.EffectiveAreas.Values)
	return c
}

// Validate checks the structural invariants that tags cannot express.
func (c Constants) Validate() error {
	ea := c.EffectiveAreas
	if len(ea.Values) == 0 || len(ea.Edges) != len(ea.Values)+1 {
		return fmt.Errorf("%w: %d effective-area edges for %d values", ErrInvalidConstants, len(ea.Edges), len(ea.Values))
	}
	for i := 1; i < len(ea.Edges); i++ {
		if !(ea.Edges[i] > ea.Edges[i-1]) {
			return fmt.Errorf("%w: effective-area edges not ascending at index %d", ErrInvalidConstants, i)
		}
	}
	p := c.Preselection
	if p.BoundaryEBEE > p.EtaMax {
		return fmt.Errorf("%w: barrel/endcap boundary %g beyond eta max %g", ErrInvalidConstants, p.BoundaryEBEE, p.EtaMax)
	}
	if !(c.MinEnergy > 0) || math.IsInf(c.MinEnergy, 0) {
		return fmt.Errorf("%w: min_energy must be positive", ErrInvalidConstants)
	}
	return nil
}
