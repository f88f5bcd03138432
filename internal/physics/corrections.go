package physics

import (
	"fmt"
	"math"
)

// Bin returns the effective-area bin for |eta| by linear scan of the
// ascending edges, compared in single precision. Values beyond the last
// edge land in the last bin.
func (ea EffectiveAreas) Bin(eta float64) int {
	absEta := float32(math.Abs(eta))
	n := len(ea.Values)
	bin := 0
	for bin < n-1 && absEta > float32(ea.Edges[bin+1]) {
		bin++
	}
	return bin
}

// Area returns the effective area for the given eta.
func (ea EffectiveAreas) Area(eta float64) float64 {
	return ea.Values[ea.Bin(eta)]
}

// RelIsoWithEA computes the effective-area corrected relative isolation:
//
//	(chIso + max(0, nhIso + phIso - rho*area)) / pt
func RelIsoWithEA(chIso, nhIso, phIso, rho, area, pt float64) float64 {
	return (chIso + math.Max(0, nhIso+phIso-rho*area)) / pt
}

// Coefficients returns the barrel or endcap H/E coefficients for etaSC.
func (h HOverE) Coefficients(etaSC float64) HOverECoefficients {
	if float32(math.Abs(etaSC)) < float32(h.Boundary) {
		return h.Barrel
	}
	return h.Endcap
}

// Scaled returns hOverE - C_e/eSC - C_rho*rho/eSC.
//
// An eSC below minEnergy in magnitude (or not finite) makes the correction
// meaningless and yields ErrIllDefinedEnergy.
func (h HOverE) Scaled(hOverE, eSC, rho, etaSC, minEnergy float64) (float64, error) {
	if math.IsNaN(eSC) || math.IsInf(eSC, 0) || math.Abs(eSC) < minEnergy {
		return 0, fmt.Errorf("%w: eSC=%g", ErrIllDefinedEnergy, eSC)
	}
	c := h.Coefficients(etaSC)
	return hOverE - c.CE/eSC - c.CRho*rho/eSC, nil
}
