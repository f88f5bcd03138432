package physics

import "math"

// Reason names why an electron was not emitted. The zero value means the
// electron was accepted.
type Reason string

const (
	Accepted             Reason = ""
	RejectTruth          Reason = "truth"
	RejectRegion         Reason = "region"
	RejectPt             Reason = "pt"
	RejectConversionVeto Reason = "conversion_veto"
	RejectDz             Reason = "dz"
	RejectEnergy         Reason = "energy"
)

// Reasons lists every rejection reason in evaluation order.
var Reasons = []Reason{RejectTruth, RejectRegion, RejectPt, RejectConversionVeto, RejectDz, RejectEnergy}

// Candidate is the subset of electron fields the preselection looks at.
type Candidate struct {
	IsTrue             int32
	Pt                 float64
	EtaSC              float64
	PassConversionVeto bool
	Dz                 float64
}

// InRegion reports whether eta lies inside the region. Both region
// definitions include the barrel/endcap boundary; the full region
// excludes EtaMax itself.
//
// Comparisons run in single precision, the precision of the stored
// branches, so a stored 1.479 sits exactly on the boundary.
func (p Preselection) InRegion(eta float64, region Region) bool {
	absEta := float32(math.Abs(eta))
	boundary, etaMax := float32(p.BoundaryEBEE), float32(p.EtaMax)
	switch region {
	case RegionBarrel:
		return absEta <= boundary
	case RegionEndcap:
		return absEta >= boundary && absEta <= etaMax
	case RegionFull:
		return absEta < etaMax
	}
	return false
}

// Check evaluates the preselection and returns the first failing criterion,
// or Accepted.
func (p Preselection) Check(c Candidate, match MatchMode, region Region) Reason {
	switch {
	case !match.Accepts(c.IsTrue):
		return RejectTruth
	case !p.InRegion(c.EtaSC, region):
		return RejectRegion
	case float32(c.Pt) < float32(p.PtMin):
		return RejectPt
	case !c.PassConversionVeto:
		return RejectConversionVeto
	case !(float32(math.Abs(c.Dz)) < float32(p.DzMax)):
		return RejectDz
	}
	return Accepted
}
