package flatten

import (
	"github.com/roach88/eleflat/internal/ntuple"
	"github.com/roach88/eleflat/internal/physics"
)

// process applies the preselection to el and, when accepted, fills row.
// Derived values are only computed for electrons that pass.
func (f *Flattener) process(ev *ntuple.Event, el *ntuple.Electron, row *ntuple.FlatElectron) physics.Reason {
	reason := f.constants.Preselection.Check(physics.Candidate{
		IsTrue:             el.IsTrue,
		Pt:                 float64(el.Pt),
		EtaSC:              float64(el.EtaSC),
		PassConversionVeto: el.PassConversionVeto != 0,
		Dz:                 float64(el.Dz),
	}, f.job.Match, f.job.Region)
	if reason != physics.Accepted {
		return reason
	}

	rho, eSC, etaSC := float64(ev.Rho), float64(el.ESC), float64(el.EtaSC)
	hOverEScaled, err := f.constants.HOverE.Scaled(float64(el.HOverE), eSC, rho, etaSC, f.constants.MinEnergy)
	if err != nil {
		return physics.RejectEnergy
	}

	area := f.constants.EffectiveAreas.Area(etaSC)
	relIso := physics.RelIsoWithEA(
		float64(el.IsoChargedHadrons),
		float64(el.IsoNeutralHadrons),
		float64(el.IsoPhotons),
		rho, area, float64(el.Pt),
	)

	*row = ntuple.FlatElectron{
		NPV:       ev.NPV,
		GenWeight: ev.GenWeight,
		KinWeight: float32(f.weights.Weight(float64(el.Pt), etaSC)),
		Rho:       ev.Rho,

		Pt:                   el.Pt,
		GenPt:                el.GenPt,
		ESC:                  el.ESC,
		EtaSC:                el.EtaSC,
		PhiSC:                el.PhiSC,
		DEtaSeed:             el.DEtaSeed,
		DPhiIn:               el.DPhiIn,
		HOverE:               el.HOverE,
		HOverEScaled:         float32(hOverEScaled),
		Full5x5SigmaIEtaIEta: el.Full5x5SigmaIEtaIEta,
		IsoChargedHadrons:    el.IsoChargedHadrons,
		IsoNeutralHadrons:    el.IsoNeutralHadrons,
		IsoPhotons:           el.IsoPhotons,
		RelIsoWithEA:         float32(relIso),
		OOEmOOP:              el.OOEmOOP,
		D0:                   el.D0,
		Dz:                   el.Dz,

		ExpectedMissingInnerHits: el.ExpectedMissingInnerHits,
		PassConversionVeto:       el.PassConversionVeto,
		IsTrueEle:                el.IsTrue,
	}
	return physics.Accepted
}
