// Package testutil provides fixture events, in-memory sources and sinks,
// and golden-file helpers shared by package tests.
package testutil

import (
	"github.com/roach88/eleflat/internal/ntuple"
	"github.com/roach88/eleflat/internal/physics"
)

// SignalElectron returns a prompt barrel electron that passes the default
// preselection for true/barrel and true/full.
func SignalElectron() ntuple.Electron {
	return ntuple.Electron{
		Pt:                       50,
		GenPt:                    49.5,
		ESC:                      100,
		EtaSC:                    0.5,
		PhiSC:                    1.25,
		IsoChargedHadrons:        1,
		IsoNeutralHadrons:        0.5,
		IsoPhotons:               0.5,
		IsTrue:                   physics.TruthPrompt,
		D0:                       0.01,
		Dz:                       0.25,
		DEtaSeed:                 0.002,
		DPhiIn:                   0.03,
		Full5x5SigmaIEtaIEta:     0.0095,
		HOverE:                   0.05,
		OOEmOOP:                  0.01,
		ExpectedMissingInnerHits: 0,
		PassConversionVeto:       1,
	}
}

// FakeElectron returns an unmatched endcap electron that passes the
// default preselection for fake/endcap and any/full.
func FakeElectron() ntuple.Electron {
	el := SignalElectron()
	el.Pt = 25
	el.GenPt = 0
	el.ESC = 80
	el.EtaSC = -2
	el.IsTrue = physics.TruthUnmatched
	el.IsoChargedHadrons = 2.5
	el.IsoNeutralHadrons = 1
	el.IsoPhotons = 0.75
	el.HOverE = 0.125
	el.ExpectedMissingInnerHits = 1
	return el
}

// NewEvent builds a consistent event from electrons.
func NewEvent(rho float32, nPV int32, genWeight float32, electrons ...ntuple.Electron) *ntuple.Event {
	ev := &ntuple.Event{Rho: rho, NPV: nPV, GenWeight: genWeight}
	for _, el := range electrons {
		ev.Append(el)
	}
	return ev
}

// SampleEvents returns a small mixed event sample:
//
//	event 0: signal barrel electron, electron failing pt
//	event 1: no electrons
//	event 2: fake endcap electron, conversion, signal with |dz| = 1
//	event 3: signal electron with eSC = 0
func SampleEvents() []*ntuple.Event {
	lowPt := SignalElectron()
	lowPt.Pt = 15

	conversion := FakeElectron()
	conversion.PassConversionVeto = 0

	farDz := SignalElectron()
	farDz.Dz = -1

	zeroEnergy := SignalElectron()
	zeroEnergy.ESC = 0

	return []*ntuple.Event{
		NewEvent(10, 20, 1, SignalElectron(), lowPt),
		NewEvent(8, 15, 1),
		NewEvent(20, 30, -1, FakeElectron(), conversion, farDz),
		NewEvent(12, 22, 1, zeroEnergy),
	}
}
