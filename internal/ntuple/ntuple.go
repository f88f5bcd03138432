// Package ntuple defines the event-structured input record, the structured
// per-electron value it is zipped into, and the flat output record.
//
// The input arrives as parallel per-electron slices; Event.Electrons zips
// them exactly once per event after checking every slice has nEle entries.
// Nothing downstream indexes the parallel slices directly.
package ntuple

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch reports per-electron branches with inconsistent lengths.
var ErrLengthMismatch = errors.New("per-electron branch length mismatch")

// Event is one collision event as stored in the input tree.
type Event struct {
	NEle      int32
	Rho       float32
	NPV       int32
	GenWeight float32

	Pt                       []float32
	GenPt                    []float32
	ESC                      []float32
	EtaSC                    []float32
	PhiSC                    []float32
	IsoChargedHadrons        []float32
	IsoNeutralHadrons        []float32
	IsoPhotons               []float32
	IsTrue                   []int32
	D0                       []float32
	Dz                       []float32
	DEtaSeed                 []float32
	DPhiIn                   []float32
	Full5x5SigmaIEtaIEta     []float32
	HOverE                   []float32
	OOEmOOP                  []float32
	ExpectedMissingInnerHits []int32
	PassConversionVeto       []int32
}

// Electron is one reconstructed electron, zipped from an Event.
type Electron struct {
	Index int

	Pt                       float32
	GenPt                    float32
	ESC                      float32
	EtaSC                    float32
	PhiSC                    float32
	IsoChargedHadrons        float32
	IsoNeutralHadrons        float32
	IsoPhotons               float32
	IsTrue                   int32
	D0                       float32
	Dz                       float32
	DEtaSeed                 float32
	DPhiIn                   float32
	Full5x5SigmaIEtaIEta     float32
	HOverE                   float32
	OOEmOOP                  float32
	ExpectedMissingInnerHits int32
	PassConversionVeto       int32
}

// lengths returns the length of every per-electron branch keyed by its
// input branch name, in input declaration order.
func (e *Event) lengths() []branchLen {
	return []branchLen{
		{"pt", len(e.Pt)},
		{"genPt", len(e.GenPt)},
		{"eSC", len(e.ESC)},
		{"etaSC", len(e.EtaSC)},
		{"phiSC", len(e.PhiSC)},
		{"isoChargedHadrons", len(e.IsoChargedHadrons)},
		{"isoNeutralHadrons", len(e.IsoNeutralHadrons)},
		{"isoPhotons", len(e.IsoPhotons)},
		{"isTrue", len(e.IsTrue)},
		{"d0", len(e.D0)},
		{"dz", len(e.Dz)},
		{"dEtaSeed", len(e.DEtaSeed)},
		{"dPhiIn", len(e.DPhiIn)},
		{"full5x5_sigmaIetaIeta", len(e.Full5x5SigmaIEtaIEta)},
		{"hOverE", len(e.HOverE)},
		{"ooEmooP", len(e.OOEmOOP)},
		{"expectedMissingInnerHits", len(e.ExpectedMissingInnerHits)},
		{"passConversionVeto", len(e.PassConversionVeto)},
	}
}

type branchLen struct {
	name string
	n    int
}

// Validate checks that every per-electron branch holds exactly NEle entries.
func (e *Event) Validate() error {
	if e.NEle < 0 {
		return fmt.Errorf("%w: nEle=%d", ErrLengthMismatch, e.NEle)
	}
	want := int(e.NEle)
	for _, b := range e.lengths() {
		if b.n != want {
			return fmt.Errorf("%w: branch %q has %d entries, nEle=%d", ErrLengthMismatch, b.name, b.n, want)
		}
	}
	return nil
}

// Electrons validates the event and zips its parallel branches into one
// Electron per index. The returned values do not alias the event slices.
func (e *Event) Electrons() ([]Electron, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	out := make([]Electron, e.NEle)
	for i := range out {
		out[i] = Electron{
			Index:                    i,
			Pt:                       e.Pt[i],
			GenPt:                    e.GenPt[i],
			ESC:                      e.ESC[i],
			EtaSC:                    e.EtaSC[i],
			PhiSC:                    e.PhiSC[i],
			IsoChargedHadrons:        e.IsoChargedHadrons[i],
			IsoNeutralHadrons:        e.IsoNeutralHadrons[i],
			IsoPhotons:               e.IsoPhotons[i],
			IsTrue:                   e.IsTrue[i],
			D0:                       e.D0[i],
			Dz:                       e.Dz[i],
			DEtaSeed:                 e.DEtaSeed[i],
			DPhiIn:                   e.DPhiIn[i],
			Full5x5SigmaIEtaIEta:     e.Full5x5SigmaIEtaIEta[i],
			HOverE:                   e.HOverE[i],
			OOEmOOP:                  e.OOEmOOP[i],
			ExpectedMissingInnerHits: e.ExpectedMissingInnerHits[i],
			PassConversionVeto:       e.PassConversionVeto[i],
		}
	}
	return out, nil
}

// Append adds one electron to the event's parallel branches and bumps NEle.
// Used to build events in tests and fixtures.
func (e *Event) Append(el Electron) {
	e.Pt = append(e.Pt, el.Pt)
	e.GenPt = append(e.GenPt, el.GenPt)
	e.ESC = append(e.ESC, el.ESC)
	e.EtaSC = append(e.EtaSC, el.EtaSC)
	e.PhiSC = append(e.PhiSC, el.PhiSC)
	e.IsoChargedHadrons = append(e.IsoChargedHadrons, el.IsoChargedHadrons)
	e.IsoNeutralHadrons = append(e.IsoNeutralHadrons, el.IsoNeutralHadrons)
	e.IsoPhotons = append(e.IsoPhotons, el.IsoPhotons)
	e.IsTrue = append(e.IsTrue, el.IsTrue)
	e.D0 = append(e.D0, el.D0)
	e.Dz = append(e.Dz, el.Dz)
	e.DEtaSeed = append(e.DEtaSeed, el.DEtaSeed)
	e.DPhiIn = append(e.DPhiIn, el.DPhiIn)
	e.Full5x5SigmaIEtaIEta = append(e.Full5x5SigmaIEtaIEta, el.Full5x5SigmaIEtaIEta)
	e.HOverE = append(e.HOverE, el.HOverE)
	e.OOEmOOP = append(e.OOEmOOP, el.OOEmOOP)
	e.ExpectedMissingInnerHits = append(e.ExpectedMissingInnerHits, el.ExpectedMissingInnerHits)
	e.PassConversionVeto = append(e.PassConversionVeto, el.PassConversionVeto)
	e.NEle++
}
