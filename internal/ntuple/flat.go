package ntuple

// FlatElectron is one accepted electron in the flat output table: every
// per-electron input field, the event-level fields broadcast onto the row,
// and the derived observables.
type FlatElectron struct {
	NPV       int32
	GenWeight float32
	KinWeight float32
	Rho       float32

	Pt                   float32
	GenPt                float32
	ESC                  float32
	EtaSC                float32
	PhiSC                float32
	DEtaSeed             float32
	DPhiIn               float32
	HOverE               float32
	HOverEScaled         float32
	Full5x5SigmaIEtaIEta float32
	IsoChargedHadrons    float32
	IsoNeutralHadrons    float32
	IsoPhotons           float32
	RelIsoWithEA         float32
	OOEmOOP              float32
	D0                   float32
	Dz                   float32

	ExpectedMissingInnerHits int32
	PassConversionVeto       int32
	IsTrueEle                int32
}

// Column describes one flat-table column. Exactly one of F32/I32 is set;
// each returns a pointer into the given record so storage backends can bind
// a reusable buffer.
type Column struct {
	Name string
	F32  func(*FlatElectron) *float32
	I32  func(*FlatElectron) *int32
}

// IsInt reports whether the column holds an int32.
func (c Column) IsInt() bool { return c.I32 != nil }

// Value returns the column value of r widened to float64.
func (c Column) Value(r *FlatElectron) float64 {
	if c.I32 != nil {
		return float64(*c.I32(r))
	}
	return float64(*c.F32(r))
}

// Columns lists the flat-table columns in output branch order.
var Columns = []Column{
	{Name: "nPV", I32: func(r *FlatElectron) *int32 { return &r.NPV }},
	{Name: "genWeight", F32: func(r *FlatElectron) *float32 { return &r.GenWeight }},
	{Name: "kinWeight", F32: func(r *FlatElectron) *float32 { return &r.KinWeight }},
	{Name: "rho", F32: func(r *FlatElectron) *float32 { return &r.Rho }},
	{Name: "pt", F32: func(r *FlatElectron) *float32 { return &r.Pt }},
	{Name: "genPt", F32: func(r *FlatElectron) *float32 { return &r.GenPt }},
	{Name: "eSC", F32: func(r *FlatElectron) *float32 { return &r.ESC }},
	{Name: "etaSC", F32: func(r *FlatElectron) *float32 { return &r.EtaSC }},
	{Name: "phiSC", F32: func(r *FlatElectron) *float32 { return &r.PhiSC }},
	{Name: "dEtaSeed", F32: func(r *FlatElectron) *float32 { return &r.DEtaSeed }},
	{Name: "dPhiIn", F32: func(r *FlatElectron) *float32 { return &r.DPhiIn }},
	{Name: "hOverE", F32: func(r *FlatElectron) *float32 { return &r.HOverE }},
	{Name: "hOverEscaled", F32: func(r *FlatElectron) *float32 { return &r.HOverEScaled }},
	{Name: "full5x5_sigmaIetaIeta", F32: func(r *FlatElectron) *float32 { return &r.Full5x5SigmaIEtaIEta }},
	{Name: "isoChargedHadrons", F32: func(r *FlatElectron) *float32 { return &r.IsoChargedHadrons }},
	{Name: "isoNeutralHadrons", F32: func(r *FlatElectron) *float32 { return &r.IsoNeutralHadrons }},
	{Name: "isoPhotons", F32: func(r *FlatElectron) *float32 { return &r.IsoPhotons }},
	{Name: "relIsoWithEA", F32: func(r *FlatElectron) *float32 { return &r.RelIsoWithEA }},
	{Name: "ooEmooP", F32: func(r *FlatElectron) *float32 { return &r.OOEmOOP }},
	{Name: "d0", F32: func(r *FlatElectron) *float32 { return &r.D0 }},
	{Name: "dz", F32: func(r *FlatElectron) *float32 { return &r.Dz }},
	{Name: "expectedMissingInnerHits", I32: func(r *FlatElectron) *int32 { return &r.ExpectedMissingInnerHits }},
	{Name: "passConversionVeto", I32: func(r *FlatElectron) *int32 { return &r.PassConversionVeto }},
	{Name: "isTrueEle", I32: func(r *FlatElectron) *int32 { return &r.IsTrueEle }},
}

var columnIndex = func() map[string]int {
	m := make(map[string]int, len(Columns))
	for i, c := range Columns {
		m[c.Name] = i
	}
	return m
}()

// LookupColumn returns the column with the given branch name.
func LookupColumn(name string) (Column, bool) {
	i, ok := columnIndex[name]
	if !ok {
		return Column{}, false
	}
	return Columns[i], true
}

// Variable returns the named column of r widened to float64.
func (r *FlatElectron) Variable(name string) (float64, bool) {
	c, ok := LookupColumn(name)
	if !ok {
		return 0, false
	}
	return c.Value(r), true
}
