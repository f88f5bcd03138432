// Package overlay computes the data behind the signal/background overlay
// plots used to tune the electron ID: weighted distributions of one
// variable and the working point cut markers drawn on top of them.
package overlay

import (
	"context"
	"errors"
	"fmt"

	"go-hep.org/x/hep/hbook"

	"github.com/roach88/eleflat/internal/cuts"
	"github.com/roach88/eleflat/internal/ntuple"
	"github.com/roach88/eleflat/internal/physics"
)

// RowSource streams flat rows. Both the ROOT and SQLite flat readers
// satisfy it.
type RowSource interface {
	Rows(ctx context.Context, fn func(*ntuple.FlatElectron) error) error
}

// Input is one contribution to the plot.
type Input struct {
	Name   string
	Role   Role
	Source RowSource
}

// Request describes one overlay.
type Request struct {
	Variable string
	Region   physics.Region
	// Binning defaults to DefaultBinning when Bins is zero.
	Binning   Binning
	Selection Selection
	Signal    Input
	// Backgrounds are the fake sources, drawn in order.
	Backgrounds []Input
	// Evaluator supplies cut markers; nil draws none.
	Evaluator *cuts.Evaluator
}

// Series is one filled distribution.
type Series struct {
	Name    string  `json:"name"`
	Role    string  `json:"role"`
	Entries int64   `json:"entries"`
	SumW    float64 `json:"sum_w"`
	Scale   float64 `json:"scale"`
	// Contents holds the per-bin sums of weights after scaling.
	Contents []float64  `json:"contents"`
	Hist     *hbook.H1D `json:"-"`
}

// Marker is one cut line. Position is where it is drawn; it differs from
// Value only when the cut lies outside the axis.
type Marker struct {
	WorkingPoint string  `json:"working_point"`
	Value        float64 `json:"value"`
	Position     float64 `json:"position"`
	Mirrored     bool    `json:"mirrored,omitempty"`
	OffScale     bool    `json:"off_scale,omitempty"`
	Source       string  `json:"source"`
}

// Plot is the computed overlay.
type Plot struct {
	Variable    string   `json:"variable"`
	Region      string   `json:"region"`
	Binning     Binning  `json:"binning"`
	Signal      Series   `json:"signal"`
	Backgrounds []Series `json:"backgrounds"`
	Markers     []Marker `json:"markers"`
}

// Build fills the distributions and computes the markers.
func Build(ctx context.Context, req Request) (*Plot, error) {
	if _, ok := ntuple.LookupColumn(req.Variable); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, req.Variable)
	}
	if req.Signal.Source == nil {
		return nil, ErrNoSignal
	}
	binning := req.Binning
	if binning.Bins == 0 {
		def, ok := DefaultBinning(req.Variable, req.Region)
		if !ok {
			return nil, fmt.Errorf("%w: no default axis for %q", ErrInvalidBinning, req.Variable)
		}
		binning = def
	}
	if err := binning.Validate(); err != nil {
		return nil, err
	}
	sel := req.Selection
	if sel == (Selection{}) {
		sel = DefaultSelection()
	}

	plot := &Plot{
		Variable: req.Variable,
		Region:   req.Region.String(),
		Binning:  binning,
		Markers:  []Marker{},
	}

	sig, err := fill(ctx, req.Signal, req.Variable, req.Region, binning, sel)
	if err != nil {
		return nil, err
	}
	sig.Contents = contents(sig.Hist)
	plot.Signal = sig

	for _, in := range req.Backgrounds {
		bg, err := fill(ctx, in, req.Variable, req.Region, binning, sel)
		if err != nil {
			return nil, err
		}
		if bg.SumW != 0 {
			bg.Scale = sig.SumW / bg.SumW
			bg.Hist.Scale(bg.Scale)
		}
		bg.Contents = contents(bg.Hist)
		plot.Backgrounds = append(plot.Backgrounds, bg)
	}

	if req.Evaluator != nil {
		markers, err := Markers(req.Evaluator, req.Region, req.Variable, binning)
		if err != nil {
			return nil, err
		}
		plot.Markers = markers
	}
	return plot, nil
}

func fill(ctx context.Context, in Input, variable string, region physics.Region, b Binning, sel Selection) (Series, error) {
	role := in.Role
	if role == 0 {
		role = RoleBackground
	}
	h := hbook.NewH1D(b.Bins, b.Min, b.Max)
	s := Series{Name: in.Name, Role: role.String(), Scale: 1, Hist: h}

	err := in.Source.Rows(ctx, func(r *ntuple.FlatElectron) error {
		if !role.Accepts(r.IsTrueEle) || !sel.Pass(r, region) {
			return nil
		}
		v, _ := r.Variable(variable)
		h.Fill(v, float64(r.GenWeight)*float64(r.KinWeight))
		s.Entries++
		return nil
	})
	if err != nil {
		return Series{}, fmt.Errorf("fill %s: %w", in.Name, err)
	}
	s.SumW = inRangeSumW(h)
	return s, nil
}

// inRangeSumW sums the bin contents, leaving out under- and overflow.
func inRangeSumW(h *hbook.H1D) float64 {
	var sum float64
	for _, bin := range h.Binning.Bins {
		sum += bin.SumW()
	}
	return sum
}

func contents(h *hbook.H1D) []float64 {
	out := make([]float64, len(h.Binning.Bins))
	for i, bin := range h.Binning.Bins {
		out[i] = bin.SumW()
	}
	return out
}

// Markers returns the working point cut lines of variable. Symmetric cuts
// add a mirrored line. Regions without cut sets yield no markers.
func Markers(ev *cuts.Evaluator, region physics.Region, variable string, b Binning) ([]Marker, error) {
	thresholds, err := ev.EvaluateAll(region, variable)
	if errors.Is(err, cuts.ErrUnsupportedRegion) {
		return []Marker{}, nil
	}
	if err != nil {
		return nil, err
	}
	markers := make([]Marker, 0, 2*len(thresholds))
	for _, t := range thresholds {
		markers = append(markers, marker(t, t.Value, false, b))
		if mv, ok := t.Mirror(); ok {
			markers = append(markers, marker(t, mv, true, b))
		}
	}
	return markers, nil
}

func marker(t cuts.Threshold, v float64, mirrored bool, b Binning) Marker {
	m := Marker{
		WorkingPoint: t.WorkingPoint.String(),
		Value:        v,
		Position:     v,
		Mirrored:     mirrored,
		Source:       string(t.Source),
	}
	switch {
	case v < b.Min:
		m.Position, m.OffScale = b.Min, true
	case v > b.Max:
		m.Position, m.OffScale = b.Max, true
	}
	return m
}
