// Package cuts evaluates electron-ID working-point thresholds.
//
// The missing-hits, d0 and dz cuts are tuned by hand and come from a fixed
// table; every other variable is looked up in the cut set stored for the
// (region, working point) in a CUE repository.
package cuts

import (
	"fmt"

	"github.com/roach88/eleflat/internal/ntuple"
	"github.com/roach88/eleflat/internal/physics"
)

// Source names where a threshold came from.
type Source string

const (
	SourceOverride   Source = "override"
	SourceRepository Source = "repository"
)

// Threshold is the cut value of one variable at one working point.
type Threshold struct {
	WorkingPoint WorkingPoint   `json:"-"`
	Region       physics.Region `json:"-"`
	Variable     string         `json:"variable"`
	Value        float64        `json:"value"`
	Symmetric    bool           `json:"symmetric"`
	Source       Source         `json:"source"`
}

// Mirror returns the negative threshold of a symmetric cut.
func (t Threshold) Mirror() (float64, bool) {
	if !t.Symmetric {
		return 0, false
	}
	return -t.Value, true
}

// Evaluator answers threshold queries. A nil repository serves only the
// hand-tuned cuts.
type Evaluator struct {
	repo *Repository
}

// NewEvaluator returns an evaluator backed by repo.
func NewEvaluator(repo *Repository) *Evaluator {
	return &Evaluator{repo: repo}
}

// Evaluate returns the threshold of variable at (wp, region).
func (e *Evaluator) Evaluate(wp WorkingPoint, region physics.Region, variable string) (Threshold, error) {
	if !wp.valid() {
		return Threshold{}, fmt.Errorf("%w: %d", ErrUnknownWorkingPoint, int(wp))
	}
	if _, err := regionName(region); err != nil {
		return Threshold{}, err
	}
	t := Threshold{WorkingPoint: wp, Region: region, Variable: variable}

	if cut, ok := lookupOverride(variable, wp, region); ok {
		t.Value, t.Symmetric, t.Source = normalize(variable, cut.Value), cut.Symmetric, SourceOverride
		return t, nil
	}

	if e.repo == nil {
		return Threshold{}, fmt.Errorf("%w: %s (no cut repository)", ErrUnknownVariable, variable)
	}
	cs, err := e.repo.Load(region, wp)
	if err != nil {
		return Threshold{}, err
	}
	cut, ok := cs[variable]
	if !ok {
		return Threshold{}, fmt.Errorf("%w: %s in %s %s cut set", ErrUnknownVariable, variable, region, wp)
	}
	t.Value, t.Symmetric, t.Source = normalize(variable, cut.Value), cut.Symmetric, SourceRepository
	return t, nil
}

// normalize truncates cuts on integer-valued variables.
func normalize(variable string, v float64) float64 {
	if col, ok := ntuple.LookupColumn(variable); ok && col.IsInt() {
		return float64(int64(v))
	}
	return v
}

// EvaluateAll returns the thresholds of variable at every working point,
// loosest first.
func (e *Evaluator) EvaluateAll(region physics.Region, variable string) ([]Threshold, error) {
	out := make([]Threshold, 0, len(WorkingPoints))
	for _, wp := range WorkingPoints {
		t, err := e.Evaluate(wp, region, variable)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
