package batch

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eleflat/internal/flatten"
	"github.com/roach88/eleflat/internal/physics"
)

// ErrInvalidPlan is returned for a plan that fails validation.
var ErrInvalidPlan = errors.New("invalid batch plan")

// Plan is a list of conversions run together.
type Plan struct {
	// Name labels the batch in logs and the ledger.
	Name string `yaml:"name"`

	// Parallelism bounds the number of concurrent conversions. Zero means 1.
	Parallelism int `yaml:"parallelism,omitempty"`

	// WeightsHook is the command that regenerates the kinematic weight
	// surface. Empty disables regeneration.
	WeightsHook []string `yaml:"weights_hook,omitempty"`

	Jobs []JobSpec `yaml:"jobs"`
}

// JobSpec names one combination as written in the plan file.
type JobSpec struct {
	Sample string `yaml:"sample"`
	Match  string `yaml:"match"`
	Region string `yaml:"region"`
}

// DefaultPlan returns the standard tuning batch: DY signal and TT fakes
// split by region, then the full-acceptance DY and TT tables.
func DefaultPlan() *Plan {
	return &Plan{
		Name:        "default",
		Parallelism: 1,
		Jobs: []JobSpec{
			{Sample: "DY", Match: "true", Region: "barrel"},
			{Sample: "DY", Match: "true", Region: "endcap"},
			{Sample: "TT", Match: "fake", Region: "barrel"},
			{Sample: "TT", Match: "fake", Region: "endcap"},
			{Sample: "DY", Match: "true", Region: "full"},
			{Sample: "DY", Match: "any", Region: "full"},
			{Sample: "TT", Match: "any", Region: "full"},
		},
	}
}

// LoadPlan reads a plan file. Unknown fields are rejected.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes and validates a YAML plan.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if _, err := p.Resolve(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Limit returns the effective parallelism.
func (p *Plan) Limit() int {
	if p.Parallelism <= 0 {
		return 1
	}
	return p.Parallelism
}

// Resolve parses every job of the plan.
func (p *Plan) Resolve() ([]flatten.Job, error) {
	if p.Parallelism < 0 {
		return nil, fmt.Errorf("%w: parallelism %d", ErrInvalidPlan, p.Parallelism)
	}
	if len(p.Jobs) == 0 {
		return nil, fmt.Errorf("%w: no jobs", ErrInvalidPlan)
	}
	jobs := make([]flatten.Job, 0, len(p.Jobs))
	seen := make(map[flatten.Job]int, len(p.Jobs))
	for i, js := range p.Jobs {
		job, err := js.resolve()
		if err != nil {
			return nil, fmt.Errorf("%w: job %d: %w", ErrInvalidPlan, i, err)
		}
		if prev, dup := seen[job]; dup {
			return nil, fmt.Errorf("%w: job %d repeats job %d (%s)", ErrInvalidPlan, i, prev, job)
		}
		seen[job] = i
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (js JobSpec) resolve() (flatten.Job, error) {
	sample, err := physics.ParseSample(js.Sample)
	if err != nil {
		return flatten.Job{}, err
	}
	match, err := physics.ParseMatchMode(js.Match)
	if err != nil {
		return flatten.Job{}, err
	}
	region, err := physics.ParseRegion(js.Region)
	if err != nil {
		return flatten.Job{}, err
	}
	return flatten.Job{Sample: sample, Match: match, Region: region}, nil
}
