package flatten

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/eleflat/internal/digest"
	"github.com/roach88/eleflat/internal/ntuple"
	"github.com/roach88/eleflat/internal/physics"
	"github.com/roach88/eleflat/internal/weights"
)

// DefaultProgressEvery is the progress log interval in events.
const DefaultProgressEvery = 100000

// errEnough stops a source once MaxEvents events were consumed.
var errEnough = errors.New("max events reached")

// Job is one (sample, match mode, region) combination.
type Job struct {
	Sample physics.Sample
	Match  physics.MatchMode
	Region physics.Region
}

// String renders the job as "DY/true/barrel".
func (j Job) String() string {
	return j.Sample.String() + "/" + j.Match.String() + "/" + j.Region.String()
}

// LogAttrs returns the job as slog attributes.
func (j Job) LogAttrs() []any {
	return []any{"sample", j.Sample.String(), "match", j.Match.String(), "region", j.Region.String()}
}

// EventSource yields events in storage order.
//
// Events calls fn once per event and stops at the first error fn returns,
// passing that error back. The event passed to fn is only valid for the
// duration of the call.
type EventSource interface {
	Events(ctx context.Context, fn func(*ntuple.Event) error) error
}

// Sized is implemented by sources that know how many events they hold.
// It is used for progress reporting only.
type Sized interface {
	Entries() int64
}

// RowSink receives accepted rows in emission order. The row is only valid
// for the duration of the call.
type RowSink interface {
	Append(ctx context.Context, row *ntuple.FlatElectron) error
}

// Observer receives per-event and per-electron outcomes, e.g. for metrics.
type Observer interface {
	ObserveEvent()
	ObserveElectron(reason physics.Reason)
}

// Options configure a Flattener. The zero value uses physics.Default(),
// unit weights where allowed, and no logging.
type Options struct {
	Constants     *physics.Constants
	Surface       *weights.Surface
	Counts        weights.EntryCounts
	Logger        *slog.Logger
	ProgressEvery int64
	Observer      Observer
	// MaxEvents > 0 limits the pass to the first MaxEvents events.
	MaxEvents int64
}

// Summary reports the outcome of one pass.
type Summary struct {
	Events     int64                    `json:"events"`
	Electrons  int64                    `json:"electrons"`
	Accepted   int64                    `json:"accepted"`
	Rejected   map[physics.Reason]int64 `json:"rejected"`
	Digest     string                   `json:"digest"`
	WeightMode string                   `json:"weight_mode"`
}

// Flattener converts the events of one job.
type Flattener struct {
	job       Job
	constants physics.Constants
	weights   *weights.Reweighter
	logger    *slog.Logger
	progress  int64
	observer  Observer
	maxEvents int64
}

// New validates the job and options and resolves its weighting.
func New(job Job, opts Options) (*Flattener, error) {
	constants := physics.Default()
	if opts.Constants != nil {
		constants = opts.Constants.Clone()
	}
	if err := constants.Validate(); err != nil {
		return nil, err
	}

	mode := weights.ModeFor(job.Sample, job.Match)
	rw, err := weights.NewReweighter(mode, opts.Surface, opts.Counts)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	progress := opts.ProgressEvery
	if progress <= 0 {
		progress = DefaultProgressEvery
	}

	return &Flattener{
		job:       job,
		constants: constants,
		weights:   rw,
		logger:    logger.With(job.LogAttrs()...),
		progress:  progress,
		observer:  opts.Observer,
		maxEvents: opts.MaxEvents,
	}, nil
}

// Job returns the flattener's job.
func (f *Flattener) Job() Job { return f.job }

// WeightMode returns the weighting mode resolved for the job.
func (f *Flattener) WeightMode() weights.Mode { return f.weights.Mode() }

// Run makes one pass over src, appending accepted rows to sink.
//
// The context is checked between events; cancellation stops the pass and
// returns the context error. On error the returned Summary holds the
// counts up to the failure.
func (f *Flattener) Run(ctx context.Context, src EventSource, sink RowSink) (Summary, error) {
	sum := Summary{
		Rejected:   make(map[physics.Reason]int64, len(physics.Reasons)),
		WeightMode: f.weights.Mode().String(),
	}
	rows := digest.NewRows()

	total := int64(0)
	if s, ok := src.(Sized); ok {
		total = s.Entries()
		if f.maxEvents > 0 && total > f.maxEvents {
			total = f.maxEvents
		}
	}
	f.logger.Info("conversion started", "weight_mode", sum.WeightMode, "events_total", total)

	var row ntuple.FlatElectron
	err := src.Events(ctx, func(ev *ntuple.Event) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.maxEvents > 0 && sum.Events >= f.maxEvents {
			return errEnough
		}

		electrons, err := ev.Electrons()
		if err != nil {
			return fmt.Errorf("event %d: %w", sum.Events, err)
		}
		sum.Events++
		if f.observer != nil {
			f.observer.ObserveEvent()
		}

		for i := range electrons {
			sum.Electrons++
			reason := f.process(ev, &electrons[i], &row)
			if f.observer != nil {
				f.observer.ObserveElectron(reason)
			}
			if reason != physics.Accepted {
				sum.Rejected[reason]++
				continue
			}
			if err := sink.Append(ctx, &row); err != nil {
				return fmt.Errorf("event %d electron %d: append row: %w", sum.Events-1, i, err)
			}
			if err := rows.Add(&row); err != nil {
				return err
			}
			sum.Accepted++
		}

		if sum.Events%f.progress == 0 || sum.Events == total {
			f.logProgress(sum, total)
		}
		return nil
	})
	if errors.Is(err, errEnough) {
		err = nil
	}
	sum.Digest = rows.Sum()
	if err != nil {
		f.logger.Error("conversion failed", "events", sum.Events, "error", err)
		return sum, err
	}

	f.logger.Info("conversion finished",
		"events", sum.Events,
		"electrons", sum.Electrons,
		"accepted", sum.Accepted,
		"digest", sum.Digest,
	)
	return sum, nil
}

func (f *Flattener) logProgress(sum Summary, total int64) {
	attrs := []any{"events", sum.Events, "accepted", sum.Accepted}
	if total > 0 {
		attrs = append(attrs, "events_total", total, "progress", fmt.Sprintf("%.1f%%", 100*float64(sum.Events)/float64(total)))
	}
	f.logger.Info("conversion progress", attrs...)
}

// Run builds a Flattener for job and makes one pass.
func Run(ctx context.Context, job Job, opts Options, src EventSource, sink RowSink) (Summary, error) {
	f, err := New(job, opts)
	if err != nil {
		return Summary{}, err
	}
	return f.Run(ctx, src, sink)
}
