package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/eleflat/internal/config"
	"github.com/roach88/eleflat/internal/flatten"
	"github.com/roach88/eleflat/internal/layout"
	"github.com/roach88/eleflat/internal/metrics"
	"github.com/roach88/eleflat/internal/ntuple"
	"github.com/roach88/eleflat/internal/physics"
	"github.com/roach88/eleflat/internal/rootio"
	"github.com/roach88/eleflat/internal/runid"
	"github.com/roach88/eleflat/internal/store"
	"github.com/roach88/eleflat/internal/weights"
)

// session holds the handles shared by the conversions of one invocation.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	ledger  *store.Store // nil when the ledger is disabled
	metrics *metrics.Recorder
	ids     runid.Generator
	now     func() time.Time
}

// openSession opens the ledger (when configured) and the metrics recorder.
func openSession(cfg *config.Config, logger *slog.Logger, ids runid.Generator) (*session, error) {
	if ids == nil {
		ids = runid.UUIDv7Generator{}
	}
	s := &session{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		ids:     ids,
		now:     time.Now,
	}
	if cfg.Ledger != "" {
		if err := layout.EnsureDir(cfg.Ledger); err != nil {
			return nil, err
		}
		st, err := store.Open(cfg.Ledger)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		s.ledger = st
	}
	return s, nil
}

// Close writes the metrics textfile and closes the ledger.
func (s *session) Close() error {
	var errs []error
	if s.cfg.MetricsFile != "" {
		if err := layout.EnsureDir(s.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		} else if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if s.ledger != nil {
		errs = append(errs, s.ledger.Close())
	}
	return errors.Join(errs...)
}

// conversion is the result of one convert, as reported to the user.
type conversion struct {
	ID       string          `json:"id"`
	Job      string          `json:"job"`
	Input    string          `json:"input"`
	Output   string          `json:"output"`
	Format   string          `json:"format"`
	Summary  flatten.Summary `json:"summary"`
	Duration string          `json:"duration"`

	// started is false when the conversion failed before reading events.
	started bool
}

// rowSink is a flat-table writer owned by one conversion.
type rowSink interface {
	flatten.RowSink
	Close() error
}

func (s *session) outputFormat() (layout.Format, error) {
	return layout.ParseFormat(s.cfg.OutputFormat)
}

// convert runs one conversion end to end and records it in the ledger.
func (s *session) convert(ctx context.Context, job flatten.Job, batch string) (conversion, error) {
	format, err := s.outputFormat()
	if err != nil {
		return conversion{}, err
	}
	start := s.now()
	c := conversion{
		ID:     s.ids.Generate(),
		Job:    job.String(),
		Input:  layout.InputPath(s.cfg.InputDir, job.Sample),
		Output: layout.OutputPath(s.cfg.TagDir, job.Sample, job.Match, job.Region, s.cfg.MaxEvents, format),
		Format: string(format),
	}
	logger := s.logger.With(append(job.LogAttrs(), "run_id", c.ID)...)

	if s.ledger != nil {
		_, err := s.ledger.BeginConversion(ctx, store.Conversion{
			ID:        c.ID,
			Batch:     batch,
			Sample:    job.Sample.String(),
			Match:     job.Match.String(),
			Region:    job.Region.String(),
			Input:     c.Input,
			Output:    c.Output,
			Format:    c.Format,
			MaxEvents: s.cfg.MaxEvents,
		})
		if err != nil {
			return c, fmt.Errorf("ledger: %w", err)
		}
	}

	sum, runErr := s.run(ctx, job, &c, logger)
	c.Summary = sum
	took := s.now().Sub(start)
	c.Duration = took.Round(time.Millisecond).String()
	s.metrics.ObserveConversion(job, runErr, took)

	if s.ledger != nil {
		// The ledger update must land even when ctx was cancelled.
		lctx := context.WithoutCancel(ctx)
		out := outcome(sum)
		var lerr error
		if runErr != nil {
			lerr = s.ledger.FailConversion(lctx, c.ID, out, runErr)
		} else {
			lerr = s.ledger.FinishConversion(lctx, c.ID, out)
		}
		if lerr != nil {
			runErr = errors.Join(runErr, fmt.Errorf("ledger: %w", lerr))
		}
	}
	return c, runErr
}

func (s *session) run(ctx context.Context, job flatten.Job, c *conversion, logger *slog.Logger) (sum flatten.Summary, err error) {
	opts := flatten.Options{
		Constants:     &s.cfg.Physics,
		Logger:        logger,
		ProgressEvery: s.cfg.ProgressEvery,
		Observer:      s.metrics.Observer(job),
		MaxEvents:     s.cfg.MaxEvents,
	}

	switch weights.ModeFor(job.Sample, job.Match) {
	case weights.ModeSurface:
		path := layout.WeightsPath(s.cfg.TagDir, s.cfg.WeightsFile)
		surface, err := rootio.ReadSurface(path, s.cfg.WeightsHist)
		if err != nil {
			return sum, fmt.Errorf("job %s: %w", job, err)
		}
		opts.Surface = surface
		logger.Debug("weight surface loaded", "path", path)
	case weights.ModeHighMassRatio:
		counts, err := s.entryCounts()
		if err != nil {
			return sum, fmt.Errorf("job %s: %w", job, err)
		}
		opts.Counts = counts
		logger.Debug("entry counts loaded", "low", counts.Low, "high", counts.High)
	}

	f, err := flatten.New(job, opts)
	if err != nil {
		return sum, err
	}

	src, err := rootio.OpenTreeSource(c.Input, s.cfg.TreeName, s.cfg.MaxEvents)
	if err != nil {
		return sum, fmt.Errorf("open input: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.Warn("error closing input", "error", cerr)
		}
	}()

	if err := layout.EnsureDir(c.Output); err != nil {
		return sum, err
	}
	sink, err := s.createSink(ctx, c)
	if err != nil {
		return sum, fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close output: %w", cerr))
		}
	}()

	c.started = true
	return f.Run(ctx, src, sink)
}

func (s *session) createSink(ctx context.Context, c *conversion) (rowSink, error) {
	if layout.Format(c.Format) == layout.FormatSQLite {
		t, err := store.CreateFlatTable(ctx, c.Output)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	t, err := rootio.CreateTreeSink(c.Output, s.cfg.OutputTree)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// entryCounts reads the entry counts of the two DoubleEle input trees.
func (s *session) entryCounts() (weights.EntryCounts, error) {
	low, err := rootio.Entries(layout.InputPath(s.cfg.InputDir, physics.SampleDoubleEle1to300), s.cfg.TreeName)
	if err != nil {
		return weights.EntryCounts{}, err
	}
	high, err := rootio.Entries(layout.InputPath(s.cfg.InputDir, physics.SampleDoubleEle300to6500), s.cfg.TreeName)
	if err != nil {
		return weights.EntryCounts{}, err
	}
	return weights.EntryCounts{Low: low, High: high}, nil
}

func outcome(sum flatten.Summary) store.Outcome {
	rejected := make(map[string]int64, len(sum.Rejected))
	for reason, n := range sum.Rejected {
		rejected[string(reason)] = n
	}
	return store.Outcome{
		Events:     sum.Events,
		Electrons:  sum.Electrons,
		Accepted:   sum.Accepted,
		Rejected:   rejected,
		Digest:     sum.Digest,
		WeightMode: sum.WeightMode,
	}
}

// flatReader reads a written flat table back.
type flatReader interface {
	Entries() int64
	Rows(ctx context.Context, fn func(*ntuple.FlatElectron) error) error
	Close() error
}

func openFlat(format layout.Format, path, tree string) (flatReader, error) {
	if format == layout.FormatSQLite {
		r, err := store.OpenFlatTable(path)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	r, err := rootio.OpenFlatSource(path, tree)
	if err != nil {
		return nil, err
	}
	return r, nil
}
