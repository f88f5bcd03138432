// Package batch runs a plan of flat-ntuple conversions with bounded
// parallelism. Jobs are independent: a failing job is recorded and the
// others carry on.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/eleflat/internal/flatten"
	"github.com/roach88/eleflat/internal/weights"
)

// ConvertFunc performs one conversion.
type ConvertFunc func(ctx context.Context, job flatten.Job) (flatten.Summary, error)

// Result is the outcome of one job.
type Result struct {
	Job      flatten.Job
	Summary  flatten.Summary
	Err      error
	Retried  bool
	Duration time.Duration
}

// OK reports whether the job succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Report collects the results of a batch in plan order.
type Report struct {
	Name    string
	Results []Result
}

// Failed returns the number of failed jobs.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

// Err joins the job errors, or returns nil when every job succeeded.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Job, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Runner executes plans.
type Runner struct {
	Convert ConvertFunc
	// Hook regenerates the weight surface after a missing-surface failure.
	// Nil disables the retry; when nil and the plan names a command, a
	// CommandHook is used.
	Hook   Hook
	Logger *slog.Logger
	now    func() time.Time
}

// Run executes every job of plan. The returned error is non-nil only when
// the plan itself is invalid; job failures are reported in the Report.
func (r *Runner) Run(ctx context.Context, plan *Plan) (Report, error) {
	jobs, err := plan.Resolve()
	if err != nil {
		return Report{}, err
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := r.now
	if now == nil {
		now = time.Now
	}

	var hook *onceHook
	switch {
	case r.Hook != nil:
		hook = &onceHook{hook: r.Hook}
	case len(plan.WeightsHook) > 0:
		hook = &onceHook{hook: &CommandHook{Argv: plan.WeightsHook}}
	}

	report := Report{Name: plan.Name, Results: make([]Result, len(jobs))}
	logger.Info("batch started", "plan", plan.Name, "jobs", len(jobs), "parallelism", plan.Limit())

	// Job errors are captured in the report, so the group never cancels.
	var g errgroup.Group
	g.SetLimit(plan.Limit())
	for i, job := range jobs {
		g.Go(func() error {
			report.Results[i] = r.runJob(ctx, job, hook, logger, now)
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("batch finished", "plan", plan.Name, "jobs", len(jobs), "failed", report.Failed())
	return report, nil
}

func (r *Runner) runJob(ctx context.Context, job flatten.Job, hook *onceHook, logger *slog.Logger, now func() time.Time) Result {
	start := now()
	res := Result{Job: job}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	res.Summary, res.Err = r.Convert(ctx, job)
	if res.Err != nil && hook != nil && errors.Is(res.Err, weights.ErrMissingSurface) {
		logger.Warn("weight surface missing, running weights hook", job.LogAttrs()...)
		ran, herr := hook.run(ctx)
		if herr != nil {
			res.Err = errors.Join(res.Err, herr)
		} else {
			if ran {
				logger.Info("weights hook finished")
			}
			res.Retried = true
			res.Summary, res.Err = r.Convert(ctx, job)
		}
	}
	res.Duration = now().Sub(start)

	if res.Err != nil {
		logger.Error("job failed", append(job.LogAttrs(), "error", res.Err)...)
	}
	return res
}
