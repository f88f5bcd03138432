package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/roach88/eleflat/internal/batch"
	"github.com/roach88/eleflat/internal/flatten"
	"github.com/roach88/eleflat/internal/runid"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Parallelism int
	NoHook      bool

	// IDs allows overriding the run id generator (for testing).
	IDs runid.Generator
	// Hook overrides the plan's weights hook (for testing).
	Hook batch.Hook
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch [plan.yaml]",
		Short: "Run a plan of conversions",
		Long: `Run every conversion of a YAML plan. Without a plan the standard seven
combinations are converted.

A job that fails does not stop the others. When the kinematic weight
surface is missing and the plan names a weights_hook, the hook is run once
and the job retried.

Example:
  eleflat batch
  eleflat batch tuning.yaml --parallelism 4`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runBatch(opts, path, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Parallelism, "parallelism", 0, "concurrent conversions (default from plan)")
	cmd.Flags().BoolVar(&opts.NoHook, "no-hook", false, "do not regenerate missing weight surfaces")

	return cmd
}

// batchJob is one line of the batch report.
type batchJob struct {
	Job     string `json:"job"`
	Status  string `json:"status"`
	Retried bool   `json:"retried,omitempty"`
	Error   string `json:"error,omitempty"`

	Conversion *conversion `json:"conversion,omitempty"`
}

type batchReport struct {
	Plan   string     `json:"plan"`
	Failed int        `json:"failed"`
	Jobs   []batchJob `json:"jobs"`
}

func runBatch(opts *BatchOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	plan := batch.DefaultPlan()
	if path != "" {
		p, err := batch.LoadPlan(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load plan", err)
		}
		plan = p
	}
	if opts.Parallelism > 0 {
		plan.Parallelism = opts.Parallelism
	}
	if opts.NoHook {
		plan.WeightsHook = nil
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	cfg, logger, err := opts.loadConfig(ctx)
	if err != nil {
		return err
	}
	sess, err := openSession(cfg, logger, opts.IDs)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open session", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Error("error closing session", "error", cerr)
		}
	}()

	// Conversions keyed by job; the last attempt wins.
	var mu sync.Mutex
	results := make(map[flatten.Job]conversion)

	runner := &batch.Runner{
		Convert: func(ctx context.Context, job flatten.Job) (flatten.Summary, error) {
			c, err := sess.convert(ctx, job, plan.Name)
			mu.Lock()
			results[job] = c
			mu.Unlock()
			return c.Summary, err
		},
		Logger: logger,
	}
	if !opts.NoHook {
		runner.Hook = opts.Hook
		if runner.Hook == nil && len(plan.WeightsHook) > 0 {
			runner.Hook = &batch.CommandHook{Argv: plan.WeightsHook, Stdout: cmd.ErrOrStderr(), Stderr: cmd.ErrOrStderr()}
		}
	}

	report, err := runner.Run(ctx, plan)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid plan", err)
	}

	out := batchReport{Plan: report.Name, Failed: report.Failed(), Jobs: make([]batchJob, 0, len(report.Results))}
	for _, res := range report.Results {
		bj := batchJob{Job: res.Job.String(), Status: "ok", Retried: res.Retried}
		if c, ok := results[res.Job]; ok {
			bj.Conversion = &c
		}
		if res.Err != nil {
			bj.Status, bj.Error = "failed", res.Err.Error()
		}
		out.Jobs = append(out.Jobs, bj)
	}

	if err := formatter.Render(out, func(w io.Writer) error {
		for _, j := range out.Jobs {
			line := fmt.Sprintf("%-8s %-28s", j.Status, j.Job)
			if j.Conversion != nil && j.Status == "ok" {
				line += fmt.Sprintf(" accepted=%d output=%s", j.Conversion.Summary.Accepted, j.Conversion.Output)
			}
			if j.Retried {
				line += " (retried)"
			}
			if j.Error != "" {
				line += " error=" + j.Error
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintf(w, "%d of %d jobs failed\n", out.Failed, len(out.Jobs))
		return nil
	}); err != nil {
		return err
	}

	if out.Failed > 0 {
		return WrapExitError(ExitFailure, fmt.Sprintf("%d batch jobs failed", out.Failed), report.Err())
	}
	return nil
}
