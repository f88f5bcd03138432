package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/eleflat/internal/config"
	"github.com/roach88/eleflat/internal/cuts"
	"github.com/roach88/eleflat/internal/physics"
)

// CutsOptions holds flags for the cuts command.
type CutsOptions struct {
	*RootOptions
	Region       string
	WorkingPoint string
}

// NewCutsCommand creates the cuts command.
func NewCutsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CutsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cuts <variable>",
		Short: "Show working point thresholds of a variable",
		Long: `Show the cut value of a variable at one or all working points.

Missing hits, d0 and dz come from the hand-tuned table; every other
variable is read from the cut repository.

Example:
  eleflat cuts hOverE --region barrel
  eleflat cuts dz --region endcap --wp Tight`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCuts(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Region, "region", "barrel", "eta region (barrel|endcap)")
	cmd.Flags().StringVar(&opts.WorkingPoint, "wp", "", "working point (Veto|Loose|Medium|Tight or 0-3), default all")

	return cmd
}

// newEvaluator opens the configured cut repository. A missing repository
// is tolerated for variables that never read it.
func newEvaluator(cfg *config.Config, variable string) (*cuts.Evaluator, error) {
	repo, err := cuts.OpenRepository(cfg.CutRepository, cfg.CutDateTag)
	if errors.Is(err, cuts.ErrRepositoryNotFound) && cuts.IsOverride(variable) {
		return cuts.NewEvaluator(nil), nil
	}
	if err != nil {
		return nil, err
	}
	return cuts.NewEvaluator(repo), nil
}

func runCuts(opts *CutsOptions, variable string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	region, err := physics.ParseRegion(opts.Region)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid region", err)
	}

	ctx, stop := commandContext(cmd)
	defer stop()
	cfg, _, err := opts.loadConfig(ctx)
	if err != nil {
		return err
	}

	ev, err := newEvaluator(cfg, variable)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open cut repository", err)
	}

	var thresholds []cuts.Threshold
	if opts.WorkingPoint != "" {
		wp, err := cuts.ParseWorkingPoint(opts.WorkingPoint)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid working point", err)
		}
		t, err := ev.Evaluate(wp, region, variable)
		if err != nil {
			_ = formatter.Error(ErrCodeInput, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to evaluate cut", err)
		}
		thresholds = []cuts.Threshold{t}
	} else {
		thresholds, err = ev.EvaluateAll(region, variable)
		if err != nil {
			_ = formatter.Error(ErrCodeInput, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to evaluate cuts", err)
		}
	}

	type row struct {
		WorkingPoint string `json:"working_point"`
		cuts.Threshold
	}
	rows := make([]row, len(thresholds))
	for i, t := range thresholds {
		rows[i] = row{WorkingPoint: t.WorkingPoint.String(), Threshold: t}
	}

	return formatter.Render(rows, func(w io.Writer) error {
		for _, r := range rows {
			sym := ""
			if r.Symmetric {
				sym = fmt.Sprintf(" (and %g)", -r.Value)
			}
			fmt.Fprintf(w, "%-7s %s %s < %g%s [%s]\n", r.WorkingPoint, region, r.Variable, r.Value, sym, r.Source)
		}
		return nil
	})
}
