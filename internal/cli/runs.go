package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/eleflat/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	XLSX string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded conversions",
		Long: `List the conversions recorded in the run ledger, oldest first.

Example:
  eleflat runs
  eleflat runs --xlsx ledger.xlsx`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.XLSX, "xlsx", "", "also export the ledger to this spreadsheet")

	return cmd
}

// openLedger opens the configured ledger for reading commands.
func openLedger(path string) (*store.Store, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "ledger is disabled in the configuration")
	}
	if !fileExists(path) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("ledger not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	return st, nil
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	ctx, stop := commandContext(cmd)
	defer stop()
	cfg, _, err := opts.loadConfig(ctx)
	if err != nil {
		return err
	}

	st, err := openLedger(cfg.Ledger)
	if err != nil {
		return err
	}
	defer st.Close()

	convs, err := st.ListConversions(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list conversions", err)
	}
	if convs == nil {
		convs = []store.Conversion{}
	}

	if opts.XLSX != "" {
		if err := store.ExportXLSX(opts.XLSX, convs); err != nil {
			return WrapExitError(ExitFailure, "failed to export ledger", err)
		}
		formatter.VerboseLog("exported %d conversions to %s", len(convs), opts.XLSX)
	}

	return formatter.Render(convs, func(w io.Writer) error {
		if len(convs) == 0 {
			fmt.Fprintln(w, "no conversions recorded")
			return nil
		}
		for _, c := range convs {
			fmt.Fprintf(w, "%4d  %s  %-6s  %s/%s/%s  accepted=%d  %s\n",
				c.Seq, c.ID, c.Status, c.Sample, c.Match, c.Region, c.Accepted, c.Output)
		}
		return nil
	})
}
