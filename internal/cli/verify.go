package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/eleflat/internal/digest"
	"github.com/roach88/eleflat/internal/layout"
	"github.com/roach88/eleflat/internal/ntuple"
	"github.com/roach88/eleflat/internal/store"
)

// ErrDigestMismatch is returned when a written table no longer matches its
// ledger record.
var ErrDigestMismatch = errors.New("flat table does not match the ledger")

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <run-id>",
		Short: "Recompute the digest of a written flat table",
		Long: `Read back the flat table written by a recorded conversion and compare its
row count and digest with the ledger.

Exit code 1 when they differ.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

type verification struct {
	ID             string `json:"id"`
	Output         string `json:"output"`
	Match          bool   `json:"match"`
	Rows           int64  `json:"rows"`
	ExpectedRows   int64  `json:"expected_rows"`
	Digest         string `json:"digest"`
	ExpectedDigest string `json:"expected_digest"`
}

func runVerify(opts *RootOptions, id string, cmd *cobra.Command) error {
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

	c, err := st.GetConversion(ctx, id)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	if c.Status != store.StatusOK {
		return NewExitError(ExitCommandError, fmt.Sprintf("run %s is %s, nothing to verify", id, c.Status))
	}
	format, err := layout.ParseFormat(c.Format)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid recorded format", err)
	}

	r, err := openFlat(format, c.Output, cfg.OutputTree)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open flat table", err)
	}
	defer r.Close()

	rows := digest.NewRows()
	err = r.Rows(ctx, func(row *ntuple.FlatElectron) error {
		return rows.Add(row)
	})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read flat table", err)
	}

	v := verification{
		ID:             c.ID,
		Output:         c.Output,
		Rows:           rows.Count(),
		ExpectedRows:   c.Accepted,
		Digest:         rows.Sum(),
		ExpectedDigest: c.Digest,
	}
	v.Match = v.Rows == v.ExpectedRows && v.Digest == v.ExpectedDigest

	if err := formatter.Render(v, func(w io.Writer) error {
		status := "OK"
		if !v.Match {
			status = "MISMATCH"
		}
		fmt.Fprintf(w, "%s %s\n", status, v.Output)
		fmt.Fprintf(w, "  rows:   %d (ledger %d)\n", v.Rows, v.ExpectedRows)
		fmt.Fprintf(w, "  digest: %s\n", v.Digest)
		if !v.Match {
			fmt.Fprintf(w, "  ledger: %s\n", v.ExpectedDigest)
		}
		return nil
	}); err != nil {
		return err
	}

	if !v.Match {
		return WrapExitError(ExitFailure, "verification failed", fmt.Errorf("%w: run %s", ErrDigestMismatch, id))
	}
	return nil
}
