package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/eleflat/internal/flatten"
	"github.com/roach88/eleflat/internal/layout"
	"github.com/roach88/eleflat/internal/physics"
	"github.com/roach88/eleflat/internal/runid"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	Sample    string
	Match     string
	Region    string
	Output    string // output format override
	MaxEvents int64

	// IDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs runid.Generator
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Flatten one sample into a per-electron table",
		Long: `Read the event tree of one sample and write one row per electron that
passes the truth, region and preselection requirements.

Example:
  eleflat convert --sample DY --match true --region barrel
  eleflat convert --sample TT --match any --region full --format-out sqlite --max-events 100000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sample, "sample", "", "input sample (DY, TT, GJ, DoubleEleFlat1to300, DoubleEleFlat300to6500)")
	cmd.Flags().StringVar(&opts.Match, "match", "true", "truth match (true|fake|any)")
	cmd.Flags().StringVar(&opts.Region, "region", "barrel", "eta region (barrel|endcap|full)")
	cmd.Flags().StringVar(&opts.Output, "format-out", "", "output format (root|sqlite), default from config")
	cmd.Flags().Int64Var(&opts.MaxEvents, "max-events", -1, "convert only the first N events (0 for all), default from config")
	_ = cmd.MarkFlagRequired("sample")

	return cmd
}

func parseJob(sample, match, region string) (flatten.Job, error) {
	s, err := physics.ParseSample(sample)
	if err != nil {
		return flatten.Job{}, err
	}
	m, err := physics.ParseMatchMode(match)
	if err != nil {
		return flatten.Job{}, err
	}
	r, err := physics.ParseRegion(region)
	if err != nil {
		return flatten.Job{}, err
	}
	return flatten.Job{Sample: s, Match: m, Region: r}, nil
}

func runConvert(opts *ConvertOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	job, err := parseJob(opts.Sample, opts.Match, opts.Region)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid job", err)
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	cfg, logger, err := opts.loadConfig(ctx)
	if err != nil {
		return err
	}
	if opts.Output != "" {
		if _, err := layout.ParseFormat(opts.Output); err != nil {
			return WrapExitError(ExitCommandError, "invalid output format", err)
		}
		cfg.OutputFormat = opts.Output
	}
	if opts.MaxEvents >= 0 {
		cfg.MaxEvents = opts.MaxEvents
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

	c, err := sess.convert(ctx, job, "")
	if err != nil {
		code, errCode := ExitFailure, ErrCodeConvert
		if !c.started {
			code, errCode = ExitCommandError, ErrCodeInput
		}
		_ = formatter.Error(errCode, err.Error(), c)
		return WrapExitError(code, "conversion failed", err)
	}

	return formatter.Render(c, func(w io.Writer) error {
		writeConversion(w, c)
		return nil
	})
}

func writeConversion(w io.Writer, c conversion) {
	s := c.Summary
	fmt.Fprintf(w, "%s -> %s\n", c.Job, c.Output)
	fmt.Fprintf(w, "  run:        %s\n", c.ID)
	fmt.Fprintf(w, "  events:     %d\n", s.Events)
	fmt.Fprintf(w, "  electrons:  %d\n", s.Electrons)
	fmt.Fprintf(w, "  accepted:   %d\n", s.Accepted)
	reasons := make([]string, 0, len(s.Rejected))
	for r := range s.Rejected {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "  rejected:   %-16s %d\n", r, s.Rejected[physics.Reason(r)])
	}
	fmt.Fprintf(w, "  weights:    %s\n", s.WeightMode)
	fmt.Fprintf(w, "  digest:     %s\n", s.Digest)
	fmt.Fprintf(w, "  duration:   %s\n", c.Duration)
}
