package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/eleflat/internal/layout"
	"github.com/roach88/eleflat/internal/overlay"
	"github.com/roach88/eleflat/internal/physics"
)

// OverlayOptions holds flags for the overlay command.
type OverlayOptions struct {
	*RootOptions
	Region   string
	Bins     int
	Min, Max float64
	NoCuts   bool
}

// NewOverlayCommand creates the overlay command.
func NewOverlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OverlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "overlay <variable>",
		Short: "Compute signal and background distributions with cut markers",
		Long: `Fill the weighted distributions of a variable for DY signal electrons and
the DY, TT and (when present) GJ fakes, read from the full-acceptance flat
tables of the tag directory. Backgrounds are normalized to the signal and
the working point cuts are reported as markers.

Example:
  eleflat overlay hOverE --region barrel
  eleflat overlay dEtaSeed --region endcap --bins 50 --min -0.02 --max 0.02`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Region, "region", "barrel", "eta region (barrel|endcap)")
	cmd.Flags().IntVar(&opts.Bins, "bins", 0, "number of bins (default per variable)")
	cmd.Flags().Float64Var(&opts.Min, "min", 0, "axis minimum")
	cmd.Flags().Float64Var(&opts.Max, "max", 0, "axis maximum")
	cmd.Flags().BoolVar(&opts.NoCuts, "no-cuts", false, "do not compute cut markers")

	return cmd
}

func runOverlay(opts *OverlayOptions, variable string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	region, err := physics.ParseRegion(opts.Region)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid region", err)
	}

	ctx, stop := commandContext(cmd)
	defer stop()
	cfg, logger, err := opts.loadConfig(ctx)
	if err != nil {
		return err
	}
	format, err := layout.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid output format", err)
	}

	open := func(sample physics.Sample) (flatReader, string, error) {
		path := layout.OutputPath(cfg.TagDir, sample, physics.MatchAny, physics.RegionFull, 0, format)
		r, err := openFlat(format, path, cfg.OutputTree)
		return r, path, err
	}

	dy, dyPath, err := open(physics.SampleDY)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open signal table", err)
	}
	defer dy.Close()
	tt, _, err := open(physics.SampleTT)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open background table", err)
	}
	defer tt.Close()

	req := overlay.Request{
		Variable: variable,
		Region:   region,
		Signal:   overlay.Input{Name: "DY signal", Role: overlay.RoleSignal, Source: dy},
		Backgrounds: []overlay.Input{
			{Name: "DY fakes", Role: overlay.RoleBackground, Source: dy},
			{Name: "TT fakes", Role: overlay.RoleBackground, Source: tt},
		},
	}

	// The GJ table is optional.
	gj, gjPath, err := open(physics.SampleGJ)
	switch {
	case err == nil:
		defer gj.Close()
		req.Backgrounds = append(req.Backgrounds, overlay.Input{Name: "GJ fakes", Role: overlay.RoleBackground, Source: gj})
	case errors.Is(err, fs.ErrNotExist) || !fileExists(gjPath):
		logger.Debug("no GJ table, drawing two backgrounds", "path", gjPath)
	default:
		return WrapExitError(ExitCommandError, "failed to open GJ table", err)
	}

	if opts.Bins > 0 {
		req.Binning = overlay.Binning{Bins: opts.Bins, Min: opts.Min, Max: opts.Max}
	}
	if !opts.NoCuts {
		ev, err := newEvaluator(cfg, variable)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open cut repository", err)
		}
		req.Evaluator = ev
	}

	logger.Info("computing overlay", "variable", variable, "region", region.String(), "signal", dyPath)
	plot, err := overlay.Build(ctx, req)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to compute overlay", err)
	}

	return formatter.Render(plot, func(w io.Writer) error {
		writePlot(w, plot)
		return nil
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writePlot(w io.Writer, p *overlay.Plot) {
	b := p.Binning
	fmt.Fprintf(w, "%s, %s electrons, %d bins in [%g, %g]\n", p.Variable, p.Region, b.Bins, b.Min, b.Max)
	series := append([]overlay.Series{p.Signal}, p.Backgrounds...)
	for _, s := range series {
		fmt.Fprintf(w, "  %-10s %-10s entries=%d sumw=%.6g scale=%.6g\n", s.Name, s.Role, s.Entries, s.SumW, s.Scale)
	}
	for _, m := range p.Markers {
		note := ""
		if m.Mirrored {
			note += " mirrored"
		}
		if m.OffScale {
			note += fmt.Sprintf(" off-scale, drawn at %g", m.Position)
		}
		fmt.Fprintf(w, "  cut %-7s %g%s\n", m.WorkingPoint, m.Value, note)
	}
	fmt.Fprintln(w, "  bin  low        high       "+seriesHeader(series))
	for i := range b.Bins {
		lo := b.Min + float64(i)*(b.Max-b.Min)/float64(b.Bins)
		hi := b.Min + float64(i+1)*(b.Max-b.Min)/float64(b.Bins)
		fmt.Fprintf(w, "  %-4d %-10.4g %-10.4g", i, lo, hi)
		for _, s := range series {
			fmt.Fprintf(w, " %-12.6g", s.Contents[i])
		}
		fmt.Fprintln(w)
	}
}

func seriesHeader(series []overlay.Series) string {
	h := ""
	for _, s := range series {
		h += fmt.Sprintf(" %-12s", s.Name)
	}
	return h
}
