package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nvr-ai/go-smooth/images"
	"github.com/nvr-ai/go-smooth/images/kernels"
	"github.com/nvr-ai/go-smooth/profiler"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// smoothOptions holds the root command flags.
type smoothOptions struct {
	method         methodFlag
	edge           edgeFlag
	format         formatFlag
	sequential     bool
	workers        int
	preserveBorder bool
	quality        int
	verify         bool
}

// globalOptions are shared by every command.
type globalOptions struct {
	quiet bool
}

func (g *globalOptions) reporter(w io.Writer) profiler.Reporter {
	if g.quiet {
		return profiler.Discard
	}
	return profiler.NewLogReporter(w, "")
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	global := &globalOptions{}
	opts := &smoothOptions{quality: images.DefaultJPEGQuality}

	cmd := &cobra.Command{
		Use:   "go-smooth <input> <output> <windowWidth> [cutoff]",
		Short: "Smooth an image with a windowed mean or median filter",
		Long: `Smooth an image with a windowed mean or median filter.

The window width must be an odd integer of at least 3. The optional cutoff is
the column count below which the parallel executor stops splitting work
(default ` + strconv.Itoa(kernels.DefaultCutoff) + `).`,
		Args:          cobra.RangeArgs(3, 4),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmooth(args, opts, global.reporter(stdout))
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().BoolVarP(&global.quiet, "quiet", "q", false, "suppress status output")

	f := cmd.Flags()
	f.Var(&opts.method, "filter", "aggregation applied to each channel (mean|median)")
	f.Var(&opts.edge, "edge", "border handling: clamp computes every pixel, skip leaves a border of radius pixels")
	f.Var(&opts.format, "format", "output format (jpeg|png|gif|bmp|tiff|webp); inferred from the output path when empty")
	f.BoolVar(&opts.sequential, "sequential", false, "use the sequential executor")
	f.IntVar(&opts.workers, "workers", 0, "maximum goroutines used by the parallel executor (0 = GOMAXPROCS)")
	f.BoolVar(&opts.preserveBorder, "preserve-border", false, "copy source pixels into the skipped border instead of black")
	f.IntVar(&opts.quality, "quality", images.DefaultJPEGQuality, "JPEG quality (1-100)")
	f.BoolVar(&opts.verify, "verify", false, "also run the sequential executor and fail if the outputs differ")

	cmd.AddCommand(newResizeCmd(stdout, global), newBenchCmd(stdout, global))
	return cmd
}

func parseIntArg(name, s string, sentinel error) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(sentinel, "%s %q is not an integer", name, s)
	}
	return v, nil
}

func runSmooth(args []string, opts *smoothOptions, reporter profiler.Reporter) error {
	input, output := args[0], args[1]

	width, err := parseIntArg("window width", args[2], kernels.ErrInvalidWindowWidth)
	if err != nil {
		return err
	}
	cutoff := kernels.DefaultCutoff
	if len(args) == 4 {
		if cutoff, err = parseIntArg("cutoff", args[3], kernels.ErrInvalidCutoff); err != nil {
			return err
		}
		if err := kernels.ValidateCutoff(cutoff); err != nil {
			return err
		}
	}

	format := opts.format.v
	if format == "" {
		if format, err = images.FormatFromPath(output); err != nil {
			return err
		}
	}

	kopts := kernels.Options{
		Width:          width,
		Method:         opts.method.v,
		Edge:           opts.edge.v,
		Parallel:       !opts.sequential,
		Cutoff:         cutoff,
		Workers:        opts.workers,
		PreserveBorder: opts.preserveBorder,
	}
	filter, err := kernels.New(kopts)
	if err != nil {
		return err
	}

	codec := &images.FileCodec{Quality: opts.quality}
	src, err := codec.Decode(input)
	if err != nil {
		return err
	}

	label := fmt.Sprintf("%s %s filter", executorName(kopts.Parallel), kopts.Method)
	prof := profiler.NewProfiler(profiler.ProfilingOptions{})

	var out *images.PixelBuffer
	elapsed, err := prof.Time(label, func() error {
		var applyErr error
		out, applyErr = filter.Apply(src)
		return applyErr
	})
	if err != nil {
		return err
	}
	reporter.Elapsed(label, elapsed)

	if opts.verify && kopts.Parallel {
		seq := kopts
		seq.Parallel = false
		want, err := kernels.Smooth(src, seq)
		if err != nil {
			return err
		}
		if !want.Equal(out) {
			return errors.Errorf("parallel output %s differs from sequential %s",
				images.Checksum(out), images.Checksum(want))
		}
		reporter.Statusf("verified against sequential output (%s)", images.Checksum(out))
	}

	if err := codec.Encode(out, output, format); err != nil {
		return err
	}
	reporter.Statusf("wrote %s (%dx%d, %s)", output, out.Width, out.Height, format)
	return nil
}

func executorName(parallel bool) string {
	if parallel {
		return "parallel"
	}
	return "sequential"
}
