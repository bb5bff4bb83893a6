package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nvr-ai/go-smooth/images"
	"github.com/nvr-ai/go-smooth/profiler"
	"github.com/spf13/cobra"
)

type resizeOptions struct {
	levels int
	outDir string
	interp interpFlag
	format formatFlag
}

func newResizeCmd(stdout io.Writer, global *globalOptions) *cobra.Command {
	opts := &resizeOptions{levels: 4, interp: interpFlag{v: images.Lanczos3Filter}}

	cmd := &cobra.Command{
		Use:   "resize <input>",
		Short: "Write successively halved copies of an image",
		Long: `Write successively halved copies of an image for benchmarking.

For input galactic.jpg and --levels 4 the copies are galactic4.jpg (half size)
down to galactic1.jpg (one sixteenth).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResize(args[0], opts, global.reporter(stdout))
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.levels, "levels", opts.levels, "number of halvings")
	f.StringVar(&opts.outDir, "out-dir", "", "output directory (default: the input's directory)")
	f.Var(&opts.interp, "interp", "interpolation (nearest|bilinear|bicubic|mitchell|lanczos2|lanczos3)")
	f.Var(&opts.format, "format", "output format; defaults to the input's format")
	return cmd
}

func runResize(input string, opts *resizeOptions, reporter profiler.Reporter) error {
	format := opts.format.v
	if format == "" {
		var err error
		if format, err = images.FormatFromPath(input); err != nil {
			return err
		}
	}

	codec := &images.FileCodec{}
	src, err := codec.Decode(input)
	if err != nil {
		return err
	}

	outs, err := images.Halvings(src, opts.levels, opts.interp.v)
	if err != nil {
		return err
	}

	dir := opts.outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	for i, buf := range outs {
		path := filepath.Join(dir, fmt.Sprintf("%s%d%s", base, opts.levels-i, format.Extension()))
		if err := codec.Encode(buf, path, format); err != nil {
			return err
		}
		reporter.Statusf("wrote %s (%dx%d)", path, buf.Width, buf.Height)
	}
	return nil
}
