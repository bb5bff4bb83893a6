package main

import (
	"io"
	"time"

	"github.com/nvr-ai/go-smooth/benchmark"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type benchOptions struct {
	images      string
	config      string
	output      string
	quick       bool
	widths      []int
	cutoffs     []int
	iterations  int
	workers     int
	saveOutputs bool
	noVerify    bool
	progress    time.Duration
}

func newBenchCmd(stdout io.Writer, global *globalOptions) *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the sequential and parallel filters over a set of images",
		Long: `Time the sequential and parallel filters over a set of images.

By default every image is smoothed with mean and median filters of widths
3, 5, 11 and 15 on both executors, followed by a parallel median sweep over
cutoffs 2..1024. Results are written as JSON and a CSV summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			suite := benchmark.NewSuite(benchmark.NewSuiteArgs{
				OutputPath:       cfg.OutputDir,
				Verify:           cfg.Verify,
				SaveOutputs:      cfg.SaveOutputs,
				ProgressInterval: opts.progress,
				Reporter:         global.reporter(stdout),
			})
			if err := suite.LoadImages(cfg.TestImagesPath); err != nil {
				return err
			}

			if opts.quick {
				ps := &benchmark.PredefinedScenarios{Iterations: cfg.Iterations, WarmupRuns: cfg.WarmupRuns, Workers: cfg.Workers}
				suite.AddScenarios(ps.Quick())
			} else {
				for _, s := range cfg.Scenarios() {
					suite.AddScenario(s)
				}
			}

			return suite.RunAll(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.images, "images", "", "image file or directory of images")
	f.StringVar(&opts.config, "config", "", "benchmark configuration file (YAML or JSON)")
	f.StringVar(&opts.output, "output", "", "output directory for results (default "+benchmark.DefaultOutputDir+")")
	f.BoolVar(&opts.quick, "quick", false, "run only 3x3 mean and median on both executors")
	f.IntSliceVar(&opts.widths, "widths", nil, "window widths of the window sweep")
	f.IntSliceVar(&opts.cutoffs, "cutoffs", nil, "cutoffs of the parallel median sweep")
	f.IntVar(&opts.iterations, "iterations", 0, "timed runs per scenario and image")
	f.IntVar(&opts.workers, "workers", 0, "parallel executor goroutine bound (0 = GOMAXPROCS)")
	f.BoolVar(&opts.saveOutputs, "save-outputs", false, "write each scenario's output image as PNG")
	f.BoolVar(&opts.noVerify, "no-verify", false, "skip checksum verification against the sequential output")
	f.DurationVar(&opts.progress, "progress", 0, "print a profiler report at this interval (0 = off)")
	return cmd
}

// resolve merges the config file (or defaults) with the flags the user set.
func (o *benchOptions) resolve(cmd *cobra.Command) (*benchmark.Config, error) {
	cfg := benchmark.DefaultConfig()
	if o.config != "" {
		loaded, err := benchmark.LoadConfig(o.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("images") {
		cfg.TestImagesPath = o.images
	}
	if flags.Changed("output") {
		cfg.OutputDir = o.output
	}
	if flags.Changed("widths") {
		cfg.WindowWidths = o.widths
	}
	if flags.Changed("cutoffs") {
		cfg.Cutoffs = o.cutoffs
	}
	if flags.Changed("iterations") {
		cfg.Iterations = o.iterations
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("save-outputs") {
		cfg.SaveOutputs = o.saveOutputs
	}
	if o.noVerify {
		cfg.Verify = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "benchmark config")
	}
	return cfg, nil
}
