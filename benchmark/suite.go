package benchmark

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/nvr-ai/go-smooth/images"
	"github.com/nvr-ai/go-smooth/images/kernels"
	"github.com/nvr-ai/go-smooth/profiler"
	"github.com/nvr-ai/go-smooth/util"
	"github.com/pkg/errors"
)

// ErrChecksumMismatch is returned by RunAll when a scenario's output differs
// from the sequential baseline.
var ErrChecksumMismatch = errors.New("output differs from sequential baseline")

// Suite manages and executes benchmark scenarios
type Suite struct {
	scenarios   []Scenario
	codec       images.Codec
	reporter    profiler.Reporter
	profiler    *profiler.Profiler
	outputDir   string
	verify      bool
	saveOutputs bool
	progress    time.Duration
	corpus      []corpusImage
	baselines   map[string]string
	mu          sync.RWMutex
	results     []PerformanceMetrics
}

type corpusImage struct {
	name string
	buf  *images.PixelBuffer
}

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	OutputPath string `json:"outputPath" yaml:"outputPath"`
	// Verify compares every output with the sequential baseline.
	Verify bool `json:"verify" yaml:"verify"`
	// SaveOutputs writes the output of each scenario as PNG under OutputPath.
	SaveOutputs bool `json:"saveOutputs" yaml:"saveOutputs"`
	// ProgressInterval enables periodic profiler reports while RunAll runs.
	ProgressInterval time.Duration `json:"progressInterval" yaml:"progressInterval"`

	Codec    images.Codec      `json:"-" yaml:"-"`
	Reporter profiler.Reporter `json:"-" yaml:"-"`
	Profiler *profiler.Profiler `json:"-" yaml:"-"`
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite.
func NewSuite(args NewSuiteArgs) *Suite {
	if args.Codec == nil {
		args.Codec = &images.FileCodec{}
	}
	if args.Reporter == nil {
		args.Reporter = profiler.Discard
	}
	if args.Profiler == nil {
		args.Profiler = profiler.NewProfiler(profiler.ProfilingOptions{ReportInterval: args.ProgressInterval})
	}
	if args.OutputPath == "" {
		args.OutputPath = DefaultOutputDir
	}

	return &Suite{
		codec:       args.Codec,
		reporter:    args.Reporter,
		profiler:    args.Profiler,
		outputDir:   args.OutputPath,
		verify:      args.Verify,
		saveOutputs: args.SaveOutputs,
		progress:    args.ProgressInterval,
		baselines:   make(map[string]string),
	}
}

// AddScenario adds a test scenario to the benchmark suite
func (bs *Suite) AddScenario(scenario Scenario) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.scenarios = append(bs.scenarios, scenario)
}

// AddScenarios adds every scenario of set.
func (bs *Suite) AddScenarios(set *ScenarioSet) {
	for _, s := range set.Scenarios {
		bs.AddScenario(s)
	}
}

// AddImage adds an already decoded image to the corpus.
func (bs *Suite) AddImage(name string, buf *images.PixelBuffer) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.corpus = append(bs.corpus, corpusImage{name: name, buf: buf})
}

// LoadImages decodes a single image file or every image in a directory.
func (bs *Suite) LoadImages(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "stat image path")
	}

	paths := []string{path}
	if info.IsDir() {
		files, err := util.ListImageFiles(path)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return errors.Errorf("no images found in directory: %s", path)
		}
		paths = paths[:0]
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}

	for _, p := range paths {
		buf, err := bs.codec.Decode(p)
		if err != nil {
			return err
		}
		name := filepath.Base(p)
		bs.AddImage(name, buf)
		bs.reporter.Statusf("loaded %s (%dx%d)", name, buf.Width, buf.Height)
	}
	return nil
}

// RunScenario times scenario on src. Warmup runs are not timed. Every timed
// run is recorded in the suite profiler under the scenario name.
func (bs *Suite) RunScenario(ctx context.Context, scenario Scenario, name string, src *images.PixelBuffer) (*PerformanceMetrics, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	f, err := kernels.New(scenario.Options())
	if err != nil {
		return nil, err
	}

	metrics := &PerformanceMetrics{
		Scenario:  scenario,
		Image:     name,
		Width:     src.Width,
		Height:    src.Height,
		Timestamp: time.Now(),
		CPUStats:  cpuMetrics(),
	}

	// Warmup runs
	for i := 0; i < scenario.WarmupRuns; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := f.Apply(src); err != nil {
			return nil, err
		}
	}

	// Capture initial memory stats
	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	var (
		out       *images.PixelBuffer
		durations = make([]time.Duration, 0, scenario.Iterations)
	)
	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := bs.profiler.Time(scenario.Name, func() error {
			var applyErr error
			out, applyErr = f.Apply(src)
			return applyErr
		})
		if err != nil {
			return nil, err
		}
		durations = append(durations, d)
	}

	// Capture final memory stats
	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)
	metrics.MemoryStats = memoryDelta(&startMem, &endMem)
	bs.profiler.RecordMetric("alloc_bytes_per_run", float64(metrics.MemoryStats.TotalAllocBytes)/float64(scenario.Iterations))

	if metrics.Timing, err = Summarize(durations); err != nil {
		return nil, err
	}
	for _, d := range durations {
		metrics.TotalDuration += d
	}
	if secs := metrics.TotalDuration.Seconds(); secs > 0 {
		metrics.FramesPerSecond = float64(scenario.Iterations) / secs
		metrics.MegapixelsPerS = float64(src.Width*src.Height) * float64(scenario.Iterations) / 1e6 / secs
	}
	metrics.Checksum = images.Checksum(out)

	if bs.saveOutputs {
		path := filepath.Join(bs.outputDir, "images", fmt.Sprintf("%s-%s.png", trimExt(name), scenario.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create image output directory")
		}
		if err := bs.codec.Encode(out, path, images.FormatPNG); err != nil {
			return nil, err
		}
	}

	return metrics, nil
}

// baseline returns the checksum of the sequential output for scenario's
// filter on img, computing it once per image and filter.
func (bs *Suite) baseline(img corpusImage, scenario Scenario) (string, error) {
	base := scenario.Baseline()
	key := img.name + "|" + base.Name

	bs.mu.RLock()
	sum, ok := bs.baselines[key]
	bs.mu.RUnlock()
	if ok {
		return sum, nil
	}

	out, err := kernels.Smooth(img.buf, base.Options())
	if err != nil {
		return "", err
	}
	sum = images.Checksum(out)

	bs.mu.Lock()
	bs.baselines[key] = sum
	bs.mu.Unlock()
	return sum, nil
}

// RunAll executes every scenario on every image, verifies outputs when
// enabled and saves the results. A failing scenario is reported and skipped.
// Cancelling ctx stops between runs; results gathered so far are still saved.
func (bs *Suite) RunAll(ctx context.Context) error {
	bs.mu.RLock()
	scenarios := append([]Scenario(nil), bs.scenarios...)
	corpus := append([]corpusImage(nil), bs.corpus...)
	bs.mu.RUnlock()

	if len(corpus) == 0 {
		return errors.New("no test images loaded")
	}

	if bs.progress > 0 {
		bs.profiler.Start(ctx, bs.reporter)
		defer bs.profiler.Stop()
	}

	mismatches := 0
	var runErr error
loop:
	for _, img := range corpus {
		for _, scenario := range scenarios {
			if err := ctx.Err(); err != nil {
				runErr = err
				break loop
			}

			bs.reporter.Statusf("Benchmarking %s on %s", scenario.Name, img.name)
			metrics, err := bs.RunScenario(ctx, scenario, img.name, img.buf)
			if err != nil {
				if ctx.Err() != nil {
					runErr = ctx.Err()
					break loop
				}
				bs.reporter.Statusf("Scenario %s failed: %v", scenario.Name, err)
				continue
			}

			if bs.verify {
				want, err := bs.baseline(img, scenario)
				if err != nil {
					bs.reporter.Statusf("Scenario %s baseline failed: %v", scenario.Name, err)
					continue
				}
				metrics.Verified = true
				metrics.Mismatch = metrics.Checksum != want
				if metrics.Mismatch {
					mismatches++
					bs.reporter.Statusf("Scenario %s on %s: checksum %s, baseline %s", scenario.Name, img.name, metrics.Checksum, want)
				}
			}

			bs.mu.Lock()
			bs.results = append(bs.results, *metrics)
			bs.mu.Unlock()

			bs.reporter.Statusf("Scenario %s completed: mean %.3f ms, median %.3f ms, %.2f FPS",
				scenario.Name, metrics.Timing.Mean, metrics.Timing.Median, metrics.FramesPerSecond)
		}
	}

	if _, _, err := bs.SaveResults(); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if mismatches > 0 {
		return errors.Wrapf(ErrChecksumMismatch, "%d scenario runs", mismatches)
	}
	return nil
}

// SaveResults persists benchmark results to filesystem as a detailed JSON
// file and a CSV summary. It returns both paths.
func (bs *Suite) SaveResults() (resultsFile, summaryFile string, err error) {
	results := bs.Results()

	// Ensure output directory exists
	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "create output directory")
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	resultsFile = filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "marshal results")
	}

	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return "", "", errors.Wrap(err, "write results file")
	}

	summaryFile = filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return "", "", errors.Wrap(err, "save summary CSV")
	}

	bs.reporter.Statusf("Results saved to: %s", resultsFile)
	bs.reporter.Statusf("Summary saved to: %s", summaryFile)

	return resultsFile, summaryFile, nil
}

var summaryHeader = []string{
	"Scenario", "Image", "Method", "Edge", "Window", "Executor", "Cutoff", "Workers",
	"Width", "Height", "Mean_ms", "Median_ms", "StdDev_ms", "Min_ms", "Max_ms",
	"FPS", "MPixels_per_s", "Total_Alloc_MB", "NumGC", "Checksum", "Verified", "Mismatch",
}

func saveSummaryCSV(filename string, results []PerformanceMetrics) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(summaryHeader); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
	for _, r := range results {
		row := []string{
			r.Scenario.Name,
			r.Image,
			r.Scenario.Method.String(),
			r.Scenario.Edge.String(),
			strconv.Itoa(r.Scenario.WindowWidth),
			string(r.Scenario.Executor),
			strconv.Itoa(r.Scenario.Cutoff),
			strconv.Itoa(r.Scenario.Workers),
			strconv.Itoa(r.Width),
			strconv.Itoa(r.Height),
			f(r.Timing.Mean),
			f(r.Timing.Median),
			f(r.Timing.StdDev),
			f(r.Timing.Min),
			f(r.Timing.Max),
			f(r.FramesPerSecond),
			f(r.MegapixelsPerS),
			f(float64(r.MemoryStats.TotalAllocBytes) / (1024 * 1024)),
			strconv.FormatUint(uint64(r.MemoryStats.NumGC), 10),
			r.Checksum,
			strconv.FormatBool(r.Verified),
			strconv.FormatBool(r.Mismatch),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

// Results returns all benchmark results
func (bs *Suite) Results() []PerformanceMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	results := make([]PerformanceMetrics, len(bs.results))
	copy(results, bs.results)
	return results
}

// Profiler exposes the suite's timing profiler.
func (bs *Suite) Profiler() *profiler.Profiler {
	return bs.profiler
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
