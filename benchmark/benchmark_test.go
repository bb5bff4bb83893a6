package benchmark

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvr-ai/go-smooth/images"
	"github.com/nvr-ai/go-smooth/images/kernels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genBuffer(t *testing.T, w, h int) *images.PixelBuffer {
	buf, err := images.NewPixelBuffer(w, h)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))
	for i := range buf.Pix {
		buf.Pix[i] = images.PackRGB(uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)))
	}
	return buf
}

func TestScenarioBuilder(t *testing.T) {
	scenario := NewScenarioBuilder("test_scenario").
		WithFilter(kernels.MethodMedian, 5).
		WithEdge(kernels.EdgeSkip).
		Parallel(16, 2).
		WithIterations(50).
		WithWarmupRuns(5).
		Build()

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, kernels.MethodMedian, scenario.Method)
	assert.Equal(t, kernels.EdgeSkip, scenario.Edge)
	assert.Equal(t, 5, scenario.WindowWidth)
	assert.Equal(t, ExecutorParallel, scenario.Executor)
	assert.Equal(t, 16, scenario.Cutoff)
	assert.Equal(t, 2, scenario.Workers)
	assert.Equal(t, 50, scenario.Iterations)
	assert.Equal(t, 5, scenario.WarmupRuns)
	require.NoError(t, scenario.Validate())

	opts := scenario.Options()
	assert.True(t, opts.Parallel)
	assert.Equal(t, 16, opts.Cutoff)

	base := scenario.Baseline()
	assert.Equal(t, ExecutorSequential, base.Executor)
	assert.Equal(t, "baseline_median_skip_w5", base.Name)
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
	}{
		{"no iterations", NewScenarioBuilder("a").WithIterations(0).Build()},
		{"negative warmup", NewScenarioBuilder("b").WithWarmupRuns(-1).Build()},
		{"even width", NewScenarioBuilder("c").WithFilter(kernels.MethodMean, 4).Build()},
		{"zero cutoff", NewScenarioBuilder("d").Parallel(0, 1).Build()},
		{"unknown executor", Scenario{Name: "e", WindowWidth: 3, Iterations: 1, Executor: "gpu"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.scenario.Validate())
		})
	}
}

func TestPredefinedScenarios(t *testing.T) {
	ps := &PredefinedScenarios{Iterations: 2}

	sweep := ps.WindowSweep(nil)
	assert.Len(t, sweep.Scenarios, 2*2*len(DefaultWindowWidths))
	for _, s := range sweep.Scenarios {
		assert.Equal(t, 2, s.Iterations)
		require.NoError(t, s.Validate(), s.Name)
	}
	assert.Equal(t, "mean_sequential_w3", sweep.Scenarios[0].Name)

	cutoffs := ps.CutoffSweep(0, nil)
	require.Len(t, cutoffs.Scenarios, 10)
	assert.Equal(t, 2, cutoffs.Scenarios[0].Cutoff)
	assert.Equal(t, 1024, cutoffs.Scenarios[9].Cutoff)
	for _, s := range cutoffs.Scenarios {
		assert.Equal(t, kernels.MethodMedian, s.Method)
		assert.Equal(t, DefaultCutoffSweepWidth, s.WindowWidth)
		assert.Equal(t, ExecutorParallel, s.Executor)
	}

	assert.Len(t, ps.CutoffSweep(5, []int{8, 8, 16}).Scenarios, 2, "duplicate cutoffs collapse")
	assert.Len(t, ps.Quick().Scenarios, 4)
}

func TestScenarioSetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.json")
	set := (&PredefinedScenarios{}).CutoffSweep(3, []int{4, 8})
	require.NoError(t, SaveScenarioSet(set, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"method": "median"`)

	loaded, err := LoadScenarioSet(path)
	require.NoError(t, err)
	assert.Equal(t, set, loaded)

	_, err = LoadScenarioSet(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultIterations, cfg.Iterations)
	assert.Equal(t, []int{2, 4, 8, 16, 32, 64, 128, 256, 512, 1024}, cfg.Cutoffs)
	assert.Error(t, cfg.Validate(), "images path is required")

	cfg.TestImagesPath = "images"
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Scenarios(), 2*2*len(DefaultWindowWidths)+10)

	cfg.WindowWidths = []int{3, 6}
	assert.Error(t, cfg.Validate())
	cfg.WindowWidths = []int{3}
	cfg.Cutoffs = []int{4, 0}
	assert.Error(t, cfg.Validate())

	cfg.Cutoffs = []int{4}
	for _, w := range []int{4, 1, 0} {
		cfg.CutoffWidth = w
		assert.ErrorContains(t, cfg.Validate(), "cutoff sweep width", "width %d", w)
	}
	cfg.CutoffWidth = 5
	require.NoError(t, cfg.Validate())

	// Without a cutoff sweep the width is unused.
	cfg.Cutoffs = nil
	cfg.CutoffWidth = 0
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "bench.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("testImagesPath: ./in\niterations: 3\nwindowWidths: [5, 7]\n"), 0o644))
	cfg, err := LoadConfig(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "./in", cfg.TestImagesPath)
	assert.Equal(t, 3, cfg.Iterations)
	assert.Equal(t, []int{5, 7}, cfg.WindowWidths)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir, "unset fields keep defaults")
	assert.True(t, cfg.Verify)

	jsonPath := filepath.Join(dir, "bench.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"testImagesPath": "x", "cutoffs": [10, 50]}`), 0o644))
	cfg, err = LoadConfig(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 50}, cfg.Cutoffs)

	saved := filepath.Join(dir, "saved.yaml")
	require.NoError(t, cfg.SaveConfig(saved))
	again, err := LoadConfig(saved)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("iterations: [nope"), 0o644))
	_, err = LoadConfig(badPath)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	ts, err := Summarize([]time.Duration{time.Millisecond, 3 * time.Millisecond, 2 * time.Millisecond})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, ts.Mean, 1e-9)
	assert.InDelta(t, 2.0, ts.Median, 1e-9)
	assert.InDelta(t, 1.0, ts.Min, 1e-9)
	assert.InDelta(t, 3.0, ts.Max, 1e-9)
	assert.InDelta(t, 0.8165, ts.StdDev, 1e-4)
	assert.Len(t, ts.Samples, 3)

	_, err = Summarize(nil)
	assert.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	suite := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})
	src := genBuffer(t, 48, 32)

	scenario := NewScenarioBuilder("median_parallel").
		WithFilter(kernels.MethodMedian, 3).
		Parallel(4, 2).
		WithIterations(3).
		Build()

	metrics, err := suite.RunScenario(context.Background(), scenario, "noise.png", src)
	require.NoError(t, err)
	assert.Equal(t, "noise.png", metrics.Image)
	assert.Equal(t, 48, metrics.Width)
	assert.Len(t, metrics.Timing.Samples, 3)
	assert.NotEmpty(t, metrics.Checksum)
	assert.Positive(t, metrics.CPUStats.NumCPU)

	want, err := kernels.Smooth(src, kernels.Options{Width: 3, Method: kernels.MethodMedian})
	require.NoError(t, err)
	assert.Equal(t, images.Checksum(want), metrics.Checksum)

	stats, ok := suite.Profiler().Operation("median_parallel")
	require.True(t, ok)
	assert.Equal(t, int64(3), stats.Count)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = suite.RunScenario(ctx, scenario, "noise.png", src)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAll(t *testing.T) {
	out := t.TempDir()
	suite := NewSuite(NewSuiteArgs{OutputPath: out, Verify: true, SaveOutputs: true})
	suite.AddImage("a.png", genBuffer(t, 40, 24))
	suite.AddScenarios((&PredefinedScenarios{Iterations: 1}).Quick())
	suite.AddScenario(NewScenarioBuilder("broken").WithFilter(kernels.MethodMean, 4).Build())

	require.NoError(t, suite.RunAll(context.Background()))

	results := suite.Results()
	require.Len(t, results, 4, "the broken scenario is skipped")
	for _, r := range results {
		assert.True(t, r.Verified)
		assert.False(t, r.Mismatch, r.Scenario.Name)
	}

	jsonFiles, err := filepath.Glob(filepath.Join(out, "benchmark_results_*.json"))
	require.NoError(t, err)
	require.Len(t, jsonFiles, 1)
	data, err := os.ReadFile(jsonFiles[0])
	require.NoError(t, err)
	var decoded []PerformanceMetrics
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 4)

	csvFiles, err := filepath.Glob(filepath.Join(out, "benchmark_summary_*.csv"))
	require.NoError(t, err)
	require.Len(t, csvFiles, 1)
	f, err := os.Open(csvFiles[0])
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, summaryHeader, rows[0])

	saved, err := filepath.Glob(filepath.Join(out, "images", "a-*.png"))
	require.NoError(t, err)
	assert.Len(t, saved, 4)
}

func TestRunAllRequiresImages(t *testing.T) {
	suite := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})
	assert.Error(t, suite.RunAll(context.Background()))
}

func TestLoadImages(t *testing.T) {
	dir := t.TempDir()
	codec := &images.FileCodec{}
	require.NoError(t, codec.Encode(genBuffer(t, 8, 8), filepath.Join(dir, "galactic1.png"), ""))
	require.NoError(t, codec.Encode(genBuffer(t, 4, 4), filepath.Join(dir, "galactic2.bmp"), ""))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("skip"), 0o644))

	suite := NewSuite(NewSuiteArgs{OutputPath: t.TempDir()})
	require.NoError(t, suite.LoadImages(dir))
	require.Len(t, suite.corpus, 2)
	assert.Equal(t, "galactic1.png", suite.corpus[0].name)
	assert.Equal(t, 4, suite.corpus[1].buf.Width)

	single := NewSuite(NewSuiteArgs{})
	require.NoError(t, single.LoadImages(filepath.Join(dir, "galactic1.png")))
	assert.Len(t, single.corpus, 1)

	assert.Error(t, single.LoadImages(filepath.Join(dir, "missing")))
	assert.Error(t, single.LoadImages(t.TempDir()), "empty directory")
}
