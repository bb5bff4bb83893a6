package benchmark

import (
	"os"
	"slices"

	"github.com/nvr-ai/go-smooth/images/kernels"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultIterations       = 5
	DefaultWarmupRuns       = 1
	DefaultCutoffSweepWidth = 15
	DefaultOutputDir        = "./benchmark_results"
)

// DefaultWindowWidths are the widths of the window sweep.
var DefaultWindowWidths = []int{3, 5, 11, 15}

// DefaultCutoffs returns 2^1 .. 2^10.
func DefaultCutoffs() []int {
	return lo.Times(10, func(i int) int { return 1 << (i + 1) })
}

// Config represents the overall benchmark configuration. It is read from YAML;
// JSON files parse as well.
type Config struct {
	OutputDir      string `json:"outputDir"      yaml:"outputDir"`
	TestImagesPath string `json:"testImagesPath" yaml:"testImagesPath"`
	Iterations     int    `json:"iterations"     yaml:"iterations"`
	WarmupRuns     int    `json:"warmupRuns"     yaml:"warmupRuns"`
	WindowWidths   []int  `json:"windowWidths"   yaml:"windowWidths"`
	CutoffWidth    int    `json:"cutoffWidth"    yaml:"cutoffWidth"`
	Cutoffs        []int  `json:"cutoffs"        yaml:"cutoffs"`
	Workers        int    `json:"workers"        yaml:"workers"`
	// Verify compares every output against the sequential baseline.
	Verify bool `json:"verify" yaml:"verify"`
	// SaveOutputs writes each scenario's first output image to OutputDir.
	SaveOutputs bool `json:"saveOutputs" yaml:"saveOutputs"`
}

// DefaultConfig returns a default benchmark configuration
func DefaultConfig() *Config {
	return &Config{
		OutputDir:    DefaultOutputDir,
		Iterations:   DefaultIterations,
		WarmupRuns:   DefaultWarmupRuns,
		WindowWidths: slices.Clone(DefaultWindowWidths),
		CutoffWidth:  DefaultCutoffSweepWidth,
		Cutoffs:      DefaultCutoffs(),
		Verify:       true,
	}
}

// Validate checks ranges that the scenarios depend on.
func (c *Config) Validate() error {
	if c.TestImagesPath == "" {
		return errors.New("test images path is required")
	}
	if c.OutputDir == "" {
		return errors.New("output dir is required")
	}
	if c.Iterations <= 0 {
		return errors.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.WarmupRuns < 0 {
		return errors.Errorf("warmup runs must not be negative, got %d", c.WarmupRuns)
	}
	if bad, ok := lo.Find(c.WindowWidths, invalidWidth); ok {
		return errors.Errorf("window width %d must be odd and >= 3", bad)
	}
	if len(c.Cutoffs) > 0 && invalidWidth(c.CutoffWidth) {
		return errors.Errorf("cutoff sweep width %d must be odd and >= 3", c.CutoffWidth)
	}
	if bad, ok := lo.Find(c.Cutoffs, func(v int) bool { return v <= 0 }); ok {
		return errors.Errorf("cutoff %d must be positive", bad)
	}
	return nil
}

func invalidWidth(w int) bool {
	return kernels.WindowSpec{Width: w}.Validate() != nil
}

// Scenarios expands the configuration into the window and cutoff sweeps.
func (c *Config) Scenarios() []Scenario {
	ps := &PredefinedScenarios{Iterations: c.Iterations, WarmupRuns: c.WarmupRuns, Workers: c.Workers}
	scenarios := ps.WindowSweep(c.WindowWidths).Scenarios
	if len(c.Cutoffs) > 0 {
		scenarios = append(scenarios, ps.CutoffSweep(c.CutoffWidth, c.Cutoffs).Scenarios...)
	}
	return scenarios
}

// SaveConfig saves the benchmark configuration as YAML.
func (c *Config) SaveConfig(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "write config file")
	}

	return nil
}

// LoadConfig loads a benchmark configuration from a YAML or JSON file. Fields
// missing from the file keep their DefaultConfig values.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", filename)
	}

	return config, nil
}
