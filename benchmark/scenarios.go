package benchmark

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvr-ai/go-smooth/images/kernels"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ExecutorKind selects which executor a scenario times.
type ExecutorKind string

const (
	ExecutorSequential ExecutorKind = "sequential"
	ExecutorParallel   ExecutorKind = "parallel"
)

// Scenario defines one smoothing configuration to time.
type Scenario struct {
	Name        string           `json:"name"        yaml:"name"`
	Method      kernels.Method   `json:"method"      yaml:"method"`
	Edge        kernels.EdgeMode `json:"edge"        yaml:"edge"`
	WindowWidth int              `json:"windowWidth" yaml:"windowWidth"`
	Executor    ExecutorKind     `json:"executor"    yaml:"executor"`
	Cutoff      int              `json:"cutoff"      yaml:"cutoff"`
	Workers     int              `json:"workers"     yaml:"workers"`
	Iterations  int              `json:"iterations"  yaml:"iterations"`
	WarmupRuns  int              `json:"warmupRuns"  yaml:"warmupRuns"`
}

// Options converts the scenario into executor options.
func (s Scenario) Options() kernels.Options {
	return kernels.Options{
		Width:    s.WindowWidth,
		Method:   s.Method,
		Edge:     s.Edge,
		Parallel: s.Executor == ExecutorParallel,
		Cutoff:   s.Cutoff,
		Workers:  s.Workers,
	}
}

// Baseline is the sequential scenario whose output every variant of s must match.
func (s Scenario) Baseline() Scenario {
	b := s
	b.Name = fmt.Sprintf("baseline_%s_%s_w%d", s.Method, s.Edge, s.WindowWidth)
	b.Executor = ExecutorSequential
	b.Cutoff = 0
	b.Workers = 0
	return b
}

// Validate rejects scenarios the executors would refuse.
func (s Scenario) Validate() error {
	if s.Iterations <= 0 {
		return errors.Errorf("scenario %s: iterations must be positive", s.Name)
	}
	if s.WarmupRuns < 0 {
		return errors.Errorf("scenario %s: warmup runs must not be negative", s.Name)
	}
	if s.Executor != ExecutorSequential && s.Executor != ExecutorParallel {
		return errors.Errorf("scenario %s: unknown executor %q", s.Name, s.Executor)
	}
	if s.Executor == ExecutorParallel {
		if err := kernels.ValidateCutoff(s.Cutoff); err != nil {
			return errors.Wrapf(err, "scenario %s", s.Name)
		}
	}
	_, err := kernels.New(s.Options())
	return errors.Wrapf(err, "scenario %s", s.Name)
}

// ScenarioBuilder helps build test scenarios with fluent API
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a builder for a sequential 3x3 mean scenario
// that runs 5 timed iterations after 1 warmup.
func NewScenarioBuilder(name string) *ScenarioBuilder {
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:        name,
			Method:      kernels.MethodMean,
			Edge:        kernels.EdgeClamp,
			WindowWidth: 3,
			Executor:    ExecutorSequential,
			Iterations:  DefaultIterations,
			WarmupRuns:  DefaultWarmupRuns,
		},
	}
}

// WithFilter sets the aggregation method and window width.
func (sb *ScenarioBuilder) WithFilter(method kernels.Method, width int) *ScenarioBuilder {
	sb.scenario.Method = method
	sb.scenario.WindowWidth = width
	return sb
}

// WithEdge sets the border mode.
func (sb *ScenarioBuilder) WithEdge(edge kernels.EdgeMode) *ScenarioBuilder {
	sb.scenario.Edge = edge
	return sb
}

// Sequential selects the sequential executor.
func (sb *ScenarioBuilder) Sequential() *ScenarioBuilder {
	sb.scenario.Executor = ExecutorSequential
	sb.scenario.Cutoff = 0
	return sb
}

// Parallel selects the fork-join executor with the given cutoff and worker bound.
func (sb *ScenarioBuilder) Parallel(cutoff, workers int) *ScenarioBuilder {
	sb.scenario.Executor = ExecutorParallel
	sb.scenario.Cutoff = cutoff
	sb.scenario.Workers = workers
	return sb
}

// WithIterations sets the number of test iterations
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithWarmupRuns sets the number of warmup runs
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// Build returns the configured test scenario
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet represents a collection of related test scenarios
type ScenarioSet struct {
	Name        string     `json:"name"        yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Scenarios   []Scenario `json:"scenarios"   yaml:"scenarios"`
}

// PredefinedScenarios contains common benchmark scenario sets
type PredefinedScenarios struct {
	Iterations int
	WarmupRuns int
	Workers    int
}

func (ps *PredefinedScenarios) builder(name string) *ScenarioBuilder {
	b := NewScenarioBuilder(name)
	if ps.Iterations > 0 {
		b.WithIterations(ps.Iterations)
	}
	if ps.WarmupRuns > 0 {
		b.WithWarmupRuns(ps.WarmupRuns)
	}
	return b
}

// WindowSweep times both methods on both executors for every width.
// Parallel runs use DefaultCutoff.
func (ps *PredefinedScenarios) WindowSweep(widths []int) *ScenarioSet {
	if len(widths) == 0 {
		widths = DefaultWindowWidths
	}

	type combo struct {
		method   kernels.Method
		executor ExecutorKind
		width    int
	}
	var combos []combo
	for _, method := range []kernels.Method{kernels.MethodMean, kernels.MethodMedian} {
		for _, executor := range []ExecutorKind{ExecutorSequential, ExecutorParallel} {
			combos = append(combos, lo.Map(widths, func(w int, _ int) combo {
				return combo{method: method, executor: executor, width: w}
			})...)
		}
	}

	scenarios := lo.Map(combos, func(c combo, _ int) Scenario {
		b := ps.builder(fmt.Sprintf("%s_%s_w%d", c.method, c.executor, c.width)).
			WithFilter(c.method, c.width)
		if c.executor == ExecutorParallel {
			b.Parallel(kernels.DefaultCutoff, ps.Workers)
		}
		return b.Build()
	})

	return &ScenarioSet{
		Name:        "Window Sweep",
		Description: "Sequential and parallel mean/median filters across window widths",
		Scenarios:   scenarios,
	}
}

// CutoffSweep times the parallel median filter at width across cutoffs.
func (ps *PredefinedScenarios) CutoffSweep(width int, cutoffs []int) *ScenarioSet {
	if width == 0 {
		width = DefaultCutoffSweepWidth
	}
	if len(cutoffs) == 0 {
		cutoffs = DefaultCutoffs()
	}

	scenarios := lo.Map(lo.Uniq(cutoffs), func(cutoff int, _ int) Scenario {
		return ps.builder(fmt.Sprintf("median_parallel_w%d_cutoff%d", width, cutoff)).
			WithFilter(kernels.MethodMedian, width).
			Parallel(cutoff, ps.Workers).
			Build()
	})

	return &ScenarioSet{
		Name:        fmt.Sprintf("Cutoff Sweep - median w%d", width),
		Description: "Parallel median filter across sequential cutoffs",
		Scenarios:   scenarios,
	}
}

// Quick returns a small set for smoke runs: one width, both methods, both executors.
func (ps *PredefinedScenarios) Quick() *ScenarioSet {
	set := ps.WindowSweep([]int{3})
	set.Name = "Quick Performance Test"
	set.Description = "3x3 mean and median on both executors"
	return set
}

// SaveScenarioSet saves a scenario set to a JSON file
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	data, err := json.MarshalIndent(scenarioSet, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal scenario set")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "write scenario file")
	}

	return nil
}

// LoadScenarioSet loads a scenario set from a JSON file
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario file")
	}

	var scenarioSet ScenarioSet
	if err := json.Unmarshal(data, &scenarioSet); err != nil {
		return nil, errors.Wrap(err, "unmarshal scenario set")
	}

	return &scenarioSet, nil
}
