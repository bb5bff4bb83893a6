package profiler

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Profiler records operation timings and custom metrics and can emit
// periodic status reports while a long run (such as a benchmark sweep) is in
// progress. It is safe for concurrent use.
type Profiler struct {
	clock          Clock
	reportInterval time.Duration
	maxSamples     int

	mu        sync.RWMutex
	startTime time.Time
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	memStats  runtime.MemStats

	lastGCCount uint32

	customMetrics  map[string]*MetricTracker
	operationTimes map[string]*TimeTracker
}

// MetricTracker tracks statistics for a custom metric.
type MetricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// OperationStats is a snapshot of one TimeTracker.
type OperationStats struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Avg   time.Duration `json:"avg"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
}

// ProfilingOptions configures the profiler.
type ProfilingOptions struct {
	// ReportInterval specifies how often Start emits status reports (default: 2s)
	ReportInterval time.Duration
	// MaxSamples caps the samples kept per operation or metric (default: 600)
	MaxSamples int
	// Clock overrides the time source (default: SystemClock)
	Clock Clock
}

// NewProfiler creates a profiler with the specified options.
func NewProfiler(opts ProfilingOptions) *Profiler {
	if opts.ReportInterval == 0 {
		opts.ReportInterval = 2 * time.Second
	}
	if opts.MaxSamples == 0 {
		opts.MaxSamples = 600
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}

	return &Profiler{
		clock:          opts.Clock,
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		startTime:      opts.Clock.Now(),
		customMetrics:  make(map[string]*MetricTracker),
		operationTimes: make(map[string]*TimeTracker),
	}
}

// Start emits a status report to r every ReportInterval until Stop is called
// or ctx is done. Calling Start on a running profiler is a no-op.
func (p *Profiler) Start(ctx context.Context, r Reporter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.running = true
	p.startTime = p.clock.Now()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Report(r)
			}
		}
	}()
}

// Stop ends periodic reporting and waits for the reporter goroutine.
func (p *Profiler) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

// StartOperation begins timing an operation. The returned function records
// the duration and returns it.
func (p *Profiler) StartOperation(name string) func() time.Duration {
	start := p.clock.Now()
	return func() time.Duration {
		d := p.clock.Since(start)
		p.recordOperationTime(name, d)
		return d
	}
}

// Time runs fn as operation name and returns how long it took.
func (p *Profiler) Time(name string, fn func() error) (time.Duration, error) {
	done := p.StartOperation(name)
	err := fn()
	return done(), err
}

func (p *Profiler) recordOperationTime(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operationTimes[name]
	if !exists {
		tracker = &TimeTracker{minTime: d, maxTime: d}
		p.operationTimes[name] = tracker
	}

	tracker.durations = append(tracker.durations, d)
	tracker.totalTime += d
	if len(tracker.durations) > p.maxSamples {
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.count++
	tracker.minTime = min(tracker.minTime, d)
	tracker.maxTime = max(tracker.maxTime, d)
}

// Durations returns a copy of the retained samples for name, oldest first.
func (p *Profiler) Durations(name string) []time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tracker, ok := p.operationTimes[name]
	if !ok {
		return nil
	}
	return slices.Clone(tracker.durations)
}

// Operation returns timing statistics for name.
func (p *Profiler) Operation(name string) (OperationStats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tracker, ok := p.operationTimes[name]
	if !ok || len(tracker.durations) == 0 {
		return OperationStats{}, false
	}
	return OperationStats{
		Name:  name,
		Count: tracker.count,
		Avg:   tracker.totalTime / time.Duration(len(tracker.durations)),
		Min:   tracker.minTime,
		Max:   tracker.maxTime,
	}, true
}

// RecordMetric records a custom metric value.
func (p *Profiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.customMetrics[name]
	if !exists {
		tracker = &MetricTracker{min: value, max: value}
		p.customMetrics[name] = tracker
	}

	tracker.values = append(tracker.values, value)
	tracker.sum += value
	if len(tracker.values) > p.maxSamples {
		tracker.sum -= tracker.values[0]
		tracker.values = tracker.values[1:]
	}
	tracker.min = min(tracker.min, value)
	tracker.max = max(tracker.max, value)
}

// Report writes a status report to r: uptime, memory, GC activity, custom
// metrics and operation timings. Sections are emitted in name order.
func (p *Profiler) Report(r Reporter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runtime.ReadMemStats(&p.memStats)

	r.Statusf("PROFILER STATUS REPORT - uptime %v", p.clock.Since(p.startTime).Truncate(time.Millisecond))
	r.Statusf("  goroutines=%d heap=%s total_alloc=%s sys=%s",
		runtime.NumGoroutine(),
		FormatBytes(p.memStats.HeapAlloc),
		FormatBytes(p.memStats.TotalAlloc),
		FormatBytes(p.memStats.Sys))

	if p.memStats.NumGC > p.lastGCCount {
		r.Statusf("  gc cycles=%d (new: %d) cpu fraction=%.4f%%",
			p.memStats.NumGC, p.memStats.NumGC-p.lastGCCount, p.memStats.GCCPUFraction*100)
		p.lastGCCount = p.memStats.NumGC
	}

	for _, name := range sortedKeys(p.customMetrics) {
		tracker := p.customMetrics[name]
		if len(tracker.values) == 0 {
			continue
		}
		r.Statusf("  %s: avg=%.2f, min=%.2f, max=%.2f, samples=%d",
			name, tracker.sum/float64(len(tracker.values)), tracker.min, tracker.max, len(tracker.values))
	}

	for _, name := range sortedKeys(p.operationTimes) {
		tracker := p.operationTimes[name]
		if len(tracker.durations) == 0 {
			continue
		}
		avg := tracker.totalTime / time.Duration(len(tracker.durations))
		r.Statusf("  %s: avg=%v, min=%v, max=%v, count=%d",
			name,
			avg.Truncate(time.Microsecond),
			tracker.minTime.Truncate(time.Microsecond),
			tracker.maxTime.Truncate(time.Microsecond),
			tracker.count)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

// FormatBytes formats byte counts in human-readable format.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
