// Package benchmark - Functionality for timing the smoothing executors.
package benchmark

import (
	"runtime"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// PerformanceMetrics captures detailed performance data for one scenario on
// one image.
type PerformanceMetrics struct {
	Scenario        Scenario      `json:"scenario"`
	Image           string        `json:"image"`
	Width           int           `json:"width"`
	Height          int           `json:"height"`
	Timestamp       time.Time     `json:"timestamp"`
	Timing          TimingStats   `json:"timing"`
	TotalDuration   time.Duration `json:"total_duration"`
	FramesPerSecond float64       `json:"frames_per_second"`
	MegapixelsPerS  float64       `json:"megapixels_per_second"`
	MemoryStats     MemoryMetrics `json:"memory_stats"`
	CPUStats        CPUMetrics    `json:"cpu_stats"`
	Checksum        string        `json:"checksum"`
	// Verified is set when the output was compared with the sequential baseline.
	Verified bool `json:"verified"`
	// Mismatch is set when that comparison failed.
	Mismatch bool `json:"mismatch"`
}

// TimingStats summarises the per-iteration wall times in milliseconds.
type TimingStats struct {
	Samples []float64 `json:"samples_ms"`
	Mean    float64   `json:"mean_ms"`
	Median  float64   `json:"median_ms"`
	StdDev  float64   `json:"stddev_ms"`
	Min     float64   `json:"min_ms"`
	Max     float64   `json:"max_ms"`
}

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"`
}

// CPUMetrics captures CPU usage statistics
type CPUMetrics struct {
	NumCPU     int `json:"num_cpu"`
	GOMAXPROCS int `json:"gomaxprocs"`
}

// Summarize computes TimingStats over durations.
func Summarize(durations []time.Duration) (TimingStats, error) {
	if len(durations) == 0 {
		return TimingStats{}, errors.New("no samples to summarize")
	}

	ms := stats.Float64Data(lo.Map(durations, func(d time.Duration, _ int) float64 {
		return float64(d) / float64(time.Millisecond)
	}))

	var (
		ts  = TimingStats{Samples: ms}
		err error
	)
	if ts.Mean, err = stats.Mean(ms); err != nil {
		return TimingStats{}, errors.Wrap(err, "mean")
	}
	if ts.Median, err = stats.Median(ms); err != nil {
		return TimingStats{}, errors.Wrap(err, "median")
	}
	if ts.StdDev, err = stats.StandardDeviation(ms); err != nil {
		return TimingStats{}, errors.Wrap(err, "stddev")
	}
	if ts.Min, err = stats.Min(ms); err != nil {
		return TimingStats{}, errors.Wrap(err, "min")
	}
	if ts.Max, err = stats.Max(ms); err != nil {
		return TimingStats{}, errors.Wrap(err, "max")
	}
	return ts, nil
}

// memoryDelta reports the allocations between two MemStats snapshots.
func memoryDelta(start, end *runtime.MemStats) MemoryMetrics {
	return MemoryMetrics{
		AllocBytes:      end.Alloc,
		TotalAllocBytes: end.TotalAlloc - start.TotalAlloc,
		SysBytes:        end.Sys,
		NumGC:           end.NumGC - start.NumGC,
		HeapAllocBytes:  end.HeapAlloc,
		HeapSysBytes:    end.HeapSys,
	}
}

func cpuMetrics() CPUMetrics {
	return CPUMetrics{NumCPU: runtime.NumCPU(), GOMAXPROCS: runtime.GOMAXPROCS(0)}
}
