package kernels

import (
	"github.com/nvr-ai/go-smooth/images"
)

// Options configures a smoothing pass. The zero value plus a Width is a
// sequential mean filter with clamped edges.
type Options struct {
	Width          int      // Window width. Must be odd and >= 3.
	Method         Method   // Per-channel aggregation.
	Edge           EdgeMode // Border behaviour.
	Parallel       bool     // Use the fork-join executor.
	Cutoff         int      // Parallel leaf size in columns. 0 selects DefaultCutoff.
	Workers        int      // Parallel goroutine bound. 0 selects GOMAXPROCS.
	PreserveBorder bool     // Copy the source into the skip-mode border.
	Pool           *Pool    // Optional destination buffer reuse.
}

// New builds the executor described by opt.
func New(opt Options) (Filter, error) {
	spec, err := NewWindowSpec(opt.Width)
	if err != nil {
		return nil, err
	}
	filter, err := NewWindowFilter(spec, opt.Method, opt.Edge)
	if err != nil {
		return nil, err
	}

	execOpts := []ExecutorOption{
		WithPreserveBorder(opt.PreserveBorder),
		WithPool(opt.Pool),
	}
	if !opt.Parallel {
		return NewSequentialExecutor(filter, execOpts...)
	}

	cutoff := opt.Cutoff
	if cutoff == 0 {
		cutoff = DefaultCutoff
	}
	execOpts = append(execOpts, WithWorkers(opt.Workers))
	return NewParallelExecutor(filter, cutoff, execOpts...)
}

// Smooth applies the filter described by opt to src and returns a new buffer.
// src is never modified.
func Smooth(src *images.PixelBuffer, opt Options) (*images.PixelBuffer, error) {
	f, err := New(opt)
	if err != nil {
		return nil, err
	}
	return f.Apply(src)
}
