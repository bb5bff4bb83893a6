package kernels

import (
	"runtime"

	"github.com/nvr-ai/go-smooth/images"
)

// ExecutorOption tunes an executor at construction time.
type ExecutorOption func(*executorConfig)

type executorConfig struct {
	preserveBorder bool
	workers        int
	pool           *Pool
}

func newExecutorConfig(opts []ExecutorOption) executorConfig {
	cfg := executorConfig{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithPreserveBorder copies the source into the uncomputed skip-mode border
// instead of leaving it black. It has no effect with EdgeClamp.
func WithPreserveBorder(preserve bool) ExecutorOption {
	return func(c *executorConfig) { c.preserveBorder = preserve }
}

// WithWorkers bounds the number of goroutines a ParallelExecutor keeps busy,
// the caller included. n <= 0 selects GOMAXPROCS.
func WithWorkers(n int) ExecutorOption {
	return func(c *executorConfig) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		c.workers = n
	}
}

// WithPool draws destination buffers for Apply from pool.
func WithPool(pool *Pool) ExecutorOption {
	return func(c *executorConfig) { c.pool = pool }
}

// destination allocates the output buffer for Apply.
func (c executorConfig) destination(src *images.PixelBuffer) (*images.PixelBuffer, error) {
	if src == nil {
		return nil, checkBuffers(nil, nil)
	}
	return c.pool.Get(src.Width, src.Height)
}

// prepare initialises the part of dst the filter will not compute.
func (c executorConfig) prepare(f *WindowFilter, src, dst *images.PixelBuffer) {
	if c.preserveBorder && f.edge == EdgeSkip {
		copy(dst.Pix, src.Pix)
	}
}

// Filter is implemented by both executors.
type Filter interface {
	Apply(src *images.PixelBuffer) (*images.PixelBuffer, error)
	ApplyInto(src, dst *images.PixelBuffer) error
}

// SequentialExecutor applies a WindowFilter on the calling goroutine in
// raster order. It is the reference result for ParallelExecutor.
type SequentialExecutor struct {
	filter *WindowFilter
	cfg    executorConfig
}

func NewSequentialExecutor(filter *WindowFilter, opts ...ExecutorOption) (*SequentialExecutor, error) {
	if filter == nil {
		return nil, ErrNilFilter
	}
	return &SequentialExecutor{filter: filter, cfg: newExecutorConfig(opts)}, nil
}

// Apply filters src into a newly allocated buffer.
func (e *SequentialExecutor) Apply(src *images.PixelBuffer) (*images.PixelBuffer, error) {
	dst, err := e.cfg.destination(src)
	if err != nil {
		return nil, err
	}
	if err := e.ApplyInto(src, dst); err != nil {
		e.cfg.pool.Put(dst)
		return nil, err
	}
	return dst, nil
}

// ApplyInto filters src into dst. Pixels the edge mode does not compute are
// left as the caller initialised them unless border preservation is on.
func (e *SequentialExecutor) ApplyInto(src, dst *images.PixelBuffer) error {
	if err := checkBuffers(src, dst); err != nil {
		return err
	}
	e.cfg.prepare(e.filter, src, dst)
	e.filter.computeColumns(src, dst, ColumnRange{Start: 0, Length: src.Width})
	return nil
}
