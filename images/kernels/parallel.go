package kernels

import (
	"github.com/nvr-ai/go-smooth/images"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultCutoff is the column count at or below which a task stops splitting.
const DefaultCutoff = 100

// ParallelExecutor applies a WindowFilter by recursive fork-join over columns.
// A task covering more than cutoff columns splits at Length/2, forks the left
// half, computes the right half itself and then joins. Forks are bounded by a
// semaphore; when no slot is free the left half runs inline instead, so the
// goroutine count never exceeds the worker count.
//
// Every leaf runs the same column routine as SequentialExecutor over a
// disjoint column range, so results are bit-identical for any cutoff and
// worker count.
type ParallelExecutor struct {
	filter *WindowFilter
	cutoff int
	cfg    executorConfig
}

// ValidateCutoff reports ErrInvalidCutoff for cutoff <= 0.
func ValidateCutoff(cutoff int) error {
	if cutoff <= 0 {
		return errors.Wrapf(ErrInvalidCutoff, "got %d", cutoff)
	}
	return nil
}

func NewParallelExecutor(filter *WindowFilter, cutoff int, opts ...ExecutorOption) (*ParallelExecutor, error) {
	if filter == nil {
		return nil, ErrNilFilter
	}
	if err := ValidateCutoff(cutoff); err != nil {
		return nil, err
	}
	return &ParallelExecutor{filter: filter, cutoff: cutoff, cfg: newExecutorConfig(opts)}, nil
}

func (e *ParallelExecutor) Cutoff() int  { return e.cutoff }
func (e *ParallelExecutor) Workers() int { return e.cfg.workers }

// Apply filters src into a newly allocated buffer.
func (e *ParallelExecutor) Apply(src *images.PixelBuffer) (*images.PixelBuffer, error) {
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

// ApplyInto filters src into dst and returns once every column is written.
func (e *ParallelExecutor) ApplyInto(src, dst *images.PixelBuffer) error {
	if err := checkBuffers(src, dst); err != nil {
		return err
	}
	e.cfg.prepare(e.filter, src, dst)

	// The caller is one of the workers.
	sem := semaphore.NewWeighted(int64(e.cfg.workers - 1))
	t := &task{exec: e, src: src, dst: dst, sem: sem}
	return t.run(ColumnRange{Start: 0, Length: src.Width})
}

// task carries the state shared by every node of one Apply call.
type task struct {
	exec     *ParallelExecutor
	src, dst *images.PixelBuffer
	sem      *semaphore.Weighted
}

// run computes cols, forking the left half when a worker slot is free. A leaf
// panic is returned as an error so it cannot take down the process from a
// forked goroutine.
func (t *task) run(cols ColumnRange) error {
	if cols.Length <= t.exec.cutoff {
		return t.leaf(cols)
	}

	left, right := cols.Split()

	var g errgroup.Group
	if t.sem.TryAcquire(1) {
		g.Go(func() error {
			defer t.sem.Release(1)
			return t.run(left)
		})
	} else if err := t.run(left); err != nil {
		return err
	}
	err := t.run(right)
	if werr := g.Wait(); werr != nil {
		return werr
	}
	return err
}

func (t *task) leaf(cols ColumnRange) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("columns [%d, %d): %v", cols.Start, cols.End(), r)
		}
	}()
	t.exec.filter.computeColumns(t.src, t.dst, cols)
	return nil
}
