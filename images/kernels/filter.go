package kernels

import (
	"github.com/nvr-ai/go-smooth/images"
	"github.com/pkg/errors"
)

// WindowFilter computes one output pixel from the window centred on it.
// It holds no mutable state and may be shared by any number of workers.
type WindowFilter struct {
	spec   WindowSpec
	method Method
	edge   EdgeMode
}

// NewWindowFilter validates its arguments and returns a filter.
func NewWindowFilter(spec WindowSpec, method Method, edge EdgeMode) (*WindowFilter, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := method.Validate(); err != nil {
		return nil, err
	}
	if err := edge.Validate(); err != nil {
		return nil, err
	}
	return &WindowFilter{spec: spec, method: method, edge: edge}, nil
}

func (f *WindowFilter) Spec() WindowSpec { return f.spec }
func (f *WindowFilter) Method() Method   { return f.method }
func (f *WindowFilter) Edge() EdgeMode   { return f.edge }

// Pixel computes the filtered value at (x, y). It allocates scratch state on
// every call; executors use the pooled path instead.
func (f *WindowFilter) Pixel(src *images.PixelBuffer, x, y int) uint32 {
	return f.pixel(src, x, y, newChannels(f.method, f.spec))
}

func (f *WindowFilter) pixel(src *images.PixelBuffer, x, y int, ch *channels) uint32 {
	r := f.spec.Radius()
	ch.reset()
	for j := y - r; j <= y+r; j++ {
		sy, ok := f.edge.Resolve(j, src.Height)
		if !ok {
			continue
		}
		row := src.Pix[sy*src.Width : (sy+1)*src.Width]
		for i := x - r; i <= x+r; i++ {
			sx, ok := f.edge.Resolve(i, src.Width)
			if !ok {
				continue
			}
			red, green, blue := images.UnpackRGB(row[sx])
			ch.r.Accumulate(red)
			ch.g.Accumulate(green)
			ch.b.Accumulate(blue)
		}
	}
	return images.PackRGB(ch.r.Finalize(), ch.g.Finalize(), ch.b.Finalize())
}

// computeColumns writes every computable pixel of cols into dst, visiting rows
// in order and columns left to right. It is the leaf of both executors, which
// is what keeps their output identical.
func (f *WindowFilter) computeColumns(src, dst *images.PixelBuffer, cols ColumnRange) {
	r := f.spec.Radius()
	xlo, xhi := f.edge.Span(src.Width, r)
	ylo, yhi := f.edge.Span(src.Height, r)
	cols = cols.Clamp(xlo, xhi)
	if cols.Length == 0 || ylo >= yhi {
		return
	}

	ch := newChannels(f.method, f.spec)
	for y := ylo; y < yhi; y++ {
		row := dst.Pix[y*dst.Width : (y+1)*dst.Width]
		for x := cols.Start; x < cols.End(); x++ {
			row[x] = f.pixel(src, x, y, ch)
		}
	}
}

// checkBuffers enforces the executor preconditions on a src/dst pair.
func checkBuffers(src, dst *images.PixelBuffer) error {
	if src == nil || dst == nil {
		return errors.Wrap(images.ErrInvalidDimensions, "nil buffer")
	}
	if src.Width != dst.Width || src.Height != dst.Height {
		return errors.Wrapf(ErrDimensionMismatch, "src %dx%d, dst %dx%d",
			src.Width, src.Height, dst.Width, dst.Height)
	}
	if len(src.Pix) != src.Width*src.Height || len(dst.Pix) != dst.Width*dst.Height {
		return errors.Wrapf(images.ErrInvalidDimensions, "pixel slice does not match %dx%d", src.Width, src.Height)
	}
	if src.SameStorage(dst) {
		return ErrAliasedBuffers
	}
	return nil
}
