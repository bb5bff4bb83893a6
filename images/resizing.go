package images

import (
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// ResampleFilter defines the resampling algorithm used for image scaling.
type ResampleFilter int

const (
	// NearestNeighborFilter uses nearest-neighbor interpolation (fastest, lowest quality).
	NearestNeighborFilter ResampleFilter = iota
	// BilinearFilter uses bilinear interpolation.
	BilinearFilter
	// BicubicFilter uses bicubic interpolation.
	BicubicFilter
	// MitchellNetravaliFilter uses the Mitchell-Netravali cubic filter.
	MitchellNetravaliFilter
	// Lanczos2Filter uses Lanczos resampling with a=2.
	Lanczos2Filter
	// Lanczos3Filter uses Lanczos resampling with a=3 (slowest, best quality).
	Lanczos3Filter
)

var resampleNames = map[string]ResampleFilter{
	"nearest":  NearestNeighborFilter,
	"bilinear": BilinearFilter,
	"bicubic":  BicubicFilter,
	"mitchell": MitchellNetravaliFilter,
	"lanczos2": Lanczos2Filter,
	"lanczos3": Lanczos3Filter,
}

// ParseResampleFilter resolves a filter by name, e.g. "lanczos3".
func ParseResampleFilter(s string) (ResampleFilter, error) {
	if f, ok := resampleNames[strings.ToLower(s)]; ok {
		return f, nil
	}
	return 0, errors.Errorf("unknown resample filter %q", s)
}

func (f ResampleFilter) String() string {
	for name, v := range resampleNames {
		if v == f {
			return name
		}
	}
	return "unknown"
}

func (f ResampleFilter) interpolation() resize.InterpolationFunction {
	switch f {
	case NearestNeighborFilter:
		return resize.NearestNeighbor
	case BilinearFilter:
		return resize.Bilinear
	case BicubicFilter:
		return resize.Bicubic
	case MitchellNetravaliFilter:
		return resize.MitchellNetravali
	case Lanczos2Filter:
		return resize.Lanczos2
	default:
		return resize.Lanczos3
	}
}

// Resize scales buf to width x height with the given filter.
//
// Arguments:
// - buf: The source buffer.
// - width: Target width in pixels, must be > 0.
// - height: Target height in pixels, must be > 0.
// - filter: The resampling filter.
//
// Returns:
// - A new buffer; the source is not modified.
//
// @example
// half, err := Resize(src, src.Width/2, src.Height/2, Lanczos3Filter)
func Resize(buf *PixelBuffer, width, height int, filter ResampleFilter) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "resize to %dx%d", width, height)
	}
	if buf.Width == 0 || buf.Height == 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "resize from %dx%d", buf.Width, buf.Height)
	}
	if buf.Width == width && buf.Height == height {
		return buf.Clone(), nil
	}

	scaled := resize.Resize(uint(width), uint(height), buf.ToRGBA(), filter.interpolation())
	return FromImage(scaled)
}

// Halvings returns successively halved copies of buf: element 0 is half the
// source size, element 1 a quarter, and so on. It stops early once a side
// would drop below one pixel.
//
// Arguments:
// - buf: The source buffer.
// - levels: The number of halvings to produce.
// - filter: The resampling filter.
//
// Returns:
// - Up to levels buffers, largest first.
func Halvings(buf *PixelBuffer, levels int, filter ResampleFilter) ([]*PixelBuffer, error) {
	if levels < 0 {
		return nil, errors.Errorf("negative halving levels %d", levels)
	}

	out := make([]*PixelBuffer, 0, levels)
	width, height := buf.Width, buf.Height
	for i := 0; i < levels; i++ {
		width /= 2
		height /= 2
		if width < 1 || height < 1 {
			break
		}
		scaled, err := Resize(buf, width, height, filter)
		if err != nil {
			return nil, errors.Wrapf(err, "halving %d", i+1)
		}
		out = append(out, scaled)
	}
	return out, nil
}
