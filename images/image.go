// Package images - pixel buffers, codecs and resampling for the smoothing pipeline.
package images

import (
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// ErrInvalidDimensions is returned when a buffer cannot hold width*height pixels.
var ErrInvalidDimensions = errors.New("invalid image dimensions")

// PixelBuffer is a flat raster of packed 24-bit RGB pixels.
//
// Each element of Pix holds one pixel as 0x00RRGGBB: the top byte is ignored,
// bits 16-23 are red, bits 8-15 green and bits 0-7 blue. Pixels are stored in
// row-major order, so the pixel at (x, y) lives at Pix[y*Width+x].
type PixelBuffer struct {
	// Width is the number of columns.
	Width int `json:"width" yaml:"width"`
	// Height is the number of rows.
	Height int `json:"height" yaml:"height"`
	// Pix holds Width*Height packed pixels.
	Pix []uint32 `json:"-" yaml:"-"`
}

// NewPixelBuffer allocates a zeroed (black) buffer.
//
// Arguments:
// - width: The number of columns, must be >= 0.
// - height: The number of rows, must be >= 0.
//
// Returns:
// - The buffer, or ErrInvalidDimensions for negative or overflowing sizes.
//
// @example
// buf, err := NewPixelBuffer(640, 480)
func NewPixelBuffer(width, height int) (*PixelBuffer, error) {
	if width < 0 || height < 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%dx%d", width, height)
	}
	if height > 0 && width > math.MaxInt/height {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%dx%d overflows", width, height)
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint32, width*height),
	}, nil
}

// PackRGB packs three channels into one pixel value.
func PackRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// UnpackRGB splits a packed pixel into its channels. The top byte is ignored.
func UnpackRGB(p uint32) (r, g, b uint8) {
	return uint8(p >> 16), uint8(p >> 8), uint8(p)
}

// In reports whether (x, y) addresses a pixel of the buffer.
func (b *PixelBuffer) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// RGB returns the packed pixel at (x, y), or 0 outside the buffer.
func (b *PixelBuffer) RGB(x, y int) uint32 {
	if !b.In(x, y) {
		return 0
	}
	return b.Pix[y*b.Width+x]
}

// SetRGB stores a packed pixel at (x, y). Writes outside the buffer are dropped.
func (b *PixelBuffer) SetRGB(x, y int, p uint32) {
	if !b.In(x, y) {
		return
	}
	b.Pix[y*b.Width+x] = p & 0x00FFFFFF
}

// Bounds returns the buffer extent as an image.Rectangle anchored at the origin.
func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// Clone returns a deep copy of the buffer.
func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint32, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Equal reports whether two buffers have identical dimensions and pixels.
func (b *PixelBuffer) Equal(other *PixelBuffer) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.Width != other.Width || b.Height != other.Height || len(b.Pix) != len(other.Pix) {
		return false
	}
	for i, p := range b.Pix {
		if p&0x00FFFFFF != other.Pix[i]&0x00FFFFFF {
			return false
		}
	}
	return true
}

// SameStorage reports whether two buffers share their backing pixel array.
func (b *PixelBuffer) SameStorage(other *PixelBuffer) bool {
	if b == other {
		return true
	}
	if b == nil || other == nil || len(b.Pix) == 0 || len(other.Pix) == 0 {
		return false
	}
	return &b.Pix[0] == &other.Pix[0]
}

// FromImage converts any image.Image into a PixelBuffer.
// Alpha is discarded; premultiplied colours are taken as-is.
//
// Arguments:
// - img: The source image. Its bounds may start anywhere.
//
// Returns:
// - A buffer anchored at (0, 0) with the same size as img.
//
// @example
// buf, err := FromImage(decoded)
func FromImage(img image.Image) (*PixelBuffer, error) {
	bounds := img.Bounds()
	buf, err := NewPixelBuffer(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	switch src := img.(type) {
	case *image.RGBA:
		rows(buf.Height, func(start, end int) {
			for y := start; y < end; y++ {
				off := y * src.Stride
				for x := 0; x < buf.Width; x++ {
					p := src.Pix[off+x*4 : off+x*4+3 : off+x*4+3]
					buf.Pix[y*buf.Width+x] = PackRGB(p[0], p[1], p[2])
				}
			}
		})
	case *image.NRGBA:
		rows(buf.Height, func(start, end int) {
			for y := start; y < end; y++ {
				off := y * src.Stride
				for x := 0; x < buf.Width; x++ {
					p := src.Pix[off+x*4 : off+x*4+3 : off+x*4+3]
					buf.Pix[y*buf.Width+x] = PackRGB(p[0], p[1], p[2])
				}
			}
		})
	default:
		rows(buf.Height, func(start, end int) {
			for y := start; y < end; y++ {
				for x := 0; x < buf.Width; x++ {
					c := color.RGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.RGBA)
					buf.Pix[y*buf.Width+x] = PackRGB(c.R, c.G, c.B)
				}
			}
		})
	}

	return buf, nil
}

// ToRGBA renders the buffer as an opaque *image.RGBA.
func (b *PixelBuffer) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(b.Bounds())
	rows(b.Height, func(start, end int) {
		for y := start; y < end; y++ {
			off := y * dst.Stride
			for x := 0; x < b.Width; x++ {
				r, g, bl := UnpackRGB(b.Pix[y*b.Width+x])
				i := off + x*4
				dst.Pix[i+0] = r
				dst.Pix[i+1] = g
				dst.Pix[i+2] = bl
				dst.Pix[i+3] = 0xFF
			}
		}
	})
	return dst
}

// rows splits [0, n) into one contiguous partition per CPU and runs fn on each.
// Small inputs run inline.
func rows(n int, fn func(start, end int)) {
	workers := runtime.NumCPU()
	if n < workers*2 {
		fn(0, n)
		return
	}

	part := n / workers
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		start := i * part
		end := start + part
		if i == workers-1 {
			end = n
		}
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
