package kernels

import (
	"math"

	"github.com/pkg/errors"
)

// WindowSpec describes the square neighbourhood aggregated around each pixel.
// Width must be odd (so the window has a centre) and at least 3.
type WindowSpec struct {
	Width int `json:"width" yaml:"width"`
}

// NewWindowSpec validates width and returns the spec.
func NewWindowSpec(width int) (WindowSpec, error) {
	s := WindowSpec{Width: width}
	if err := s.Validate(); err != nil {
		return WindowSpec{}, err
	}
	return s, nil
}

// Validate reports ErrInvalidWindowWidth for even widths, widths below 3 and
// widths whose Size overflows int.
func (s WindowSpec) Validate() error {
	if s.Width < 3 || s.Width%2 == 0 {
		return errors.Wrapf(ErrInvalidWindowWidth, "got %d", s.Width)
	}
	if s.Width > math.MaxInt/s.Width {
		return errors.Wrapf(ErrInvalidWindowWidth, "%d is too large", s.Width)
	}
	return nil
}

// SetWidth changes the width. On error the window is left unchanged.
func (s *WindowSpec) SetWidth(width int) error {
	next := WindowSpec{Width: width}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// Radius is the number of neighbours on each side of the centre pixel.
func (s WindowSpec) Radius() int {
	return (s.Width - 1) / 2
}

// Size is the number of pixels in the window.
func (s WindowSpec) Size() int {
	return s.Width * s.Width
}

// ColumnRange is the half-open set of columns [Start, Start+Length) one task
// is responsible for.
type ColumnRange struct {
	Start  int
	Length int
}

// End is the first column past the range.
func (c ColumnRange) End() int {
	return c.Start + c.Length
}

// Split halves the range at Length/2. Both halves are non-empty when Length >= 2.
func (c ColumnRange) Split() (left, right ColumnRange) {
	mid := c.Length / 2
	return ColumnRange{Start: c.Start, Length: mid},
		ColumnRange{Start: c.Start + mid, Length: c.Length - mid}
}

// Clamp intersects the range with [lo, hi). The result never extends past the
// original range, so disjoint siblings stay disjoint after clamping.
func (c ColumnRange) Clamp(lo, hi int) ColumnRange {
	start := max(c.Start, lo)
	end := min(c.End(), hi)
	if end < start {
		end = start
	}
	return ColumnRange{Start: start, Length: end - start}
}
