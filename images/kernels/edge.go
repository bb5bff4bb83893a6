package kernels

import (
	"strings"

	"github.com/pkg/errors"
)

// EdgeMode defines how the window behaves at the image border.
// - Clamp: out-of-range window coordinates snap to the nearest edge pixel, so
//   every pixel (edges and corners included) is computed.
// - Skip: pixels whose window would leave the image are not computed; a border
//   of Radius pixels keeps whatever the destination was initialised with.
//
// A filter uses one mode for the whole pass.
type EdgeMode int

const (
	EdgeClamp EdgeMode = iota
	EdgeSkip
)

// ParseEdgeMode resolves "clamp", "skip" or "margin".
func ParseEdgeMode(s string) (EdgeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clamp":
		return EdgeClamp, nil
	case "skip", "margin", "margin-skip":
		return EdgeSkip, nil
	default:
		return 0, errors.Wrapf(ErrInvalidEdgeMode, "%q", s)
	}
}

func (m EdgeMode) String() string {
	switch m {
	case EdgeClamp:
		return "clamp"
	case EdgeSkip:
		return "skip"
	default:
		return "unknown"
	}
}

func (m EdgeMode) MarshalText() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return []byte(m.String()), nil
}

func (m *EdgeMode) UnmarshalText(text []byte) error {
	parsed, err := ParseEdgeMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Validate reports ErrInvalidEdgeMode for values outside the enum.
func (m EdgeMode) Validate() error {
	if m != EdgeClamp && m != EdgeSkip {
		return errors.Wrapf(ErrInvalidEdgeMode, "%d", int(m))
	}
	return nil
}

// Resolve maps window coordinate i along an axis of length n to a source
// coordinate. ok is false when the sample does not contribute.
func (m EdgeMode) Resolve(i, n int) (idx int, ok bool) {
	switch m {
	case EdgeClamp:
		if n <= 0 {
			return 0, false
		}
		if i < 0 {
			return 0, true
		}
		if i >= n {
			return n - 1, true
		}
		return i, true
	default:
		return i, i >= 0 && i < n
	}
}

// Span returns the half-open range [lo, hi) of coordinates along an axis of
// length n whose pixels are computed with window radius r.
func (m EdgeMode) Span(n, r int) (lo, hi int) {
	if m == EdgeClamp {
		return 0, n
	}
	lo, hi = r, n-r
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
