package kernels

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Aggregator folds the samples of one colour channel inside a window into a
// single output value. Implementations are not safe for concurrent use; each
// worker owns its own set.
type Aggregator interface {
	Accumulate(v uint8)
	Finalize() uint8
	Reset()
}

// Method selects the aggregation applied to every channel.
type Method int

const (
	MethodMean Method = iota
	MethodMedian
)

// ParseMethod resolves "mean" (alias "box") or "median".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean", "box", "average":
		return MethodMean, nil
	case "median":
		return MethodMedian, nil
	default:
		return 0, errors.Wrapf(ErrInvalidMethod, "%q", s)
	}
}

func (m Method) String() string {
	switch m {
	case MethodMean:
		return "mean"
	case MethodMedian:
		return "median"
	default:
		return "unknown"
	}
}

func (m Method) MarshalText() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Validate reports ErrInvalidMethod for values outside the enum.
func (m Method) Validate() error {
	if m != MethodMean && m != MethodMedian {
		return errors.Wrapf(ErrInvalidMethod, "%d", int(m))
	}
	return nil
}

// NewAggregator returns a fresh aggregator of this method sized for spec.
func (m Method) NewAggregator(spec WindowSpec) Aggregator {
	if m == MethodMedian {
		return NewMedianAggregator(spec)
	}
	return NewMeanAggregator(spec)
}

// MeanAggregator computes sum / (Width*Width) with integer truncation.
// The divisor is the full window size even when fewer samples were
// accumulated, which only happens for margin pixels that are never computed.
type MeanAggregator struct {
	sum     int
	divisor int
}

func NewMeanAggregator(spec WindowSpec) *MeanAggregator {
	return &MeanAggregator{divisor: spec.Size()}
}

func (a *MeanAggregator) Accumulate(v uint8) { a.sum += int(v) }

func (a *MeanAggregator) Finalize() uint8 {
	if a.divisor <= 0 {
		return 0
	}
	return uint8(a.sum / a.divisor)
}

func (a *MeanAggregator) Reset() { a.sum = 0 }

// MedianAggregator collects every sample, sorts ascending and returns the
// element at index len/2. For an odd sample count that is the exact middle.
type MedianAggregator struct {
	values []uint8
}

// maxMedianPrealloc bounds the initial sample capacity; wider windows grow
// the slice on first use.
const maxMedianPrealloc = 1 << 12

func NewMedianAggregator(spec WindowSpec) *MedianAggregator {
	return &MedianAggregator{values: make([]uint8, 0, min(max(spec.Size(), 0), maxMedianPrealloc))}
}

func (a *MedianAggregator) Accumulate(v uint8) { a.values = append(a.values, v) }

func (a *MedianAggregator) Finalize() uint8 {
	if len(a.values) == 0 {
		return 0
	}
	slices.Sort(a.values)
	return a.values[len(a.values)/2]
}

func (a *MedianAggregator) Reset() { a.values = a.values[:0] }

// channels is the per-worker scratch state for one pixel: one aggregator per
// colour channel.
type channels struct {
	r, g, b Aggregator
}

func newChannels(m Method, spec WindowSpec) *channels {
	return &channels{
		r: m.NewAggregator(spec),
		g: m.NewAggregator(spec),
		b: m.NewAggregator(spec),
	}
}

func (c *channels) reset() {
	c.r.Reset()
	c.g.Reset()
	c.b.Reset()
}
