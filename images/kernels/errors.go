package kernels

import "github.com/pkg/errors"

var (
	// ErrInvalidWindowWidth is returned for window widths that are even or below 3.
	ErrInvalidWindowWidth = errors.New("window width must be odd and greater than 2")
	// ErrInvalidCutoff is returned for a non-positive sequential cutoff.
	ErrInvalidCutoff = errors.New("sequential cutoff must be positive")
	// ErrInvalidMethod is returned for an unknown aggregation method.
	ErrInvalidMethod = errors.New("unknown filter method")
	// ErrInvalidEdgeMode is returned for an unknown boundary mode.
	ErrInvalidEdgeMode = errors.New("unknown edge mode")
	// ErrAliasedBuffers is returned when source and destination share storage.
	ErrAliasedBuffers = errors.New("source and destination buffers must be distinct")
	// ErrDimensionMismatch is returned when source and destination differ in size.
	ErrDimensionMismatch = errors.New("source and destination dimensions differ")
	// ErrNilFilter is returned when an executor is built without a filter.
	ErrNilFilter = errors.New("nil window filter")
)
