package largearray

import (
	"errors"
	"fmt"

	"github.com/hupe1980/largearray/internal/addressing"
	"github.com/hupe1980/largearray/internal/backing"
	"github.com/hupe1980/largearray/internal/pager"
	"github.com/hupe1980/largearray/internal/resource"
)

var (
	// ErrUnitSizeFixed is returned when changing the unit size of an
	// existing array.
	ErrUnitSizeFixed = errors.New("largearray: unit size is fixed at construction")

	// ErrBulkAccessUnsupported is returned by Pixels: a paged array has no
	// single contiguous buffer.
	ErrBulkAccessUnsupported = errors.New("largearray: bulk pixel access is not supported")

	// ErrReadOnly is returned for mutations of a read-only array.
	ErrReadOnly = errors.New("largearray: array is read-only")

	// ErrClosed is returned for operations on a closed array.
	ErrClosed = errors.New("largearray: array is closed")

	// ErrSameManager is returned when a read-only view is opened in the
	// manager that already pages its source array.
	ErrSameManager = errors.New("largearray: source array belongs to the same manager")

	// ErrManagerClosed is returned for operations on a closed manager.
	ErrManagerClosed = errors.New("largearray: manager is closed")

	// ErrTypeMismatch is returned when a serialized array holds a different
	// element type than requested.
	ErrTypeMismatch = errors.New("largearray: element type mismatch")

	// ErrCorrupt is returned for malformed or tampered serialized arrays.
	ErrCorrupt = errors.New("largearray: corrupt serialized array")

	// ErrOutOfRange is returned for indices or coordinates outside the array.
	ErrOutOfRange = addressing.ErrOutOfRange

	// ErrInvalidDims is returned for negative or overflowing extents.
	ErrInvalidDims = addressing.ErrInvalidDims

	// ErrMemoryLimitExceeded is returned when a page cannot be made resident
	// within the manager's memory limit.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// IOError reports a failed backing-file operation. The underlying error can
// be accessed via errors.Unwrap.
type IOError = backing.IOError

// ErrDimensionMismatch indicates two arrays of different extents.
type ErrDimensionMismatch struct {
	Expected Dims
	Actual   Dims
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pager.ErrNotRegistered) || errors.Is(err, backing.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, pager.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrManagerClosed, err)
	}
	return err
}
