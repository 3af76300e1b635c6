package largearray

import (
	"fmt"
	"io"

	"github.com/hupe1980/largearray/pixel"
)

// Source provides the pixels of a read-only array.
type Source[T pixel.Element] interface {
	// Dims returns the extents of the source.
	Dims() Dims
	// ReadAt copies pixels starting at linear index off into dst. It
	// returns io.EOF when fewer than len(dst) pixels remain.
	ReadAt(dst []T, off int64) (int, error)
}

var _ Source[uint8] = (*Array[uint8])(nil)

// SliceSource is a Source over an in-memory slice in linear order.
type SliceSource[T pixel.Element] struct {
	dims Dims
	data []T
}

// NewSliceSource returns a Source over data, which must hold exactly
// dims.Total() pixels.
func NewSliceSource[T pixel.Element](dims Dims, data []T) (*SliceSource[T], error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if int64(len(data)) != dims.Total() {
		return nil, fmt.Errorf("largearray: slice of %d pixels for %s", len(data), dims)
	}
	return &SliceSource[T]{dims: dims, data: data}, nil
}

// Dims implements Source.
func (s *SliceSource[T]) Dims() Dims { return s.dims }

// ReadAt implements Source.
func (s *SliceSource[T]) ReadAt(dst []T, off int64) (int, error) {
	if off < 0 || off > int64(len(s.data)) {
		return 0, ErrOutOfRange
	}
	n := copy(dst, s.data[off:])
	if n < len(dst) {
		return n, io.EOF
	}
	return n, nil
}
