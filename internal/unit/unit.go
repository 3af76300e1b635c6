package unit

import (
	"errors"
	"fmt"

	"github.com/hupe1980/largearray/pixel"
)

// ErrSizeMismatch is returned when decoding bytes of the wrong length.
var ErrSizeMismatch = errors.New("unit: encoded size mismatch")

// Unit is one page of elements of type T.
type Unit[T pixel.Element] struct {
	data []T
}

// New returns a zero-filled unit of the given length.
func New[T pixel.Element](size int) *Unit[T] {
	return &Unit[T]{data: make([]T, size)}
}

// NewFilled returns a unit whose first valid elements hold v and whose tail
// holds the zero value.
func NewFilled[T pixel.Element](size int, v T, valid int) *Unit[T] {
	u := New[T](size)
	if !pixel.Of[T]().IsZero(v) {
		u.FillRange(0, min(valid, size), v)
	}
	return u
}

// Len returns the number of elements.
func (u *Unit[T]) Len() int { return len(u.data) }

// SizeBytes returns the encoded size of the unit.
func (u *Unit[T]) SizeBytes() int64 {
	return int64(len(u.data)) * int64(pixel.Of[T]().Width)
}

// Get returns the element at off.
func (u *Unit[T]) Get(off int) T { return u.data[off] }

// Set stores v at off.
func (u *Unit[T]) Set(off int, v T) { u.data[off] = v }

// Values exposes the backing slice. Callers must hold whatever lock guards
// the unit.
func (u *Unit[T]) Values() []T { return u.data }

// Fill sets every element to v.
func (u *Unit[T]) Fill(v T) {
	u.FillRange(0, len(u.data), v)
}

// FillRange sets elements [from, to) to v.
func (u *Unit[T]) FillRange(from, to int, v T) {
	s := u.data[from:to]
	for i := range s {
		s[i] = v
	}
}

// Clone returns a deep copy.
func (u *Unit[T]) Clone() *Unit[T] {
	c := make([]T, len(u.data))
	copy(c, u.data)
	return &Unit[T]{data: c}
}

// Min returns the smallest of the first n elements. n must be positive.
// A NaN among them is returned as the minimum.
func (u *Unit[T]) Min(n int) T {
	less := pixel.Of[T]().Less
	m := u.data[0]
	for _, v := range u.data[1:n] {
		if pixel.IsNaN(v) || less(v, m) {
			m = v
		}
	}
	return m
}

// Max returns the largest of the first n elements. n must be positive.
// A NaN among them is returned as the maximum.
func (u *Unit[T]) Max(n int) T {
	less := pixel.Of[T]().Less
	m := u.data[0]
	for _, v := range u.data[1:n] {
		if pixel.IsNaN(v) || less(m, v) {
			m = v
		}
	}
	return m
}

// MinBand returns the smallest element among offsets first, first+stride,
// ... below n. ok is false when no offset qualifies.
func (u *Unit[T]) MinBand(first, stride, n int) (m T, ok bool) {
	less := pixel.Of[T]().Less
	for off := first; off < n; off += stride {
		if v := u.data[off]; !ok || pixel.IsNaN(v) || less(v, m) {
			m, ok = v, true
		}
	}
	return m, ok
}

// MaxBand is the band-restricted counterpart of Max.
func (u *Unit[T]) MaxBand(first, stride, n int) (m T, ok bool) {
	less := pixel.Of[T]().Less
	for off := first; off < n; off += stride {
		if v := u.data[off]; !ok || pixel.IsNaN(v) || less(m, v) {
			m, ok = v, true
		}
	}
	return m, ok
}

// Sum adds the first n elements in the double domain.
func (u *Unit[T]) Sum(n int) float64 {
	toDouble := pixel.Of[T]().ToDouble
	var s float64
	for _, v := range u.data[:n] {
		s += toDouble(v)
	}
	return s
}

// IsEmpty reports whether the first n elements all hold the zero value.
func (u *Unit[T]) IsEmpty(n int) bool {
	var z T
	for _, v := range u.data[:n] {
		if v != z {
			return false
		}
	}
	return true
}

// Equal reports whether both units have the same length and elements.
func (u *Unit[T]) Equal(o *Unit[T]) bool {
	if len(u.data) != len(o.data) {
		return false
	}
	return u.EqualPrefix(o, len(u.data))
}

// EqualPrefix compares the first n elements.
func (u *Unit[T]) EqualPrefix(o *Unit[T], n int) bool {
	if n > len(u.data) || n > len(o.data) {
		return false
	}
	eq := pixel.Of[T]().Equal
	a, b := u.data[:n], o.data[:n]
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Foreground calls fn with the offset of every non-zero element among the
// first n, in ascending order.
func (u *Unit[T]) Foreground(n int, fn func(off int)) {
	var z T
	for off, v := range u.data[:n] {
		if v != z {
			fn(off)
		}
	}
}

// MarshalBinary encodes the unit as Len()*width little-endian bytes.
func (u *Unit[T]) MarshalBinary() ([]byte, error) {
	return u.AppendBinary(make([]byte, 0, u.SizeBytes()))
}

// AppendBinary appends the encoding of u to b.
func (u *Unit[T]) AppendBinary(b []byte) ([]byte, error) {
	tr := pixel.Of[T]()
	n := len(b)
	b = append(b, make([]byte, u.SizeBytes())...)
	dst := b[n:]
	for i, v := range u.data {
		tr.Put(dst[i*tr.Width:], v)
	}
	return b, nil
}

// UnmarshalBinary decodes b into u. len(b) must equal SizeBytes.
func (u *Unit[T]) UnmarshalBinary(b []byte) error {
	tr := pixel.Of[T]()
	if int64(len(b)) != u.SizeBytes() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(b), u.SizeBytes())
	}
	for i := range u.data {
		u.data[i] = tr.Load(b[i*tr.Width:])
	}
	return nil
}
