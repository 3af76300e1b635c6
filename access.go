package largearray

import (
	"io"

	"github.com/hupe1980/largearray/internal/unit"
)

// At returns the pixel at linear index i.
func (a *Array[T]) At(i int64) (T, error) {
	var v T
	id, off, err := a.layout.Locate(i)
	if err != nil {
		return v, err
	}
	err = a.view(id, func(u *unit.Unit[T]) {
		v = u.Get(off)
	})
	return v, err
}

// Set stores v at linear index i.
func (a *Array[T]) Set(i int64, v T) error {
	id, off, err := a.layout.Locate(i)
	if err != nil {
		return err
	}
	return a.update(id, func(u *unit.Unit[T]) bool {
		old := u.Get(off)
		u.Set(off, v)
		return !a.tr.Identical(old, v)
	})
}

// AtCoord returns the pixel at c.
func (a *Array[T]) AtCoord(c Coord) (T, error) {
	i, err := a.layout.Index(c)
	if err != nil {
		var zero T
		return zero, err
	}
	return a.At(i)
}

// SetCoord stores v at c.
func (a *Array[T]) SetCoord(c Coord, v T) error {
	i, err := a.layout.Index(c)
	if err != nil {
		return err
	}
	return a.Set(i, v)
}

// Index returns the linear index of c.
func (a *Array[T]) Index(c Coord) (int64, error) { return a.layout.Index(c) }

// Coord returns the coordinate of linear index i.
func (a *Array[T]) Coord(i int64) (Coord, error) { return a.layout.Coord(i) }

// ReadAt copies pixels starting at linear index off into dst. It returns
// io.EOF when fewer than len(dst) pixels remain. Together with Dims this
// makes an Array a Source for read-only views.
func (a *Array[T]) ReadAt(dst []T, off int64) (int, error) {
	total := a.layout.Total()
	if off < 0 || off > total {
		return 0, ErrOutOfRange
	}
	n := int(min(int64(len(dst)), total-off))
	if err := a.readRange(off, dst[:n]); err != nil {
		return 0, err
	}
	if n < len(dst) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt stores src starting at linear index off.
func (a *Array[T]) WriteAt(src []T, off int64) (int, error) {
	if off < 0 || off+int64(len(src)) > a.layout.Total() {
		return 0, ErrOutOfRange
	}
	written := 0
	for written < len(src) {
		id, at, err := a.layout.Locate(off + int64(written))
		if err != nil {
			return written, err
		}
		var n int
		if err := a.update(id, func(u *unit.Unit[T]) bool {
			n = copy(u.Values()[at:a.layout.ValidLen(id)], src[written:])
			return true
		}); err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// Bool returns the pixel at i in the bool domain.
func (a *Array[T]) Bool(i int64) (bool, error) {
	v, err := a.At(i)
	return a.tr.ToBool(v), err
}

// Byte returns the pixel at i in the byte domain.
func (a *Array[T]) Byte(i int64) (uint8, error) {
	v, err := a.At(i)
	return a.tr.ToByte(v), err
}

// Int returns the pixel at i in the int domain.
func (a *Array[T]) Int(i int64) (int32, error) {
	v, err := a.At(i)
	return a.tr.ToInt(v), err
}

// Double returns the pixel at i in the double domain.
func (a *Array[T]) Double(i int64) (float64, error) {
	v, err := a.At(i)
	return a.tr.ToDouble(v), err
}

// SetBool stores a bool-domain value at i.
func (a *Array[T]) SetBool(i int64, v bool) error { return a.Set(i, a.tr.FromBool(v)) }

// SetByte stores a byte-domain value at i.
func (a *Array[T]) SetByte(i int64, v uint8) error { return a.Set(i, a.tr.FromByte(v)) }

// SetInt stores an int-domain value at i.
func (a *Array[T]) SetInt(i int64, v int32) error { return a.Set(i, a.tr.FromInt(v)) }

// SetDouble stores a double-domain value at i.
func (a *Array[T]) SetDouble(i int64, v float64) error { return a.Set(i, a.tr.FromDouble(v)) }

// BoolAt returns the pixel at c in the bool domain.
func (a *Array[T]) BoolAt(c Coord) (bool, error) {
	v, err := a.AtCoord(c)
	return a.tr.ToBool(v), err
}

// ByteAt returns the pixel at c in the byte domain.
func (a *Array[T]) ByteAt(c Coord) (uint8, error) {
	v, err := a.AtCoord(c)
	return a.tr.ToByte(v), err
}

// IntAt returns the pixel at c in the int domain.
func (a *Array[T]) IntAt(c Coord) (int32, error) {
	v, err := a.AtCoord(c)
	return a.tr.ToInt(v), err
}

// DoubleAt returns the pixel at c in the double domain.
func (a *Array[T]) DoubleAt(c Coord) (float64, error) {
	v, err := a.AtCoord(c)
	return a.tr.ToDouble(v), err
}

// SetBoolAt stores a bool-domain value at c.
func (a *Array[T]) SetBoolAt(c Coord, v bool) error { return a.SetCoord(c, a.tr.FromBool(v)) }

// SetByteAt stores a byte-domain value at c.
func (a *Array[T]) SetByteAt(c Coord, v uint8) error { return a.SetCoord(c, a.tr.FromByte(v)) }

// SetIntAt stores an int-domain value at c.
func (a *Array[T]) SetIntAt(c Coord, v int32) error { return a.SetCoord(c, a.tr.FromInt(v)) }

// SetDoubleAt stores a double-domain value at c.
func (a *Array[T]) SetDoubleAt(c Coord, v float64) error {
	return a.SetCoord(c, a.tr.FromDouble(v))
}
