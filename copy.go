package largearray

import (
	"errors"

	"github.com/hupe1980/largearray/internal/unit"
	"github.com/hupe1980/largearray/pixel"
)

// Fill sets every pixel to v. Resident pages are dropped and the backing
// file is removed, so the cost does not depend on the array size.
func (a *Array[T]) Fill(v T) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if a.readOnly {
		return ErrReadOnly
	}
	return translateError(a.m.pager.Reset(a.id, func() error {
		a.pages.setFill(v)
		return a.pages.store.reset(v)
	}))
}

// FillDouble sets every pixel to a double-domain value.
func (a *Array[T]) FillDouble(v float64) error { return a.Fill(a.tr.FromDouble(v)) }

// Copy returns a new array of the same extents and unit size in the same
// manager. With copyData it holds the same pixels, otherwise every pixel is
// zero.
func (a *Array[T]) Copy(copyData bool) (*Array[T], error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	opts := []Option{WithUnitPowerSize(a.layout.UnitPower()), WithCompression(a.compression)}
	if !copyData {
		return New[T](a.m, a.Dims(), opts...)
	}

	fill := a.pages.fillValue()
	dst, err := New[T](a.m, a.Dims(), append(opts, WithFillValue(a.tr.ToDouble(fill)))...)
	if err != nil {
		return nil, err
	}
	for id := range a.layout.UnitDim() {
		var page *unit.Unit[T]
		if err := a.view(id, func(u *unit.Unit[T]) {
			if !isFillOnly(u, fill, a.layout.ValidLen(id)) {
				page = u.Clone()
			}
		}); err != nil {
			return nil, errors.Join(err, dst.Close())
		}
		if page == nil {
			continue
		}
		if err := dst.putUnit(id, page); err != nil {
			return nil, errors.Join(err, dst.Close())
		}
	}
	return dst, nil
}

func isFillOnly[T pixel.Element](u *unit.Unit[T], fill T, n int) bool {
	tr := pixel.Of[T]()
	if !tr.IsZero(fill) {
		return false
	}
	for _, v := range u.Values()[:n] {
		if !tr.Identical(v, fill) {
			return false
		}
	}
	return true
}

// Convert returns a new array of element type D holding the pixels of src
// converted through the double domain. Pages of src are read in the ratio
// of the element widths, so at most one destination page is built at a
// time. The page size hint defaults to the byte size of src's units.
func Convert[D, S pixel.Element](src *Array[S], opts ...Option) (*Array[D], error) {
	if src.closed.Load() {
		return nil, ErrClosed
	}
	opts = append([]Option{WithUnitBytes(src.UnitBytes()), WithCompression(src.compression)}, opts...)
	dst, err := New[D](src.m, src.Dims(), opts...)
	if err != nil {
		return nil, err
	}

	var zero D
	size := dst.layout.UnitSize()
	scratch := unit.New[S](size)
	for id := range dst.layout.UnitDim() {
		n := dst.layout.ValidLen(id)
		if err := src.readRange(dst.layout.UnitStart(id), scratch.Values()[:n]); err != nil {
			return nil, errors.Join(err, dst.Close())
		}
		page := unit.New[D](size)
		unit.CopyConverted(page, 0, scratch, 0, n)
		if isFillOnly(page, zero, n) {
			continue
		}
		if err := dst.putUnit(id, page); err != nil {
			return nil, errors.Join(err, dst.Close())
		}
	}
	return dst, nil
}

// CopyFrom overwrites every pixel with the pixel of src at the same index,
// converted through the double domain.
func (a *Array[T]) CopyFrom(src Image) error {
	if a.Dims() != src.Dims() {
		return &ErrDimensionMismatch{Expected: a.Dims(), Actual: src.Dims()}
	}
	if a.closed.Load() {
		return ErrClosed
	}
	if a.readOnly {
		return ErrReadOnly
	}
	size := a.layout.UnitSize()
	for id := range a.layout.UnitDim() {
		start := a.layout.UnitStart(id)
		page := unit.New[T](size)
		for k := range a.layout.ValidLen(id) {
			v, err := src.Double(start + int64(k))
			if err != nil {
				return err
			}
			page.Set(k, a.tr.FromDouble(v))
		}
		if err := a.putUnit(id, page); err != nil {
			return err
		}
	}
	return nil
}
