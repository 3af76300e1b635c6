package largearray

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/largearray/internal/unit"
	"github.com/hupe1980/largearray/pixel"
)

// Min returns the smallest pixel; false for a bool array holding any false.
// An empty array yields the zero value. Any NaN pixel makes Min and Max NaN.
func (a *Array[T]) Min() (T, error) {
	return a.extreme(func(u *unit.Unit[T], n int) T { return u.Min(n) }, a.tr.Less)
}

// Max returns the largest pixel.
func (a *Array[T]) Max() (T, error) {
	return a.extreme(func(u *unit.Unit[T], n int) T { return u.Max(n) },
		func(x, y T) bool { return a.tr.Less(y, x) })
}

func (a *Array[T]) extreme(pick func(u *unit.Unit[T], n int) T, better func(x, y T) bool) (T, error) {
	var best T
	found := false
	err := a.each(func(_ int64, u *unit.Unit[T], n int) bool {
		if n == 0 {
			return true
		}
		v := pick(u, n)
		if !found || pixel.IsNaN(v) || better(v, best) {
			best = v
			found = true
		}
		return true
	})
	return best, err
}

// MinBand returns the smallest pixel of band b.
func (a *Array[T]) MinBand(b int) (T, error) {
	return a.extremeBand(b, (*unit.Unit[T]).MinBand, a.tr.Less)
}

// MaxBand returns the largest pixel of band b.
func (a *Array[T]) MaxBand(b int) (T, error) {
	return a.extremeBand(b, (*unit.Unit[T]).MaxBand, func(x, y T) bool { return a.tr.Less(y, x) })
}

func (a *Array[T]) extremeBand(b int, pick func(u *unit.Unit[T], first, stride, n int) (T, bool), better func(x, y T) bool) (T, error) {
	var best T
	bands := a.layout.Dims().Bands
	if b < 0 || b >= bands {
		return best, ErrOutOfRange
	}
	stride := int64(bands)
	found := false
	err := a.each(func(id int64, u *unit.Unit[T], n int) bool {
		start := a.layout.UnitStart(id)
		first := int((int64(b) - start%stride + stride) % stride)
		v, ok := pick(u, first, bands, n)
		if ok && (!found || pixel.IsNaN(v) || better(v, best)) {
			best = v
			found = true
		}
		return true
	})
	return best, err
}

// MinDouble returns Min in the double domain.
func (a *Array[T]) MinDouble() (float64, error) {
	v, err := a.Min()
	return a.tr.ToDouble(v), err
}

// MaxDouble returns Max in the double domain.
func (a *Array[T]) MaxDouble() (float64, error) {
	v, err := a.Max()
	return a.tr.ToDouble(v), err
}

// Sum returns the sum of all pixels in the double domain; a bool array
// yields its number of true pixels.
func (a *Array[T]) Sum() (float64, error) {
	var sum float64
	err := a.each(func(_ int64, u *unit.Unit[T], n int) bool {
		sum += u.Sum(n)
		return true
	})
	return sum, err
}

// IsEmpty reports whether every pixel holds the zero value. It stops at the
// first unit that does not.
func (a *Array[T]) IsEmpty() (bool, error) {
	empty := true
	err := a.each(func(_ int64, u *unit.Unit[T], n int) bool {
		empty = u.IsEmpty(n)
		return empty
	})
	return empty, err
}

// Foreground returns the coordinates of all non-zero pixels in ascending
// linear order.
func (a *Array[T]) Foreground() ([]Coord, error) {
	var coords []Coord
	err := a.foreground(func(i int64) {
		c, _ := a.layout.Coord(i)
		coords = append(coords, c)
	})
	return coords, err
}

// ForegroundBitmap returns the linear indices of all non-zero pixels.
func (a *Array[T]) ForegroundBitmap() (*roaring64.Bitmap, error) {
	bm := roaring64.New()
	err := a.foreground(func(i int64) {
		bm.Add(uint64(i))
	})
	return bm, err
}

func (a *Array[T]) foreground(fn func(i int64)) error {
	return a.each(func(id int64, u *unit.Unit[T], n int) bool {
		start := a.layout.UnitStart(id)
		u.Foreground(n, func(off int) {
			fn(start + int64(off))
		})
		return true
	})
}

// Equal reports whether o has the same extents and pixels. Doubles compare
// NaN equal to NaN. Arrays with different unit sizes compare by value.
func (a *Array[T]) Equal(o *Array[T]) (bool, error) {
	if a == o {
		return true, nil
	}
	if a.Dims() != o.Dims() {
		return false, nil
	}
	size := a.layout.UnitSize()
	mine, theirs := unit.New[T](size), unit.New[T](size)
	for id := range a.layout.UnitDim() {
		n := a.layout.ValidLen(id)
		if err := a.view(id, func(u *unit.Unit[T]) {
			copy(mine.Values(), u.Values()[:n])
		}); err != nil {
			return false, err
		}
		if err := o.readRange(a.layout.UnitStart(id), theirs.Values()[:n]); err != nil {
			return false, err
		}
		if !mine.EqualPrefix(theirs, n) {
			return false, nil
		}
	}
	return true, nil
}
