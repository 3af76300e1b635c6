package addressing

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// DefaultUnitBytes is the page size used when none is requested.
const DefaultUnitBytes = 1 << 20

// MaxUnitPower bounds the number of elements per unit (2^28).
const MaxUnitPower = 28

var (
	// ErrOutOfRange is returned for coordinates or indices outside the array.
	ErrOutOfRange = errors.New("addressing: index out of range")

	// ErrInvalidDims is returned for negative dimensions or a total size
	// that overflows int64.
	ErrInvalidDims = errors.New("addressing: invalid dimensions")
)

// Dims holds the five array dimensions.
type Dims struct {
	X, Y, Z, T, Bands int
}

// Total returns the number of pixels. It does not check for overflow; use
// Validate first.
func (d Dims) Total() int64 {
	return int64(d.X) * int64(d.Y) * int64(d.Z) * int64(d.T) * int64(d.Bands)
}

// Validate reports whether d describes an addressable array.
func (d Dims) Validate() error {
	extents := [...]int{d.X, d.Y, d.Z, d.T, d.Bands}
	for _, v := range extents {
		if v < 0 {
			return fmt.Errorf("%w: negative extent in %v", ErrInvalidDims, d)
		}
	}
	total := uint64(1)
	for _, v := range extents {
		hi, lo := bits.Mul64(total, uint64(v))
		if hi != 0 || lo > math.MaxInt64 {
			return fmt.Errorf("%w: %v overflows int64", ErrInvalidDims, d)
		}
		total = lo
	}
	return nil
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%dx%dx%d", d.X, d.Y, d.Z, d.T, d.Bands)
}

// Coord addresses one pixel.
type Coord struct {
	X, Y, Z, T, Band int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d,%d)", c.X, c.Y, c.Z, c.T, c.Band)
}

// Layout is the immutable addressing scheme of one array.
type Layout struct {
	dims    Dims
	total   int64
	stride  [5]int64 // band, x, y, z, t
	power   uint
	size    int64
	mask    int64
	unitDim int64
}

// NewLayout builds the layout of an array with the given dimensions and
// 2^power elements per unit.
func NewLayout(d Dims, power uint) (Layout, error) {
	if err := d.Validate(); err != nil {
		return Layout{}, err
	}
	if power > MaxUnitPower {
		return Layout{}, fmt.Errorf("addressing: unit power %d exceeds %d", power, MaxUnitPower)
	}
	l := Layout{
		dims:  d,
		total: d.Total(),
		power: power,
		size:  int64(1) << power,
	}
	l.mask = l.size - 1
	l.stride[0] = 1
	l.stride[1] = int64(d.Bands)
	l.stride[2] = l.stride[1] * int64(d.X)
	l.stride[3] = l.stride[2] * int64(d.Y)
	l.stride[4] = l.stride[3] * int64(d.Z)
	l.unitDim = (l.total + l.size - 1) >> power
	return l, nil
}

// Dims returns the array dimensions.
func (l Layout) Dims() Dims { return l.dims }

// Total returns the number of pixels.
func (l Layout) Total() int64 { return l.total }

// UnitPower returns log2 of the unit length.
func (l Layout) UnitPower() uint { return l.power }

// UnitSize returns the number of elements per unit.
func (l Layout) UnitSize() int { return int(l.size) }

// UnitDim returns the number of units.
func (l Layout) UnitDim() int64 { return l.unitDim }

// Contains reports whether c lies inside the array.
func (l Layout) Contains(c Coord) bool {
	d := l.dims
	return c.X >= 0 && c.X < d.X &&
		c.Y >= 0 && c.Y < d.Y &&
		c.Z >= 0 && c.Z < d.Z &&
		c.T >= 0 && c.T < d.T &&
		c.Band >= 0 && c.Band < d.Bands
}

// Index returns the linear index of c.
func (l Layout) Index(c Coord) (int64, error) {
	if !l.Contains(c) {
		return 0, fmt.Errorf("%w: %v not in %v", ErrOutOfRange, c, l.dims)
	}
	return int64(c.Band) +
		int64(c.X)*l.stride[1] +
		int64(c.Y)*l.stride[2] +
		int64(c.Z)*l.stride[3] +
		int64(c.T)*l.stride[4], nil
}

// Coord returns the coordinate of linear index i.
func (l Layout) Coord(i int64) (Coord, error) {
	if i < 0 || i >= l.total {
		return Coord{}, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, i, l.total)
	}
	d := l.dims
	var c Coord
	c.Band = int(i % int64(d.Bands))
	i /= int64(d.Bands)
	c.X = int(i % int64(d.X))
	i /= int64(d.X)
	c.Y = int(i % int64(d.Y))
	i /= int64(d.Y)
	c.Z = int(i % int64(d.Z))
	c.T = int(i / int64(d.Z))
	return c, nil
}

// Locate splits linear index i into a unit id and an offset inside it.
func (l Layout) Locate(i int64) (unit int64, off int, err error) {
	if i < 0 || i >= l.total {
		return 0, 0, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, i, l.total)
	}
	return i >> l.power, int(i & l.mask), nil
}

// Join is the inverse of Locate.
func (l Layout) Join(unit int64, off int) int64 {
	return unit<<l.power | int64(off)
}

// UnitStart returns the linear index of the first element of unit.
func (l Layout) UnitStart(unit int64) int64 {
	return unit << l.power
}

// ValidLen returns how many elements of unit fall inside the array. Only
// the last unit can be shorter than UnitSize.
func (l Layout) ValidLen(unit int64) int {
	if unit < 0 || unit >= l.unitDim {
		return 0
	}
	rest := l.total - l.UnitStart(unit)
	if rest >= l.size {
		return int(l.size)
	}
	return int(rest)
}

// UnitPower computes the unit power for a requested page size in bytes and
// an element width. The element count is rounded up to the next power of
// two and capped to the smallest power of two that covers total elements.
// A non-positive request selects DefaultUnitBytes.
func UnitPower(unitBytes int64, width int, total int64) uint {
	if unitBytes <= 0 {
		unitBytes = DefaultUnitBytes
	}
	if width <= 0 {
		width = 1
	}
	elems := (unitBytes + int64(width) - 1) / int64(width)
	p := ceilLog2(elems)
	if capP := ceilLog2(total); p > capP {
		p = capP
	}
	if p > MaxUnitPower {
		p = MaxUnitPower
	}
	return p
}

func ceilLog2(n int64) uint {
	if n <= 1 {
		return 0
	}
	return uint(bits.Len64(uint64(n - 1)))
}
