package largearray

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/hupe1980/largearray/codec"
	"github.com/hupe1980/largearray/internal/addressing"
	"github.com/hupe1980/largearray/internal/pager"
	"github.com/hupe1980/largearray/internal/unit"
	"github.com/hupe1980/largearray/pixel"
)

// Array is a disk-backed paged array of T.
//
// An Array is safe for concurrent use. Operations after Close return
// ErrClosed.
type Array[T pixel.Element] struct {
	m           *Manager
	id          uint64
	layout      addressing.Layout
	tr          *pixel.Traits[T]
	pages       *pages[T]
	readOnly    bool
	compression codec.Compression
	logger      *Logger

	closed  atomic.Bool
	cleanup runtime.Cleanup
}

// New creates a writable array of the given extents. Every pixel holds the
// fill value (zero unless WithFillValue is given) until written.
func New[T pixel.Element](m *Manager, dims Dims, opts ...Option) (*Array[T], error) {
	o := newArrayOptions(opts)
	layout, err := newLayout[T](dims, o)
	if err != nil {
		return nil, err
	}
	fill := pixel.Of[T]().FromDouble(o.fill)
	return open(m, layout, fill, newFileStore(m, layout, fill), false, o)
}

// NewReadOnly creates a read-only array whose pages are read from src on
// demand. Mutations return ErrReadOnly and no backing file is ever created.
// An *Array source must live in a different manager, otherwise
// ErrSameManager is returned.
func NewReadOnly[T pixel.Element](m *Manager, src Source[T], opts ...Option) (*Array[T], error) {
	if arr, ok := src.(*Array[T]); ok && arr.m == m {
		return nil, ErrSameManager
	}
	o := newArrayOptions(opts)
	layout, err := newLayout[T](src.Dims(), o)
	if err != nil {
		return nil, err
	}
	var zero T
	return open(m, layout, zero, &sourceStore[T]{src: src, layout: layout}, true, o)
}

func newLayout[T pixel.Element](dims Dims, o arrayOptions) (addressing.Layout, error) {
	if err := dims.Validate(); err != nil {
		return addressing.Layout{}, err
	}
	power := o.unitPower
	if !o.powerSet {
		power = addressing.UnitPower(o.unitBytes, pixel.Of[T]().Width, dims.Total())
	}
	return addressing.NewLayout(dims, power)
}

func open[T pixel.Element](m *Manager, layout addressing.Layout, fill T, store pageStore[T], readOnly bool, o arrayOptions) (*Array[T], error) {
	p := &pages[T]{layout: layout, store: store, fill: fill}
	id, err := m.register(p, store.close)
	if err != nil {
		_ = store.close()
		return nil, err
	}

	tr := pixel.Of[T]()
	a := &Array[T]{
		m:           m,
		id:          id,
		layout:      layout,
		tr:          tr,
		pages:       p,
		readOnly:    readOnly,
		compression: o.compression,
		logger:      m.logger.WithArray(id, tr.Type.String()),
	}
	a.cleanup = runtime.AddCleanup(a, releaseLeaked, leaked{m: m, id: id, logger: a.logger})
	a.logger.LogCreate(m.ctx, layout.Dims(), layout.UnitPower(), readOnly)
	return a, nil
}

type leaked struct {
	m      *Manager
	id     uint64
	logger *Logger
}

// releaseLeaked removes the backing file of an array that became
// unreachable without Close.
func releaseLeaked(l leaked) {
	if ok, err := l.m.release(l.id); ok {
		l.logger.LogClose(context.Background(), true, err)
	}
}

// Close discards the resident pages of the array and removes its backing
// file. Dirty pages are not written. It is safe to call more than once.
func (a *Array[T]) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	a.cleanup.Stop()
	_, err := a.m.release(a.id)
	a.logger.LogClose(a.m.ctx, false, err)
	return err
}

// Flush writes every dirty page of the array to its backing file.
func (a *Array[T]) Flush() error {
	if a.closed.Load() {
		return ErrClosed
	}
	err := translateError(a.m.pager.Flush(a.id))
	a.logger.LogFlush(a.m.ctx, err)
	return err
}

// Dims returns the extents of the array.
func (a *Array[T]) Dims() Dims { return a.layout.Dims() }

// Len returns the number of pixels.
func (a *Array[T]) Len() int64 { return a.layout.Total() }

// Type returns the element type tag.
func (a *Array[T]) Type() pixel.Type { return a.tr.Type }

// IsMask reports whether the array holds bools.
func (a *Array[T]) IsMask() bool { return a.tr.Type == pixel.Bool }

// ReadOnly reports whether the array rejects mutations.
func (a *Array[T]) ReadOnly() bool { return a.readOnly }

// Contains reports whether c lies inside the array.
func (a *Array[T]) Contains(c Coord) bool { return a.layout.Contains(c) }

// UnitPowerSize returns log2 of the number of elements per unit.
func (a *Array[T]) UnitPowerSize() uint { return a.layout.UnitPower() }

// UnitSize returns the number of elements per unit.
func (a *Array[T]) UnitSize() int { return a.layout.UnitSize() }

// UnitDim returns the number of units.
func (a *Array[T]) UnitDim() int64 { return a.layout.UnitDim() }

// UnitBytes returns the encoded size of one unit.
func (a *Array[T]) UnitBytes() int64 {
	return int64(a.layout.UnitSize() * a.tr.Width)
}

// FillValue returns the value of pixels never written.
func (a *Array[T]) FillValue() T { return a.pages.fillValue() }

// SetUnitPowerSize always fails: the unit size is fixed at construction.
func (a *Array[T]) SetUnitPowerSize(uint) error { return ErrUnitSizeFixed }

// Pixels always fails: a paged array has no contiguous pixel buffer. Use
// At, Set or ReadAt instead.
func (a *Array[T]) Pixels() (any, error) { return nil, ErrBulkAccessUnsupported }

// ResidentUnits returns the number of pages of the array held in memory.
func (a *Array[T]) ResidentUnits() int { return a.m.pager.ResidentCount(a.id) }

// BackingFile returns the path of the backing file, or "" while none exists.
func (a *Array[T]) BackingFile() string {
	var path string
	_ = a.m.pager.Exclusive(func() error {
		if a.closed.Load() {
			return nil
		}
		path = a.pages.store.path()
		return nil
	})
	return path
}

func (a *Array[T]) view(id int64, fn func(u *unit.Unit[T])) error {
	if a.closed.Load() {
		return ErrClosed
	}
	return translateError(a.m.pager.View(a.id, id, func(pg pager.Page) error {
		fn(pg.(*unit.Unit[T]))
		return nil
	}))
}

func (a *Array[T]) update(id int64, fn func(u *unit.Unit[T]) bool) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if a.readOnly {
		return ErrReadOnly
	}
	return translateError(a.m.pager.Update(a.id, id, func(pg pager.Page) (bool, error) {
		return fn(pg.(*unit.Unit[T])), nil
	}))
}

// putUnit installs u as the dirty page id.
func (a *Array[T]) putUnit(id int64, u *unit.Unit[T]) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if a.readOnly {
		return ErrReadOnly
	}
	return translateError(a.m.pager.SetUnit(a.id, id, u, true))
}

// each visits every unit in ascending order with its number of valid
// elements until fn returns false.
func (a *Array[T]) each(fn func(id int64, u *unit.Unit[T], n int) bool) error {
	for id := range a.layout.UnitDim() {
		more := true
		if err := a.view(id, func(u *unit.Unit[T]) {
			more = fn(id, u, a.layout.ValidLen(id))
		}); err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// readRange copies len(dst) elements starting at start into dst.
func (a *Array[T]) readRange(start int64, dst []T) error {
	for len(dst) > 0 {
		id, off, err := a.layout.Locate(start)
		if err != nil {
			return err
		}
		var n int
		if err := a.view(id, func(u *unit.Unit[T]) {
			n = copy(dst, u.Values()[off:a.layout.ValidLen(id)])
		}); err != nil {
			return err
		}
		dst = dst[n:]
		start += int64(n)
	}
	return nil
}
