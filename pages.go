package largearray

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/largearray/internal/addressing"
	"github.com/hupe1980/largearray/internal/backing"
	"github.com/hupe1980/largearray/internal/pager"
	"github.com/hupe1980/largearray/internal/unit"
	"github.com/hupe1980/largearray/pixel"
)

// pageStore is where the pages of one array live while not resident. All
// methods are called with the page table locked.
type pageStore[T pixel.Element] interface {
	// load overwrites u with the persisted content of page id, if any.
	load(id int64, u *unit.Unit[T]) error
	store(id int64, u *unit.Unit[T]) error
	reset(fill T) error
	path() string
	close() error
}

// pages is the pager.Owner of one array. It never references the Array, so
// an unreachable Array can be released by its cleanup.
type pages[T pixel.Element] struct {
	layout addressing.Layout
	store  pageStore[T]

	mu   sync.Mutex
	fill T
}

var _ pager.Owner = (*pages[uint8])(nil)

func (p *pages[T]) fillValue() T {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.fill
}

func (p *pages[T]) setFill(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fill = v
}

// LoadUnit implements pager.Owner.
func (p *pages[T]) LoadUnit(id int64) (pager.Page, error) {
	u := unit.NewFilled(p.layout.UnitSize(), p.fillValue(), p.layout.ValidLen(id))
	if err := p.store.load(id, u); err != nil {
		return nil, err
	}
	return u, nil
}

// StoreUnit implements pager.Owner.
func (p *pages[T]) StoreUnit(id int64, pg pager.Page) error {
	return p.store.store(id, pg.(*unit.Unit[T]))
}

// fileStore keeps pages in a lazily created temporary file.
type fileStore[T pixel.Element] struct {
	file *backing.File
	size int
	buf  []byte
}

func newFileStore[T pixel.Element](m *Manager, layout addressing.Layout, fill T) *fileStore[T] {
	tr := pixel.Of[T]()
	size := layout.UnitSize()
	return &fileStore[T]{
		file: backing.New(backing.Config{
			Dir:       m.tempDir,
			Ext:       tr.Type.Ext(),
			UnitBytes: int64(size * tr.Width),
			UnitDim:   layout.UnitDim(),
			FillPage:  fillPage(size, fill),
			Budget:    m.budget,
			Context:   m.ctx,
		}),
		size: size,
	}
}

// fillPage returns the encoding of a page holding only v, or nil for the
// zero value.
func fillPage[T pixel.Element](size int, v T) []byte {
	if pixel.Of[T]().IsZero(v) {
		return nil
	}
	b, _ := unit.NewFilled(size, v, size).MarshalBinary()
	return b
}

func (s *fileStore[T]) scratch() []byte {
	if s.buf == nil {
		s.buf = make([]byte, s.size*pixel.Of[T]().Width)
	}
	return s.buf
}

func (s *fileStore[T]) load(id int64, u *unit.Unit[T]) error {
	buf := s.scratch()
	ok, err := s.file.ReadUnit(id, buf)
	if err != nil || !ok {
		return err
	}
	return u.UnmarshalBinary(buf)
}

func (s *fileStore[T]) store(id int64, u *unit.Unit[T]) error {
	b, err := u.AppendBinary(s.scratch()[:0])
	if err != nil {
		return err
	}
	return s.file.WriteUnit(id, b)
}

func (s *fileStore[T]) reset(fill T) error {
	return s.file.Reset(fillPage(s.size, fill))
}

func (s *fileStore[T]) path() string { return s.file.Path() }

func (s *fileStore[T]) close() error { return s.file.Close() }

// sourceStore serves pages from a read-only Source.
type sourceStore[T pixel.Element] struct {
	src    Source[T]
	layout addressing.Layout
}

func (s *sourceStore[T]) load(id int64, u *unit.Unit[T]) error {
	n := s.layout.ValidLen(id)
	got, err := s.src.ReadAt(u.Values()[:n], s.layout.UnitStart(id))
	if got == n && (err == nil || errors.Is(err, io.EOF)) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("largearray: read unit %d from source: %d of %d elements: %w", id, got, n, err)
}

func (s *sourceStore[T]) store(int64, *unit.Unit[T]) error { return ErrReadOnly }

func (s *sourceStore[T]) reset(T) error { return ErrReadOnly }

func (s *sourceStore[T]) path() string { return "" }

func (s *sourceStore[T]) close() error { return nil }
