package pager

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/largearray/internal/resource"
)

var (
	// ErrNotRegistered is returned for an unknown owner id.
	ErrNotRegistered = errors.New("pager: owner not registered")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("pager: closed")

	// ErrInvalidBudget is returned for a unit budget below one page.
	ErrInvalidBudget = errors.New("pager: budget must allow at least one resident page")
)

// Page is a resident unit.
type Page interface {
	SizeBytes() int64
}

// Owner loads and persists the pages of one array.
type Owner interface {
	// LoadUnit materializes page id from the owner's store.
	LoadUnit(id int64) (Page, error)
	// StoreUnit persists a dirty page.
	StoreUnit(id int64, p Page) error
}

// Recorder receives paging events.
type Recorder interface {
	RecordLoad(bytes int64, d time.Duration, err error)
	RecordEviction(dirty bool, err error)
	RecordFlush(units int, d time.Duration, err error)
}

// Key identifies a page across all owners.
type Key struct {
	Owner uint64
	Unit  int64
}

// Config configures a Pager.
type Config struct {
	// MaxResidentUnits bounds the number of resident pages. 0 means
	// unbounded (only the byte limit applies).
	MaxResidentUnits int
	// Budget accounts resident bytes against its memory limit.
	Budget   *resource.Budget
	Logger   *slog.Logger
	Recorder Recorder
}

// Stats is a snapshot of pager counters.
type Stats struct {
	Owners        int
	Resident      int
	Dirty         int
	ResidentBytes int64
	PeakBytes     int64
	MaxResident   int
	Loads         uint64
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	Writebacks    uint64
}

type registration struct {
	owner    Owner
	dirty    *roaring64.Bitmap
	resident int
}

type entry struct {
	key   Key
	page  Page
	size  int64
	dirty bool
}

// Pager is the shared page table.
type Pager struct {
	mu       sync.Mutex
	maxUnits int
	budget   *resource.Budget
	logger   *slog.Logger
	rec      Recorder

	owners map[uint64]*registration
	items  map[Key]*list.Element
	lru    *list.List // front is most recently used
	nextID uint64
	closed bool

	loads      atomic.Uint64
	hits       atomic.Uint64
	misses     atomic.Uint64
	evictions  atomic.Uint64
	writebacks atomic.Uint64
}

// New creates a Pager.
func New(cfg Config) *Pager {
	maxUnits := cfg.MaxResidentUnits
	if maxUnits <= 0 {
		maxUnits = math.MaxInt
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = noopRecorder{}
	}
	return &Pager{
		maxUnits: maxUnits,
		budget:   cfg.Budget,
		logger:   logger,
		rec:      rec,
		owners:   make(map[uint64]*registration),
		items:    make(map[Key]*list.Element),
		lru:      list.New(),
	}
}

// Register adds an owner and returns its registration id.
func (p *Pager) Register(o Owner) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrClosed
	}
	p.nextID++
	p.owners[p.nextID] = &registration{owner: o, dirty: roaring64.New()}
	return p.nextID, nil
}

// Deregister discards every resident page of the owner without writing it
// back, forgets the owner and runs release, if not nil, under the pager
// lock. Unknown ids are still released.
func (p *Pager) Deregister(id uint64, release func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.owners[id]; ok {
		p.discardAllLocked(id)
		delete(p.owners, id)
	}
	if release == nil {
		return nil
	}
	return release()
}

// View runs fn on page unit of owner id, loading it if absent.
func (p *Pager) View(id uint64, unit int64, fn func(Page) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pg, _, err := p.fetchLocked(Key{Owner: id, Unit: unit})
	if err != nil {
		return err
	}
	return fn(pg)
}

// Update runs fn on page unit of owner id, loading it if absent, and marks
// the page dirty when fn reports a modification.
func (p *Pager) Update(id uint64, unit int64, fn func(Page) (bool, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := Key{Owner: id, Unit: unit}
	pg, e, err := p.fetchLocked(key)
	if err != nil {
		return err
	}
	modified, err := fn(pg)
	if modified && !e.dirty {
		e.dirty = true
		p.owners[id].dirty.Add(uint64(unit))
	}
	return err
}

// SetUnit installs pg as page unit of owner id. A page replacing a different
// resident page supersedes it, dirty or not.
func (p *Pager) SetUnit(id uint64, unit int64, pg Page, modified bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	return p.installLocked(Key{Owner: id, Unit: unit}, pg, modified)
}

// Reset drops every resident page of owner id without writing back and runs
// fn under the pager lock, so no page of the owner is loaded until fn has
// replaced the owner's store content.
func (p *Pager) Reset(id uint64, fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.owners[id]; !ok {
		return fmt.Errorf("%w: %d", ErrNotRegistered, id)
	}
	p.discardAllLocked(id)
	return fn()
}

// DiscardUnit drops page unit of owner id without writing it back. The next
// access reloads it from the owner's store. Absent pages are ignored.
func (p *Pager) DiscardUnit(id uint64, unit int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if elem, ok := p.items[Key{Owner: id, Unit: unit}]; ok {
		p.dropLocked(elem)
	}
}

// Exclusive runs fn with the pager lock held, serializing it against every
// page operation.
func (p *Pager) Exclusive(fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return fn()
}

// Flush writes back every dirty page of owner id in ascending unit order.
func (p *Pager) Flush(id uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.flushLocked(id)
}

// FlushAll writes back the dirty pages of every owner. Owners are flushed
// concurrently, bounded by the controller's background worker limit.
func (p *Pager) FlushAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.budget.Workers())
	for id, reg := range p.owners {
		if reg.dirty.IsEmpty() {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return p.flushLocked(id)
		})
	}
	return g.Wait()
}

// SetMaxResidentUnits changes the unit budget and evicts down to it.
func (p *Pager) SetMaxResidentUnits(n int) error {
	if n < 1 {
		return ErrInvalidBudget
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.maxUnits = n
	return p.shrinkLocked(Key{Owner: 0, Unit: -1})
}

// Resident reports whether page unit of owner id is resident and dirty.
func (p *Pager) Resident(id uint64, unit int64) (resident, dirty bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elem, ok := p.items[Key{Owner: id, Unit: unit}]
	if !ok {
		return false, false
	}
	return true, elem.Value.(*entry).dirty
}

// ResidentCount returns the number of resident pages of owner id.
func (p *Pager) ResidentCount(id uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if reg, ok := p.owners[id]; ok {
		return reg.resident
	}
	return 0
}

// Stats returns a snapshot of the pager counters.
func (p *Pager) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Owners:        len(p.owners),
		Resident:      p.lru.Len(),
		ResidentBytes: p.budget.Resident(),
		PeakBytes:     p.budget.Peak(),
		MaxResident:   p.maxUnits,
		Loads:         p.loads.Load(),
		Hits:          p.hits.Load(),
		Misses:        p.misses.Load(),
		Evictions:     p.evictions.Load(),
		Writebacks:    p.writebacks.Load(),
	}
	for _, reg := range p.owners {
		s.Dirty += int(reg.dirty.GetCardinality())
	}
	return s
}

// Close drops every page and owner. Later registrations fail.
func (p *Pager) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id := range p.owners {
		p.discardAllLocked(id)
	}
	clear(p.owners)
	p.closed = true
}

func (p *Pager) fetchLocked(key Key) (Page, *entry, error) {
	if elem, ok := p.items[key]; ok {
		p.hits.Add(1)
		p.lru.MoveToFront(elem)
		e := elem.Value.(*entry)
		return e.page, e, nil
	}
	p.misses.Add(1)

	reg, ok := p.owners[key.Owner]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrNotRegistered, key.Owner)
	}

	start := time.Now()
	pg, err := reg.owner.LoadUnit(key.Unit)
	if err != nil {
		p.rec.RecordLoad(0, time.Since(start), err)
		return nil, nil, err
	}
	p.loads.Add(1)
	p.rec.RecordLoad(pg.SizeBytes(), time.Since(start), nil)
	p.logger.Debug("page loaded", "owner", key.Owner, "unit", key.Unit)

	if err := p.installLocked(key, pg, false); err != nil {
		return nil, nil, err
	}
	return pg, p.items[key].Value.(*entry), nil
}

func (p *Pager) installLocked(key Key, pg Page, modified bool) error {
	reg, ok := p.owners[key.Owner]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotRegistered, key.Owner)
	}

	if elem, ok := p.items[key]; ok {
		e := elem.Value.(*entry)
		if e.page == pg {
			p.lru.MoveToFront(elem)
			if modified && !e.dirty {
				e.dirty = true
				reg.dirty.Add(uint64(key.Unit))
			}
			return nil
		}
		p.dropLocked(elem)
	}

	size := pg.SizeBytes()
	for !p.budget.Reserve(size) {
		evicted, err := p.evictOneLocked(key)
		if err != nil {
			return err
		}
		if !evicted {
			return fmt.Errorf("%w: page of %d bytes does not fit in %d",
				resource.ErrMemoryLimitExceeded, size, p.budget.Limit())
		}
	}

	p.items[key] = p.lru.PushFront(&entry{key: key, page: pg, size: size, dirty: modified})
	reg.resident++
	if modified {
		reg.dirty.Add(uint64(key.Unit))
	}
	return p.shrinkLocked(key)
}

func (p *Pager) shrinkLocked(pin Key) error {
	for p.lru.Len() > p.maxUnits {
		evicted, err := p.evictOneLocked(pin)
		if err != nil {
			return err
		}
		if !evicted {
			return nil
		}
	}
	return nil
}

// evictOneLocked evicts the least recently used page other than pin. It
// reports false when no such page exists. A victim that fails to write back
// stays resident.
func (p *Pager) evictOneLocked(pin Key) (bool, error) {
	elem := p.lru.Back()
	if elem != nil && elem.Value.(*entry).key == pin {
		elem = elem.Prev()
	}
	if elem == nil {
		return false, nil
	}
	e := elem.Value.(*entry)
	if e.dirty {
		if err := p.writeBackLocked(e); err != nil {
			p.rec.RecordEviction(true, err)
			p.logger.Error("page write-back failed", "owner", e.key.Owner, "unit", e.key.Unit, "error", err)
			return false, err
		}
	}
	p.rec.RecordEviction(e.dirty, nil)
	p.logger.Debug("page evicted", "owner", e.key.Owner, "unit", e.key.Unit, "dirty", e.dirty)
	p.evictions.Add(1)
	p.dropLocked(elem)
	return true, nil
}

func (p *Pager) writeBackLocked(e *entry) error {
	reg := p.owners[e.key.Owner]
	if err := reg.owner.StoreUnit(e.key.Unit, e.page); err != nil {
		return err
	}
	e.dirty = false
	reg.dirty.Remove(uint64(e.key.Unit))
	p.writebacks.Add(1)
	return nil
}

func (p *Pager) flushLocked(id uint64) error {
	reg, ok := p.owners[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotRegistered, id)
	}
	start := time.Now()
	units := reg.dirty.ToArray()
	n := 0
	for _, u := range units {
		elem, ok := p.items[Key{Owner: id, Unit: int64(u)}]
		if !ok {
			continue
		}
		if err := p.writeBackLocked(elem.Value.(*entry)); err != nil {
			p.rec.RecordFlush(n, time.Since(start), err)
			return err
		}
		n++
	}
	p.rec.RecordFlush(n, time.Since(start), nil)
	return nil
}

func (p *Pager) dropLocked(elem *list.Element) {
	e := elem.Value.(*entry)
	p.lru.Remove(elem)
	delete(p.items, e.key)
	p.budget.Release(e.size)
	if reg, ok := p.owners[e.key.Owner]; ok {
		reg.resident--
		reg.dirty.Remove(uint64(e.key.Unit))
	}
}

func (p *Pager) discardAllLocked(id uint64) {
	reg, ok := p.owners[id]
	if !ok || reg.resident == 0 {
		return
	}
	for elem := p.lru.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*entry).key.Owner == id {
			p.dropLocked(elem)
		}
		elem = next
	}
}

type noopRecorder struct{}

func (noopRecorder) RecordLoad(int64, time.Duration, error) {}
func (noopRecorder) RecordEviction(bool, error)             {}
func (noopRecorder) RecordFlush(int, time.Duration, error)  {}
