package pager

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/largearray/internal/resource"
)

type testPage struct {
	value int
	size  int64
}

func (p *testPage) SizeBytes() int64 { return p.size }

type testOwner struct {
	stored   map[int64]int
	loads    int
	stores   int
	failLoad error
	failSave error
}

func newTestOwner() *testOwner {
	return &testOwner{stored: make(map[int64]int)}
}

func (o *testOwner) LoadUnit(id int64) (Page, error) {
	if o.failLoad != nil {
		return nil, o.failLoad
	}
	o.loads++
	return &testPage{value: o.stored[id], size: 8}, nil
}

func (o *testOwner) StoreUnit(id int64, p Page) error {
	if o.failSave != nil {
		return o.failSave
	}
	o.stores++
	o.stored[id] = p.(*testPage).value
	return nil
}

func set(t *testing.T, p *Pager, id uint64, unit int64, v int) {
	t.Helper()
	require.NoError(t, p.Update(id, unit, func(pg Page) (bool, error) {
		pg.(*testPage).value = v
		return true, nil
	}))
}

func get(t *testing.T, p *Pager, id uint64, unit int64) int {
	t.Helper()
	var v int
	require.NoError(t, p.View(id, unit, func(pg Page) error {
		v = pg.(*testPage).value
		return nil
	}))
	return v
}

func TestPager_LoadOnMissAndHit(t *testing.T) {
	p := New(Config{MaxResidentUnits: 4})
	o := newTestOwner()
	o.stored[3] = 42
	id, err := p.Register(o)
	require.NoError(t, err)

	assert.Equal(t, 42, get(t, p, id, 3))
	assert.Equal(t, 42, get(t, p, id, 3))
	assert.Equal(t, 1, o.loads)

	s := p.Stats()
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.Equal(t, 1, s.Resident)
}

func TestPager_EvictsLRUAndWritesBackDirty(t *testing.T) {
	p := New(Config{MaxResidentUnits: 2})
	o := newTestOwner()
	id, err := p.Register(o)
	require.NoError(t, err)

	set(t, p, id, 0, 10)
	set(t, p, id, 1, 11)
	_ = get(t, p, id, 0) // unit 1 becomes least recently used
	set(t, p, id, 2, 12)

	resident, _ := p.Resident(id, 1)
	assert.False(t, resident)
	assert.Equal(t, 11, o.stored[1])
	assert.Equal(t, 2, p.Stats().Resident)

	// Reloading gives back the written-back value.
	assert.Equal(t, 11, get(t, p, id, 1))
	assert.Equal(t, uint64(2), p.Stats().Evictions)
}

func TestPager_BudgetSharedAcrossOwners(t *testing.T) {
	p := New(Config{MaxResidentUnits: 3})
	a, b := newTestOwner(), newTestOwner()
	ida, err := p.Register(a)
	require.NoError(t, err)
	idb, err := p.Register(b)
	require.NoError(t, err)

	for u := range int64(3) {
		set(t, p, ida, u, int(u)+1)
	}
	for u := range int64(3) {
		set(t, p, idb, u, int(u)+100)
		assert.LessOrEqual(t, p.Stats().Resident, 3)
	}
	assert.Equal(t, 0, p.ResidentCount(ida))
	assert.Equal(t, 3, p.ResidentCount(idb))
	assert.Equal(t, map[int64]int{0: 1, 1: 2, 2: 3}, a.stored)
}

func TestPager_ShrinkBudget(t *testing.T) {
	p := New(Config{MaxResidentUnits: 8})
	o := newTestOwner()
	id, err := p.Register(o)
	require.NoError(t, err)

	for u := range int64(8) {
		set(t, p, id, u, int(u)*2)
	}
	require.NoError(t, p.SetMaxResidentUnits(1))
	assert.Equal(t, 1, p.Stats().Resident)
	assert.Len(t, o.stored, 7)

	for u := range int64(8) {
		assert.Equal(t, int(u)*2, get(t, p, id, u))
	}
	assert.ErrorIs(t, p.SetMaxResidentUnits(0), ErrInvalidBudget)
}

func TestPager_ByteLimit(t *testing.T) {
	budget := resource.NewBudget(resource.Config{MemoryLimit: 16})
	p := New(Config{Budget: budget})
	o := newTestOwner()
	id, err := p.Register(o)
	require.NoError(t, err)

	for u := range int64(5) {
		set(t, p, id, u, int(u))
		assert.LessOrEqual(t, budget.Resident(), int64(16))
	}
	assert.Equal(t, 2, p.Stats().Resident)

	err = p.SetUnit(id, 9, &testPage{size: 32}, true)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
}

func TestPager_SetUnit(t *testing.T) {
	p := New(Config{MaxResidentUnits: 4})
	o := newTestOwner()
	id, err := p.Register(o)
	require.NoError(t, err)

	require.NoError(t, p.SetUnit(id, 0, &testPage{value: 5, size: 8}, false))
	resident, dirty := p.Resident(id, 0)
	assert.True(t, resident)
	assert.False(t, dirty)

	require.NoError(t, p.SetUnit(id, 0, &testPage{value: 6, size: 8}, true))
	_, dirty = p.Resident(id, 0)
	assert.True(t, dirty)
	assert.Equal(t, 6, get(t, p, id, 0))
	assert.Equal(t, 1, p.Stats().Dirty)

	set(t, p, id, 1, 1)
	require.NoError(t, p.Reset(id, func() error { return nil }))
	resident, _ = p.Resident(id, 0)
	assert.False(t, resident)
	assert.Zero(t, p.ResidentCount(id))
	assert.Zero(t, p.Stats().Dirty)
	assert.Empty(t, o.stored)
}

func TestPager_Flush(t *testing.T) {
	p := New(Config{MaxResidentUnits: 4})
	o := newTestOwner()
	id, err := p.Register(o)
	require.NoError(t, err)

	set(t, p, id, 0, 1)
	set(t, p, id, 3, 4)
	_ = get(t, p, id, 2)
	require.NoError(t, p.Flush(id))
	assert.Equal(t, map[int64]int{0: 1, 3: 4}, o.stored)
	assert.Equal(t, 2, o.stores)

	_, dirty := p.Resident(id, 3)
	assert.False(t, dirty)

	require.NoError(t, p.Flush(id))
	assert.Equal(t, 2, o.stores)
}

func TestPager_FlushAll(t *testing.T) {
	p := New(Config{Budget: resource.NewBudget(resource.Config{Workers: 4})})

	owners := make([]*testOwner, 5)
	for i := range owners {
		owners[i] = newTestOwner()
		id, err := p.Register(owners[i])
		require.NoError(t, err)
		set(t, p, id, 0, i+1)
	}
	require.NoError(t, p.FlushAll(context.Background()))
	for i, o := range owners {
		assert.Equal(t, i+1, o.stored[0])
	}
	assert.Zero(t, p.Stats().Dirty)
}

func TestPager_WriteBackFailureKeepsPage(t *testing.T) {
	p := New(Config{MaxResidentUnits: 1})
	o := newTestOwner()
	id, err := p.Register(o)
	require.NoError(t, err)

	set(t, p, id, 0, 7)
	o.failSave = errors.New("disk full")

	err = p.Update(id, 1, func(Page) (bool, error) { return false, nil })
	require.ErrorContains(t, err, "disk full")

	resident, dirty := p.Resident(id, 0)
	assert.True(t, resident)
	assert.True(t, dirty)

	o.failSave = nil
	require.NoError(t, p.Flush(id))
	assert.Equal(t, 7, o.stored[0])
}

func TestPager_LoadFailure(t *testing.T) {
	p := New(Config{MaxResidentUnits: 1})
	o := newTestOwner()
	o.failLoad = errors.New("io")
	id, err := p.Register(o)
	require.NoError(t, err)

	err = p.View(id, 0, func(Page) error { return nil })
	assert.ErrorContains(t, err, "io")
	assert.Zero(t, p.Stats().Resident)
}

func TestPager_DeregisterAndClose(t *testing.T) {
	p := New(Config{MaxResidentUnits: 4})
	o := newTestOwner()
	id, err := p.Register(o)
	require.NoError(t, err)
	set(t, p, id, 0, 1)

	released := 0
	require.NoError(t, p.Deregister(id, func() error {
		released++
		return nil
	}))
	assert.Equal(t, 1, released)
	assert.Empty(t, o.stored)
	assert.Zero(t, p.Stats().Resident)
	assert.ErrorIs(t, p.View(id, 0, func(Page) error { return nil }), ErrNotRegistered)
	require.NoError(t, p.Deregister(id, nil))
	assert.ErrorIs(t, p.Deregister(id, func() error { return errors.ErrUnsupported }), errors.ErrUnsupported)

	p.Close()
	_, err = p.Register(o)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPager_ConcurrentUpdates(t *testing.T) {
	p := New(Config{MaxResidentUnits: 2})
	o := newTestOwner()
	id, err := p.Register(o)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				unit := int64((w + i) % 5)
				_ = p.Update(id, unit, func(pg Page) (bool, error) {
					pg.(*testPage).value++
					return true, nil
				})
			}
		}()
	}
	wg.Wait()

	total := 0
	for u := range int64(5) {
		total += get(t, p, id, u)
	}
	assert.Equal(t, 800, total)
	assert.LessOrEqual(t, p.Stats().Resident, 2)
}

func TestPager_Reset(t *testing.T) {
	p := New(Config{MaxResidentUnits: 4})
	o := newTestOwner()
	id, err := p.Register(o)
	require.NoError(t, err)

	set(t, p, id, 0, 3)
	set(t, p, id, 1, 4)

	require.NoError(t, p.Reset(id, func() error {
		o.stored = map[int64]int{0: 9, 1: 9}
		return nil
	}))
	assert.Equal(t, 0, p.ResidentCount(id))
	assert.Equal(t, 0, o.stores)
	assert.Equal(t, 9, get(t, p, id, 1))

	assert.ErrorIs(t, p.Reset(id+1, func() error { return nil }), ErrNotRegistered)
}

func TestPager_DiscardUnit(t *testing.T) {
	p := New(Config{MaxResidentUnits: 4})
	o := newTestOwner()
	o.stored[1] = 5
	id, err := p.Register(o)
	require.NoError(t, err)

	set(t, p, id, 1, 9)
	set(t, p, id, 2, 3)
	p.DiscardUnit(id, 1)
	p.DiscardUnit(id, 7)

	resident, _ := p.Resident(id, 1)
	assert.False(t, resident)
	assert.Equal(t, 1, p.ResidentCount(id))
	assert.Equal(t, 1, p.Stats().Dirty)
	assert.Equal(t, 0, o.stores)

	assert.Equal(t, 5, get(t, p, id, 1))
	assert.Equal(t, 3, get(t, p, id, 2))
}
