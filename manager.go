package largearray

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/hupe1980/largearray/internal/addressing"
	"github.com/hupe1980/largearray/internal/pager"
	"github.com/hupe1980/largearray/internal/resource"
)

// Dims are the extents of an array.
type Dims = addressing.Dims

// Coord is a 5-D pixel coordinate.
type Coord = addressing.Coord

// Stats is a snapshot of the manager's page table.
type Stats = pager.Stats

// Manager owns the page budget shared by a set of arrays.
type Manager struct {
	pager   *pager.Pager
	budget  *resource.Budget
	tempDir string
	logger  *Logger
	metrics MetricsCollector

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	live   map[uint64]*release
	closed bool
}

type release struct {
	close func() error
}

// NewManager creates a Manager.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	o := managerOptions{
		maxResidentUnits:  DefaultMaxResidentUnits,
		backgroundWorkers: runtime.GOMAXPROCS(0),
		logger:            NoopLogger(),
		metricsCollector:  NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.tempDir == "" {
		o.tempDir = os.TempDir()
	}
	if err := os.MkdirAll(o.tempDir, 0o700); err != nil {
		return nil, fmt.Errorf("largearray: temp dir: %w", err)
	}
	if o.memoryLimit < 0 || o.ioLimit < 0 {
		return nil, errors.New("largearray: limits must not be negative")
	}

	budget := resource.NewBudget(resource.Config{
		MemoryLimit:   o.memoryLimit,
		Workers:       o.backgroundWorkers,
		IOBytesPerSec: o.ioLimit,
	})

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		pager: pager.New(pager.Config{
			MaxResidentUnits: o.maxResidentUnits,
			Budget:           budget,
			Logger:           o.logger.Logger,
			Recorder:         o.metricsCollector,
		}),
		budget:  budget,
		tempDir: o.tempDir,
		logger:  o.logger,
		metrics: o.metricsCollector,
		ctx:     ctx,
		cancel:  cancel,
		live:    make(map[uint64]*release),
	}, nil
}

// TempDir returns the directory backing files are created in.
func (m *Manager) TempDir() string { return m.tempDir }

// Stats returns a snapshot of the page table.
func (m *Manager) Stats() Stats {
	return m.pager.Stats()
}

// Len returns the number of open arrays.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.live)
}

// SetMaxResidentUnits changes the page budget, evicting pages until the
// resident count fits.
func (m *Manager) SetMaxResidentUnits(n int) error {
	return translateError(m.pager.SetMaxResidentUnits(n))
}

// FlushAll writes back the dirty pages of every array.
func (m *Manager) FlushAll(ctx context.Context) error {
	err := translateError(m.pager.FlushAll(ctx))
	m.logger.LogFlush(ctx, err)
	return err
}

// Close closes every open array and releases the page table. Arrays closed
// this way discard their dirty pages. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	live := m.live
	m.live = make(map[uint64]*release)
	m.mu.Unlock()

	var errs []error
	for id, r := range live {
		if err := m.pager.Deregister(id, r.close); err != nil {
			errs = append(errs, err)
		}
	}
	m.pager.Close()
	m.cancel()
	return errors.Join(errs...)
}

func (m *Manager) register(o pager.Owner, closeFn func() error) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrManagerClosed
	}
	id, err := m.pager.Register(o)
	if err != nil {
		return 0, translateError(err)
	}
	m.live[id] = &release{close: closeFn}
	return id, nil
}

// release forgets array id and removes its backing file. It reports false
// when the array was already released.
func (m *Manager) release(id uint64) (bool, error) {
	m.mu.Lock()
	r, ok := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, m.pager.Deregister(id, r.close)
}
