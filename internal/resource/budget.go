package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a single page does not fit in the
// byte budget even with every other page evicted.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds the budget limits. Zero means unlimited.
type Config struct {
	// MemoryLimit caps the bytes of resident pages.
	MemoryLimit int64

	// Workers bounds concurrent page writers during a flush. Values below
	// one mean one.
	Workers int

	// IOBytesPerSec caps backing-file throughput.
	IOBytesPerSec int64
}

// Budget accounts resident page bytes and throttles backing-file IO.
type Budget struct {
	limit   int64
	workers int

	pages    *semaphore.Weighted
	resident atomic.Int64
	peak     atomic.Int64

	io *rate.Limiter
}

// NewBudget returns a Budget enforcing cfg.
func NewBudget(cfg Config) *Budget {
	b := &Budget{
		limit:   max(cfg.MemoryLimit, 0),
		workers: max(cfg.Workers, 1),
	}
	if b.limit > 0 {
		b.pages = semaphore.NewWeighted(b.limit)
	}
	if cfg.IOBytesPerSec > 0 {
		b.io = rate.NewLimiter(rate.Limit(cfg.IOBytesPerSec), int(cfg.IOBytesPerSec))
	}
	return b
}

// Reserve accounts n bytes of a page about to become resident. It reports
// false, reserving nothing, when the limit would be exceeded.
func (b *Budget) Reserve(n int64) bool {
	if b == nil || n <= 0 {
		return true
	}
	if b.pages != nil && !b.pages.TryAcquire(n) {
		return false
	}
	cur := b.resident.Add(n)
	for {
		p := b.peak.Load()
		if cur <= p || b.peak.CompareAndSwap(p, cur) {
			return true
		}
	}
}

// Release returns n bytes of an evicted or dropped page.
func (b *Budget) Release(n int64) {
	if b == nil || n <= 0 {
		return
	}
	if b.pages != nil {
		b.pages.Release(n)
	}
	b.resident.Add(-n)
}

// Resident returns the reserved bytes.
func (b *Budget) Resident() int64 {
	if b == nil {
		return 0
	}
	return b.resident.Load()
}

// Peak returns the highest Resident value seen.
func (b *Budget) Peak() int64 {
	if b == nil {
		return 0
	}
	return b.peak.Load()
}

// Limit returns the byte limit, 0 when unlimited.
func (b *Budget) Limit() int64 {
	if b == nil {
		return 0
	}
	return b.limit
}

// Workers returns the flush parallelism.
func (b *Budget) Workers() int {
	if b == nil {
		return 1
	}
	return b.workers
}

// Throttle blocks until n bytes of backing-file IO are allowed or ctx is
// done. Requests above the bucket size wait in bucket-sized steps.
func (b *Budget) Throttle(ctx context.Context, n int) error {
	if b == nil || b.io == nil {
		return nil
	}
	step := b.io.Burst()
	for n > 0 {
		k := min(n, step)
		if err := b.io.WaitN(ctx, k); err != nil {
			return err
		}
		n -= k
	}
	return nil
}
