package largearray

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting paging metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Methods are called with the manager's page table locked, except
// RecordSave and RecordRestore, and may run concurrently during FlushAll.
type MetricsCollector interface {
	// RecordLoad is called after a page is materialized from its store.
	RecordLoad(bytes int64, duration time.Duration, err error)

	// RecordEviction is called for every eviction attempt. dirty reports
	// whether the victim had to be written back.
	RecordEviction(dirty bool, err error)

	// RecordFlush is called after the dirty pages of one array were written.
	RecordFlush(units int, duration time.Duration, err error)

	// RecordSave is called after an array was serialized.
	RecordSave(bytes int64, duration time.Duration, err error)

	// RecordRestore is called after an array was deserialized.
	RecordRestore(pages int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int64, time.Duration, error)    {}
func (NoopMetricsCollector) RecordEviction(bool, error)                {}
func (NoopMetricsCollector) RecordFlush(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordSave(int64, time.Duration, error)    {}
func (NoopMetricsCollector) RecordRestore(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	LoadCount      atomic.Int64
	LoadErrors     atomic.Int64
	LoadBytes      atomic.Int64
	LoadTotalNanos atomic.Int64
	EvictionCount  atomic.Int64
	DirtyEvictions atomic.Int64
	EvictionErrors atomic.Int64
	FlushCount     atomic.Int64
	FlushedUnits   atomic.Int64
	FlushErrors    atomic.Int64
	SaveCount      atomic.Int64
	SavedBytes     atomic.Int64
	SaveErrors     atomic.Int64
	RestoreCount   atomic.Int64
	RestoredPages  atomic.Int64
	RestoreErrors  atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(bytes int64, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadBytes.Add(bytes)
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(dirty bool, err error) {
	if err != nil {
		b.EvictionErrors.Add(1)
		return
	}
	b.EvictionCount.Add(1)
	if dirty {
		b.DirtyEvictions.Add(1)
	}
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(units int, _ time.Duration, err error) {
	b.FlushCount.Add(1)
	b.FlushedUnits.Add(int64(units))
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int64, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	b.SavedBytes.Add(bytes)
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// RecordRestore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestore(pages int64, _ time.Duration, err error) {
	b.RestoreCount.Add(1)
	b.RestoredPages.Add(pages)
	if err != nil {
		b.RestoreErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		LoadBytes:      b.LoadBytes.Load(),
		LoadAvgNanos:   b.getAvgLoadNanos(),
		EvictionCount:  b.EvictionCount.Load(),
		DirtyEvictions: b.DirtyEvictions.Load(),
		EvictionErrors: b.EvictionErrors.Load(),
		FlushCount:     b.FlushCount.Load(),
		FlushedUnits:   b.FlushedUnits.Load(),
		FlushErrors:    b.FlushErrors.Load(),
		SaveCount:      b.SaveCount.Load(),
		SavedBytes:     b.SavedBytes.Load(),
		SaveErrors:     b.SaveErrors.Load(),
		RestoreCount:   b.RestoreCount.Load(),
		RestoredPages:  b.RestoredPages.Load(),
		RestoreErrors:  b.RestoreErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgLoadNanos() int64 {
	count := b.LoadCount.Load()
	if count == 0 {
		return 0
	}
	return b.LoadTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount      int64
	LoadErrors     int64
	LoadBytes      int64
	LoadAvgNanos   int64
	EvictionCount  int64
	DirtyEvictions int64
	EvictionErrors int64
	FlushCount     int64
	FlushedUnits   int64
	FlushErrors    int64
	SaveCount      int64
	SavedBytes     int64
	SaveErrors     int64
	RestoreCount   int64
	RestoredPages  int64
	RestoreErrors  int64
}
