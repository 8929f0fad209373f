package textcache

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordBuild is called after each split build.
	// samples is the number of records written before the build finished
	// or failed.
	RecordBuild(split string, samples int, duration time.Duration, err error)

	// RecordSkip is called when a build finds an existing cache.
	RecordSkip()

	// RecordGet is called after each random-access read.
	RecordGet(duration time.Duration, err error)

	// RecordTransfer is called after each publish or fetch of a split.
	RecordTransfer(op string, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(string, int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordSkip()                                        {}
func (NoopMetricsCollector) RecordGet(time.Duration, error)                     {}
func (NoopMetricsCollector) RecordTransfer(string, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildSamples    atomic.Int64
	BuildTotalNanos atomic.Int64
	SkipCount       atomic.Int64
	GetCount        atomic.Int64
	GetErrors       atomic.Int64
	GetTotalNanos   atomic.Int64
	TransferCount   atomic.Int64
	TransferErrors  atomic.Int64
	TransferBytes   atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(_ string, samples int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildSamples.Add(int64(samples))
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordSkip implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSkip() {
	b.SkipCount.Add(1)
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(duration time.Duration, err error) {
	b.GetCount.Add(1)
	b.GetTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.GetErrors.Add(1)
	}
}

// RecordTransfer implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransfer(_ string, bytes int64, _ time.Duration, err error) {
	b.TransferCount.Add(1)
	b.TransferBytes.Add(bytes)
	if err != nil {
		b.TransferErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:     b.BuildCount.Load(),
		BuildErrors:    b.BuildErrors.Load(),
		BuildSamples:   b.BuildSamples.Load(),
		SkipCount:      b.SkipCount.Load(),
		GetCount:       b.GetCount.Load(),
		GetErrors:      b.GetErrors.Load(),
		GetAvgNanos:    b.getAvgGetNanos(),
		TransferCount:  b.TransferCount.Load(),
		TransferErrors: b.TransferErrors.Load(),
		TransferBytes:  b.TransferBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgGetNanos() int64 {
	count := b.GetCount.Load()
	if count == 0 {
		return 0
	}
	return b.GetTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount     int64
	BuildErrors    int64
	BuildSamples   int64
	SkipCount      int64
	GetCount       int64
	GetErrors      int64
	GetAvgNanos    int64
	TransferCount  int64
	TransferErrors int64
	TransferBytes  int64
}
