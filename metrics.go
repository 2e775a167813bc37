package kangaroo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/kangaroo/table"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
// Every table of a bucket reports to the bucket's collector.
type MetricsCollector = table.MetricsCollector

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector = table.NoopMetricsCollector

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertTotalNanos atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	UpdateCount      atomic.Int64
	QueryCount       atomic.Int64
	QueryFullScans   atomic.Int64
	QueryCandidates  atomic.Int64
	QueryResults     atomic.Int64
	QueryTotalNanos  atomic.Int64
}

var _ MetricsCollector = (*BasicMetricsCollector)(nil)

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(_ time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(time.Duration) {
	b.UpdateCount.Add(1)
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(fullScan bool, candidates, results int, duration time.Duration) {
	b.QueryCount.Add(1)
	if fullScan {
		b.QueryFullScans.Add(1)
	}
	b.QueryCandidates.Add(int64(candidates))
	b.QueryResults.Add(int64(results))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:     b.InsertCount.Load(),
		InsertAvgNanos:  avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		DeleteCount:     b.DeleteCount.Load(),
		DeleteErrors:    b.DeleteErrors.Load(),
		UpdateCount:     b.UpdateCount.Load(),
		QueryCount:      b.QueryCount.Load(),
		QueryFullScans:  b.QueryFullScans.Load(),
		QueryCandidates: b.QueryCandidates.Load(),
		QueryResults:    b.QueryResults.Load(),
		QueryAvgNanos:   avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount     int64
	InsertAvgNanos  int64
	DeleteCount     int64
	DeleteErrors    int64
	UpdateCount     int64
	QueryCount      int64
	QueryFullScans  int64
	QueryCandidates int64
	QueryResults    int64
	QueryAvgNanos   int64
}
