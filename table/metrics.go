package table

import "time"

// MetricsCollector receives operational metrics from a table.
// Implementations must be safe for concurrent use.
type MetricsCollector interface {
	// RecordInsert is called after each inserted row.
	RecordInsert(duration time.Duration)

	// RecordDelete is called after each delete attempt. err is non-nil if the
	// row was not part of the table.
	RecordDelete(duration time.Duration, err error)

	// RecordUpdate is called after a row mutation has been reindexed.
	RecordUpdate(duration time.Duration)

	// RecordQuery is called after each Find/FindAll. fullScan reports whether
	// the candidates were the whole table, results is the number of rows returned.
	RecordQuery(fullScan bool, candidates, results int, duration time.Duration)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration)                {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)         {}
func (NoopMetricsCollector) RecordUpdate(time.Duration)                {}
func (NoopMetricsCollector) RecordQuery(bool, int, int, time.Duration) {}
