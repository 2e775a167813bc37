package kangaroo

import (
	"log/slog"

	"github.com/hupe1980/kangaroo/storage"
	"github.com/hupe1980/kangaroo/table"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	storage          storage.Storage
	flushOnClose     bool
	tableOptions     []table.Option
}

// Option configures a Bucket.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := kangaroo.NewJSONLogger(slog.LevelInfo)
//	b := kangaroo.New(kangaroo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector shared by all tables
// the bucket creates or loads. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &kangaroo.BasicMetricsCollector{}
//	b := kangaroo.New(kangaroo.WithMetricsCollector(metrics))
//	// ... use b ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, full scans: %d\n", stats.QueryCount, stats.QueryFullScans)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithStorage sets the backend used by Dump and Load.
func WithStorage(s storage.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithFlushOnClose makes Close dump the bucket before releasing the storage.
func WithFlushOnClose(flush bool) Option {
	return func(o *options) {
		o.flushOnClose = flush
	}
}

// WithTableOptions sets additional options for every table the bucket
// creates or loads.
func WithTableOptions(opts ...table.Option) Option {
	return func(o *options) {
		o.tableOptions = append(o.tableOptions, opts...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}
