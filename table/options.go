package table

import "log/slog"

type options struct {
	logger  *slog.Logger
	metrics MetricsCollector
	indexes []string
}

// Option configures a Table.
type Option func(*options)

// WithLogger sets the logger used for debug output about index maintenance.
// If nil is passed, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the metrics collector.
// If nil is passed, metrics are discarded.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithIndexes creates equality indexes on the given fields.
func WithIndexes(fields ...string) Option {
	return func(o *options) {
		o.indexes = append(o.indexes, fields...)
	}
}

func defaultOptions() options {
	return options{
		logger:  slog.New(slog.DiscardHandler),
		metrics: NoopMetricsCollector{},
	}
}
