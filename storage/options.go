package storage

import (
	"log/slog"

	"github.com/hupe1980/kangaroo/codec"
	"github.com/hupe1980/kangaroo/record"
	"github.com/hupe1980/kangaroo/resource"
)

// Option configures a storage backend. Options a backend has no use for are
// ignored.
type Option func(*options)

type options struct {
	logger *slog.Logger
	rc     *resource.Controller

	// BlobStorage
	codec       codec.Codec
	compression Compression
	password    string
	retain      int

	// CSVStorage
	delimiter  rune
	useHeader  bool
	schemas    map[string]record.Schema
	indexHints map[string][]string
}

func defaultOptions() options {
	return options{
		logger:      slog.New(slog.DiscardHandler),
		codec:       codec.Default,
		compression: CompressionZstd,
		retain:      2,
		delimiter:   ',',
		useHeader:   true,
	}
}

func applyOptions(optFns []Option) options {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.New(slog.DiscardHandler)
	}
	if opts.codec == nil {
		opts.codec = codec.Default
	}
	return opts
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithResourceController bounds buffered snapshot memory and parallel IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithCodec sets the codec snapshots are encoded with. Loading always uses
// the codec recorded in the file.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithCompression sets the snapshot compression. Default: zstd.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithPassword seals snapshots with AES-256-GCM, keyed from password via PBKDF2.
func WithPassword(password string) Option {
	return func(o *options) { o.password = password }
}

// WithRetain sets how many snapshot files BlobStorage keeps after a dump,
// the current one included. 0 keeps all. Default: 2.
func WithRetain(n int) Option {
	return func(o *options) { o.retain = n }
}

// WithDelimiter sets the CSV field delimiter. Default: ','.
func WithDelimiter(r rune) Option {
	return func(o *options) { o.delimiter = r }
}

// WithHeader controls whether CSV files carry a header row. Without one,
// columns are named row0, row1, ... on load. Default: true.
func WithHeader(useHeader bool) Option {
	return func(o *options) { o.useHeader = useHeader }
}

// WithSchema sets how the CSV cells of a table are converted into values.
// Columns without a declared type are parsed with record.ParseText.
func WithSchema(tableName string, schema record.Schema) Option {
	return func(o *options) {
		if o.schemas == nil {
			o.schemas = make(map[string]record.Schema)
		}
		o.schemas[tableName] = schema
	}
}

// WithIndexHints names the indexed fields of each table. CSV files cannot
// record indexes, so CSVStorage restores them from these hints.
func WithIndexHints(hints map[string][]string) Option {
	return func(o *options) { o.indexHints = hints }
}
