package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/kangaroo"
	"github.com/hupe1980/kangaroo/blobstore"
	"github.com/hupe1980/kangaroo/blobstore/minio"
	"github.com/hupe1980/kangaroo/blobstore/s3"
	"github.com/hupe1980/kangaroo/codec"
	"github.com/hupe1980/kangaroo/record"
	"github.com/hupe1980/kangaroo/resource"
	"github.com/hupe1980/kangaroo/storage"
)

// Config is the CLI configuration file. Command line flags override it.
type Config struct {
	// Store is a directory, "s3://bucket/prefix" or "minio://bucket/prefix".
	Store       string `yaml:"store"`
	Format      string `yaml:"format"` // blob, csv or sqlite
	Compression string `yaml:"compression"`
	Codec       string `yaml:"codec"`
	Password    string `yaml:"password"`
	Retain      int    `yaml:"retain"`
	LogLevel    string `yaml:"log_level"`

	CSV    CSVConfig    `yaml:"csv"`
	S3     S3Config     `yaml:"s3"`
	MinIO  minio.Config `yaml:"minio"`
	Limits LimitsConfig `yaml:"limits"`
}

// CSVConfig configures the csv format.
type CSVConfig struct {
	Delimiter string                       `yaml:"delimiter"`
	Header    *bool                        `yaml:"header"`
	Schemas   map[string]map[string]string `yaml:"schemas"` // table -> field -> type
	Indexes   map[string][]string          `yaml:"indexes"` // table -> indexed fields
}

// S3Config configures s3:// stores.
type S3Config struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	// CommitTable is a DynamoDB table that makes CURRENT updates atomic.
	CommitTable string `yaml:"commit_table"`
}

// LimitsConfig bounds snapshot memory and IO.
type LimitsConfig struct {
	MemoryLimitBytes   int64 `yaml:"memory_limit_bytes"`
	MaxConcurrentIO    int64 `yaml:"max_concurrent_io"`
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`
}

func defaultConfig() Config {
	return Config{
		Store:       "./kangaroo-data",
		Format:      "blob",
		Compression: "zstd",
		Codec:       codec.Default.Name(),
		LogLevel:    "warn",
	}
}

// loadConfig reads path on top of the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func (c Config) storageOptions() ([]storage.Option, error) {
	comp, err := storage.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	cd, ok := codec.ByName(c.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %q", storage.ErrUnsupportedCodec, c.Codec)
	}

	opts := []storage.Option{
		storage.WithCompression(comp),
		storage.WithCodec(cd),
	}
	if c.Password != "" {
		opts = append(opts, storage.WithPassword(c.Password))
	}
	if c.Retain > 0 {
		opts = append(opts, storage.WithRetain(c.Retain))
	}
	if c.Limits != (LimitsConfig{}) {
		opts = append(opts, storage.WithResourceController(c.resourceController()))
	}

	if c.CSV.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(c.CSV.Delimiter)
		if size != len(c.CSV.Delimiter) {
			return nil, fmt.Errorf("csv delimiter must be a single character, got %q", c.CSV.Delimiter)
		}
		opts = append(opts, storage.WithDelimiter(r))
	}
	if c.CSV.Header != nil {
		opts = append(opts, storage.WithHeader(*c.CSV.Header))
	}
	for name, fields := range c.CSV.Schemas {
		schema := make(record.Schema, len(fields))
		for field, typ := range fields {
			ft, err := record.ParseFieldType(typ)
			if err != nil {
				return nil, fmt.Errorf("csv schema %s.%s: %w", name, field, err)
			}
			schema[field] = ft
		}
		opts = append(opts, storage.WithSchema(name, schema))
	}
	if len(c.CSV.Indexes) > 0 {
		opts = append(opts, storage.WithIndexHints(c.CSV.Indexes))
	}
	return opts, nil
}

func (c Config) resourceController() *resource.Controller {
	return resource.NewController(resource.Config{
		MemoryLimitBytes:   c.Limits.MemoryLimitBytes,
		MaxConcurrentIO:    c.Limits.MaxConcurrentIO,
		IOLimitBytesPerSec: c.Limits.IOLimitBytesPerSec,
	})
}

// blobStore resolves Store to a blob store.
func (c Config) blobStore(ctx context.Context) (blobstore.BlobStore, error) {
	var (
		store blobstore.BlobStore
		err   error
	)
	scheme, rest, found := strings.Cut(c.Store, "://")
	if !found {
		scheme = "file"
	}
	switch scheme {
	case "s3":
		bucket, prefix, _ := strings.Cut(rest, "/")
		opts := []s3.Option{s3.WithPrefix(prefix)}
		if c.S3.Region != "" {
			opts = append(opts, s3.WithRegion(c.S3.Region))
		}
		if c.S3.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(c.S3.Endpoint))
		}
		if c.S3.CommitTable != "" {
			store, err = s3.NewWithCommits(ctx, bucket, c.S3.CommitTable, opts...)
		} else {
			store, err = s3.New(ctx, bucket, opts...)
		}
	case "minio":
		cfg := c.MinIO
		cfg.Bucket, cfg.Prefix, _ = strings.Cut(rest, "/")
		store, err = minio.Dial(ctx, cfg)
	case "memory":
		store = blobstore.NewMemoryStore()
	case "file":
		if found {
			store = blobstore.NewLocalStore(rest)
		} else {
			store = blobstore.NewLocalStore(c.Store)
		}
	default:
		return nil, fmt.Errorf("unsupported store %q", c.Store)
	}
	if err != nil {
		return nil, err
	}
	if c.Limits.IOLimitBytesPerSec > 0 {
		store = blobstore.NewThrottledStore(store, c.resourceController())
	}
	return store, nil
}

// openStorage builds the storage backend for Format.
func (c Config) openStorage(ctx context.Context, logger *slog.Logger) (storage.Storage, error) {
	opts, err := c.storageOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, storage.WithLogger(logger))

	switch c.Format {
	case "", "blob":
		store, err := c.blobStore(ctx)
		if err != nil {
			return nil, err
		}
		return storage.NewBlobStorage(store, opts...), nil
	case "csv":
		store, err := c.blobStore(ctx)
		if err != nil {
			return nil, err
		}
		return storage.NewCSVStorage(store, opts...), nil
	case "sqlite":
		if strings.Contains(c.Store, "://") {
			return nil, errors.New("sqlite format requires a local store directory")
		}
		if err := os.MkdirAll(c.Store, 0o755); err != nil {
			return nil, err
		}
		return storage.OpenSQLite(ctx, filepath.Join(c.Store, "kangaroo.db"), opts...)
	default:
		return nil, fmt.Errorf("unknown format %q (want blob, csv or sqlite)", c.Format)
	}
}

// openBucket opens the bucket described by c.
func (c Config) openBucket(ctx context.Context) (*kangaroo.Bucket, error) {
	level, err := parseLogLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := kangaroo.NewTextLogger(level)

	st, err := c.openStorage(ctx, logger.Logger)
	if err != nil {
		return nil, err
	}
	b, err := kangaroo.Open(ctx,
		kangaroo.WithLogger(logger),
		kangaroo.WithStorage(st),
	)
	if err != nil {
		if c, ok := st.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return b, nil
}
