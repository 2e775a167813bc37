package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/kangaroo/blobstore"
	"github.com/hupe1980/kangaroo/codec"
	"github.com/hupe1980/kangaroo/resource"
	"github.com/hupe1980/kangaroo/table"
)

const (
	// CurrentName is the blob holding the name of the latest snapshot.
	CurrentName = "CURRENT"

	snapshotDir = "snapshots/"
	snapshotExt = ".kgr"
)

// BlobStorage stores all tables in one snapshot file per dump.
//
// A dump writes snapshots/<id>.kgr and then points CURRENT at it, so a
// reader never sees a half-written snapshot. Ids are UUIDv7, which sort by
// creation time.
type BlobStorage struct {
	store       blobstore.BlobStore
	codec       codec.Codec
	compression Compression
	password    string
	retain      int
	rc          *resource.Controller
	logger      *slog.Logger
}

var _ Storage = (*BlobStorage)(nil)

// NewBlobStorage creates a BlobStorage on top of store.
func NewBlobStorage(store blobstore.BlobStore, optFns ...Option) *BlobStorage {
	opts := applyOptions(optFns)
	return &BlobStorage{
		store:       store,
		codec:       opts.codec,
		compression: opts.compression,
		password:    opts.password,
		retain:      opts.retain,
		rc:          opts.rc,
		logger:      opts.logger,
	}
}

// Info describes a stored snapshot.
type Info struct {
	Name        string
	ID          string
	CreatedAt   time.Time
	Codec       string
	Compression Compression
	Sealed      bool
	Size        int64
}

// Dump writes tables as a new snapshot and makes it current.
func (s *BlobStorage) Dump(ctx context.Context, tables []table.Snapshot) error {
	start := time.Now()

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	snap := Snapshot{ID: id.String(), CreatedAt: time.Now().UTC(), Tables: tables}

	payload, err := s.codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if payload, err = compress(s.compression, payload); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	h := header{
		Compression: s.compression,
		Codec:       s.codec.Name(),
		ID:          id,
		CreatedAt:   snap.CreatedAt,
	}
	if s.password != "" {
		if h.Salt, payload, err = seal(s.password, payload); err != nil {
			return fmt.Errorf("seal snapshot: %w", err)
		}
		h.Sealed = true
	}

	data, err := encodeEnvelope(h, payload)
	if err != nil {
		return err
	}

	name := snapshotDir + id.String() + snapshotExt
	if err := s.write(ctx, name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := s.store.Put(ctx, CurrentName, []byte(name)); err != nil {
		_ = s.store.Delete(ctx, name)
		return fmt.Errorf("commit %s: %w", name, err)
	}

	s.logger.Info("snapshot dumped",
		"id", snap.ID,
		"tables", len(tables),
		"bytes", len(data),
		"compression", s.compression.String(),
		"sealed", h.Sealed,
		"duration", time.Since(start),
	)

	if err := s.prune(ctx, name); err != nil {
		s.logger.Warn("failed to prune old snapshots", "error", err)
	}
	return nil
}

func (s *BlobStorage) write(ctx context.Context, name string, data []byte) error {
	if err := s.rc.AcquireIO(ctx); err != nil {
		return err
	}
	defer s.rc.ReleaseIO()

	w, err := s.store.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := resource.NewRateLimitedWriter(ctx, w, s.rc).Write(data); err != nil {
		_ = blobstore.Discard(w)
		return err
	}
	if err := w.Sync(); err != nil {
		_ = blobstore.Discard(w)
		return err
	}
	return w.Close()
}

// prune deletes all but the newest s.retain snapshot files, never current.
func (s *BlobStorage) prune(ctx context.Context, current string) error {
	if s.retain <= 0 {
		return nil
	}
	names, err := s.Snapshots(ctx)
	if err != nil {
		return err
	}
	if len(names) <= s.retain {
		return nil
	}

	var errs []error
	for _, name := range names[:len(names)-s.retain] {
		if name == current {
			continue
		}
		if err := s.store.Delete(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
			continue
		}
		s.logger.Debug("snapshot pruned", "name", name)
	}
	return errors.Join(errs...)
}

// Snapshots returns the names of all stored snapshot files, oldest first.
func (s *BlobStorage) Snapshots(ctx context.Context) ([]string, error) {
	names, err := s.store.List(ctx, snapshotDir)
	if err != nil {
		return nil, err
	}
	names = slices.DeleteFunc(names, func(n string) bool { return !strings.HasSuffix(n, snapshotExt) })
	slices.Sort(names)
	return names, nil
}

// Load reads the current snapshot.
func (s *BlobStorage) Load(ctx context.Context) ([]table.Snapshot, error) {
	snap, err := s.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Tables, nil
}

// LoadSnapshot reads the current snapshot including its id and creation time.
func (s *BlobStorage) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	name, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	data, release, err := s.read(ctx, name)
	if err != nil {
		return nil, err
	}
	defer release()

	h, payload, err := decodeEnvelope(name, data)
	if err != nil {
		return nil, err
	}

	if h.Sealed {
		if s.password == "" {
			return nil, fmt.Errorf("snapshot %s: %w", name, ErrPasswordRequired)
		}
		if payload, err = unseal(s.password, h.Salt, payload); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", name, err)
		}
	}

	if payload, err = decompress(h.Compression, payload); err != nil {
		if errors.Is(err, ErrUnsupportedCodec) {
			return nil, err
		}
		return nil, corrupt(name, "decompress", err)
	}

	c, ok := codec.ByName(h.Codec)
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w: %q", name, ErrUnsupportedCodec, h.Codec)
	}

	var snap Snapshot
	if err := c.Unmarshal(payload, &snap); err != nil {
		return nil, corrupt(name, "decode", err)
	}
	normalize(snap.Tables)

	s.logger.Info("snapshot loaded",
		"id", snap.ID,
		"tables", len(snap.Tables),
		"bytes", len(data),
		"duration", time.Since(start),
	)
	return &snap, nil
}

// Inspect returns the header of the current snapshot.
func (s *BlobStorage) Inspect(ctx context.Context) (Info, error) {
	name, err := s.current(ctx)
	if err != nil {
		return Info{}, err
	}

	data, release, err := s.read(ctx, name)
	if err != nil {
		return Info{}, err
	}
	defer release()

	h, _, err := decodeEnvelope(name, data)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Name:        name,
		ID:          h.ID.String(),
		CreatedAt:   h.CreatedAt,
		Codec:       h.Codec,
		Compression: h.Compression,
		Sealed:      h.Sealed,
		Size:        int64(len(data)),
	}, nil
}

func (s *BlobStorage) current(ctx context.Context) (string, error) {
	data, err := blobstore.ReadAll(ctx, s.store, CurrentName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return "", ErrNoSnapshot
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", CurrentName, err)
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", ErrNoSnapshot
	}
	return name, nil
}

// read loads a whole blob, holding its size against the memory limit until
// release is called.
func (s *BlobStorage) read(ctx context.Context, name string) ([]byte, func(), error) {
	blob, err := s.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil, corrupt(name, "referenced by "+CurrentName+" but missing", err)
		}
		return nil, nil, err
	}
	size := blob.Size()
	_ = blob.Close()

	if err := s.rc.AcquireMemory(ctx, size); err != nil {
		return nil, nil, err
	}
	release := func() { s.rc.ReleaseMemory(size) }

	if err := s.rc.AcquireIO(ctx); err != nil {
		release()
		return nil, nil, err
	}
	data, err := blobstore.ReadAll(ctx, s.store, name)
	s.rc.ReleaseIO()
	if err != nil {
		release()
		return nil, nil, err
	}
	return data, release, nil
}
