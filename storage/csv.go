package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/kangaroo/blobstore"
	"github.com/hupe1980/kangaroo/record"
	"github.com/hupe1980/kangaroo/resource"
	"github.com/hupe1980/kangaroo/table"
)

const csvExt = ".csv"

// CSVStorage stores every table as <name>.csv in a blob store.
//
// CSV has no types: non-string values are written in their JSON form and
// converted back through the table's record.Schema (or record.ParseText).
// An empty cell means the row does not define the field, so empty strings
// do not survive a round trip.
type CSVStorage struct {
	store      blobstore.BlobStore
	delimiter  rune
	useHeader  bool
	schemas    map[string]record.Schema
	indexHints map[string][]string
	rc         *resource.Controller
	logger     *slog.Logger
}

var _ Storage = (*CSVStorage)(nil)

// NewCSVStorage creates a CSVStorage on top of store.
func NewCSVStorage(store blobstore.BlobStore, optFns ...Option) *CSVStorage {
	opts := applyOptions(optFns)
	return &CSVStorage{
		store:      store,
		delimiter:  opts.delimiter,
		useHeader:  opts.useHeader,
		schemas:    opts.schemas,
		indexHints: opts.indexHints,
		rc:         opts.rc,
		logger:     opts.logger,
	}
}

// Dump writes one file per table in parallel and removes the files of
// tables that no longer exist.
func (s *CSVStorage) Dump(ctx context.Context, tables []table.Snapshot) error {
	start := time.Now()

	for _, t := range tables {
		if err := checkFileName(t.Name); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tables {
		g.Go(func() error {
			if err := s.rc.AcquireIO(gctx); err != nil {
				return err
			}
			defer s.rc.ReleaseIO()

			return s.dumpTable(gctx, t)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	existing, err := s.files(ctx)
	if err != nil {
		return err
	}
	for _, name := range existing {
		if !slices.ContainsFunc(tables, func(t table.Snapshot) bool { return t.Name+csvExt == name }) {
			if err := s.store.Delete(ctx, name); err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
		}
	}

	s.logger.Info("csv dumped", "tables", len(tables), "duration", time.Since(start))
	return nil
}

func (s *CSVStorage) dumpTable(ctx context.Context, t table.Snapshot) error {
	name := t.Name + csvExt

	w, err := s.store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := writeCSV(resource.NewRateLimitedWriter(ctx, w, s.rc), t, s.delimiter, s.useHeader); err != nil {
		_ = blobstore.Discard(w)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Sync(); err != nil {
		_ = blobstore.Discard(w)
		return err
	}
	return w.Close()
}

// Load reads every <name>.csv file of the store, in parallel.
func (s *CSVStorage) Load(ctx context.Context) ([]table.Snapshot, error) {
	start := time.Now()

	names, err := s.files(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoSnapshot
	}

	tables := make([]table.Snapshot, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := s.rc.AcquireIO(gctx); err != nil {
				return err
			}
			defer s.rc.ReleaseIO()

			t, err := s.loadTable(gctx, name)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("csv loaded", "tables", len(tables), "duration", time.Since(start))
	return tables, nil
}

func (s *CSVStorage) loadTable(ctx context.Context, name string) (table.Snapshot, error) {
	tableName := strings.TrimSuffix(name, csvExt)

	blob, err := s.store.Open(ctx, name)
	if err != nil {
		return table.Snapshot{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = blob.Close() }()

	r, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return table.Snapshot{}, fmt.Errorf("read %s: %w", name, err)
	}
	defer func() { _ = r.Close() }()

	t, err := readCSV(resource.NewRateLimitedReader(ctx, r, s.rc), tableName, s.schemas[tableName], s.delimiter, s.useHeader)
	if err != nil {
		return table.Snapshot{}, fmt.Errorf("%s: %w", name, err)
	}
	t.Indexes = slices.Clone(s.indexHints[tableName])
	return t, nil
}

// files returns the CSV files at the top level of the store.
func (s *CSVStorage) files(ctx context.Context) ([]string, error) {
	names, err := s.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(names, func(n string) bool {
		return !strings.HasSuffix(n, csvExt) || strings.Contains(n, "/")
	}), nil
}

// checkFileName rejects table names that would not map to a single file at
// the store root.
func checkFileName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	return nil
}

// ExportCSV writes a single table as CSV.
func ExportCSV(w io.Writer, t table.Snapshot, optFns ...Option) error {
	opts := applyOptions(optFns)
	return writeCSV(w, t, opts.delimiter, opts.useHeader)
}

// ImportCSV reads a single table from CSV. The schema registered for name
// with WithSchema and its index hint are applied.
func ImportCSV(r io.Reader, name string, optFns ...Option) (table.Snapshot, error) {
	opts := applyOptions(optFns)
	t, err := readCSV(r, name, opts.schemas[name], opts.delimiter, opts.useHeader)
	if err != nil {
		return table.Snapshot{}, err
	}
	t.Indexes = slices.Clone(opts.indexHints[name])
	return t, nil
}

// columns returns the union of all row fields, in order of first appearance
// (each row contributes its fields in sorted order).
func columns(rows []record.Document) []string {
	var cols []string
	seen := make(map[string]struct{})
	for _, doc := range rows {
		for _, k := range doc.Keys() {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	return cols
}

func writeCSV(w io.Writer, t table.Snapshot, delimiter rune, useHeader bool) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter

	cols := columns(t.Rows)
	if useHeader {
		if err := cw.Write(cols); err != nil {
			return err
		}
	}

	rec := make([]string, len(cols))
	for _, doc := range t.Rows {
		for i, c := range cols {
			rec[i] = ""
			if v, ok := doc[c]; ok {
				cell, err := formatCell(v)
				if err != nil {
					return fmt.Errorf("field %q: %w", c, err)
				}
				rec[i] = cell
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v record.Value) (string, error) {
	if s, ok := v.AsString(); ok {
		return s, nil
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readCSV(r io.Reader, name string, schema record.Schema, delimiter rune, useHeader bool) (table.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	t := table.Snapshot{Name: name}

	var header []string
	if useHeader {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return t, err
		}
		header = slices.Clone(rec)
	}

	column := func(i int) string {
		if i < len(header) {
			return header[i]
		}
		return "row" + strconv.Itoa(i)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return t, err
		}

		doc := make(record.Document, len(rec))
		for i, cell := range rec {
			if cell == "" {
				continue
			}
			col := column(i)
			v, err := schema.Parse(col, cell)
			if err != nil {
				line, _ := cr.FieldPos(i)
				return t, fmt.Errorf("line %d, column %s: %w", line, col, err)
			}
			doc[col] = v
		}
		t.Rows = append(t.Rows, doc)
	}
	return t, nil
}
