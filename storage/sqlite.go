package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hupe1980/kangaroo/codec"
	"github.com/hupe1980/kangaroo/record"
	"github.com/hupe1980/kangaroo/table"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS kg_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS kg_tables (
		name TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		indexes TEXT NOT NULL -- encoded list of indexed fields
	);

	CREATE TABLE IF NOT EXISTS kg_rows (
		table_name TEXT NOT NULL,
		seq INTEGER NOT NULL,
		doc TEXT NOT NULL, -- encoded record.Document
		PRIMARY KEY (table_name, seq)
	);
`

// SQLiteStorage keeps tables and rows in a SQLite database. Every dump
// replaces the whole content in one transaction.
type SQLiteStorage struct {
	db     *sql.DB
	codec  codec.Codec
	logger *slog.Logger
}

var _ Storage = (*SQLiteStorage)(nil)

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(ctx context.Context, path string, optFns ...Option) (*SQLiteStorage, error) {
	opts := applyOptions(optFns)

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{db: db, codec: opts.codec, logger: opts.logger}, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Dump replaces all stored tables.
func (s *SQLiteStorage) Dump(ctx context.Context, tables []table.Snapshot) (err error) {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{"DELETE FROM kg_rows", "DELETE FROM kg_tables"} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	insertTable, err := tx.PrepareContext(ctx, "INSERT INTO kg_tables (name, position, indexes) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = insertTable.Close() }()

	insertRow, err := tx.PrepareContext(ctx, "INSERT INTO kg_rows (table_name, seq, doc) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = insertRow.Close() }()

	rows := 0
	for pos, t := range tables {
		indexes := t.Indexes
		if indexes == nil {
			indexes = []string{}
		}
		encoded, err := s.codec.Marshal(indexes)
		if err != nil {
			return err
		}
		if _, err = insertTable.ExecContext(ctx, t.Name, pos, string(encoded)); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}

		for seq, doc := range t.Rows {
			encoded, err := s.codec.Marshal(doc)
			if err != nil {
				return fmt.Errorf("table %s row %d: %w", t.Name, seq, err)
			}
			if _, err = insertRow.ExecContext(ctx, t.Name, seq, string(encoded)); err != nil {
				return fmt.Errorf("table %s row %d: %w", t.Name, seq, err)
			}
			rows++
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	meta := map[string]string{
		"snapshot_id": id.String(),
		"created_at":  time.Now().UTC().Format(time.RFC3339Nano),
		"codec":       s.codec.Name(),
	}
	for k, v := range meta {
		if _, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO kg_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("sqlite dumped", "id", id.String(), "tables", len(tables), "rows", rows, "duration", time.Since(start))
	return nil
}

// Load reads all stored tables in the order they were dumped.
func (s *SQLiteStorage) Load(ctx context.Context) ([]table.Snapshot, error) {
	start := time.Now()

	var codecName string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kg_meta WHERE key = 'codec'").Scan(&codecName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, codecName)
	}

	tables, positions, err := s.loadTables(ctx, c)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT table_name, doc FROM kg_rows ORDER BY table_name, seq")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	n := 0
	for rows.Next() {
		var name, encoded string
		if err := rows.Scan(&name, &encoded); err != nil {
			return nil, err
		}
		pos, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("%w: row of unknown table %q", ErrCorruptSnapshot, name)
		}
		var doc record.Document
		if err := c.Unmarshal([]byte(encoded), &doc); err != nil {
			return nil, fmt.Errorf("%w: table %s: %w", ErrCorruptSnapshot, name, err)
		}
		if doc == nil {
			doc = record.Document{}
		}
		tables[pos].Rows = append(tables[pos].Rows, doc)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	normalize(tables)
	s.logger.Info("sqlite loaded", "tables", len(tables), "rows", n, "duration", time.Since(start))
	return tables, nil
}

func (s *SQLiteStorage) loadTables(ctx context.Context, c codec.Codec) ([]table.Snapshot, map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, indexes FROM kg_tables ORDER BY position")
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []table.Snapshot
	positions := make(map[string]int)
	for rows.Next() {
		var name, encoded string
		if err := rows.Scan(&name, &encoded); err != nil {
			return nil, nil, err
		}
		var indexes []string
		if err := c.Unmarshal([]byte(encoded), &indexes); err != nil {
			return nil, nil, fmt.Errorf("%w: indexes of %s: %w", ErrCorruptSnapshot, name, err)
		}
		positions[name] = len(tables)
		tables = append(tables, table.Snapshot{Name: name, Indexes: indexes})
	}
	return tables, positions, rows.Err()
}
