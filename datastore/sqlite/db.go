/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	recerrors "github.com/suparena/recordengine/errors"
)

var storeNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// DB is a SQLite database holding any number of record stores.
type DB struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens or creates the database at path.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	d := &DB{db: db, path: path, logger: logger}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

func (d *DB) migrate() error {
	_, err := d.db.Exec(`
	CREATE TABLE IF NOT EXISTS store_meta (
		name    TEXT PRIMARY KEY,
		indexes INTEGER NOT NULL,
		version INTEGER NOT NULL DEFAULT 0
	)`)
	return err
}

// SQL exposes the underlying database, e.g. for a durable token store.
func (d *DB) SQL() *sql.DB {
	return d.db
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Store opens the record store name, creating its table, secondary
// indices and change triggers on first use. A store keeps the index
// count it was created with.
func (d *DB) Store(ctx context.Context, name string, indexes int) (*Store, error) {
	if !storeNamePattern.MatchString(name) {
		return nil, recerrors.NewArgumentError("name", fmt.Sprintf("%q is not a valid store name", name))
	}
	if indexes < 1 {
		indexes = 1
	}

	var existing int
	err := d.db.QueryRowContext(ctx, `SELECT indexes FROM store_meta WHERE name = ?`, name).Scan(&existing)
	switch {
	case err == nil:
		if existing != indexes {
			return nil, recerrors.NewArgumentError("indexes", fmt.Sprintf("store %s was created with %d indexes, not %d", name, existing, indexes))
		}
	case errors.Is(err, sql.ErrNoRows):
		if err := d.createStore(ctx, name, indexes); err != nil {
			return nil, recerrors.WrapStoreError(name, "create", err)
		}
		d.logger.Debug("created record store", "store", name, "indexes", indexes)
	default:
		return nil, recerrors.WrapStoreError(name, "open", err)
	}

	return newStore(d, name, indexes), nil
}

func (d *DB) createStore(ctx context.Context, name string, indexes int) error {
	table := tableName(name)
	cols := []string{"pk BLOB PRIMARY KEY"}
	for i := 1; i < indexes; i++ {
		cols = append(cols, fmt.Sprintf("k%d BLOB NOT NULL", i))
	}
	cols = append(cols, "data BLOB NOT NULL")

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s) WITHOUT ROWID`, table, strings.Join(cols, ", ")),
	}
	for i := 1; i < indexes; i++ {
		stmts = append(stmts, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_k%d ON %s (k%d, pk)`, table, i, table, i))
	}
	for _, ev := range []string{"INSERT", "UPDATE", "DELETE"} {
		stmts = append(stmts, fmt.Sprintf(
			`CREATE TRIGGER IF NOT EXISTS %s_%s AFTER %s ON %s BEGIN
				UPDATE store_meta SET version = version + 1 WHERE name = '%s';
			END`, table, strings.ToLower(ev[:1]), ev, table, name))
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO store_meta (name, indexes) VALUES (?, ?)`, name, indexes); err != nil {
		return err
	}
	return tx.Commit()
}

func tableName(store string) string {
	return "rec_" + store
}

func sqliteCode(err error) int {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isConstraintViolation(err error) bool {
	code := sqliteCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code&0xff == sqlite3.SQLITE_CONSTRAINT
}

func isBusy(err error) bool {
	code := sqliteCode(err) & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}
