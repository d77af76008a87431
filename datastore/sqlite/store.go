/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/suparena/recordengine/datastore"
	recerrors "github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/storagemodels"
)

// Store implements datastore.RecordStore on one SQLite table. The primary
// key is the table's B-tree key; secondary index i is a B-tree over
// (k<i>, pk). Change triggers maintain the freshness counter.
type Store struct {
	db      *DB
	name    string
	table   string
	indexes int
	columns string
}

func newStore(db *DB, name string, indexes int) *Store {
	cols := []string{"pk"}
	for i := 1; i < indexes; i++ {
		cols = append(cols, fmt.Sprintf("k%d", i))
	}
	cols = append(cols, "data")
	return &Store{
		db:      db,
		name:    name,
		table:   tableName(name),
		indexes: indexes,
		columns: strings.Join(cols, ", "),
	}
}

// Name returns the store name
func (s *Store) Name() string { return s.name }

// Indexes returns the number of ordered indices
func (s *Store) Indexes() int { return s.indexes }

// Freshness returns the modification counter of the store.
func (s *Store) Freshness(ctx context.Context) (string, error) {
	var version int64
	err := s.db.db.QueryRowContext(ctx, `SELECT version FROM store_meta WHERE name = ?`, s.name).Scan(&version)
	if err != nil {
		return "", recerrors.WrapStoreError(s.name, "freshness", err)
	}
	return strconv.FormatInt(version, 10), nil
}

// Open acquires a handle. Read-write handles pin one connection so that
// read locks (BEGIN IMMEDIATE transactions) stay on it until released.
func (s *Store) Open(ctx context.Context, mode datastore.OpenMode) (datastore.Handle, error) {
	h := &handle{store: s, mode: mode, q: s.db.db, locked: make(map[string]bool)}
	if mode == datastore.ReadWrite {
		conn, err := s.db.db.Conn(ctx)
		if err != nil {
			return nil, recerrors.WrapStoreError(s.name, "open", err)
		}
		h.conn = conn
		h.q = conn
	}
	return h, nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type handle struct {
	store  *Store
	mode   datastore.OpenMode
	q      querier
	conn   *sql.Conn
	rows   *sql.Rows
	peek   *datastore.Record
	inTx   bool
	locked map[string]bool
	closed bool
}

func (h *handle) check(op string, write bool) error {
	if h.closed {
		return recerrors.WrapStoreError(h.store.name, op, fmt.Errorf("handle closed"))
	}
	if write && h.mode != datastore.ReadWrite {
		return recerrors.WrapStoreError(h.store.name, op, recerrors.ErrReadOnly)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (h *handle) scanRecord(row scanner) (*datastore.Record, error) {
	n := h.store.indexes
	rec := datastore.NewRecord(n)
	dest := make([]any, 0, n+1)
	for i := 0; i < n; i++ {
		dest = append(dest, &rec.Keys[i])
	}
	dest = append(dest, &rec.Data)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return rec, nil
}

// rangeQuery builds the ordered SELECT that positions a cursor.
func (s *Store) rangeQuery(index int, from *storagemodels.Position, mode datastore.PositionMode) (string, []any) {
	order := "pk"
	col := "pk"
	if index > 0 {
		col = fmt.Sprintf("k%d", index)
		order = col + ", pk"
	}

	var where string
	var args []any
	if mode != datastore.First {
		op := ">"
		if mode == datastore.AtOrAfter {
			op = ">="
		}
		switch {
		case index == 0:
			where = fmt.Sprintf("WHERE pk %s ?", op)
			args = []any{nonNil(from.Key)}
		case from.Pk != nil:
			where = fmt.Sprintf("WHERE (%s, pk) %s (?, ?)", col, op)
			args = []any{nonNil(from.Key), from.Pk}
		default:
			where = fmt.Sprintf("WHERE %s %s ?", col, op)
			args = []any{nonNil(from.Key)}
		}
	}
	return fmt.Sprintf("SELECT %s FROM %s %s ORDER BY %s", s.columns, s.table, where, order), args
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func (h *handle) closeRows() {
	if h.rows != nil {
		h.rows.Close()
		h.rows = nil
	}
	h.peek = nil
}

func (h *handle) Start(ctx context.Context, index int, from *storagemodels.Position, mode datastore.PositionMode) (bool, error) {
	if err := h.check("start", false); err != nil {
		return false, err
	}
	if index < 0 || index >= h.store.indexes {
		return false, recerrors.NewArgumentError("index", fmt.Sprintf("store %s has no index %d", h.store.name, index))
	}
	if mode != datastore.First && from == nil {
		return false, recerrors.NewArgumentError("from", "position required")
	}
	h.closeRows()

	query, args := h.store.rangeQuery(index, from, mode)
	rows, err := h.q.QueryContext(ctx, query, args...)
	if err != nil {
		return false, recerrors.WrapStoreError(h.store.name, "start", err)
	}
	h.rows = rows

	if !rows.Next() {
		err := rows.Err()
		h.closeRows()
		return false, recerrors.WrapStoreError(h.store.name, "start", err)
	}
	rec, err := h.scanRecord(rows)
	if err != nil {
		h.closeRows()
		return false, recerrors.WrapStoreError(h.store.name, "start", err)
	}
	h.peek = rec
	return true, nil
}

func (h *handle) ReadNext(ctx context.Context) (*datastore.Record, error) {
	if err := h.check("read_next", false); err != nil {
		return nil, err
	}
	if h.peek != nil {
		rec := h.peek
		h.peek = nil
		return rec, nil
	}
	if h.rows == nil {
		return nil, nil
	}
	if !h.rows.Next() {
		err := h.rows.Err()
		h.closeRows()
		return nil, recerrors.WrapStoreError(h.store.name, "read_next", err)
	}
	rec, err := h.scanRecord(h.rows)
	if err != nil {
		return nil, recerrors.WrapStoreError(h.store.name, "read_next", err)
	}
	return rec, nil
}

func (h *handle) read(ctx context.Context, op string, key *datastore.Record) (*datastore.Record, error) {
	row := h.q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE pk = ?", h.store.columns, h.store.table),
		nonNil(key.PrimaryKey()))
	rec, err := h.scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, recerrors.WrapStoreError(h.store.name, op, err)
	}
	return rec, nil
}

func (h *handle) Read(ctx context.Context, key *datastore.Record) (*datastore.Record, error) {
	if err := h.check("read", false); err != nil {
		return nil, err
	}
	return h.read(ctx, "read", key)
}

// ReadLock starts (or joins) an immediate transaction, which holds the
// database write lock until every locked record is rewritten or deleted.
func (h *handle) ReadLock(ctx context.Context, key *datastore.Record) (*datastore.Record, error) {
	if err := h.check("read_lock", true); err != nil {
		return nil, err
	}
	if !h.inTx {
		if _, err := h.q.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
			if isBusy(err) {
				err = fmt.Errorf("%w: %v", recerrors.ErrRecordLocked, err)
			}
			return nil, recerrors.WrapStoreError(h.store.name, "read_lock", err)
		}
		h.inTx = true
	}
	rec, err := h.read(ctx, "read_lock", key)
	if err != nil || rec == nil {
		if finishErr := h.finishIfIdle(ctx); err == nil {
			err = finishErr
		}
		return nil, err
	}
	h.locked[string(rec.PrimaryKey())] = true
	return rec, nil
}

// finishIfIdle commits the lock transaction once no record is locked.
func (h *handle) finishIfIdle(ctx context.Context) error {
	if !h.inTx || len(h.locked) > 0 {
		return nil
	}
	h.inTx = false
	if _, err := h.q.ExecContext(ctx, "COMMIT"); err != nil {
		return recerrors.WrapStoreError(h.store.name, "commit", err)
	}
	return nil
}

func (h *handle) args(rec *datastore.Record) []any {
	args := make([]any, 0, h.store.indexes+1)
	for i := 0; i < h.store.indexes; i++ {
		args = append(args, nonNil(rec.Key(i)))
	}
	return append(args, nonNil(rec.Data))
}

func (h *handle) Write(ctx context.Context, rec *datastore.Record) error {
	if err := h.check("write", true); err != nil {
		return err
	}
	if len(rec.PrimaryKey()) == 0 {
		return recerrors.NewArgumentError("record", "primary key is empty")
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", h.store.indexes+1), ", ")
	_, err := h.q.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", h.store.table, h.store.columns, placeholders),
		h.args(rec)...)
	if err != nil {
		if isConstraintViolation(err) {
			return recerrors.NewAlreadyExistsError(h.store.name, rec.KeyString())
		}
		return recerrors.WrapStoreError(h.store.name, "write", err)
	}
	return nil
}

func (h *handle) requireLock(op string, rec *datastore.Record) error {
	if !h.locked[string(rec.PrimaryKey())] {
		return recerrors.WrapStoreError(h.store.name, op, fmt.Errorf("record %q is not locked by this handle", rec.KeyString()))
	}
	return nil
}

func (h *handle) Rewrite(ctx context.Context, rec *datastore.Record) error {
	if err := h.check("rewrite", true); err != nil {
		return err
	}
	if err := h.requireLock("rewrite", rec); err != nil {
		return err
	}
	sets := make([]string, 0, h.store.indexes)
	for i := 1; i < h.store.indexes; i++ {
		sets = append(sets, fmt.Sprintf("k%d = ?", i))
	}
	sets = append(sets, "data = ?")
	args := h.args(rec)
	args = append(args[1:], args[0])

	_, err := h.q.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s WHERE pk = ?", h.store.table, strings.Join(sets, ", ")),
		args...)
	if err != nil {
		return recerrors.WrapStoreError(h.store.name, "rewrite", err)
	}
	delete(h.locked, string(rec.PrimaryKey()))
	return h.finishIfIdle(ctx)
}

func (h *handle) Delete(ctx context.Context, rec *datastore.Record) error {
	if err := h.check("delete", true); err != nil {
		return err
	}
	if err := h.requireLock("delete", rec); err != nil {
		return err
	}
	_, err := h.q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE pk = ?", h.store.table), rec.PrimaryKey())
	if err != nil {
		return recerrors.WrapStoreError(h.store.name, "delete", err)
	}
	delete(h.locked, string(rec.PrimaryKey()))
	return h.finishIfIdle(ctx)
}

func (h *handle) NewRecord() *datastore.Record {
	return datastore.NewRecord(h.store.indexes)
}

// Close rolls back a lock transaction that is still open and releases the
// pinned connection.
func (h *handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.closeRows()
	var err error
	if h.inTx {
		_, err = h.q.ExecContext(context.Background(), "ROLLBACK")
		h.inTx = false
		clear(h.locked)
	}
	if h.conn != nil {
		if cerr := h.conn.Close(); err == nil {
			err = cerr
		}
	}
	return recerrors.WrapStoreError(h.store.name, "close", err)
}

var _ datastore.RecordStore = (*Store)(nil)
