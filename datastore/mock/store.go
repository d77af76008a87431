/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of datastore.RecordStore for testing
package mock

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/storagemodels"
)

// Store is an in-memory ordered record store. Every mutation bumps a
// version counter that serves as the freshness marker; Scans counts
// cursor starts so tests can observe cache behaviour.
type Store struct {
	name    string
	indexes int

	mu         sync.Mutex
	records    map[string]*datastore.Record
	locks      map[string]uint64
	version    uint64
	nextHandle uint64

	scans atomic.Int64
	reads atomic.Int64

	openError      error
	writeError     error
	freshnessError error
	readError      error
	startHook      func(index int)
}

// New creates an empty store with the given number of ordered indices
// (at least one, the primary index).
func New(name string, indexes int) *Store {
	if indexes < 1 {
		indexes = 1
	}
	return &Store{
		name:    name,
		indexes: indexes,
		records: make(map[string]*datastore.Record),
		locks:   make(map[string]uint64),
	}
}

// WithOpenError makes Open return an error
func (s *Store) WithOpenError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openError = err
	return s
}

// WithWriteError makes Write, Rewrite and Delete return an error
func (s *Store) WithWriteError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeError = err
	return s
}

// WithFreshnessError makes Freshness return an error
func (s *Store) WithFreshnessError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freshnessError = err
	return s
}

// WithReadError makes ReadNext return an error
func (s *Store) WithReadError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readError = err
	return s
}

// WithStartHook registers a function called at the beginning of every
// cursor start, before the snapshot is taken. Tests use it to hold a scan open.
func (s *Store) WithStartHook(f func(index int)) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startHook = f
	return s
}

// Name returns the store name
func (s *Store) Name() string { return s.name }

// Indexes returns the number of ordered indices
func (s *Store) Indexes() int { return s.indexes }

// Scans returns the number of cursor starts so far
func (s *Store) Scans() int { return int(s.scans.Load()) }

// Reads returns the number of records returned by ReadNext so far
func (s *Store) Reads() int { return int(s.reads.Load()) }

// Count returns the number of stored records
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Put stores records directly, replacing existing ones, and bumps the version.
func (s *Store) Put(recs ...*datastore.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		s.records[string(r.PrimaryKey())] = r.Clone()
	}
	s.version++
}

// Get returns a copy of the record with primary key pk, or nil.
func (s *Store) Get(pk []byte) *datastore.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[string(pk)].Clone()
}

// Remove deletes a record out of band, ignoring locks.
func (s *Store) Remove(pk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, string(pk))
	s.version++
}

// Touch bumps the version without changing content.
func (s *Store) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
}

// Freshness returns the version counter
func (s *Store) Freshness(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.freshnessError != nil {
		return "", s.freshnessError
	}
	return strconv.FormatUint(s.version, 10), nil
}

// Open acquires a handle
func (s *Store) Open(ctx context.Context, mode datastore.OpenMode) (datastore.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openError != nil {
		return nil, s.openError
	}
	s.nextHandle++
	return &handle{store: s, id: s.nextHandle, mode: mode}, nil
}

type handle struct {
	store  *Store
	id     uint64
	mode   datastore.OpenMode
	cursor []*datastore.Record
	next   int
	closed bool
}

func (h *handle) check(op string, write bool) error {
	if h.closed {
		return errors.WrapStoreError(h.store.name, op, fmt.Errorf("handle closed"))
	}
	if write && h.mode != datastore.ReadWrite {
		return errors.WrapStoreError(h.store.name, op, errors.ErrReadOnly)
	}
	return nil
}

func (h *handle) Start(ctx context.Context, index int, from *storagemodels.Position, mode datastore.PositionMode) (bool, error) {
	if err := h.check("start", false); err != nil {
		return false, err
	}
	if index < 0 || index >= h.store.indexes {
		return false, errors.NewArgumentError("index", fmt.Sprintf("store %s has no index %d", h.store.name, index))
	}
	if mode != datastore.First && from == nil {
		return false, errors.NewArgumentError("from", "position required")
	}

	h.store.mu.Lock()
	hook := h.store.startHook
	h.store.mu.Unlock()
	if hook != nil {
		hook(index)
	}
	h.store.scans.Add(1)

	h.store.mu.Lock()
	snapshot := make([]*datastore.Record, 0, len(h.store.records))
	for _, r := range h.store.records {
		snapshot = append(snapshot, r.Clone())
	}
	h.store.mu.Unlock()

	slices.SortFunc(snapshot, func(a, b *datastore.Record) int {
		return datastore.CompareOnIndex(a, b, index)
	})

	start := 0
	if mode != datastore.First {
		pos := *from
		pos.Index = index
		start = len(snapshot)
		for i, r := range snapshot {
			c := datastore.ComparePosition(r, pos)
			if c > 0 || (c == 0 && mode == datastore.AtOrAfter) {
				start = i
				break
			}
		}
	}
	h.cursor = snapshot[start:]
	h.next = 0
	return len(h.cursor) > 0, nil
}

func (h *handle) ReadNext(ctx context.Context) (*datastore.Record, error) {
	if err := h.check("read_next", false); err != nil {
		return nil, err
	}
	h.store.mu.Lock()
	readErr := h.store.readError
	h.store.mu.Unlock()
	if readErr != nil {
		return nil, readErr
	}
	if h.next >= len(h.cursor) {
		return nil, nil
	}
	r := h.cursor[h.next]
	h.next++
	h.store.reads.Add(1)
	return r, nil
}

func (h *handle) Read(ctx context.Context, key *datastore.Record) (*datastore.Record, error) {
	if err := h.check("read", false); err != nil {
		return nil, err
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return h.store.records[string(key.PrimaryKey())].Clone(), nil
}

func (h *handle) ReadLock(ctx context.Context, key *datastore.Record) (*datastore.Record, error) {
	if err := h.check("read_lock", true); err != nil {
		return nil, err
	}
	pk := string(key.PrimaryKey())
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	rec, ok := h.store.records[pk]
	if !ok {
		return nil, nil
	}
	if owner, locked := h.store.locks[pk]; locked && owner != h.id {
		return nil, errors.WrapStoreError(h.store.name, "read_lock", errors.ErrRecordLocked)
	}
	h.store.locks[pk] = h.id
	return rec.Clone(), nil
}

func (h *handle) Write(ctx context.Context, rec *datastore.Record) error {
	if err := h.check("write", true); err != nil {
		return err
	}
	pk := rec.PrimaryKey()
	if len(pk) == 0 {
		return errors.NewArgumentError("record", "primary key is empty")
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if h.store.writeError != nil {
		return h.store.writeError
	}
	if _, exists := h.store.records[string(pk)]; exists {
		return errors.NewAlreadyExistsError(h.store.name, datastore.KeyString(pk))
	}
	h.store.records[string(pk)] = rec.Clone()
	h.store.version++
	return nil
}

// lockedBy verifies that this handle holds the lock on pk. Caller holds mu.
func (h *handle) lockedBy(op, pk string) error {
	if owner, ok := h.store.locks[pk]; !ok || owner != h.id {
		return errors.WrapStoreError(h.store.name, op, fmt.Errorf("record %q is not locked by this handle", datastore.KeyString([]byte(pk))))
	}
	return nil
}

func (h *handle) Rewrite(ctx context.Context, rec *datastore.Record) error {
	if err := h.check("rewrite", true); err != nil {
		return err
	}
	pk := string(rec.PrimaryKey())
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if h.store.writeError != nil {
		return h.store.writeError
	}
	if err := h.lockedBy("rewrite", pk); err != nil {
		return err
	}
	h.store.records[pk] = rec.Clone()
	delete(h.store.locks, pk)
	h.store.version++
	return nil
}

func (h *handle) Delete(ctx context.Context, rec *datastore.Record) error {
	if err := h.check("delete", true); err != nil {
		return err
	}
	pk := string(rec.PrimaryKey())
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if h.store.writeError != nil {
		return h.store.writeError
	}
	if err := h.lockedBy("delete", pk); err != nil {
		return err
	}
	delete(h.store.records, pk)
	delete(h.store.locks, pk)
	h.store.version++
	return nil
}

func (h *handle) NewRecord() *datastore.Record {
	return datastore.NewRecord(h.store.indexes)
}

func (h *handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	for pk, owner := range h.store.locks {
		if owner == h.id {
			delete(h.store.locks, pk)
		}
	}
	return nil
}

var _ datastore.RecordStore = (*Store)(nil)
