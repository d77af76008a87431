/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/recordengine/storagemodels"
)

// OpenMode selects the access mode of a store handle.
type OpenMode int

const (
	ReadOnly OpenMode = iota
	ReadWrite
)

func (m OpenMode) String() string {
	if m == ReadWrite {
		return "read-write"
	}
	return "read-only"
}

// PositionMode selects where Start places the cursor relative to a position.
type PositionMode int

const (
	// First positions at the first record of the index, ignoring from.
	First PositionMode = iota
	// AtOrAfter positions at the first record >= from.
	AtOrAfter
	// After positions at the first record strictly > from.
	After
)

// RecordStore is an ordered, indexed record store. Index 0 is the primary
// index, ordered by primary key; further indices order by their secondary
// key with the primary key breaking ties.
type RecordStore interface {
	// Name identifies the store. It is part of every cache and token key.
	Name() string

	// Indexes returns the number of ordered indices, including the primary one.
	Indexes() int

	// Open acquires a handle. The handle must be closed by the caller.
	Open(ctx context.Context, mode OpenMode) (Handle, error)

	// Freshness returns a marker that changes whenever the store content
	// changes (a modification counter or timestamp).
	Freshness(ctx context.Context) (string, error)
}

// Handle is a scoped store session. It is not safe for concurrent use.
type Handle interface {
	// Start positions the cursor on index. from is ignored for First.
	// It reports whether a record exists at the requested position.
	Start(ctx context.Context, index int, from *storagemodels.Position, mode PositionMode) (bool, error)

	// ReadNext returns the next record in index order, or nil at the end.
	ReadNext(ctx context.Context) (*Record, error)

	// Read looks a record up by the primary key of key. It returns nil when absent.
	Read(ctx context.Context, key *Record) (*Record, error)

	// ReadLock is Read plus an exclusive lock held until the record is
	// rewritten, deleted or the handle is closed.
	ReadLock(ctx context.Context, key *Record) (*Record, error)

	// Write inserts a new record.
	Write(ctx context.Context, rec *Record) error

	// Rewrite commits an update to a record locked by this handle.
	Rewrite(ctx context.Context, rec *Record) error

	// Delete removes a record locked by this handle.
	Delete(ctx context.Context, rec *Record) error

	// NewRecord allocates an empty record shaped for this store.
	NewRecord() *Record

	// Close releases the handle and any locks it still holds.
	Close() error
}
