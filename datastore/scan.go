/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/storagemodels"
)

// ScanFunc receives each record of a scan. Returning false stops the scan.
type ScanFunc func(rec *Record) (bool, error)

// Scan opens store read-only, positions on index and calls fn for every
// record in index order until fn stops or the extent ends. It reports
// whether fn stopped the scan early.
func Scan(ctx context.Context, store RecordStore, index int, from *storagemodels.Position, mode PositionMode, fn ScanFunc) (stopped bool, err error) {
	h, err := store.Open(ctx, ReadOnly)
	if err != nil {
		return false, errors.WrapStoreError(store.Name(), "open", err)
	}
	defer func() {
		if cerr := h.Close(); cerr != nil && err == nil {
			err = errors.WrapStoreError(store.Name(), "close", cerr)
		}
	}()

	ok, err := h.Start(ctx, index, from, mode)
	if err != nil {
		return false, errors.WrapStoreError(store.Name(), "start", err)
	}
	if !ok {
		return false, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		rec, err := h.ReadNext(ctx)
		if err != nil {
			return false, errors.WrapStoreError(store.Name(), "read_next", err)
		}
		if rec == nil {
			return false, nil
		}
		more, err := fn(rec)
		if err != nil {
			return false, err
		}
		if !more {
			return true, nil
		}
	}
}
