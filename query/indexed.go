/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"
	"fmt"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/storagemodels"
)

// stream walks index from the given position, collecting up to pageSize
// matching models. Once the page is full it keeps reading until it meets
// one more match, so a token is only issued when another page exists.
func (e *Engine[T, K]) stream(ctx context.Context, r *resolved[T], from *storagemodels.Position, mode datastore.PositionMode) (storagemodels.FetchResult[T], error) {
	if r.orderBy.HasOrder() {
		return storagemodels.FetchResult[T]{}, errors.NewArgumentError("OrderBy", "ordering is only supported by the cached strategy; choose an index instead")
	}
	if r.index >= e.store.Indexes() {
		return storagemodels.FetchResult[T]{}, errors.NewArgumentError("Index", fmt.Sprintf("store %s has %d indexes", e.name, e.store.Indexes()))
	}

	items := make([]T, 0, max(r.pageSize, 0))
	var last *storagemodels.Position
	more := false
	_, err := datastore.Scan(ctx, e.store, r.index, from, mode, func(rec *datastore.Record) (bool, error) {
		m, err := e.mapper.DecodeRecord(rec, datastore.Fingerprint(rec))
		if err != nil {
			e.logger.Warn("skipping unmappable record", "key", rec.KeyString(), "error", err)
			return true, nil
		}
		if r.filter != nil && !r.filter(m) {
			return true, nil
		}
		if last != nil {
			more = true
			return false, nil
		}
		items = append(items, m)
		if r.pageSize > 0 && len(items) == r.pageSize {
			pos := rec.Position(r.index)
			last = &pos
		}
		return true, nil
	})
	if err != nil {
		return storagemodels.FetchResult[T]{}, err
	}

	res := storagemodels.FetchResult[T]{Items: items}
	if more {
		tok, err := e.issueToken(ctx, r, 0, last)
		if err != nil {
			return storagemodels.FetchResult[T]{}, err
		}
		res.Token = tok
	}
	e.logger.Debug("fetch", "index", r.index, "items", len(items), "more", more)
	return res, nil
}

func (e *Engine[T, K]) indexedFirst(ctx context.Context, r *resolved[T]) (storagemodels.FetchResult[T], error) {
	return e.stream(ctx, r, nil, datastore.First)
}

// indexedNext resumes strictly after the last record of the previous page.
func (e *Engine[T, K]) indexedNext(ctx context.Context, r *resolved[T], info storagemodels.PaginationTokenInfo) (storagemodels.FetchResult[T], error) {
	if info.Position == nil {
		return storagemodels.FetchResult[T]{}, errors.NewInvalidTokenError("token carries no position")
	}
	if info.Position.Index != info.Index {
		return storagemodels.FetchResult[T]{}, errors.NewInvalidTokenError("position and index disagree")
	}
	return e.stream(ctx, r, info.Position, datastore.After)
}

// lookup performs one keyed read through an open handle.
func (e *Engine[T, K]) lookup(ctx context.Context, h datastore.Handle, pk K) (T, bool, error) {
	var zero T
	key := h.NewRecord()
	if err := e.mapper.EncodeKey(pk, key); err != nil {
		return zero, false, errors.NewArgumentError("pk", err.Error())
	}
	rec, err := h.Read(ctx, key)
	if err != nil {
		return zero, false, errors.WrapStoreError(e.name, "read", err)
	}
	if rec == nil {
		return zero, false, nil
	}
	m, err := e.mapper.DecodeRecord(rec, datastore.Fingerprint(rec))
	if err != nil {
		return zero, false, errors.NewMappingError(e.name, rec.KeyString(), err)
	}
	return m, true, nil
}

func (e *Engine[T, K]) withHandle(ctx context.Context, fn func(h datastore.Handle) error) (err error) {
	h, err := e.store.Open(ctx, datastore.ReadOnly)
	if err != nil {
		return errors.WrapStoreError(e.name, "open", err)
	}
	defer func() {
		if cerr := h.Close(); cerr != nil && err == nil {
			err = errors.WrapStoreError(e.name, "close", cerr)
		}
	}()
	return fn(h)
}

func (e *Engine[T, K]) indexedGetByPk(ctx context.Context, pk K) (m T, found bool, err error) {
	err = e.withHandle(ctx, func(h datastore.Handle) error {
		m, found, err = e.lookup(ctx, h, pk)
		return err
	})
	return m, found, err
}

func (e *Engine[T, K]) indexedFetchByPks(ctx context.Context, pks []K) ([]T, error) {
	out := make([]T, 0, len(pks))
	err := e.withHandle(ctx, func(h datastore.Handle) error {
		for _, pk := range pks {
			m, ok, err := e.lookup(ctx, h, pk)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
