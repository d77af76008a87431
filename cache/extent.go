/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"context"
	"reflect"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/errors"
)

const keySeparator = "|"

// Extent is the typed view of one store's cache entry for model type T.
type Extent[T any, K comparable] struct {
	m      *Manager
	store  datastore.RecordStore
	mapper datastore.Mapper[T, K]
	key    string
}

// NewExtent binds a store and mapper to the manager. The cache key is the
// store name plus the model type, so two model types over one store keep
// separate entries.
func NewExtent[T any, K comparable](m *Manager, store datastore.RecordStore, mapper datastore.Mapper[T, K]) *Extent[T, K] {
	return &Extent[T, K]{
		m:      m,
		store:  store,
		mapper: mapper,
		key:    store.Name() + keySeparator + reflect.TypeOf((*T)(nil)).Elem().String(),
	}
}

// Key returns the cache key.
func (e *Extent[T, K]) Key() string {
	return e.key
}

// FetchAll returns every mappable model of the store in primary key
// order. The returned slice is shared between callers and must not be
// modified.
//
// A fresh entry is returned without touching the store beyond the
// freshness check. Otherwise one full scan runs per (key, freshness)
// and concurrent callers wait for it; a waiter whose ctx ends returns
// early while the fill continues for the others.
func (e *Extent[T, K]) FetchAll(ctx context.Context) ([]T, error) {
	fp, err := e.store.Freshness(ctx)
	if err != nil {
		return nil, errors.WrapStoreError(e.store.Name(), "freshness", err)
	}
	if items, ok := e.m.lookup(e.key, fp); ok {
		e.m.hits.Add(1)
		e.m.logger.Debug("cache hit", "key", e.key)
		return items.([]T), nil
	}
	e.m.misses.Add(1)
	e.m.logger.Debug("cache miss", "key", e.key, "freshness", fp)

	ch := e.m.group.DoChan(e.key+"@"+fp, func() (any, error) {
		if items, ok := e.m.lookup(e.key, fp); ok {
			return items, nil
		}
		loadCtx := context.WithoutCancel(ctx)
		if e.m.loadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, e.m.loadTimeout)
			defer cancel()
		}
		return e.load(loadCtx, fp)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}

// load scans the store and installs the result under fingerprint.
func (e *Extent[T, K]) load(ctx context.Context, fingerprint string) ([]T, error) {
	e.m.scans.Add(1)
	items := make([]T, 0)
	dropped := 0
	_, err := datastore.Scan(ctx, e.store, 0, nil, datastore.First, func(rec *datastore.Record) (bool, error) {
		model, err := e.mapper.DecodeRecord(rec, datastore.Fingerprint(rec))
		if err != nil {
			dropped++
			e.m.logger.Warn("dropping unmappable record",
				"store", e.store.Name(),
				"key", rec.KeyString(),
				"error", errors.NewMappingError(e.store.Name(), rec.KeyString(), err))
			return true, nil
		}
		items = append(items, model)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	e.m.dropped.Add(int64(dropped))
	e.m.install(e.key, fingerprint, items)
	e.m.logger.Debug("cache filled", "key", e.key, "freshness", fingerprint, "items", len(items), "dropped", dropped)
	return items, nil
}
