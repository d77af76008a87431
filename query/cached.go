/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"
	"fmt"
	"slices"

	"github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/registry"
	"github.com/suparena/recordengine/storagemodels"
)

// comparator folds the sort clauses into one stable comparison. It
// returns nil when no ordering is requested.
func (e *Engine[T, K]) comparator(o storagemodels.OrderByInfo) (func(a, b T) int, error) {
	clauses := o.Clauses()
	if len(clauses) == 0 {
		return nil, nil
	}
	if e.fields == nil {
		return nil, errors.NewArgumentError("OrderBy", "no sortable fields are registered for this model")
	}
	cmps := make([]registry.FieldComparator[T], len(clauses))
	for i, c := range clauses {
		f, ok := e.fields.Lookup(c.Field)
		if !ok {
			return nil, errors.NewArgumentError("OrderBy", fmt.Sprintf("unknown field %q", c.Field))
		}
		if c.Direction == storagemodels.Descending {
			asc := f
			f = func(a, b T) int { return asc(b, a) }
		}
		cmps[i] = f
	}
	return func(a, b T) int {
		for _, cmp := range cmps {
			if r := cmp(a, b); r != 0 {
				return r
			}
		}
		return 0
	}, nil
}

// selection filters and sorts the cached extent into a new slice.
func (e *Engine[T, K]) selection(ctx context.Context, r *resolved[T]) ([]T, error) {
	cmp, err := e.comparator(r.orderBy)
	if err != nil {
		return nil, err
	}
	all, err := e.extent.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, m := range all {
		if r.filter == nil || r.filter(m) {
			out = append(out, m)
		}
	}
	if cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out, nil
}

// page slices page number n out of items and issues a token when items
// continue past it.
func (e *Engine[T, K]) page(ctx context.Context, r *resolved[T], items []T, n int) (storagemodels.FetchResult[T], error) {
	if r.pageSize == 0 {
		if n > 0 {
			return storagemodels.FetchResult[T]{Items: []T{}}, nil
		}
		return storagemodels.FetchResult[T]{Items: items}, nil
	}
	start := n * r.pageSize
	if start >= len(items) {
		return storagemodels.FetchResult[T]{Items: []T{}}, nil
	}
	end := min(start+r.pageSize, len(items))
	res := storagemodels.FetchResult[T]{Items: items[start:end:end]}
	if end < len(items) {
		tok, err := e.issueToken(ctx, r, n+1, nil)
		if err != nil {
			return storagemodels.FetchResult[T]{}, err
		}
		res.Token = tok
	}
	return res, nil
}

func (e *Engine[T, K]) cachedFirst(ctx context.Context, r *resolved[T]) (storagemodels.FetchResult[T], error) {
	items, err := e.selection(ctx, r)
	if err != nil {
		return storagemodels.FetchResult[T]{}, err
	}
	e.logger.Debug("fetch", "matched", len(items), "pageSize", r.pageSize, "orderBy", r.orderBy.String())
	return e.page(ctx, r, items, 0)
}

// cachedNext re-derives the filtered and sorted set, so a page reflects
// the store as of the redemption, not as of the first page.
func (e *Engine[T, K]) cachedNext(ctx context.Context, r *resolved[T], info storagemodels.PaginationTokenInfo) (storagemodels.FetchResult[T], error) {
	if info.NextPage <= 0 {
		return storagemodels.FetchResult[T]{}, errors.NewInvalidTokenError("token carries no page number")
	}
	items, err := e.selection(ctx, r)
	if err != nil {
		return storagemodels.FetchResult[T]{}, err
	}
	return e.page(ctx, r, items, info.NextPage)
}

func (e *Engine[T, K]) cachedGetByPk(ctx context.Context, pk K) (T, bool, error) {
	var zero T
	all, err := e.extent.FetchAll(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, m := range all {
		if e.mapper.Key(m) == pk {
			return m, true, nil
		}
	}
	return zero, false, nil
}

func (e *Engine[T, K]) cachedFetchByPks(ctx context.Context, pks []K) ([]T, error) {
	all, err := e.extent.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[K]int, len(pks))
	for i, pk := range pks {
		wanted[pk] = i
	}
	found := make([]*T, len(pks))
	for i := range all {
		if at, ok := wanted[e.mapper.Key(all[i])]; ok {
			found[at] = &all[i]
		}
	}
	out := make([]T, 0, len(pks))
	for _, m := range found {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}
