/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordengine

import (
	"context"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/mutation"
	"github.com/suparena/recordengine/query"
	"github.com/suparena/recordengine/registry"
	"github.com/suparena/recordengine/storagemodels"
)

type repositoryOptions struct {
	strategy  *query.Strategy
	queryOpts []query.Option
}

// RepositoryOption configures a Repository
type RepositoryOption func(*repositoryOptions)

// WithStrategy overrides the runtime's default strategy.
func WithStrategy(s query.Strategy) RepositoryOption {
	return func(o *repositoryOptions) { o.strategy = &s }
}

// WithFields sets the sortable field table of the model.
func WithFields[T any](fields registry.FieldSet[T]) RepositoryOption {
	return func(o *repositoryOptions) {
		o.queryOpts = append(o.queryOpts, query.WithFields(fields))
	}
}

// Repository reads and writes models of type T in one record store. Reads
// go through the query engine and the runtime's shared cache and tokens;
// writes go straight to the store.
type Repository[T any, K comparable] struct {
	rt       *Runtime
	store    datastore.RecordStore
	query    *query.Engine[T, K]
	mutation *mutation.Engine[T, K]
}

// NewRepository binds store and mapper to the runtime.
func NewRepository[T any, K comparable](rt *Runtime, store datastore.RecordStore, mapper datastore.Mapper[T, K], opts ...RepositoryOption) (*Repository[T, K], error) {
	if rt == nil {
		return nil, errors.NewArgumentError("runtime", "is nil")
	}
	o := repositoryOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	strategy := rt.strategy
	if o.strategy != nil {
		strategy = *o.strategy
	}

	qopts := append([]query.Option{
		query.WithStrategy(strategy),
		query.WithCache(rt.cache),
		query.WithTokenStore(rt.tokens),
		query.WithLogger(rt.logger),
	}, o.queryOpts...)
	q, err := query.New(store, mapper, qopts...)
	if err != nil {
		return nil, err
	}
	m, err := mutation.New(store, mapper, mutation.WithLogger(rt.logger))
	if err != nil {
		return nil, err
	}
	return &Repository[T, K]{rt: rt, store: store, query: q, mutation: m}, nil
}

// Name returns the store name.
func (r *Repository[T, K]) Name() string { return r.store.Name() }

// Strategy returns the query strategy in use.
func (r *Repository[T, K]) Strategy() query.Strategy { return r.query.Strategy() }

// Fetch returns the first page matching criteria.
func (r *Repository[T, K]) Fetch(ctx context.Context, criteria *storagemodels.FetchCriteria[T]) (storagemodels.FetchResult[T], error) {
	return r.query.Fetch(ctx, criteria)
}

// FetchNext redeems a continuation token.
func (r *Repository[T, K]) FetchNext(ctx context.Context, token string) (storagemodels.FetchResult[T], error) {
	return r.query.FetchNext(ctx, token)
}

// FetchAll follows continuation tokens until the last page and returns
// every matching model.
func (r *Repository[T, K]) FetchAll(ctx context.Context, criteria *storagemodels.FetchCriteria[T]) ([]T, error) {
	page, err := r.query.Fetch(ctx, criteria)
	if err != nil {
		return nil, err
	}
	items := page.Items
	for page.HasMore() {
		if page, err = r.query.FetchNext(ctx, page.Token); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// GetByPk returns the model with primary key pk and whether it exists.
func (r *Repository[T, K]) GetByPk(ctx context.Context, pk K) (T, bool, error) {
	return r.query.GetByPk(ctx, pk)
}

// FetchByPks returns the models with the given keys.
func (r *Repository[T, K]) FetchByPks(ctx context.Context, pks []K) ([]T, error) {
	return r.query.FetchByPks(ctx, pks)
}

// Insert stores a new model.
func (r *Repository[T, K]) Insert(ctx context.Context, model T) (T, error) {
	return r.mutation.Insert(ctx, model)
}

// Update rewrites model if it is unchanged since it was read.
func (r *Repository[T, K]) Update(ctx context.Context, model T) (T, error) {
	return r.mutation.Update(ctx, model)
}

// Delete removes model if it is unchanged since it was read.
func (r *Repository[T, K]) Delete(ctx context.Context, model T) error {
	return r.mutation.Delete(ctx, model)
}

// DeleteByPk removes the record pk if its fingerprint equals token.
func (r *Repository[T, K]) DeleteByPk(ctx context.Context, pk K, token string) error {
	return r.mutation.DeleteByPk(ctx, pk, token)
}

// Invalidate drops the cached extents of the repository's store.
func (r *Repository[T, K]) Invalidate() {
	r.rt.cache.Invalidate(r.store.Name())
}
