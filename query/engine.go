/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/suparena/recordengine/cache"
	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/registry"
	"github.com/suparena/recordengine/storagemodels"
	"github.com/suparena/recordengine/token"
)

type settings struct {
	strategy Strategy
	manager  *cache.Manager
	tokens   token.Store
	fields   any
	logger   *slog.Logger
}

// Option configures an Engine
type Option func(*settings)

// WithStrategy selects the evaluation strategy. The default is Cached.
func WithStrategy(s Strategy) Option {
	return func(o *settings) { o.strategy = s }
}

// WithCache shares a cache manager between engines. Without it a Cached
// engine gets a private manager.
func WithCache(m *cache.Manager) Option {
	return func(o *settings) { o.manager = m }
}

// WithTokenStore sets the continuation token store. The default is an
// in-memory store private to the engine.
func WithTokenStore(s token.Store) Option {
	return func(o *settings) { o.tokens = s }
}

// WithFields sets the sortable field table. Without it the table
// registered for T in the registry is used.
func WithFields[T any](fields registry.FieldSet[T]) Option {
	return func(o *settings) { o.fields = fields }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *settings) { o.logger = l }
}

// Engine evaluates fetch criteria for models of type T keyed by K.
type Engine[T any, K comparable] struct {
	name     string
	store    datastore.RecordStore
	mapper   datastore.Mapper[T, K]
	strategy Strategy
	extent   *cache.Extent[T, K]
	tokens   token.Store
	fields   registry.FieldSet[T]
	logger   *slog.Logger

	first      func(ctx context.Context, c *resolved[T]) (storagemodels.FetchResult[T], error)
	next       func(ctx context.Context, c *resolved[T], info storagemodels.PaginationTokenInfo) (storagemodels.FetchResult[T], error)
	getByPk    func(ctx context.Context, pk K) (T, bool, error)
	fetchByPks func(ctx context.Context, pks []K) ([]T, error)
}

// resolved is criteria with the filter looked up.
type resolved[T any] struct {
	pageSize   int
	filter     func(T) bool
	filterName string
	predicate  bool
	orderBy    storagemodels.OrderByInfo
	index      int
}

// New creates a query engine over store. The strategy functions are
// chosen here, once.
func New[T any, K comparable](store datastore.RecordStore, mapper datastore.Mapper[T, K], opts ...Option) (*Engine[T, K], error) {
	if store == nil {
		return nil, errors.NewArgumentError("store", "is nil")
	}
	if mapper == nil {
		return nil, errors.NewArgumentError("mapper", "is nil")
	}
	s := settings{strategy: Cached}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.tokens == nil {
		s.tokens = token.NewMemoryStore(token.WithLogger(s.logger))
	}

	e := &Engine[T, K]{
		name:     store.Name(),
		store:    store,
		mapper:   mapper,
		strategy: s.strategy,
		tokens:   s.tokens,
		logger:   s.logger.With("store", store.Name(), "strategy", s.strategy.String()),
	}

	switch f := s.fields.(type) {
	case nil:
		e.fields, _ = registry.GetFields[T]()
	case registry.FieldSet[T]:
		e.fields = f
	default:
		return nil, errors.NewArgumentError("fields", fmt.Sprintf("field table of type %T does not match the model type", s.fields))
	}

	switch s.strategy {
	case Cached:
		if s.manager == nil {
			s.manager = cache.NewManager(cache.WithLogger(s.logger))
		}
		e.extent = cache.NewExtent(s.manager, store, mapper)
		e.first = e.cachedFirst
		e.next = e.cachedNext
		e.getByPk = e.cachedGetByPk
		e.fetchByPks = e.cachedFetchByPks
	case Indexed:
		e.first = e.indexedFirst
		e.next = e.indexedNext
		e.getByPk = e.indexedGetByPk
		e.fetchByPks = e.indexedFetchByPks
	default:
		return nil, errors.NewArgumentError("strategy", fmt.Sprintf("unknown strategy %d", int(s.strategy)))
	}
	return e, nil
}

// Name returns the store name, which tokens are bound to.
func (e *Engine[T, K]) Name() string { return e.name }

// Strategy returns the evaluation strategy.
func (e *Engine[T, K]) Strategy() Strategy { return e.strategy }

// Fetch returns the first page of models matching criteria. A nil
// criteria fetches everything in one page.
func (e *Engine[T, K]) Fetch(ctx context.Context, criteria *storagemodels.FetchCriteria[T]) (storagemodels.FetchResult[T], error) {
	if criteria == nil {
		criteria = &storagemodels.FetchCriteria[T]{}
	}
	if err := criteria.Validate(); err != nil {
		return storagemodels.FetchResult[T]{}, err
	}
	r := &resolved[T]{
		pageSize:   criteria.PageSize,
		filter:     criteria.Filter,
		filterName: criteria.FilterName,
		predicate:  criteria.Filter != nil,
		orderBy:    criteria.OrderBy,
		index:      criteria.Index,
	}
	if r.filterName != "" {
		f, err := e.lookupFilter(r.filterName)
		if err != nil {
			return storagemodels.FetchResult[T]{}, err
		}
		r.filter = f
	}
	return e.first(ctx, r)
}

// FetchNext redeems a continuation token and returns the page it points
// to. A token is single use; redeeming it twice, after expiry or at an
// engine over another store or strategy is an InvalidTokenError.
func (e *Engine[T, K]) FetchNext(ctx context.Context, tok string) (storagemodels.FetchResult[T], error) {
	if tok == "" {
		return storagemodels.FetchResult[T]{}, errors.NewArgumentError("token", "is empty")
	}
	info, ok, err := e.tokens.DecodeToken(ctx, tok)
	if err != nil {
		return storagemodels.FetchResult[T]{}, err
	}
	if !ok {
		return storagemodels.FetchResult[T]{}, errors.NewInvalidTokenError("unknown, expired or already used")
	}
	if info.Store != e.name || info.Strategy != e.strategy.String() {
		return storagemodels.FetchResult[T]{}, errors.NewInvalidTokenError(
			fmt.Sprintf("issued by %s/%s, redeemed at %s/%s", info.Store, info.Strategy, e.name, e.strategy))
	}
	if !info.ResumeModeValid() {
		return storagemodels.FetchResult[T]{}, errors.NewInvalidTokenError("malformed resume state")
	}

	orderBy, err := storagemodels.NewOrderBy(info.OrderBy...)
	if err != nil {
		return storagemodels.FetchResult[T]{}, errors.NewInvalidTokenError("malformed ordering")
	}
	r := &resolved[T]{
		pageSize:   info.PageSize,
		filterName: info.FilterName,
		orderBy:    orderBy,
		index:      info.Index,
	}
	switch {
	case info.Predicate != nil:
		f, ok := info.Predicate.(func(T) bool)
		if !ok {
			return storagemodels.FetchResult[T]{}, errors.NewInvalidTokenError("filter does not match the model type")
		}
		r.filter, r.predicate = f, true
	case info.FilterName != "":
		f, err := e.lookupFilter(info.FilterName)
		if err != nil {
			return storagemodels.FetchResult[T]{}, err
		}
		r.filter = f
	}
	return e.next(ctx, r, info)
}

// GetByPk returns the model with primary key pk and whether it exists.
func (e *Engine[T, K]) GetByPk(ctx context.Context, pk K) (T, bool, error) {
	return e.getByPk(ctx, pk)
}

// FetchByPks returns the models whose keys are in pks, in order of first
// appearance in pks. Missing keys are skipped and duplicates collapse.
func (e *Engine[T, K]) FetchByPks(ctx context.Context, pks []K) ([]T, error) {
	if len(pks) == 0 {
		return nil, errors.NewArgumentError("pks", "at least one key is required")
	}
	return e.fetchByPks(ctx, dedupe(pks))
}

func (e *Engine[T, K]) lookupFilter(name string) (func(T) bool, error) {
	f, err := registry.GetFilter[T](name)
	if errors.IsNotFound(err) {
		return nil, errors.NewArgumentError("FilterName", fmt.Sprintf("unknown filter %q", name))
	}
	return f, err
}

// issueToken stores the resume state of r. Exactly one of nextPage and
// pos is set by the caller.
func (e *Engine[T, K]) issueToken(ctx context.Context, r *resolved[T], nextPage int, pos *storagemodels.Position) (string, error) {
	info := storagemodels.PaginationTokenInfo{
		Store:      e.name,
		Strategy:   e.strategy.String(),
		PageSize:   r.pageSize,
		FilterName: r.filterName,
		OrderBy:    r.orderBy.Clauses(),
		Index:      r.index,
		NextPage:   nextPage,
		Position:   pos,
	}
	if r.predicate {
		info.Predicate = r.filter
	}
	tok, err := e.tokens.CreateToken(ctx, info)
	if err != nil {
		return "", err
	}
	e.logger.Debug("continuation issued", "nextPage", nextPage, "position", pos != nil)
	return tok, nil
}

func dedupe[K comparable](pks []K) []K {
	seen := make(map[K]struct{}, len(pks))
	out := make([]K, 0, len(pks))
	for _, pk := range pks {
		if _, ok := seen[pk]; ok {
			continue
		}
		seen[pk] = struct{}{}
		out = append(out, pk)
	}
	return out
}
