/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordengine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/suparena/recordengine/cache"
	"github.com/suparena/recordengine/config"
	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/datastore/ddb"
	"github.com/suparena/recordengine/datastore/sqlite"
	"github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/query"
	"github.com/suparena/recordengine/token"
)

// Runtime holds the process-wide pieces shared by repositories: one cache
// manager, one token store, the logger and the record stores opened so far.
// Create it once and pass it by reference.
type Runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	strategy query.Strategy
	cache    *cache.Manager
	tokens   token.Store

	mu     sync.RWMutex
	stores map[string]datastore.RecordStore
	db     *sqlite.DB
}

// RuntimeOption configures a Runtime
type RuntimeOption func(*Runtime)

// WithLogger replaces the logger built from the log configuration.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) { r.logger = l }
}

// WithTokenStore replaces the configured token store.
func WithTokenStore(s token.Store) RuntimeOption {
	return func(r *Runtime) { r.tokens = s }
}

// NewRuntime builds a runtime from cfg. A nil cfg uses the defaults.
func NewRuntime(ctx context.Context, cfg *config.Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		d := config.DefaultConfig()
		cfg = &d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := query.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		cfg:      *cfg,
		strategy: strategy,
		stores:   make(map[string]datastore.RecordStore),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = cfg.Log.NewLogger(os.Stderr)
	}

	r.cache = cache.NewManager(
		cache.WithIdleTTL(cfg.Cache.IdleTTL),
		cache.WithLoadTimeout(cfg.Cache.LoadTimeout),
		cache.WithLogger(r.logger.With("component", "cache")),
	)

	if r.tokens == nil {
		tokenOpts := []token.Option{
			token.WithTTL(cfg.Tokens.TTL),
			token.WithLogger(r.logger.With("component", "tokens")),
		}
		switch cfg.Tokens.Backend {
		case config.TokenBackendSQLite:
			db, err := r.SQLite()
			if err != nil {
				return nil, err
			}
			s, err := token.NewSQLiteStore(ctx, db.SQL(), tokenOpts...)
			if err != nil {
				_ = r.Close()
				return nil, err
			}
			r.tokens = s
		default:
			r.tokens = token.NewMemoryStore(tokenOpts...)
		}
	}

	r.logger.Debug("runtime ready", "strategy", strategy.String(), "tokens", cfg.Tokens.Backend)
	return r, nil
}

// Config returns a copy of the configuration.
func (r *Runtime) Config() config.Config { return r.cfg }

// Logger returns the runtime logger.
func (r *Runtime) Logger() *slog.Logger { return r.logger }

// Strategy returns the configured default query strategy.
func (r *Runtime) Strategy() query.Strategy { return r.strategy }

// Cache returns the shared cache manager.
func (r *Runtime) Cache() *cache.Manager { return r.cache }

// Tokens returns the shared token store.
func (r *Runtime) Tokens() token.Store { return r.tokens }

// SQLite opens the configured SQLite database on first use.
func (r *Runtime) SQLite() (*sqlite.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		return r.db, nil
	}
	db, err := sqlite.Open(r.cfg.SQLite.Path, r.logger.With("component", "sqlite"))
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// OpenSQLiteStore opens (creating if needed) the SQLite record store name
// and registers it.
func (r *Runtime) OpenSQLiteStore(ctx context.Context, name string, indexes int) (*sqlite.Store, error) {
	db, err := r.SQLite()
	if err != nil {
		return nil, err
	}
	s, err := db.Store(ctx, name, indexes)
	if err != nil {
		return nil, err
	}
	if err := r.RegisterStore(s); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenDynamoDBStore connects to the configured DynamoDB table and
// registers a record store named name.
func (r *Runtime) OpenDynamoDBStore(ctx context.Context, name string, indexes int, opts ...ddb.Option) (*ddb.Store, error) {
	c := r.cfg.DynamoDB
	if c.Table == "" {
		return nil, errors.NewArgumentError("dynamodb.table", "is required")
	}
	opts = append([]ddb.Option{ddb.WithLogger(r.logger.With("component", "dynamodb"))}, opts...)
	s, err := ddb.NewFromCredentials(ctx, c.AccessKey, c.SecretKey, c.Region, c.Table, name, indexes, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.RegisterStore(s); err != nil {
		return nil, err
	}
	return s, nil
}

// RegisterStore makes store available by name.
func (r *Runtime) RegisterStore(store datastore.RecordStore) error {
	if store == nil {
		return errors.NewArgumentError("store", "is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.stores[store.Name()]; exists {
		return errors.NewAlreadyExistsError("record store", store.Name())
	}
	r.stores[store.Name()] = store
	return nil
}

// Store returns the registered record store name.
func (r *Runtime) Store(name string) (datastore.RecordStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, exists := r.stores[name]
	if !exists {
		return nil, errors.NewNotFoundError("record store", name)
	}
	return s, nil
}

// Stores lists the registered store names in sorted order.
func (r *Runtime) Stores() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for n := range r.stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close releases the SQLite database if one was opened.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	if err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
