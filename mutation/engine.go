/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mutation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/errors"
)

const (
	reasonChanged = "changed concurrently"
	reasonDeleted = "deleted concurrently"
)

type settings struct {
	logger *slog.Logger
}

// Option configures an Engine
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// Engine writes models of type T straight to the store, bypassing any
// cache. Update and Delete are guarded by the model's concurrency token:
// the write goes through only if the stored record still has the
// fingerprint the caller last read.
type Engine[T any, K comparable] struct {
	name   string
	store  datastore.RecordStore
	mapper datastore.Mapper[T, K]
	logger *slog.Logger
}

// New creates a mutation engine over store.
func New[T any, K comparable](store datastore.RecordStore, mapper datastore.Mapper[T, K], opts ...Option) (*Engine[T, K], error) {
	if store == nil {
		return nil, errors.NewArgumentError("store", "is nil")
	}
	if mapper == nil {
		return nil, errors.NewArgumentError("mapper", "is nil")
	}
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine[T, K]{
		name:   store.Name(),
		store:  store,
		mapper: mapper,
		logger: s.logger.With("store", store.Name()),
	}, nil
}

// Insert writes a new record for model and returns the model as stored,
// carrying its concurrency token. A taken primary key is an
// AlreadyExistsError.
func (e *Engine[T, K]) Insert(ctx context.Context, model T) (stored T, err error) {
	if isNil(model) {
		return stored, errors.NewArgumentError("model", "is nil")
	}
	err = e.withHandle(ctx, func(h datastore.Handle) error {
		rec := h.NewRecord()
		if err := e.mapper.EncodeModel(model, rec); err != nil {
			return errors.NewArgumentError("model", err.Error())
		}
		if err := h.Write(ctx, rec); err != nil {
			return errors.WrapStoreError(e.name, "write", err)
		}
		stored, err = e.reread(ctx, h, rec)
		return err
	})
	if err != nil {
		return stored, err
	}
	e.logger.Debug("inserted", "key", fmt.Sprint(e.mapper.Key(model)))
	return stored, nil
}

// Update rewrites the record of model if its stored fingerprint still
// equals the model's concurrency token. A vanished record or a fingerprint
// mismatch is a ConcurrencyError and nothing is written.
func (e *Engine[T, K]) Update(ctx context.Context, model T) (stored T, err error) {
	if isNil(model) {
		return stored, errors.NewArgumentError("model", "is nil")
	}
	pk, tok := e.mapper.Key(model), e.mapper.Token(model)
	if tok == "" {
		return stored, errors.NewArgumentError("token", "model carries no concurrency token")
	}
	err = e.withHandle(ctx, func(h datastore.Handle) error {
		locked, err := e.lock(ctx, h, "update", pk, tok)
		if err != nil {
			return err
		}
		if locked == nil {
			return e.conflict("update", pk, reasonDeleted)
		}
		if err := e.mapper.EncodeModel(model, locked); err != nil {
			return errors.NewArgumentError("model", err.Error())
		}
		if err := h.Rewrite(ctx, locked); err != nil {
			return errors.WrapStoreError(e.name, "rewrite", err)
		}
		stored, err = e.reread(ctx, h, locked)
		return err
	})
	if err != nil {
		return stored, err
	}
	e.logger.Debug("updated", "key", fmt.Sprint(pk))
	return stored, nil
}

// Delete removes the record of model, guarded like Update.
func (e *Engine[T, K]) Delete(ctx context.Context, model T) error {
	if isNil(model) {
		return errors.NewArgumentError("model", "is nil")
	}
	return e.DeleteByPk(ctx, e.mapper.Key(model), e.mapper.Token(model))
}

// DeleteByPk removes the record with primary key pk if its fingerprint
// equals token. Deleting a record that does not exist succeeds.
func (e *Engine[T, K]) DeleteByPk(ctx context.Context, pk K, token string) error {
	if token == "" {
		return errors.NewArgumentError("token", "is empty")
	}
	return e.withHandle(ctx, func(h datastore.Handle) error {
		locked, err := e.lock(ctx, h, "delete", pk, token)
		if err != nil {
			return err
		}
		if locked == nil {
			e.logger.Debug("delete of absent record", "key", fmt.Sprint(pk))
			return nil
		}
		if err := h.Delete(ctx, locked); err != nil {
			return errors.WrapStoreError(e.name, "delete", err)
		}
		e.logger.Debug("deleted", "key", fmt.Sprint(pk))
		return nil
	})
}

// lock read-locks the record with primary key pk and checks its
// fingerprint against token. It returns nil when the record is absent.
func (e *Engine[T, K]) lock(ctx context.Context, h datastore.Handle, op string, pk K, token string) (*datastore.Record, error) {
	key := h.NewRecord()
	if err := e.mapper.EncodeKey(pk, key); err != nil {
		return nil, errors.NewArgumentError("pk", err.Error())
	}
	locked, err := h.ReadLock(ctx, key)
	if err != nil {
		return nil, errors.WrapStoreError(e.name, "read_lock", err)
	}
	if locked == nil {
		return nil, nil
	}
	if current := datastore.Fingerprint(locked); current != token {
		return nil, e.conflict(op, pk, reasonChanged)
	}
	return locked, nil
}

func (e *Engine[T, K]) conflict(op string, pk K, reason string) error {
	key := fmt.Sprint(pk)
	e.logger.Info("concurrency conflict", "op", op, "key", key, "reason", reason)
	return errors.NewConcurrencyError(op, key, reason)
}

// reread decodes the record as the store now holds it, so the returned
// model carries the token a following Update must present. If the store
// cannot read its own write back, the written record stands in.
func (e *Engine[T, K]) reread(ctx context.Context, h datastore.Handle, written *datastore.Record) (T, error) {
	rec, err := h.Read(ctx, written)
	if err != nil || rec == nil {
		e.logger.Debug("read after write failed", "key", written.KeyString(), "error", err)
		rec = written
	}
	m, err := e.mapper.DecodeRecord(rec, datastore.Fingerprint(rec))
	if err != nil {
		return m, errors.NewMappingError(e.name, rec.KeyString(), err)
	}
	return m, nil
}

func (e *Engine[T, K]) withHandle(ctx context.Context, fn func(h datastore.Handle) error) (err error) {
	h, err := e.store.Open(ctx, datastore.ReadWrite)
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

func isNil[T any](model T) bool {
	v := reflect.ValueOf(any(model))
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
