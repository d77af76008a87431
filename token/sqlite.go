/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package token

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/oklog/ulid/v2"

	recerrors "github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/storagemodels"
)

// SQLiteStore persists tokens in a SQLite table so that a continuation
// survives the process that issued it. Tokens are redeemed with
// DELETE ... RETURNING, which makes redemption atomic across processes.
type SQLiteStore struct {
	db   *sql.DB
	opts options

	mu      sync.Mutex
	entropy io.Reader
}

// NewSQLiteStore creates the token table in db if needed.
func NewSQLiteStore(ctx context.Context, db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	if db == nil {
		return nil, recerrors.NewArgumentError("db", "is nil")
	}
	s := &SQLiteStore{
		db:      db,
		opts:    newOptions(opts),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS pagination_tokens (
		token      TEXT PRIMARY KEY,
		info       TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pagination_tokens_expires ON pagination_tokens(expires_at);
	`)
	return err
}

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.opts.clock.Now()), s.entropy).String()
}

// CreateToken persists info. A bare predicate cannot be persisted, so the
// criteria must use a named filter.
func (s *SQLiteStore) CreateToken(ctx context.Context, info storagemodels.PaginationTokenInfo) (string, error) {
	if err := validate(info); err != nil {
		return "", err
	}
	if info.Predicate != nil && info.FilterName == "" {
		return "", recerrors.NewArgumentError("filter", "durable tokens need a named filter, not an in-process predicate")
	}
	data, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("marshal token info: %w", err)
	}

	now := s.opts.clock.Now()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pagination_tokens WHERE expires_at <= ?`, now.UnixNano()); err != nil {
		return "", recerrors.WrapStoreError("pagination_tokens", "sweep", err)
	}

	id := s.newID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pagination_tokens (token, info, expires_at) VALUES (?, ?, ?)`,
		id, string(data), now.Add(s.opts.ttl).UnixNano())
	if err != nil {
		return "", recerrors.WrapStoreError("pagination_tokens", "create", err)
	}
	s.opts.logger.Debug("continuation token created", "store", info.Store, "strategy", info.Strategy, "durable", true)
	return id, nil
}

// DecodeToken redeems and removes a token.
func (s *SQLiteStore) DecodeToken(ctx context.Context, token string) (storagemodels.PaginationTokenInfo, bool, error) {
	var info storagemodels.PaginationTokenInfo
	if token == "" {
		return info, false, nil
	}

	var data string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM pagination_tokens WHERE token = ? RETURNING info, expires_at`, token).
		Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return info, false, nil
	}
	if err != nil {
		return info, false, recerrors.WrapStoreError("pagination_tokens", "redeem", err)
	}
	if s.opts.clock.Now().UnixNano() >= expiresAt {
		return info, false, nil
	}
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return info, false, recerrors.WrapStoreError("pagination_tokens", "redeem", err)
	}
	s.opts.logger.Debug("continuation token redeemed", "store", info.Store, "durable", true)
	return info, true, nil
}

var _ Store = (*SQLiteStore)(nil)
