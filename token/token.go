/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package token

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/internal/clock"
	"github.com/suparena/recordengine/storagemodels"
)

// DefaultTTL is the lifetime of an unredeemed token.
const DefaultTTL = 15 * time.Minute

// Store issues and redeems single-use continuation tokens.
type Store interface {
	// CreateToken stores info and returns an opaque, unpredictable token.
	CreateToken(ctx context.Context, info storagemodels.PaginationTokenInfo) (string, error)

	// DecodeToken redeems token. It reports false when the token is
	// unknown, expired or already redeemed.
	DecodeToken(ctx context.Context, token string) (storagemodels.PaginationTokenInfo, bool, error)
}

type options struct {
	ttl    time.Duration
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a token store
type Option func(*options)

// WithTTL sets the token lifetime.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithClock sets the clock used for expiry.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		ttl:    DefaultTTL,
		clock:  clock.System(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func validate(info storagemodels.PaginationTokenInfo) error {
	if !info.ResumeModeValid() {
		return errors.NewArgumentError("info", "exactly one of nextPage or position must be set")
	}
	return nil
}
