/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package token

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/recordengine/storagemodels"
)

type memoryEntry struct {
	info    storagemodels.PaginationTokenInfo
	expires time.Time
}

// MemoryStore keeps tokens in process memory. It can carry in-process
// filter predicates, which a durable store cannot.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	opts    options
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		opts:    newOptions(opts),
	}
}

// CreateToken stores info under a random UUID.
func (s *MemoryStore) CreateToken(ctx context.Context, info storagemodels.PaginationTokenInfo) (string, error) {
	if err := validate(info); err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := s.opts.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[id] = memoryEntry{info: info, expires: now.Add(s.opts.ttl)}
	s.opts.logger.Debug("continuation token created", "store", info.Store, "strategy", info.Strategy)
	return id, nil
}

// DecodeToken redeems and removes a token.
func (s *MemoryStore) DecodeToken(ctx context.Context, token string) (storagemodels.PaginationTokenInfo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return storagemodels.PaginationTokenInfo{}, false, nil
	}
	delete(s.entries, token)
	if !s.opts.clock.Now().Before(e.expires) {
		return storagemodels.PaginationTokenInfo{}, false, nil
	}
	s.opts.logger.Debug("continuation token redeemed", "store", e.info.Store)
	return e.info, true, nil
}

// Len returns the number of live or not yet swept tokens.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
