/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/suparena/recordengine/internal/clock"
)

// DefaultIdleTTL is how long an entry survives without being read.
const DefaultIdleTTL = 10 * time.Minute

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Scans     int64 `json:"scans"`
	Dropped   int64 `json:"dropped"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

type entry struct {
	fingerprint string
	items       any
	lastAccess  time.Time
}

// Manager owns the full-extent cache entries of one process. Share one
// Manager between all engines that should see the same cache.
type Manager struct {
	mu        sync.Mutex
	entries   map[string]*entry
	lastSweep time.Time

	group singleflight.Group

	idleTTL     time.Duration
	loadTimeout time.Duration
	clock       clock.Clock
	logger      *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	scans     atomic.Int64
	dropped   atomic.Int64
	evictions atomic.Int64
}

// Option configures a Manager
type Option func(*Manager)

// WithIdleTTL sets the sliding idle expiration of entries.
func WithIdleTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.idleTTL = d
		}
	}
}

// WithLoadTimeout bounds a fill. Fills are detached from the caller's
// context so that one cancelled caller does not fail the others.
func WithLoadTimeout(d time.Duration) Option {
	return func(m *Manager) { m.loadTimeout = d }
}

// WithClock sets the clock used for idle expiration.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates an empty cache manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		entries: make(map[string]*entry),
		idleTTL: DefaultIdleTTL,
		clock:   clock.System(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lastSweep = m.clock.Now()
	return m
}

// lookup returns the entry items when the entry exists, is not idle
// expired and carries fingerprint. A hit slides the idle window.
func (m *Manager) lookup(key, fingerprint string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.sweepLocked(now)

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if now.Sub(e.lastAccess) > m.idleTTL {
		delete(m.entries, key)
		m.evictions.Add(1)
		m.logger.Debug("cache entry expired", "key", key)
		return nil, false
	}
	if e.fingerprint != fingerprint {
		return nil, false
	}
	e.lastAccess = now
	return e.items, true
}

func (m *Manager) install(key, fingerprint string, items any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = &entry{fingerprint: fingerprint, items: items, lastAccess: m.clock.Now()}
}

// sweepLocked drops idle entries, at most once per idle window. Caller holds mu.
func (m *Manager) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < m.idleTTL {
		return
	}
	m.lastSweep = now
	for key, e := range m.entries {
		if now.Sub(e.lastAccess) > m.idleTTL {
			delete(m.entries, key)
			m.evictions.Add(1)
			m.logger.Debug("cache entry evicted", "key", key)
		}
	}
}

// Invalidate drops every entry of the named store, whatever the model type.
func (m *Manager) Invalidate(store string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := store + keySeparator
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
}

// Clear drops every entry.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
}

// Stats returns a snapshot of the counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	n := len(m.entries)
	m.mu.Unlock()
	return Stats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Scans:     m.scans.Load(),
		Dropped:   m.dropped.Load(),
		Evictions: m.evictions.Load(),
		Entries:   n,
	}
}
