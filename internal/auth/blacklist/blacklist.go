// Package blacklist tracks access tokens that were invalidated before their
// natural expiry. Every request verification consults it after signature
// checking.
package blacklist

import (
	"context"
	"sync"
	"time"
)

// DefaultRetention is how long an entry outlives its insertion. It is
// deliberately independent of the token's own expiry: generous enough to
// outlast any access TTL plus clock skew, short enough to bound memory.
const DefaultRetention = 24 * time.Hour

// List is the revocation list consulted on every token verification.
type List interface {
	// Add inserts the token with the current timestamp. Idempotent; a
	// re-add keeps the original insertion time.
	Add(ctx context.Context, token string) error

	// Contains reports whether the token has been blacklisted. Must never
	// return a false negative for an Add that completed before the call.
	Contains(ctx context.Context, token string) (bool, error)

	// Sweep removes entries older than the retention window, measured
	// from now. Returns how many entries were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Memory is the process-local List. Lookups take a read lock only; the
// sweep deletes one entry per write-lock acquisition so it never stalls
// verification for more than a single removal.
//
// Process-local by design: multi-instance deployments need the Redis
// driver or sticky routing.
type Memory struct {
	mu        sync.RWMutex
	entries   map[string]time.Time // token -> blacklisted-at
	retention time.Duration
}

// NewMemory returns an empty in-memory list. A non-positive retention
// falls back to DefaultRetention.
func NewMemory(retention time.Duration) *Memory {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Memory{
		entries:   make(map[string]time.Time),
		retention: retention,
	}
}

func (m *Memory) Add(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[token]; !ok {
		m.entries[token] = time.Now().UTC()
	}
	return nil
}

func (m *Memory) Contains(ctx context.Context, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[token]
	return ok, nil
}

func (m *Memory) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-m.retention)

	// Snapshot stale candidates under the read lock, then delete them one
	// write-lock acquisition at a time. Each deletion rechecks the entry
	// in case it was re-added between snapshot and removal.
	m.mu.RLock()
	var stale []string
	for token, at := range m.entries {
		if at.Before(cutoff) {
			stale = append(stale, token)
		}
	}
	m.mu.RUnlock()

	removed := 0
	for _, token := range stale {
		m.mu.Lock()
		if at, ok := m.entries[token]; ok && at.Before(cutoff) {
			delete(m.entries, token)
			removed++
		}
		m.mu.Unlock()
	}
	return removed, nil
}

// Len reports the current entry count. Used by the sweep job's logging.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
