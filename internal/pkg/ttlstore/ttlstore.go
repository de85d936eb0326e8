package ttlstore

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is an in-process key/value map where every entry carries its own
// time-to-live. Expired entries are never returned; Sweep (or Run) reclaims them.
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	now     func() time.Time
}

// Option configures a Store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New[K comparable, V any](opts ...Option) *Store[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[K, V]{
		entries: make(map[K]entry[V]),
		now:     o.now,
	}
}

// Set stores value under key until ttl elapses, replacing any previous value and ttl.
func (s *Store[K, V]) Set(key K, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[V]{value: value, expiresAt: s.now().Add(ttl)}
}

// Get returns the value for key if it has not expired.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Update applies fn to the live value for key (zero value and false when absent
// or expired) and stores the result with a fresh ttl. The read and the write
// happen under one lock, so concurrent updates of different fields of the same
// value cannot overwrite each other.
func (s *Store[K, V]) Update(key K, ttl time.Duration, fn func(current V, found bool) V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	current, found := s.entries[key]
	if found && !now.Before(current.expiresAt) {
		found = false
		current = entry[V]{}
	}
	s.entries[key] = entry[V]{value: fn(current.value, found), expiresAt: now.Add(ttl)}
}

// Sweep removes expired entries and returns how many were dropped.
func (s *Store[K, V]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, including expired ones not yet swept.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Run sweeps every interval until ctx is done.
func (s *Store[K, V]) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep()
		}
	}
}
