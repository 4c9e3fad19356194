// Package store holds the in-memory set of items that have already been
// alerted. It is the only component that decides whether an item is new.
package store

import (
	"sync"
	"time"

	"github.com/bakkerme/freegame-alerts/internal/core"
)

// Store maps item keys to the time they were first discovered. Entries are
// never updated or removed for the lifetime of the process.
type Store struct {
	mu      sync.Mutex
	entries map[core.ItemKey]time.Time
	now     func() time.Time
}

type Option func(*Store)

// WithClock overrides the clock used to stamp discoveredAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		entries: map[core.ItemKey]time.Time{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TryInsert records key if it is absent. It returns true only for the call
// that performed the insertion.
func (s *Store) TryInsert(key core.ItemKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = s.now()
	return true
}

// DiscoveredAt returns when key was first inserted.
func (s *Store) DiscoveredAt(key core.ItemKey) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.entries[key]
	return at, ok
}

func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
