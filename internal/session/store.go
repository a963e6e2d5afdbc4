package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Store keeps sessions in memory. Every successful Get pushes the expiry
// out by the idle TTL.
type Store struct {
	items *cache.Cache
	ttl   time.Duration
}

// NewStore creates a store whose sessions expire after ttl without use.
func NewStore(ttl time.Duration) *Store {
	items := cache.New(ttl, cleanupInterval(ttl))
	items.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Close()
		}
	})
	return &Store{items: items, ttl: ttl}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval > 10*time.Minute {
		interval = 10 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return interval
}

// Create starts a new session.
func (st *Store) Create() *Session {
	s := New(uuid.NewString())
	st.items.Set(s.ID, s, cache.DefaultExpiration)
	return s
}

// Get returns the session and renews its lease.
func (st *Store) Get(id string) (*Session, error) {
	v, ok := st.items.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s, ok := v.(*Session)
	if !ok {
		return nil, ErrNotFound
	}
	st.items.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

// Delete ends a session. Its in-flight scan, if any, is cancelled.
func (st *Store) Delete(id string) error {
	if _, ok := st.items.Get(id); !ok {
		return ErrNotFound
	}
	st.items.Delete(id)
	return nil
}

// Len counts sessions, including expired ones not yet swept.
func (st *Store) Len() int {
	return st.items.ItemCount()
}

// TTL is the idle lifetime of a session.
func (st *Store) TTL() time.Duration {
	return st.ttl
}
