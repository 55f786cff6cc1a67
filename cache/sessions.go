package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxSessions bounds how many session caches are kept in memory.
const DefaultMaxSessions = 512

// Sessions hands out one Cache per session id. The least recently used
// session is evicted once the limit is reached.
type Sessions struct {
	caches *lru.Cache[string, *Cache]
}

// NewSessions creates a registry holding at most size sessions.
func NewSessions(size int) (*Sessions, error) {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	c, err := lru.New[string, *Cache](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create session registry: %w", err)
	}
	return &Sessions{caches: c}, nil
}

// For returns the cache belonging to sessionID, creating it on first use.
func (s *Sessions) For(sessionID string) *Cache {
	if c, ok := s.caches.Get(sessionID); ok {
		return c
	}
	c := New()
	if prev, ok, _ := s.caches.PeekOrAdd(sessionID, c); ok {
		return prev
	}
	return c
}

// Forget discards a session's cache.
func (s *Sessions) Forget(sessionID string) {
	s.caches.Remove(sessionID)
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	return s.caches.Len()
}
