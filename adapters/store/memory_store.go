package store

import (
	"context"
	"sync"
	"time"

	"github.com/examportal/backend/ports"
)

// MemoryStore is an in-memory implementation of the RevocationStore interface.
// Entries live until Prune observes that the token they describe has expired;
// revocations do not survive a restart.
type MemoryStore struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		revoked: make(map[string]time.Time),
	}
}

var _ ports.RevocationStore = (*MemoryStore)(nil)

// Revoke marks a token as revoked. A repeated call keeps the later expiry.
func (s *MemoryStore) Revoke(ctx context.Context, key string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, exists := s.revoked[key]; exists && current.After(expiresAt) {
		return nil
	}
	s.revoked[key] = expiresAt

	return nil
}

// IsRevoked checks if a token is revoked
func (s *MemoryStore) IsRevoked(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.revoked[key]
	return exists, nil
}

// Prune removes entries whose token expiry is not after now.
func (s *MemoryStore) Prune(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, expiresAt := range s.revoked {
		if !now.Before(expiresAt) {
			delete(s.revoked, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of entries currently held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.revoked)
}
