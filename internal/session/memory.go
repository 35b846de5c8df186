package session

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryCapacity bounds the number of visitor sessions kept in memory.
const DefaultMemoryCapacity = 10000

// MemoryStore keeps sessions in a bounded LRU. When the shop sees more
// visitors than capacity, the least recently active carts are dropped first.
type MemoryStore struct {
	entries *expirable.LRU[string, memoryEntry]
	now     func() time.Time
}

type memoryEntry struct {
	data      *Data
	expiresAt time.Time
}

// NewMemoryStore returns a store holding up to capacity sessions. A
// non-positive capacity falls back to DefaultMemoryCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		// Entries never outlive the cookie; per-entry TTLs are checked on read.
		entries: expirable.NewLRU[string, memoryEntry](capacity, nil, ttl),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Data, bool) {
	entry, ok := s.entries.Get(key)
	if !ok {
		return nil, false
	}
	if s.now().After(entry.expiresAt) {
		s.entries.Remove(key)
		return nil, false
	}
	return cloneData(entry.data), true
}

func (s *MemoryStore) Set(_ context.Context, key string, data *Data, expiry time.Duration) error {
	if key == "" || data == nil {
		return fmt.Errorf("session key and data are required")
	}
	if expiry <= 0 || expiry > ttl {
		expiry = ttl
	}
	s.entries.Add(key, memoryEntry{
		data:      cloneData(data),
		expiresAt: s.now().Add(expiry),
	})
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.entries.Remove(key)
}

// Len reports how many visitor sessions are currently held.
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}

func (s *MemoryStore) Close() error {
	s.entries.Purge()
	return nil
}
