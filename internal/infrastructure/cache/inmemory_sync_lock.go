package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// lockEntry is a held key with its owner and expiry
type lockEntry struct {
	token     uuid.UUID
	expiresAt time.Time
}

// InMemorySyncLock implements the sync lock with an in-process map.
// This is suitable for single-instance deployments and testing.
type InMemorySyncLock struct {
	mu      sync.Mutex
	entries map[string]lockEntry
	now     func() time.Time
}

// NewInMemorySyncLock creates a new in-memory sync lock
func NewInMemorySyncLock() *InMemorySyncLock {
	return &InMemorySyncLock{
		entries: make(map[string]lockEntry),
		now:     time.Now,
	}
}

// TryLock takes key for ttl. An expired holder is replaced.
func (l *InMemorySyncLock) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, held := l.entries[key]; held && now.Before(e.expiresAt) {
		return nil, false, nil
	}

	token := uuid.New()
	l.entries[key] = lockEntry{token: token, expiresAt: now.Add(ttl)}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, held := l.entries[key]; held && e.token == token {
			delete(l.entries, key)
		}
	}
	return release, true, nil
}

// Size returns the number of held keys (for testing/monitoring)
func (l *InMemorySyncLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
