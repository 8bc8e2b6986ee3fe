package storage

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// MemoryArchive keeps exports in process memory for local runs and tests.
// Its links are not servable.
type MemoryArchive struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
	now     func() time.Time
}

type StoredObject struct {
	Data        []byte
	ContentType string
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		BaseURL: "https://archive.local",
		objects: make(map[string]StoredObject),
		now:     time.Now,
	}
}

// Put stores a copy of data.
func (m *MemoryArchive) Put(_ context.Context, key, contentType string, data []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = StoredObject{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (m *MemoryArchive) PresignDownload(_ context.Context, key, fileName string, ttl time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	expiresAt := m.now().Add(ttl)

	q := url.Values{"expires": {expiresAt.UTC().Format(time.RFC3339)}}
	if fileName != "" {
		q.Set("filename", fileName)
	}
	return m.BaseURL + "/" + key + "?" + q.Encode(), expiresAt, nil
}

// Object returns what was stored under key.
func (m *MemoryArchive) Object(key string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

func (m *MemoryArchive) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
