package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryService implements CacheService in process, for deployments without memcache
type MemoryService struct {
	store *gocache.Cache
}

// NewMemoryService creates a new in-memory cache service
func NewMemoryService(cleanupInterval time.Duration) *MemoryService {
	return &MemoryService{
		store: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get retrieves a value from the in-memory cache
func (m *MemoryService) Get(key string) ([]byte, error) {
	value, ok := m.store.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return value.([]byte), nil
}

// Set stores a copy of value with an expiration time; zero means no expiration
func (m *MemoryService) Set(key string, value []byte, expiration time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	m.store.Set(key, stored, expiration)
	return nil
}

// Delete removes a value from the in-memory cache
func (m *MemoryService) Delete(key string) error {
	m.store.Delete(key)
	return nil
}
