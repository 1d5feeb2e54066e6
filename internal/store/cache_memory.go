package store

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/serroba/trendmart-analytics/internal/cache"
	"github.com/serroba/trendmart-analytics/internal/clock"
)

// DefaultCacheShards is the shard count used when none is configured.
const DefaultCacheShards = 16

type cacheEntry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

type cacheShard struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// CacheMemoryStore is an in-memory implementation of cache.Store.
// Keys are spread over independently locked shards so lookups for different
// keys rarely contend. Expiry is checked lazily on read; nothing sweeps.
type CacheMemoryStore struct {
	clock  clock.Clock
	shards []*cacheShard
}

// NewCacheMemoryStore creates a sharded in-memory cache store.
func NewCacheMemoryStore(clk clock.Clock, shards int) *CacheMemoryStore {
	if shards <= 0 {
		shards = DefaultCacheShards
	}

	s := &CacheMemoryStore{
		clock:  clk,
		shards: make([]*cacheShard, shards),
	}

	for i := range s.shards {
		s.shards[i] = &cacheShard{entries: make(map[string]cacheEntry)}
	}

	return s
}

func (s *CacheMemoryStore) shardFor(key string) *cacheShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))

	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *CacheMemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	sh := s.shardFor(key)

	sh.mu.RLock()
	ent, ok := sh.entries[key]
	sh.mu.RUnlock()

	if !ok || s.clock.Now().Sub(ent.storedAt) >= ent.ttl {
		return nil, false, nil
	}

	return ent.value, true, nil
}

func (s *CacheMemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	// callers may reuse their buffer
	stored := make([]byte, len(value))
	copy(stored, value)

	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.entries[key] = cacheEntry{
		value:    stored,
		storedAt: s.clock.Now(),
		ttl:      ttl,
	}

	return nil
}

// Len returns the number of physically held entries, expired ones included.
func (s *CacheMemoryStore) Len() int {
	n := 0

	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}

	return n
}

// Compile-time check.
var _ cache.Store = (*CacheMemoryStore)(nil)
