package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	mu      sync.RWMutex
	items   map[string]entry
	ttl     time.Duration
	now     func() time.Time
	cleaner *time.Ticker
	done    chan struct{}
	once    sync.Once
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	m := &MemoryCache{
		items:   make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		cleaner: time.NewTicker(time.Minute),
		done:    make(chan struct{}),
	}
	go m.backgroundCleaner()
	return m
}

func (m *MemoryCache) backgroundCleaner() {
	for {
		select {
		case <-m.cleaner.C:
			m.evictExpired()
		case <-m.done:
			m.cleaner.Stop()
			return
		}
	}
}

func (m *MemoryCache) evictExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.items {
		if now.After(e.expires) {
			delete(m.items, k)
		}
	}
}

func (m *MemoryCache) Get(_ context.Context, key string, dst any) error {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || m.now().After(e.expires) {
		return ErrMiss
	}
	return json.Unmarshal(e.data, dst)
}

func (m *MemoryCache) Set(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[key] = entry{data: b, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *MemoryCache) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}
