package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultLocalSize = 1000

type localEntry struct {
	value     interface{}
	expiresAt time.Time
}

func (e localEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// localCache 基于 expirable LRU 的本地缓存
// LRU 自身的 TTL 是全局的，单个键的过期时间记录在 entry 上
type localCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, localEntry]
	ttl time.Duration
}

// NewLocalCache 创建本地缓存
func NewLocalCache(config LocalConfig) Cache {
	size := config.MaxSize
	if size <= 0 {
		size = defaultLocalSize
	}
	return &localCache{
		lru: expirable.NewLRU[string, localEntry](size, nil, config.DefaultExpiration),
		ttl: config.DefaultExpiration,
	}
}

func (lc *localCache) entry(expiration time.Duration, value interface{}) localEntry {
	if expiration <= 0 {
		expiration = lc.ttl
	}
	e := localEntry{value: value}
	if expiration > 0 {
		e.expiresAt = time.Now().Add(expiration)
	}
	return e
}

// lookup 需持有锁
func (lc *localCache) lookup(key string) (localEntry, bool) {
	e, ok := lc.lru.Get(key)
	if !ok {
		return localEntry{}, false
	}
	if e.expired(time.Now()) {
		lc.lru.Remove(key)
		return localEntry{}, false
	}
	return e, true
}

func (lc *localCache) Get(ctx context.Context, key string) (interface{}, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	e, ok := lc.lookup(key)
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (lc *localCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lru.Add(key, lc.entry(expiration, value))
	return nil
}

func (lc *localCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if _, ok := lc.lookup(key); ok {
		return false, nil
	}
	lc.lru.Add(key, lc.entry(expiration, value))
	return true, nil
}

func (lc *localCache) Delete(ctx context.Context, key string) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lru.Remove(key)
	return nil
}

func (lc *localCache) Exists(ctx context.Context, key string) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	_, ok := lc.lookup(key)
	return ok
}

func (lc *localCache) Close() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lru.Purge()
	return nil
}
