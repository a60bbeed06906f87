package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/etfnav/backend/pkg/logger"
	"github.com/wonny/etfnav/backend/pkg/redis"
)

// Store is a TTL cache whose entries are immutable once written
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetOnce(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process write-once TTL cache.
// Values are stored as JSON so readers always get their own copy.
// ⭐ SSOT: 프로세스 내 지표 캐싱은 이 구조체에서만
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  *logger.Logger
	now     func() time.Time
}

// NewMemory creates an empty cache
func NewMemory(log *logger.Logger) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		logger:  log,
		now:     time.Now,
	}
}

// Get decodes a live entry into dest
func (c *Memory) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// SetOnce stores value unless a live entry already exists for key
func (c *Memory) SetOnce(_ context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache marshal failed: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	c.entries[key] = entry{data: data, expiresAt: now.Add(ttl)}
	return true, nil
}

// Len returns the number of entries, live or expired
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CleanStale removes expired entries
func (c *Memory) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned stale cache entries")
	}
	return count
}

// New picks Redis when the client is enabled, the in-memory cache otherwise
func New(client *redis.Client, prefix string, log *logger.Logger) Store {
	if client != nil && client.Enabled() {
		return redis.NewCache(client, prefix)
	}
	return NewMemory(log)
}
