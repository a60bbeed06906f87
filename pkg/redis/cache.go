package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed, write-once caching
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. A missing key returns (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// SetOnce stores value only if the key does not exist yet.
// Entries are immutable once written; it reports whether this call wrote the entry.
func (c *Cache) SetOnce(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache marshal failed: %w", err)
	}

	ok, err := c.client.Redis().SetNX(ctx, c.fullKey(key), data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx failed: %w", err)
	}
	return ok, nil
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

// Predefined TTLs
const (
	TTLMetrics  = 24 * time.Hour     // 일별 지표
	TTLRiskFree = 7 * 24 * time.Hour // 무위험 수익률 시계열
)

// MetricsKey identifies one ticker's metrics row by policy, horizon and reference date
func MetricsKey(policy, ticker string, horizonYears int, ref time.Time) string {
	return fmt.Sprintf("metrics:%s:%s:%dy:%s", policy, ticker, horizonYears, ref.Format("2006-01-02"))
}

// RiskFreeKey identifies a risk-free series by series key and start date
func RiskFreeKey(series string, start time.Time) string {
	return fmt.Sprintf("riskfree:%s:%s", series, start.Format("2006-01-02"))
}
