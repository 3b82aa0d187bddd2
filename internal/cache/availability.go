// Package cache serves availability pages from Redis so the listing endpoint
// does not hit Postgres for every poll. Entries are short-lived and deleted
// whenever a slot count changes; correctness never depends on the cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pageTTL = 30 * time.Second

type AvailabilityCache struct {
	client *redis.Client
}

func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

func pageKey(date time.Time, page int) string {
	return fmt.Sprintf("availability:%s:%d", date.Format("2006-01-02"), page)
}

// GetPage unmarshals a cached page into dest. The boolean reports a hit.
func (c *AvailabilityCache) GetPage(ctx context.Context, date time.Time, page int, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, pageKey(date, page)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("availability cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("availability cache decode: %w", err)
	}
	return true, nil
}

func (c *AvailabilityCache) SetPage(ctx context.Context, date time.Time, page int, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("availability cache encode: %w", err)
	}
	if err := c.client.Set(ctx, pageKey(date, page), raw, pageTTL).Err(); err != nil {
		return fmt.Errorf("availability cache set: %w", err)
	}
	return nil
}

// InvalidateDate drops every cached page for the date. Called after any
// committed slot mutation.
func (c *AvailabilityCache) InvalidateDate(ctx context.Context, date time.Time) error {
	pattern := fmt.Sprintf("availability:%s:*", date.Format("2006-01-02"))
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("availability cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("availability cache del: %w", err)
	}
	return nil
}
