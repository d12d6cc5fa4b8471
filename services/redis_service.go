package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetFromRedis loads a cached JSON value into target. A cache miss leaves
// target untouched and returns found=false.
func GetFromRedis(ctx context.Context, rdb *redis.Client, key string, target interface{}) (bool, error) {
	cachedData, err := rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(cachedData), target); err != nil {
		return false, err
	}
	return true, nil
}

// SetToRedis stores value as JSON under key with a TTL.
func SetToRedis(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration) error {
	dataJSON, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return rdb.Set(ctx, key, dataJSON, ttl).Err()
}

// DeleteFromRedis removes one cached key.
func DeleteFromRedis(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err()
}

// DeleteByPattern removes every key matching pattern. Used when a global
// policy override must invalidate all per-company snapshots for a year.
func DeleteByPattern(ctx context.Context, rdb *redis.Client, pattern string) error {
	iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// PolicyCacheKey is the cache key for one (company, year) effective policy.
func PolicyCacheKey(companyID uint, year int) string {
	return fmt.Sprintf("policy:%d:%d", companyID, year)
}

// PolicyCachePattern matches every company's policy snapshot for a year.
func PolicyCachePattern(year int) string {
	return fmt.Sprintf("policy:*:%d", year)
}

// WithholdingCacheKey is the cache key for one year's withholding table.
func WithholdingCacheKey(year int) string {
	return fmt.Sprintf("withholding:%d", year)
}
