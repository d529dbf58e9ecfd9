// Package services provides infrastructure services for the application
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/redis/go-redis/v9"
)

// ListingCache caches the public active-establishment listing and the latest
// dashboard snapshot. A miss is never an error; callers fall back to the
// database.
type ListingCache interface {
	GetActiveListings(ctx context.Context) ([]dto.EstablishmentDTO, bool)
	SetActiveListings(ctx context.Context, listings []dto.EstablishmentDTO) error
	InvalidateActiveListings(ctx context.Context) error

	GetStatsSnapshot(ctx context.Context) (*dto.DashboardStats, bool)
	SetStatsSnapshot(ctx context.Context, stats *dto.DashboardStats) error
}

// RedisListingCache implements ListingCache on a shared redis client.
type RedisListingCache struct {
	rc        *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisListingCache(rc *redis.Client, keyPrefix string, ttl time.Duration) *RedisListingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisListingCache{rc: rc, keyPrefix: keyPrefix, ttl: ttl}
}

func (c *RedisListingCache) key(suffix string) string {
	if c.keyPrefix == "" {
		return suffix
	}
	return c.keyPrefix + ":" + suffix
}

func (c *RedisListingCache) GetActiveListings(ctx context.Context) ([]dto.EstablishmentDTO, bool) {
	if c.rc == nil {
		return nil, false
	}
	bs, err := c.rc.Get(ctx, c.key("establishments:active")).Bytes()
	if err != nil || len(bs) == 0 {
		return nil, false
	}
	var out []dto.EstablishmentDTO
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *RedisListingCache) SetActiveListings(ctx context.Context, listings []dto.EstablishmentDTO) error {
	if c.rc == nil {
		return nil
	}
	bs, err := json.Marshal(listings)
	if err != nil {
		return err
	}
	return c.rc.Set(ctx, c.key("establishments:active"), bs, c.ttl).Err()
}

func (c *RedisListingCache) InvalidateActiveListings(ctx context.Context) error {
	if c.rc == nil {
		return nil
	}
	return c.rc.Del(ctx, c.key("establishments:active")).Err()
}

func (c *RedisListingCache) GetStatsSnapshot(ctx context.Context) (*dto.DashboardStats, bool) {
	if c.rc == nil {
		return nil, false
	}
	bs, err := c.rc.Get(ctx, c.key("dashboard:stats")).Bytes()
	if err != nil || len(bs) == 0 {
		return nil, false
	}
	var out dto.DashboardStats
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func (c *RedisListingCache) SetStatsSnapshot(ctx context.Context, stats *dto.DashboardStats) error {
	if c.rc == nil || stats == nil {
		return nil
	}
	bs, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	// Snapshots are refreshed by the scheduler; keep them a bit longer.
	return c.rc.Set(ctx, c.key("dashboard:stats"), bs, 2*c.ttl).Err()
}
