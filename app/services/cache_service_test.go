package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
)

// Without a redis client every read is a miss and every write a no-op, so
// the flows run unchanged when caching is disabled.
func TestListingCacheWithoutClient(t *testing.T) {
	cache := NewRedisListingCache(nil, "test", time.Minute)
	ctx := context.Background()

	listings, ok := cache.GetActiveListings(ctx)
	assert.False(t, ok)
	assert.Nil(t, listings)

	assert.NoError(t, cache.SetActiveListings(ctx, []dto.EstablishmentDTO{{ID: 1}}))
	assert.NoError(t, cache.InvalidateActiveListings(ctx))

	stats, ok := cache.GetStatsSnapshot(ctx)
	assert.False(t, ok)
	assert.Nil(t, stats)

	assert.NoError(t, cache.SetStatsSnapshot(ctx, &dto.DashboardStats{}))
	assert.NoError(t, cache.SetStatsSnapshot(ctx, nil))
}

func TestListingCacheKeyPrefix(t *testing.T) {
	withPrefix := NewRedisListingCache(nil, "meidesaqua", time.Minute)
	assert.Equal(t, "meidesaqua:establishments:active", withPrefix.key("establishments:active"))

	bare := NewRedisListingCache(nil, "", time.Minute)
	assert.Equal(t, "establishments:active", bare.key("establishments:active"))
}
