package redis

import (
	"context"
	"encoding/json"
	"time"

	"ai-reel-studio/internal/domain/model"
	"ai-reel-studio/internal/infra/metrics"
)

const leaderboardKey = "leaderboard:sorted"

// LeaderboardCache keeps the fully sorted leaderboard in Redis so the
// read-heavy endpoint does not hit Postgres on every request.
type LeaderboardCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewLeaderboardCache(client RedisClient, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

// Get returns the cached sorted entries, or (nil, nil) on a miss.
func (c *LeaderboardCache) Get(ctx context.Context) ([]model.LeaderboardEntry, error) {
	data, err := c.client.Get(ctx, leaderboardKey)
	if err != nil {
		metrics.IncCacheRequest("leaderboard", "miss")
		return nil, nil
	}
	var entries []model.LeaderboardEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		metrics.IncCacheRequest("leaderboard", "miss")
		return nil, nil
	}
	metrics.IncCacheRequest("leaderboard", "hit")
	return entries, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, entries []model.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, leaderboardKey, data, c.ttl)
}

// Invalidate drops the cached leaderboard; called whenever a video count changes.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, leaderboardKey)
}
