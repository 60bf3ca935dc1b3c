package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache handles Redis ZSET operations for session leaderboards.
// Finalized scores are written once per session and serve ranked reads
// without replaying the round list.
type LeaderboardCache interface {
	SetScores(ctx context.Context, sessionID string, scores map[string]int) error
	GetTop(ctx context.Context, sessionID string, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, sessionID, name string) (int64, error)
	Delete(ctx context.Context, sessionID string) error
}

// LeaderboardEntry represents a single leaderboard entry.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Rank  int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache.
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{client: client}
}

func (c *leaderboardCache) key(sessionID string) string {
	return fmt.Sprintf("session:%s:lb", sessionID)
}

func (c *leaderboardCache) SetScores(ctx context.Context, sessionID string, scores map[string]int) error {
	members := make([]redis.Z, 0, len(scores))
	for name, score := range scores {
		members = append(members, redis.Z{Score: float64(score), Member: name})
	}
	if len(members) == 0 {
		return nil
	}
	return c.client.ZAdd(ctx, c.key(sessionID), members...).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, sessionID string, limit int) ([]LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(sessionID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = LeaderboardEntry{
			Name:  z.Member.(string),
			Score: int(z.Score),
			Rank:  i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, sessionID, name string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(sessionID), name).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}

func (c *leaderboardCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}
