package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"lms-challenge-service/internal/domain"
)

// LeaderboardCache stores computed course leaderboards, with the time they
// were computed, as JSON under leaderboard:{courseID} so every instance
// serves the same ranking.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func (c *LeaderboardCache) Get(ctx context.Context, courseID string) (domain.Leaderboard, bool) {
	raw, err := c.client.Get(ctx, c.key(courseID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("leaderboard cache get %s: %v", courseID, err)
		}
		return domain.Leaderboard{}, false
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(raw, &lb); err != nil {
		return domain.Leaderboard{}, false
	}
	return lb, true
}

func (c *LeaderboardCache) Set(ctx context.Context, lb domain.Leaderboard) {
	if c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(lb)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(lb.CourseID), raw, c.ttl).Err(); err != nil {
		log.Printf("leaderboard cache set %s: %v", lb.CourseID, err)
	}
}

func (c *LeaderboardCache) Invalidate(ctx context.Context, courseID string) {
	if err := c.client.Del(ctx, c.key(courseID)).Err(); err != nil {
		log.Printf("leaderboard cache invalidate %s: %v", courseID, err)
	}
}

func (c *LeaderboardCache) key(courseID string) string {
	return "leaderboard:" + courseID
}
