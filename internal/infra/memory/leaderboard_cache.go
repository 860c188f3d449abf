package memory

import (
	"context"
	"sync"
	"time"

	"lms-challenge-service/internal/domain"
)

// LeaderboardCache keeps computed leaderboards in process for ttl.
type LeaderboardCache struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedBoard
}

type cachedBoard struct {
	board     domain.Leaderboard
	expiresAt time.Time
}

func NewLeaderboardCache(ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]cachedBoard),
	}
}

func (c *LeaderboardCache) Get(_ context.Context, courseID string) (domain.Leaderboard, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.entries[courseID]
	if !ok || !cached.expiresAt.After(c.clock()) {
		return domain.Leaderboard{}, false
	}
	return cached.board, true
}

func (c *LeaderboardCache) Set(_ context.Context, lb domain.Leaderboard) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[lb.CourseID] = cachedBoard{board: lb, expiresAt: c.clock().Add(c.ttl)}
}

func (c *LeaderboardCache) Invalidate(_ context.Context, courseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, courseID)
}
