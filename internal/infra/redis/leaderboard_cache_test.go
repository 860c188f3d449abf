package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"lms-challenge-service/internal/domain"
)

func TestLeaderboardCacheRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	cache := NewLeaderboardCache(newClient(mr), time.Minute)

	if _, ok := cache.Get(ctx, "course-1"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	computed := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)
	cache.Set(ctx, domain.Leaderboard{
		CourseID: "course-1",
		Entries: []domain.LeaderboardEntry{
			{Rank: 1, UserID: "u1", TotalScore: 200, AvgTime: 30.5, Badges: []string{"Speedster"}},
		},
		UpdatedAt: computed,
	})
	lb, ok := cache.Get(ctx, "course-1")
	if !ok || len(lb.Entries) != 1 || lb.Entries[0].AvgTime != 30.5 || lb.Entries[0].Badges[0] != "Speedster" {
		t.Fatalf("unexpected cached entries %+v ok=%v", lb.Entries, ok)
	}
	if !lb.UpdatedAt.Equal(computed) {
		t.Fatalf("expected compute time %v kept, got %v", computed, lb.UpdatedAt)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok := cache.Get(ctx, "course-1"); ok {
		t.Fatalf("expected entry to expire")
	}

	cache.Set(ctx, domain.Leaderboard{CourseID: "course-1", Entries: []domain.LeaderboardEntry{}})
	cache.Invalidate(ctx, "course-1")
	if mr.Exists("leaderboard:course-1") {
		t.Fatalf("expected key removed on invalidate")
	}
}
