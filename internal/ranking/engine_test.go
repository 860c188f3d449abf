package ranking_test

import (
	"reflect"
	"testing"
	"time"

	"lms-challenge-service/internal/domain"
	"lms-challenge-service/internal/ranking"
)

var base = time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)

func attempt(user, chapter string, score, seconds int, minute int) domain.QuizAttempt {
	return domain.QuizAttempt{
		UserID:          user,
		ChapterID:       chapter,
		QuizScore:       score,
		TimeTaken:       seconds,
		CreatedAt:       base.Add(time.Duration(minute) * time.Minute),
		IsQuizCompleted: true,
	}
}

func TestTieBreakOnAverageTime(t *testing.T) {
	engine := ranking.New(ranking.DefaultConfig())
	attempts := []domain.QuizAttempt{
		attempt("A", "c1", 200, 45, 0),
		attempt("B", "c1", 200, 30, 1),
		attempt("C", "c1", 150, 10, 2),
	}

	entries := engine.ComputeLeaderboard(attempts, 1)
	got := []string{}
	for _, e := range entries {
		got = append(got, e.UserID)
	}
	if !reflect.DeepEqual(got, []string{"B", "A", "C"}) {
		t.Fatalf("expected B, A, C got %v", got)
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Fatalf("expected rank %d for %s, got %d", i+1, e.UserID, e.Rank)
		}
	}
}

func TestEqualKeysKeepGroupingOrder(t *testing.T) {
	engine := ranking.New(ranking.DefaultConfig())
	attempts := []domain.QuizAttempt{
		attempt("zed", "c1", 50, 40, 0),
		attempt("amy", "c1", 50, 40, 1),
		attempt("bob", "c1", 50, 40, 2),
	}

	first := engine.ComputeLeaderboard(attempts, 1)
	second := engine.ComputeLeaderboard(attempts, 1)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output, got %+v and %+v", first, second)
	}
	want := []string{"zed", "amy", "bob"}
	for i, e := range first {
		if e.UserID != want[i] || e.Rank != i+1 {
			t.Fatalf("position %d: expected %s rank %d, got %+v", i, want[i], i+1, e)
		}
	}
}

func TestAggregatesAndRounding(t *testing.T) {
	engine := ranking.New(ranking.DefaultConfig())
	attempts := []domain.QuizAttempt{
		attempt("u1", "c1", 100, 10, 0),
		attempt("u1", "c2", 40, 10, 1),
		attempt("u1", "c3", 100, 11, 2),
	}

	entries := engine.ComputeLeaderboard(attempts, 3)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.TotalScore != 240 {
		t.Fatalf("expected total 240, got %d", e.TotalScore)
	}
	if e.AvgTime != 10.33 {
		t.Fatalf("expected avg 10.33, got %v", e.AvgTime)
	}
	if e.PerfectRuns != 2 || e.PerfectRunPercentage != 66.67 {
		t.Fatalf("expected 2 perfect runs at 66.67%%, got %d at %v", e.PerfectRuns, e.PerfectRunPercentage)
	}
}

func TestIneligibleAttemptsAreIgnored(t *testing.T) {
	engine := ranking.New(ranking.DefaultConfig())
	pending := attempt("ghost", "c1", 500, 1, 0)
	pending.IsQuizCompleted = false

	entries := engine.ComputeLeaderboard([]domain.QuizAttempt{pending, attempt("u1", "c1", 10, 80, 1)}, 1)
	if len(entries) != 1 || entries[0].UserID != "u1" {
		t.Fatalf("expected only u1, got %+v", entries)
	}
}

func TestEmptyInputs(t *testing.T) {
	engine := ranking.New(ranking.DefaultConfig())
	attempts := []domain.QuizAttempt{attempt("u1", "c1", 10, 10, 0)}

	if entries := engine.ComputeLeaderboard(attempts, 0); entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty leaderboard for zero chapters, got %+v", entries)
	}
	if entries := engine.ComputeLeaderboard(nil, 3); len(entries) != 0 {
		t.Fatalf("expected empty leaderboard for no attempts, got %+v", entries)
	}
	if _, ok := engine.CurrentUserRankAndScore(attempts, 0, "u1"); ok {
		t.Fatalf("expected absent standing with zero chapters")
	}
	if _, ok := engine.CurrentUserRankAndScore(nil, 2, "u1"); ok {
		t.Fatalf("expected absent standing with no attempts")
	}
	if _, ok := engine.CurrentUserRankAndScore(attempts, 1, "u2"); ok {
		t.Fatalf("expected absent standing for user without attempts")
	}
}

func TestCurrentUserRankAndScore(t *testing.T) {
	engine := ranking.New(ranking.DefaultConfig())
	attempts := []domain.QuizAttempt{
		attempt("A", "c1", 200, 45, 0),
		attempt("B", "c1", 200, 30, 1),
		attempt("C", "c1", 150, 10, 2),
	}

	standing, ok := engine.CurrentUserRankAndScore(attempts, 1, "A")
	if !ok {
		t.Fatalf("expected standing for A")
	}
	if standing.Rank != 2 || standing.TotalScore != 200 || standing.AvgTime != 45 {
		t.Fatalf("unexpected standing %+v", standing)
	}
}

func TestAttemptPolicies(t *testing.T) {
	attempts := []domain.QuizAttempt{
		attempt("u1", "c1", 30, 20, 0),
		attempt("u1", "c1", 80, 40, 5),
		attempt("u1", "c1", 60, 30, 10),
	}

	cases := []struct {
		policy ranking.AttemptPolicy
		total  int
		avg    float64
	}{
		{ranking.SumAll, 170, 30},
		{ranking.BestPerChapter, 80, 40},
		{ranking.LatestPerChapter, 60, 30},
	}
	for _, tc := range cases {
		cfg := ranking.DefaultConfig()
		cfg.Policy = tc.policy
		entries := ranking.New(cfg).ComputeLeaderboard(attempts, 1)
		if len(entries) != 1 {
			t.Fatalf("%s: expected 1 entry, got %d", tc.policy, len(entries))
		}
		if entries[0].TotalScore != tc.total || entries[0].AvgTime != tc.avg {
			t.Fatalf("%s: expected total %d avg %v, got %+v", tc.policy, tc.total, tc.avg, entries[0])
		}
	}
}

func TestNoRankGaps(t *testing.T) {
	engine := ranking.New(ranking.DefaultConfig())
	attempts := []domain.QuizAttempt{}
	users := []string{"a", "b", "c", "d", "e", "f"}
	for i, u := range users {
		attempts = append(attempts, attempt(u, "c1", (i%3)*10, 30+(i%2)*5, i))
	}

	entries := engine.ComputeLeaderboard(attempts, 1)
	if len(entries) != len(users) {
		t.Fatalf("expected %d entries, got %d", len(users), len(entries))
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, e.Rank)
		}
	}
}
