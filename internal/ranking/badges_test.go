package ranking_test

import (
	"reflect"
	"testing"

	"lms-challenge-service/internal/domain"
	"lms-challenge-service/internal/ranking"
)

func badgesFor(t *testing.T, cfg ranking.Config, attempts []domain.QuizAttempt, totalChapters int) []string {
	t.Helper()
	entries := ranking.New(cfg).ComputeLeaderboard(attempts, totalChapters)
	if len(entries) != 1 {
		t.Fatalf("expected single entry, got %d", len(entries))
	}
	return entries[0].Badges
}

func TestAllBadges(t *testing.T) {
	attempts := []domain.QuizAttempt{
		attempt("u1", "c1", 95, 30, 0),
		attempt("u1", "c2", 100, 40, 1),
	}

	got := badgesFor(t, ranking.DefaultConfig(), attempts, 2)
	want := []string{
		ranking.BadgeSpeedster,
		ranking.BadgeQuizMaster,
		ranking.BadgeConsistent,
		ranking.BadgeLateBloomer,
		ranking.BadgePerfectRun,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNoBadges(t *testing.T) {
	attempts := []domain.QuizAttempt{
		attempt("u1", "c1", 80, 90, 0),
		attempt("u1", "c1", 20, 70, 1),
	}

	got := badgesFor(t, ranking.DefaultConfig(), attempts, 2)
	if len(got) != 0 {
		t.Fatalf("expected no badges, got %v", got)
	}
}

func TestSpeedsterBoundary(t *testing.T) {
	got := badgesFor(t, ranking.DefaultConfig(), []domain.QuizAttempt{attempt("u1", "c1", 0, 60, 0)}, 5)
	for _, b := range got {
		if b == ranking.BadgeSpeedster {
			t.Fatalf("60s average must not earn Speedster")
		}
	}
}

func TestQuizMasterThresholdIsConfigurable(t *testing.T) {
	attempts := []domain.QuizAttempt{
		attempt("u1", "c1", 176, 90, 0),
		attempt("u1", "c2", 180, 90, 1),
	}

	cfg := ranking.DefaultConfig()
	cfg.MasteryThreshold = 176
	got := badgesFor(t, cfg, attempts, 5)
	if !contains(got, ranking.BadgeQuizMaster) {
		t.Fatalf("expected Quiz Master at threshold 176, got %v", got)
	}

	cfg.MasteryThreshold = 177
	got = badgesFor(t, cfg, attempts, 5)
	if contains(got, ranking.BadgeQuizMaster) {
		t.Fatalf("expected no Quiz Master at threshold 177, got %v", got)
	}
}

func TestQuizMasterStrictRuleAsInclusiveThreshold(t *testing.T) {
	cfg := ranking.DefaultConfig()
	cfg.MasteryThreshold = 176

	atBoundary := badgesFor(t, cfg, []domain.QuizAttempt{attempt("u1", "c1", 175, 90, 0)}, 5)
	if contains(atBoundary, ranking.BadgeQuizMaster) {
		t.Fatalf("score 175 must not pass an above-175 rule, got %v", atBoundary)
	}
	above := badgesFor(t, cfg, []domain.QuizAttempt{attempt("u1", "c1", 176, 90, 0)}, 5)
	if !contains(above, ranking.BadgeQuizMaster) {
		t.Fatalf("score 176 must pass an above-175 rule, got %v", above)
	}
}

func TestPerfectScoreIsConfigurable(t *testing.T) {
	attempts := []domain.QuizAttempt{attempt("u1", "c1", 5, 90, 0)}

	cfg := ranking.DefaultConfig()
	if contains(badgesFor(t, cfg, attempts, 5), ranking.BadgePerfectRun) {
		t.Fatalf("score 5 is not perfect with default config")
	}
	cfg.PerfectScore = 5
	if !contains(badgesFor(t, cfg, attempts, 5), ranking.BadgePerfectRun) {
		t.Fatalf("expected Perfect Run with perfect score 5")
	}
}

func TestLateBloomerUsesChronologicalOrder(t *testing.T) {
	// Insertion order is newest first; the timeline must be sorted by time.
	attempts := []domain.QuizAttempt{
		attempt("u1", "c2", 10, 90, 10),
		attempt("u1", "c1", 40, 90, 0),
	}
	if contains(badgesFor(t, ranking.DefaultConfig(), attempts, 5), ranking.BadgeLateBloomer) {
		t.Fatalf("score dropped over time, Late Bloomer not expected")
	}

	attempts = []domain.QuizAttempt{
		attempt("u1", "c2", 40, 90, 10),
		attempt("u1", "c1", 10, 90, 0),
	}
	if !contains(badgesFor(t, ranking.DefaultConfig(), attempts, 5), ranking.BadgeLateBloomer) {
		t.Fatalf("score improved over time, Late Bloomer expected")
	}
}

func TestBadgesDoNotReorderAttempts(t *testing.T) {
	attempts := []domain.QuizAttempt{
		attempt("u1", "c2", 40, 90, 10),
		attempt("u1", "c1", 10, 90, 0),
	}
	snapshot := append([]domain.QuizAttempt(nil), attempts...)
	engine := ranking.New(ranking.DefaultConfig())

	first := engine.ComputeLeaderboard(attempts, 2)
	second := engine.ComputeLeaderboard(attempts, 2)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected repeated runs to match")
	}
	if !reflect.DeepEqual(attempts, snapshot) {
		t.Fatalf("input attempts were mutated")
	}
}

func TestConsistentUnaffectedByExtraScore(t *testing.T) {
	attempts := []domain.QuizAttempt{
		attempt("u1", "c1", 10, 90, 0),
		attempt("u1", "c2", 10, 90, 1),
	}
	cfg := ranking.DefaultConfig()
	if !contains(badgesFor(t, cfg, attempts, 2), ranking.BadgeConsistent) {
		t.Fatalf("expected Consistent")
	}

	attempts = append(attempts, attempt("u1", "c2", 30, 90, 2))
	if !contains(badgesFor(t, cfg, attempts, 2), ranking.BadgeConsistent) {
		t.Fatalf("Consistent lost after a higher scoring retry")
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
