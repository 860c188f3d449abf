// Package ranking turns completed chapter attempts into a course leaderboard.
package ranking

import (
	"math"
	"sort"
	"time"

	"lms-challenge-service/internal/domain"
)

// Badge names awarded on the leaderboard.
const (
	BadgeSpeedster   = "Speedster"
	BadgeQuizMaster  = "Quiz Master"
	BadgeConsistent  = "Consistent"
	BadgeLateBloomer = "Late Bloomer"
	BadgePerfectRun  = "Perfect Run"
)

// AttemptPolicy decides which eligible attempts count when a user has
// several rows for the same chapter.
type AttemptPolicy string

const (
	// SumAll counts every eligible row.
	SumAll AttemptPolicy = "sum-all"
	// BestPerChapter keeps the highest scoring row per chapter.
	BestPerChapter AttemptPolicy = "best-per-chapter"
	// LatestPerChapter keeps the most recent row per chapter.
	LatestPerChapter AttemptPolicy = "latest-per-chapter"
)

// Config carries the deployment-specific thresholds.
type Config struct {
	// MasteryThreshold is the minimum score every attempt needs for Quiz Master.
	// It is inclusive; a strict "above N" rule is expressed as N+1.
	MasteryThreshold int
	// PerfectScore is the exact score that counts as a perfect run.
	PerfectScore int
	// SpeedsterSeconds is the average-time ceiling (exclusive) for Speedster.
	SpeedsterSeconds float64
	Policy           AttemptPolicy
}

// DefaultConfig mirrors the course leaderboard deployment.
func DefaultConfig() Config {
	return Config{
		MasteryThreshold: 90,
		PerfectScore:     100,
		SpeedsterSeconds: 60,
		Policy:           SumAll,
	}
}

// Engine ranks users. It holds no state besides its configuration and is
// safe for concurrent use.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	if cfg.Policy == "" {
		cfg.Policy = SumAll
	}
	return &Engine{cfg: cfg}
}

// Config returns the thresholds the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

type timelinePoint struct {
	score     int
	createdAt time.Time
}

type aggregate struct {
	userID      string
	totalScore  int
	timeSum     int
	attempts    int
	scores      []int
	chapterSet  map[string]struct{}
	perfectRuns int
	timeline    []timelinePoint
}

func (a *aggregate) avgTime() float64 {
	if a.attempts == 0 {
		return 0
	}
	return float64(a.timeSum) / float64(a.attempts)
}

type row struct {
	agg     *aggregate
	avgTime float64
}

// ComputeLeaderboard ranks every user with at least one eligible attempt.
// The result is never nil; it is empty when the course has no chapters or no
// eligible attempts.
func (e *Engine) ComputeLeaderboard(attempts []domain.QuizAttempt, totalChapters int) []domain.LeaderboardEntry {
	entries := []domain.LeaderboardEntry{}
	if totalChapters <= 0 {
		return entries
	}

	aggs := e.group(attempts)
	if len(aggs) == 0 {
		return entries
	}

	rows := make([]row, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, row{agg: agg, avgTime: agg.avgTime()})
	}

	// Stable so equal keys keep grouping order.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].agg.totalScore != rows[j].agg.totalScore {
			return rows[i].agg.totalScore > rows[j].agg.totalScore
		}
		return rows[i].avgTime < rows[j].avgTime
	})

	for i, r := range rows {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:                 i + 1,
			UserID:               r.agg.userID,
			TotalScore:           r.agg.totalScore,
			AvgTime:              round2(r.avgTime),
			PerfectRuns:          r.agg.perfectRuns,
			PerfectRunPercentage: round2(float64(r.agg.perfectRuns) / float64(r.agg.attempts) * 100),
			Badges:               e.badges(r.agg, totalChapters),
		})
	}
	return entries
}

// CurrentUserRankAndScore ranks the course and returns userID's standing.
// ok is false when the course has no chapters, there are no eligible
// attempts, or the user has none.
func (e *Engine) CurrentUserRankAndScore(attempts []domain.QuizAttempt, totalChapters int, userID string) (domain.Standing, bool) {
	return StandingFor(e.ComputeLeaderboard(attempts, totalChapters), userID)
}

// StandingFor locates userID in an already ranked leaderboard.
func StandingFor(entries []domain.LeaderboardEntry, userID string) (domain.Standing, bool) {
	for _, entry := range entries {
		if entry.UserID == userID {
			return domain.Standing{
				Rank:        entry.Rank,
				TotalScore:  entry.TotalScore,
				AvgTime:     entry.AvgTime,
				PerfectRuns: entry.PerfectRuns,
				Badges:      entry.Badges,
			}, true
		}
	}
	return domain.Standing{}, false
}

// group folds eligible attempts into per-user aggregates, in order of each
// user's first appearance.
func (e *Engine) group(attempts []domain.QuizAttempt) []*aggregate {
	byUser := make(map[string]*aggregate)
	ordered := make([]*aggregate, 0)

	for _, attempt := range e.applyPolicy(attempts) {
		agg, ok := byUser[attempt.UserID]
		if !ok {
			agg = &aggregate{
				userID:     attempt.UserID,
				chapterSet: make(map[string]struct{}),
			}
			byUser[attempt.UserID] = agg
			ordered = append(ordered, agg)
		}
		agg.totalScore += attempt.QuizScore
		agg.timeSum += attempt.TimeTaken
		agg.attempts++
		agg.scores = append(agg.scores, attempt.QuizScore)
		agg.chapterSet[attempt.ChapterID] = struct{}{}
		agg.timeline = append(agg.timeline, timelinePoint{score: attempt.QuizScore, createdAt: attempt.CreatedAt})
		if attempt.QuizScore == e.cfg.PerfectScore {
			agg.perfectRuns++
		}
	}
	return ordered
}

// applyPolicy drops ineligible rows and, unless every row counts, keeps one
// row per (user, chapter) at the position of that pair's first row.
func (e *Engine) applyPolicy(attempts []domain.QuizAttempt) []domain.QuizAttempt {
	eligible := make([]domain.QuizAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		if attempt.IsQuizCompleted {
			eligible = append(eligible, attempt)
		}
	}
	if e.cfg.Policy == SumAll {
		return eligible
	}

	type key struct{ user, chapter string }
	slot := make(map[key]int)
	kept := make([]domain.QuizAttempt, 0, len(eligible))
	for _, attempt := range eligible {
		k := key{attempt.UserID, attempt.ChapterID}
		idx, ok := slot[k]
		if !ok {
			slot[k] = len(kept)
			kept = append(kept, attempt)
			continue
		}
		current := kept[idx]
		switch e.cfg.Policy {
		case BestPerChapter:
			if attempt.QuizScore > current.QuizScore {
				kept[idx] = attempt
			}
		case LatestPerChapter:
			if attempt.CreatedAt.After(current.CreatedAt) {
				kept[idx] = attempt
			}
		}
	}
	return kept
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
