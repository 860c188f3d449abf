package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"lms-challenge-service/internal/domain"
	"lms-challenge-service/internal/ranking"
)

// AttemptRepository abstracts the course progress store (in-memory, Postgres).
type AttemptRepository interface {
	PublishedChapterIDs(ctx context.Context, courseID string) ([]string, error)
	CompletedAttempts(ctx context.Context, chapterIDs []string) ([]domain.QuizAttempt, error)
	SaveAttempt(ctx context.Context, attempt domain.QuizAttempt) error
}

// LeaderboardCache keeps computed leaderboards between requests. A cached
// board keeps the UpdatedAt of its computation.
type LeaderboardCache interface {
	Get(ctx context.Context, courseID string) (domain.Leaderboard, bool)
	Set(ctx context.Context, lb domain.Leaderboard)
	Invalidate(ctx context.Context, courseID string)
}

// LeaderboardService serves course rankings.
type LeaderboardService struct {
	attempts AttemptRepository
	cache    LeaderboardCache
	engine   *ranking.Engine
	now      func() time.Time
	sf       singleflight.Group

	// genMu orders cache writes against Invalidate. gens counts
	// invalidations per course.
	genMu sync.Mutex
	gens  map[string]uint64

	mu          sync.Mutex
	subscribers map[string]map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardService(attempts AttemptRepository, cache LeaderboardCache, engine *ranking.Engine) *LeaderboardService {
	return &LeaderboardService{
		attempts:    attempts,
		cache:       cache,
		engine:      engine,
		now:         time.Now,
		gens:        make(map[string]uint64),
		subscribers: make(map[string]map[chan domain.Leaderboard]struct{}),
	}
}

// Leaderboard returns the ranked course leaderboard, computing it on a cache miss.
func (s *LeaderboardService) Leaderboard(ctx context.Context, courseID string) (domain.Leaderboard, error) {
	if lb, ok := s.cache.Get(ctx, courseID); ok {
		return lb, nil
	}

	result, err, _ := s.sf.Do(courseID, func() (interface{}, error) {
		if lb, ok := s.cache.Get(ctx, courseID); ok {
			return lb, nil
		}
		gen := s.generation(courseID)
		entries, err := s.compute(ctx, courseID)
		if err != nil {
			return nil, err
		}
		lb := domain.Leaderboard{CourseID: courseID, Entries: entries, UpdatedAt: s.now()}
		s.store(ctx, lb, gen)
		return lb, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// CurrentUser returns userID's standing or domain.ErrNotRanked.
func (s *LeaderboardService) CurrentUser(ctx context.Context, courseID, userID string) (domain.Standing, error) {
	lb, err := s.Leaderboard(ctx, courseID)
	if err != nil {
		return domain.Standing{}, err
	}
	standing, ok := ranking.StandingFor(lb.Entries, userID)
	if !ok {
		return domain.Standing{}, domain.ErrNotRanked
	}
	return standing, nil
}

// Subscribe returns a channel that receives leaderboard updates for a course.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context, courseID string) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Leaderboard(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	// The snapshot is queued before broadcast can see ch.
	ch <- initial
	s.mu.Lock()
	subs, ok := s.subscribers[courseID]
	if !ok {
		subs = make(map[chan domain.Leaderboard]struct{})
		s.subscribers[courseID] = subs
	}
	subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subscribers[courseID]
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(s.subscribers, courseID)
		}
	}
	return ch, cancel, nil
}

// Invalidate drops the cached leaderboard and pushes a fresh one to subscribers.
// Computations already in flight are detached so the fresh board does not
// reuse them, and their results are not cached.
func (s *LeaderboardService) Invalidate(ctx context.Context, courseID string) error {
	s.genMu.Lock()
	s.gens[courseID]++
	s.cache.Invalidate(ctx, courseID)
	s.genMu.Unlock()
	s.sf.Forget(courseID)

	if !s.hasSubscribers(courseID) {
		return nil
	}
	lb, err := s.Leaderboard(ctx, courseID)
	if err != nil {
		return err
	}
	s.broadcast(lb)
	return nil
}

func (s *LeaderboardService) compute(ctx context.Context, courseID string) ([]domain.LeaderboardEntry, error) {
	chapterIDs, err := s.attempts.PublishedChapterIDs(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}
	if len(chapterIDs) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}
	attempts, err := s.attempts.CompletedAttempts(ctx, chapterIDs)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	return s.engine.ComputeLeaderboard(attempts, len(chapterIDs)), nil
}

func (s *LeaderboardService) generation(courseID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[courseID]
}

// store caches lb unless the course was invalidated after gen was read.
func (s *LeaderboardService) store(ctx context.Context, lb domain.Leaderboard, gen uint64) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[lb.CourseID] != gen {
		return
	}
	s.cache.Set(ctx, lb)
}

func (s *LeaderboardService) hasSubscribers(courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers[courseID]) > 0
}

func (s *LeaderboardService) broadcast(lb domain.Leaderboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers[lb.CourseID] {
		select {
		case ch <- lb:
		default:
			// Drop the stale update so a slow reader never blocks the broadcast.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- lb:
			default:
			}
		}
	}
}
