package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"lms-challenge-service/internal/app"
)

// RunStore is a Redis-aware implementation of app.RunRepository.
// Notes:
//   - Runs stay in a local map; the state machine and its clock live with the
//     websocket that drives them.
//   - Redis holds a liveness marker per run (challenge:run:{id} -> userID) so
//     other instances and operators can see who is mid-challenge.
type RunStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	runs   map[string]*app.Run
}

func NewRunStore(client *redis.Client, ttl time.Duration) *RunStore {
	return &RunStore{
		client: client,
		ttl:    ttl,
		runs:   make(map[string]*app.Run),
	}
}

func (s *RunStore) Put(run *app.Run) {
	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(run.ID), run.UserID, s.ttl).Err()
}

func (s *RunStore) Get(runID string) (*app.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	return run, ok
}

func (s *RunStore) Delete(runID string) {
	s.mu.Lock()
	_, ok := s.runs[runID]
	delete(s.runs, runID)
	s.mu.Unlock()
	if ok {
		_ = s.client.Del(context.Background(), s.key(runID)).Err()
	}
}

func (s *RunStore) IdleSince(cutoff time.Time) []*app.Run {
	s.mu.RLock()
	all := make([]*app.Run, 0, len(s.runs))
	for _, run := range s.runs {
		all = append(all, run)
	}
	s.mu.RUnlock()

	idle := make([]*app.Run, 0)
	for _, run := range all {
		if run.LastActive().Before(cutoff) {
			idle = append(idle, run)
		}
	}
	return idle
}

func (s *RunStore) key(runID string) string {
	return "challenge:run:" + runID
}
