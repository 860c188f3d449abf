package memory

import (
	"sync"
	"time"

	"lms-challenge-service/internal/app"
)

// RunStore is an in-memory implementation of app.RunRepository.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*app.Run
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*app.Run),
	}
}

func (s *RunStore) Put(run *app.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(runID string) (*app.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	return run, ok
}

func (s *RunStore) Delete(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
}

// IdleSince lists runs whose last activity is before cutoff. Run locks are
// taken only after the store lock is released.
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

// Len reports how many runs are active.
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
