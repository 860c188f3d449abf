package app

import (
	"sync"
	"time"

	"lms-challenge-service/internal/challenge"
)

// Run binds a challenge session to its player and chapter. Access to the
// session is serialized because the clock and the player act concurrently.
type Run struct {
	ID        string
	UserID    string
	CourseID  string
	ChapterID string

	mu         sync.Mutex
	session    *challenge.Session
	now        func() time.Time
	lastActive time.Time
	persisted  bool
}

// NewRun is exported for infrastructure layers that need to seed runs.
func NewRun(id, userID, courseID, chapterID string, session *challenge.Session, now func() time.Time) *Run {
	if now == nil {
		now = time.Now
	}
	return &Run{
		ID:         id,
		UserID:     userID,
		CourseID:   courseID,
		ChapterID:  chapterID,
		session:    session,
		now:        now,
		lastActive: now(),
	}
}

// LastActive reports when the player last acted on the run.
func (r *Run) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

func (r *Run) touch() {
	r.lastActive = r.now()
}
