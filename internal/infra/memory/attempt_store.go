package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lms-challenge-service/internal/domain"
)

type chapter struct {
	id        string
	courseID  string
	position  int
	published bool
}

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	clock    func() time.Time
	chapters map[string]chapter
	attempts []domain.QuizAttempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		clock:    time.Now,
		chapters: make(map[string]chapter),
	}
}

// AddChapter registers a chapter of a course.
func (s *AttemptStore) AddChapter(courseID, chapterID string, published bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chapters[chapterID] = chapter{
		id:        chapterID,
		courseID:  courseID,
		position:  len(s.chapters),
		published: published,
	}
}

func (s *AttemptStore) PublishedChapterIDs(_ context.Context, courseID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make([]chapter, 0)
	for _, ch := range s.chapters {
		if ch.courseID == courseID && ch.published {
			found = append(found, ch)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].position < found[j].position })

	ids := make([]string, 0, len(found))
	for _, ch := range found {
		ids = append(ids, ch.id)
	}
	return ids, nil
}

// CompletedAttempts returns completed attempts for the chapters in insertion order.
func (s *AttemptStore) CompletedAttempts(_ context.Context, chapterIDs []string) ([]domain.QuizAttempt, error) {
	wanted := make(map[string]struct{}, len(chapterIDs))
	for _, id := range chapterIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizAttempt, 0)
	for _, attempt := range s.attempts {
		if _, ok := wanted[attempt.ChapterID]; ok && attempt.IsQuizCompleted {
			out = append(out, attempt)
		}
	}
	return out, nil
}

func (s *AttemptStore) SaveAttempt(_ context.Context, attempt domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = s.clock()
	}
	s.attempts = append(s.attempts, attempt)
	return nil
}
