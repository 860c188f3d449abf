package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"lms-challenge-service/internal/challenge"
	"lms-challenge-service/internal/domain"
)

// QuestionRepository loads the generated questions of a chapter.
type QuestionRepository interface {
	GetQuestions(ctx context.Context, chapterID string) ([]domain.Question, error)
}

// RunRepository abstracts where active challenge runs live.
type RunRepository interface {
	Put(run *Run)
	Get(runID string) (*Run, bool)
	Delete(runID string)
	IdleSince(cutoff time.Time) []*Run
}

// Progress is a run snapshot returned after every action. Attempt is set
// once the run completes; PersistErr carries a storage failure for the
// caller to surface.
type Progress struct {
	RunID      string              `json:"runId"`
	View       challenge.View      `json:"view"`
	Attempt    *domain.QuizAttempt `json:"attempt,omitempty"`
	PersistErr error               `json:"-"`
}

// ChallengeService drives chapter challenges and records finished attempts.
type ChallengeService struct {
	runs      RunRepository
	questions QuestionRepository
	attempts  AttemptRepository
	boards    *LeaderboardService
	now       func() time.Time
	opts      []challenge.Option
}

func NewChallengeService(runs RunRepository, questions QuestionRepository, attempts AttemptRepository, boards *LeaderboardService) *ChallengeService {
	return &ChallengeService{
		runs:      runs,
		questions: questions,
		attempts:  attempts,
		boards:    boards,
		now:       time.Now,
	}
}

// NewChallengeServiceWithClock is test-only for deterministic timestamps and fifty-fifty picks.
func NewChallengeServiceWithClock(runs RunRepository, questions QuestionRepository, attempts AttemptRepository, boards *LeaderboardService, now func() time.Time, opts ...challenge.Option) *ChallengeService {
	s := NewChallengeService(runs, questions, attempts, boards)
	s.now = now
	s.opts = append([]challenge.Option{challenge.WithClock(now)}, opts...)
	return s
}

// Start loads the chapter questions and opens a run awaiting power selection.
func (s *ChallengeService) Start(ctx context.Context, userID, courseID, chapterID string) (Progress, error) {
	questions, err := s.questions.GetQuestions(ctx, chapterID)
	if err != nil {
		return Progress{}, err
	}
	session, err := challenge.New(questions, s.opts...)
	if err != nil {
		return Progress{}, fmt.Errorf("chapter %s: %w", chapterID, err)
	}

	run := NewRun(uuid.NewString(), userID, courseID, chapterID, session, s.now)
	s.runs.Put(run)
	return Progress{RunID: run.ID, View: session.View()}, nil
}

// SelectPowers chooses the run's powers and shows the first question.
func (s *ChallengeService) SelectPowers(ctx context.Context, runID string, powers []domain.Power) (Progress, error) {
	return s.act(ctx, runID, func(session *challenge.Session) error {
		return session.SelectPowers(powers)
	})
}

// ActivatePower applies a power to the current question.
func (s *ChallengeService) ActivatePower(ctx context.Context, runID string, power domain.Power) (challenge.Effect, Progress, error) {
	var effect challenge.Effect
	progress, err := s.act(ctx, runID, func(session *challenge.Session) error {
		var err error
		effect, err = session.ActivatePower(power)
		return err
	})
	return effect, progress, err
}

// Answer commits an option for the current question.
func (s *ChallengeService) Answer(ctx context.Context, runID, option string) (challenge.AnswerResult, Progress, error) {
	var result challenge.AnswerResult
	progress, err := s.act(ctx, runID, func(session *challenge.Session) error {
		var err error
		result, err = session.SelectOption(option)
		return err
	})
	return result, progress, err
}

// Advance moves past an answered question, completing the run after the last one.
func (s *ChallengeService) Advance(ctx context.Context, runID string) (Progress, error) {
	return s.act(ctx, runID, func(session *challenge.Session) error {
		return session.Advance()
	})
}

// Tick feeds elapsed seconds from the run's clock source.
func (s *ChallengeService) Tick(ctx context.Context, runID string, seconds int) ([]challenge.Event, Progress, error) {
	run, ok := s.runs.Get(runID)
	if !ok {
		return nil, Progress{}, domain.ErrRunNotFound
	}
	run.mu.Lock()
	events := run.session.Tick(seconds)
	progress := s.progressLocked(ctx, run)
	run.mu.Unlock()
	return events, progress, nil
}

// Snapshot returns the current view of a run.
func (s *ChallengeService) Snapshot(_ context.Context, runID string) (Progress, error) {
	run, ok := s.runs.Get(runID)
	if !ok {
		return Progress{}, domain.ErrRunNotFound
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	return Progress{RunID: run.ID, View: run.session.View()}, nil
}

// Abandon discards an unfinished run. Nothing is persisted.
func (s *ChallengeService) Abandon(_ context.Context, runID string) {
	run, ok := s.runs.Get(runID)
	if !ok {
		return
	}
	run.mu.Lock()
	run.session.Abandon()
	run.mu.Unlock()
	s.runs.Delete(runID)
}

// EvictIdle abandons runs without player activity since now-idle and
// returns how many were dropped.
func (s *ChallengeService) EvictIdle(ctx context.Context, idle time.Duration) int {
	stale := s.runs.IdleSince(s.now().Add(-idle))
	for _, run := range stale {
		s.Abandon(ctx, run.ID)
	}
	if len(stale) > 0 {
		log.Printf("evicted %d idle challenge runs", len(stale))
	}
	return len(stale)
}

func (s *ChallengeService) act(ctx context.Context, runID string, fn func(*challenge.Session) error) (Progress, error) {
	run, ok := s.runs.Get(runID)
	if !ok {
		return Progress{}, domain.ErrRunNotFound
	}
	run.mu.Lock()
	defer run.mu.Unlock()

	run.touch()
	if err := fn(run.session); err != nil {
		return Progress{RunID: run.ID, View: run.session.View()}, err
	}
	return s.progressLocked(ctx, run), nil
}

// progressLocked snapshots the run and, on its first observation as
// completed, stores the attempt. Storage failures are reported, not retried.
func (s *ChallengeService) progressLocked(ctx context.Context, run *Run) Progress {
	progress := Progress{RunID: run.ID, View: run.session.View()}
	attempt, done := run.session.Result()
	if !done {
		return progress
	}

	attempt.UserID = run.UserID
	attempt.CourseID = run.CourseID
	attempt.ChapterID = run.ChapterID
	attempt.IsCompleted = true
	progress.Attempt = &attempt
	if run.persisted {
		return progress
	}
	run.persisted = true
	s.runs.Delete(run.ID)

	if err := s.attempts.SaveAttempt(ctx, attempt); err != nil {
		log.Printf("save attempt for run %s: %v", run.ID, err)
		progress.PersistErr = fmt.Errorf("%w: %v", domain.ErrPersistFailed, err)
		return progress
	}
	if s.boards != nil {
		if err := s.boards.Invalidate(ctx, run.CourseID); err != nil {
			log.Printf("refresh leaderboard for course %s: %v", run.CourseID, err)
		}
	}
	return progress
}
