package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"lms-challenge-service/internal/domain"
)

// QuestionLoader fetches chapter questions from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, chapterID string) ([]domain.Question, error)
}

// QuestionRepository caches chapter questions with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestions),
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context, chapterID string) ([]domain.Question, error) {
	if qs, ok := r.lookup(chapterID, r.clock()); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(chapterID, func() (interface{}, error) {
		now := r.clock()
		if qs, ok := r.lookup(chapterID, now); ok {
			return qs, nil
		}

		questions, err := r.loader.LoadQuestions(ctx, chapterID)
		if err != nil {
			return nil, err
		}

		// rnd is guarded by mu.
		r.mu.Lock()
		r.cache[chapterID] = cachedQuestions{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) lookup(chapterID string, now time.Time) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[chapterID]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.questions, true
}

// StaticQuestionLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuestionLoader struct {
	questions map[string][]domain.Question
}

func NewStaticQuestionLoader(questions map[string][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, chapterID string) ([]domain.Question, error) {
	if qs, ok := l.questions[chapterID]; ok {
		return qs, nil
	}
	return nil, domain.ErrQuestionsNotFound
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
