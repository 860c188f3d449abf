// Package challenge implements the single-player chapter challenge: five
// timed questions, one-shot powers and the running score.
//
// A Session is driven entirely by its callers. Time only moves through Tick,
// so the same inputs always produce the same score.
package challenge

import (
	"math/rand"
	"time"

	"lms-challenge-service/internal/domain"
)

const (
	QuestionCount         = 5
	QuestionSeconds       = 60
	PowerSelectionSeconds = 60
	MaxPowers             = 3
)

// State is the session's position in the challenge flow.
type State string

const (
	StateAwaitingPowerSelection State = "awaiting-power-selection"
	StateInProgress             State = "in-progress"
	StateAwaitingRetry          State = "awaiting-retry"
	StateAwaitingAdvance        State = "awaiting-advance"
	StateCompleted              State = "completed"
	StateAbandoned              State = "abandoned"
)

// Outcome kinds recorded per resolved question.
const (
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
	OutcomeTimeout   = "timeout"
	OutcomeSkipped   = "skipped"
)

// Outcome is how a question was resolved.
type Outcome struct {
	Question int    `json:"question"`
	Result   string `json:"result"`
	Delta    int    `json:"delta"`
}

// EventKind labels what a Tick caused.
type EventKind string

const (
	EventSelectionExpired EventKind = "selection-expired"
	EventTimeout          EventKind = "timeout"
	EventCompleted        EventKind = "completed"
)

// Event reports a state change caused by the clock.
type Event struct {
	Kind     EventKind `json:"kind"`
	Question int       `json:"question"`
	Delta    int       `json:"delta"`
}

// Effect describes what activating a power changed.
type Effect struct {
	Power   domain.Power `json:"power"`
	Options []string     `json:"options,omitempty"`
	Hint    string       `json:"hint,omitempty"`
	Frozen  bool         `json:"frozen,omitempty"`
	Skipped bool         `json:"skipped,omitempty"`
}

// AnswerResult summarizes a committed selection.
type AnswerResult struct {
	Question   int  `json:"question"`
	Correct    bool `json:"correct"`
	Retry      bool `json:"retry"`
	Delta      int  `json:"delta"`
	TotalScore int  `json:"totalScore"`
	Last       bool `json:"last"`
}

// Session is the state of one challenge run. It is not safe for concurrent
// use; callers serialize access.
type Session struct {
	questions []domain.Question
	rnd       *rand.Rand
	now       func() time.Time

	state         State
	index         int
	timeLeft      int
	selectionLeft int
	elapsed       int
	score         int

	selected         string
	lastCorrect      *bool
	available        []domain.Power
	active           domain.Power
	showHint         bool
	filtered         []string
	frozen           bool
	secondChanceUsed bool

	correct     int
	incorrect   int
	outcomes    []Outcome
	completedAt time.Time
}

// Option customizes a Session.
type Option func(*Session)

// WithRand fixes the randomness used by fifty-fifty.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Session) { s.rnd = rnd }
}

// WithClock sets the clock used to stamp the finished attempt.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New prepares a session waiting for power selection.
func New(questions []domain.Question, opts ...Option) (*Session, error) {
	if len(questions) != QuestionCount {
		return nil, domain.ErrQuestionCount
	}
	s := &Session{
		questions:     append([]domain.Question(nil), questions...),
		now:           time.Now,
		state:         StateAwaitingPowerSelection,
		selectionLeft: PowerSelectionSeconds,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s, nil
}

// SelectPowers picks up to MaxPowers distinct powers and starts the first question.
func (s *Session) SelectPowers(powers []domain.Power) error {
	if s.terminal() {
		return domain.ErrChallengeCompleted
	}
	if s.state != StateAwaitingPowerSelection {
		return domain.ErrInvalidState
	}
	if len(powers) > MaxPowers {
		return domain.ErrTooManyPowers
	}
	seen := make(map[domain.Power]struct{}, len(powers))
	for _, p := range powers {
		if !p.Known() {
			return domain.ErrUnknownPower
		}
		if _, dup := seen[p]; dup {
			return domain.ErrDuplicatePower
		}
		seen[p] = struct{}{}
	}
	s.available = append([]domain.Power(nil), powers...)
	s.startQuestion(0)
	return nil
}

// ActivatePower applies p to the current, unanswered question.
func (s *Session) ActivatePower(p domain.Power) (Effect, error) {
	if s.terminal() {
		return Effect{}, domain.ErrChallengeCompleted
	}
	switch s.state {
	case StateInProgress:
	case StateAwaitingAdvance:
		return Effect{}, domain.ErrAlreadyAnswered
	default:
		return Effect{}, domain.ErrInvalidState
	}
	if s.active != domain.PowerNone {
		return Effect{}, domain.ErrPowerAlreadyActive
	}
	if !s.hasPower(p) {
		return Effect{}, domain.ErrPowerUnavailable
	}

	s.active = p
	// two-chance stays reserved until its question resolves.
	if p != domain.PowerTwoChance {
		s.removePower(p)
	}

	effect := Effect{Power: p}
	switch p {
	case domain.PowerFiftyFifty:
		s.filtered = s.fiftyFifty()
		effect.Options = append([]string(nil), s.filtered...)
	case domain.PowerTimeFreeze:
		s.frozen = true
		effect.Frozen = true
	case domain.PowerHintReveal:
		s.showHint = true
		effect.Hint = s.current().Hint
	case domain.PowerSkipQuestion:
		s.outcomes = append(s.outcomes, Outcome{Question: s.index, Result: OutcomeSkipped})
		s.advance()
		effect.Skipped = true
	}
	return effect, nil
}

// SelectOption commits an answer for the current question.
func (s *Session) SelectOption(option string) (AnswerResult, error) {
	if s.terminal() {
		return AnswerResult{}, domain.ErrChallengeCompleted
	}
	switch s.state {
	case StateInProgress, StateAwaitingRetry:
	case StateAwaitingAdvance:
		return AnswerResult{}, domain.ErrAlreadyAnswered
	default:
		return AnswerResult{}, domain.ErrInvalidState
	}
	if !contains(s.DisplayedOptions(), option) {
		return AnswerResult{}, domain.ErrOptionNotFound
	}

	q := s.current()
	correct := option == q.Answer
	secondChance := s.active == domain.PowerTwoChance && !s.secondChanceUsed
	delta, resolved := ScoreDelta(correct, s.active, secondChance)
	if !resolved {
		s.secondChanceUsed = true
		s.state = StateAwaitingRetry
		s.selected = ""
		s.lastCorrect = nil
		return AnswerResult{Question: s.index, Retry: true, TotalScore: s.score}, nil
	}

	s.score += delta
	s.selected = option
	s.lastCorrect = &correct
	result := OutcomeIncorrect
	if correct {
		s.correct++
		result = OutcomeCorrect
	} else {
		s.incorrect++
	}
	s.outcomes = append(s.outcomes, Outcome{Question: s.index, Result: result, Delta: delta})
	s.resolve()
	s.state = StateAwaitingAdvance

	return AnswerResult{
		Question:   s.index,
		Correct:    correct,
		Delta:      delta,
		TotalScore: s.score,
		Last:       s.index == QuestionCount-1,
	}, nil
}

// Tick moves the clock forward. The question countdown and the elapsed
// counter advance together and stop while frozen or once answered. Seconds
// beyond a timeout are dropped.
func (s *Session) Tick(seconds int) []Event {
	if seconds <= 0 {
		return nil
	}
	switch s.state {
	case StateAwaitingPowerSelection:
		s.selectionLeft -= seconds
		if s.selectionLeft > 0 {
			return nil
		}
		s.selectionLeft = 0
		s.startQuestion(0)
		return []Event{{Kind: EventSelectionExpired}}
	case StateInProgress, StateAwaitingRetry:
	default:
		return nil
	}
	if s.frozen {
		return nil
	}

	step := seconds
	if step > s.timeLeft {
		step = s.timeLeft
	}
	s.timeLeft -= step
	s.elapsed += step
	if s.timeLeft > 0 {
		return nil
	}

	question := s.index
	s.score += PenaltyTimeout
	s.incorrect++
	s.outcomes = append(s.outcomes, Outcome{Question: question, Result: OutcomeTimeout, Delta: PenaltyTimeout})
	s.resolve()
	s.advance()

	events := []Event{{Kind: EventTimeout, Question: question, Delta: PenaltyTimeout}}
	if s.state == StateCompleted {
		events = append(events, Event{Kind: EventCompleted, Question: question})
	}
	return events
}

// Advance leaves an answered question. On the last question it completes the
// session.
func (s *Session) Advance() error {
	if s.terminal() {
		return domain.ErrChallengeCompleted
	}
	if s.state != StateAwaitingAdvance {
		return domain.ErrInvalidState
	}
	s.advance()
	return nil
}

// Abandon ends an unfinished session without producing an attempt.
func (s *Session) Abandon() {
	if s.state != StateCompleted {
		s.state = StateAbandoned
	}
}

// Result returns the finished attempt once the session is completed. User
// and chapter identifiers are left for the caller to fill.
func (s *Session) Result() (domain.QuizAttempt, bool) {
	if s.state != StateCompleted {
		return domain.QuizAttempt{}, false
	}
	return domain.QuizAttempt{
		QuizScore:        s.score,
		TimeTaken:        s.elapsed,
		CreatedAt:        s.completedAt,
		IsQuizCompleted:  true,
		CorrectAnswers:   s.correct,
		IncorrectAnswers: s.incorrect,
	}, true
}

func (s *Session) State() State { return s.state }

func (s *Session) Score() int { return s.score }

// Elapsed is the total counted time in seconds, excluding frozen intervals.
func (s *Session) Elapsed() int { return s.elapsed }

// Outcomes lists resolved questions in order.
func (s *Session) Outcomes() []Outcome {
	return append([]Outcome(nil), s.outcomes...)
}

// AvailablePowers lists the powers not yet used.
func (s *Session) AvailablePowers() []domain.Power {
	return append([]domain.Power(nil), s.available...)
}

// DisplayedOptions returns the options the player can pick from.
func (s *Session) DisplayedOptions() []string {
	if len(s.filtered) > 0 {
		return append([]string(nil), s.filtered...)
	}
	return s.current().Choices()
}

func (s *Session) terminal() bool {
	return s.state == StateCompleted || s.state == StateAbandoned
}

func (s *Session) current() domain.Question {
	return s.questions[s.index]
}

func (s *Session) startQuestion(i int) {
	s.index = i
	s.state = StateInProgress
	s.timeLeft = QuestionSeconds
	s.selected = ""
	s.lastCorrect = nil
	s.active = domain.PowerNone
	s.showHint = false
	s.filtered = nil
	s.frozen = false
	s.secondChanceUsed = false
}

// resolve finalizes per-question power bookkeeping.
func (s *Session) resolve() {
	if s.active == domain.PowerTwoChance {
		s.removePower(domain.PowerTwoChance)
	}
	s.frozen = false
}

func (s *Session) advance() {
	if s.index >= QuestionCount-1 {
		s.state = StateCompleted
		s.frozen = false
		s.completedAt = s.now()
		return
	}
	s.startQuestion(s.index + 1)
}

func (s *Session) fiftyFifty() []string {
	q := s.current()
	wrong := make([]string, 0, len(q.Options))
	for _, opt := range q.Choices() {
		if opt != q.Answer {
			wrong = append(wrong, opt)
		}
	}
	if len(wrong) == 0 {
		return []string{q.Answer}
	}
	pair := []string{q.Answer, wrong[s.rnd.Intn(len(wrong))]}
	s.rnd.Shuffle(len(pair), func(i, j int) { pair[i], pair[j] = pair[j], pair[i] })
	return pair
}

func (s *Session) hasPower(p domain.Power) bool {
	for _, have := range s.available {
		if have == p {
			return true
		}
	}
	return false
}

func (s *Session) removePower(p domain.Power) {
	kept := s.available[:0]
	for _, have := range s.available {
		if have != p {
			kept = append(kept, have)
		}
	}
	s.available = kept
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
