package domain

import "errors"

var (
	// ErrRunNotFound is returned when a challenge run does not exist or was abandoned.
	ErrRunNotFound = errors.New("challenge run not found")
	// ErrNotRanked signals that a user has no eligible attempts in a course.
	ErrNotRanked = errors.New("user not ranked")
	// ErrQuestionsNotFound indicates the chapter has no stored questions.
	ErrQuestionsNotFound = errors.New("questions not found")
	// ErrOptionNotFound indicates a submitted option is not displayed for the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrUnknownPower is returned for power IDs outside the catalog.
	ErrUnknownPower = errors.New("unknown power")
	// ErrPersistFailed wraps a failure to store a completed attempt.
	ErrPersistFailed = errors.New("persist attempt")

	// ErrQuestionCount rejects a challenge that does not have exactly five questions.
	ErrQuestionCount = errors.New("challenge requires exactly 5 questions")
	// ErrChallengeCompleted is returned for any action on a finished or abandoned challenge.
	ErrChallengeCompleted = errors.New("challenge already completed")
	// ErrInvalidState is returned when an action is not allowed in the current state.
	ErrInvalidState = errors.New("action not allowed in current state")
	// ErrAlreadyAnswered indicates the current question has a committed answer.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrPowerUnavailable indicates the power was not selected or was already used.
	ErrPowerUnavailable = errors.New("power not available")
	// ErrPowerAlreadyActive indicates another power is active on this question.
	ErrPowerAlreadyActive = errors.New("a power is already active for this question")
	// ErrTooManyPowers rejects a selection above the per-challenge limit.
	ErrTooManyPowers = errors.New("too many powers selected")
	// ErrDuplicatePower rejects selecting the same power twice.
	ErrDuplicatePower = errors.New("power selected more than once")
)
