package challenge

import "lms-challenge-service/internal/domain"

// Point deltas per answer.
const (
	PointsCorrect          = 50
	PenaltyIncorrect       = -10
	PointsCorrectWithPower = 40
	PenaltyWithPower       = -15
	PointsDouble           = 100
	PenaltyTimeout         = -5
)

// ScoreDelta returns the score change for an answer and whether the question
// is resolved by it. A first miss under two-chance resolves nothing.
func ScoreDelta(correct bool, active domain.Power, secondChanceAvailable bool) (int, bool) {
	switch active {
	case domain.PowerNone:
		if correct {
			return PointsCorrect, true
		}
		return PenaltyIncorrect, true
	case domain.PowerDoublePoints:
		if correct {
			return PointsDouble, true
		}
		return PenaltyWithPower, true
	case domain.PowerSkipNegative:
		if correct {
			return PointsCorrectWithPower, true
		}
		return 0, true
	case domain.PowerTwoChance:
		if !correct && secondChanceAvailable {
			return 0, false
		}
	}
	if correct {
		return PointsCorrectWithPower, true
	}
	return PenaltyWithPower, true
}
