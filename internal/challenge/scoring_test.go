package challenge_test

import (
	"testing"

	"lms-challenge-service/internal/challenge"
	"lms-challenge-service/internal/domain"
)

func TestScoreDelta(t *testing.T) {
	cases := []struct {
		name         string
		correct      bool
		power        domain.Power
		secondChance bool
		delta        int
		resolved     bool
	}{
		{"no power correct", true, domain.PowerNone, false, 50, true},
		{"no power incorrect", false, domain.PowerNone, false, -10, true},
		{"double correct", true, domain.PowerDoublePoints, false, 100, true},
		{"double incorrect", false, domain.PowerDoublePoints, false, -15, true},
		{"skip negative correct", true, domain.PowerSkipNegative, false, 40, true},
		{"skip negative incorrect", false, domain.PowerSkipNegative, false, 0, true},
		{"generic correct", true, domain.PowerHintReveal, false, 40, true},
		{"generic incorrect", false, domain.PowerFiftyFifty, false, -15, true},
		{"two chance first miss", false, domain.PowerTwoChance, true, 0, false},
		{"two chance retry miss", false, domain.PowerTwoChance, false, -15, true},
		{"two chance correct", true, domain.PowerTwoChance, true, 40, true},
	}
	for _, tc := range cases {
		delta, resolved := challenge.ScoreDelta(tc.correct, tc.power, tc.secondChance)
		if delta != tc.delta || resolved != tc.resolved {
			t.Fatalf("%s: expected (%d, %v), got (%d, %v)", tc.name, tc.delta, tc.resolved, delta, resolved)
		}
	}
}
