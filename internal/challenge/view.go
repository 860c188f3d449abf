package challenge

import "lms-challenge-service/internal/domain"

// View is the player-facing snapshot of a session. It never carries the
// answer of an open question.
type View struct {
	State            State          `json:"state"`
	Question         int            `json:"question"`
	Total            int            `json:"total"`
	Prompt           string         `json:"prompt,omitempty"`
	Options          []string       `json:"options,omitempty"`
	Hint             string         `json:"hint,omitempty"`
	TimeLeft         int            `json:"timeLeft"`
	SelectionLeft    int            `json:"selectionLeft,omitempty"`
	Elapsed          int            `json:"elapsed"`
	Score            int            `json:"score"`
	Selected         string         `json:"selected,omitempty"`
	LastCorrect      *bool          `json:"lastCorrect,omitempty"`
	AvailablePowers  []domain.Power `json:"availablePowers"`
	ActivePower      domain.Power   `json:"activePower,omitempty"`
	Frozen           bool           `json:"frozen"`
	SecondChanceUsed bool           `json:"secondChanceUsed"`
	Correct          int            `json:"correct"`
	Incorrect        int            `json:"incorrect"`
}

// View renders the current snapshot.
func (s *Session) View() View {
	v := View{
		State:            s.state,
		Question:         s.index,
		Total:            QuestionCount,
		TimeLeft:         s.timeLeft,
		Elapsed:          s.elapsed,
		Score:            s.score,
		Selected:         s.selected,
		LastCorrect:      s.lastCorrect,
		AvailablePowers:  s.AvailablePowers(),
		ActivePower:      s.active,
		Frozen:           s.frozen,
		SecondChanceUsed: s.secondChanceUsed,
		Correct:          s.correct,
		Incorrect:        s.incorrect,
	}
	switch s.state {
	case StateAwaitingPowerSelection:
		v.SelectionLeft = s.selectionLeft
	case StateInProgress, StateAwaitingRetry, StateAwaitingAdvance:
		q := s.current()
		v.Prompt = q.Prompt
		v.Options = s.DisplayedOptions()
		if s.showHint {
			v.Hint = q.Hint
		}
	}
	return v
}
