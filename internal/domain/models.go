package domain

import "time"

// QuizAttempt is one finished challenge run for a user on a chapter.
type QuizAttempt struct {
	UserID           string    `json:"userId"`
	CourseID         string    `json:"courseId,omitempty"`
	ChapterID        string    `json:"chapterId"`
	QuizScore        int       `json:"quizScore"`
	TimeTaken        int       `json:"timeTaken"` // seconds
	CreatedAt        time.Time `json:"createdAt"`
	IsCompleted      bool      `json:"isCompleted"`
	IsQuizCompleted  bool      `json:"isQuizCompleted"`
	CorrectAnswers   int       `json:"correctAnswers"`
	IncorrectAnswers int       `json:"incorrectAnswers"`
}

// LeaderboardEntry is one ranked row of a course leaderboard.
type LeaderboardEntry struct {
	Rank                 int      `json:"rank"`
	UserID               string   `json:"userId"`
	TotalScore           int      `json:"totalScore"`
	AvgTime              float64  `json:"avgTime"`
	PerfectRuns          int      `json:"perfectRuns"`
	PerfectRunPercentage float64  `json:"perfectRunPercentage"`
	Badges               []string `json:"badges"`
}

// Leaderboard captures the ordered scoreboard for a course.
type Leaderboard struct {
	CourseID  string             `json:"courseId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Standing is the current user's position on a course leaderboard.
type Standing struct {
	Rank        int      `json:"rank"`
	TotalScore  int      `json:"totalScore"`
	AvgTime     float64  `json:"avgTime"`
	PerfectRuns int      `json:"perfectRuns"`
	Badges      []string `json:"badges"`
}

// Question models a generated MCQ question. Options hold every displayed
// choice; Answer is added to them if missing.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Answer  string   `json:"answer"`
	Hint    string   `json:"hint"`
	Options []string `json:"options"`
}

// Choices returns the displayable options with the answer guaranteed present.
func (q Question) Choices() []string {
	choices := make([]string, 0, len(q.Options)+1)
	seen := false
	for _, opt := range q.Options {
		if opt == q.Answer {
			seen = true
		}
		choices = append(choices, opt)
	}
	if !seen {
		choices = append(choices, q.Answer)
	}
	return choices
}

// Power identifies a one-time challenge modifier.
type Power string

const (
	PowerNone         Power = ""
	PowerFiftyFifty   Power = "fifty-fifty"
	PowerTimeFreeze   Power = "time-freeze"
	PowerTwoChance    Power = "two-chance"
	PowerHintReveal   Power = "hint-reveal"
	PowerSkipNegative Power = "skip-negative"
	PowerSkipQuestion Power = "skip-question"
	PowerDoublePoints Power = "double-points"
)

// PowerInfo describes a power for selection screens.
type PowerInfo struct {
	ID          Power  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Powers is the catalog offered before a challenge starts.
var Powers = []PowerInfo{
	{ID: PowerFiftyFifty, Name: "50-50", Description: "Removes wrong options so only one wrong and the correct answer remain."},
	{ID: PowerTimeFreeze, Name: "Time Freeze", Description: "Freezes the question timer and the total elapsed time for the question."},
	{ID: PowerTwoChance, Name: "Two-Chance", Description: "Grants a second attempt when the first answer is wrong."},
	{ID: PowerHintReveal, Name: "Hint-Reveal", Description: "Displays the hint for the question."},
	{ID: PowerSkipNegative, Name: "Skip Negative Score", Description: "No points are deducted if the answer is wrong."},
	{ID: PowerSkipQuestion, Name: "Skip Question", Description: "Skips the question without deducting points."},
	{ID: PowerDoublePoints, Name: "Double Points", Description: "Doubles the points for a right answer; a wrong answer costs 15 points."},
}

// Known reports whether p is in the catalog.
func (p Power) Known() bool {
	for _, info := range Powers {
		if info.ID == p {
			return true
		}
	}
	return false
}
