package domain

import "time"

type ChallengeType string

const (
	ChallengeQuiz ChallengeType = "quiz"
	ChallengeTask ChallengeType = "task"
)

type Challenge struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Type        ChallengeType `json:"type"`
	Points      int           `json:"points"`
	CreatedBy   uint          `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
}

type Submission struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	ChallengeID uint      `json:"challenge_id"`
	Proof       string    `json:"proof"`
	SubmittedAt time.Time `json:"submitted_date"`
}

type Badge struct {
	ID       uint      `json:"id"`
	UserID   uint      `json:"-"`
	Name     string    `json:"name"`
	EarnedAt time.Time `json:"earned_date"`
}

// SubmissionResult is everything one accepted submission changed.
type SubmissionResult struct {
	Submission Submission `json:"submission"`
	Reward     int        `json:"reward"`
	Points     int        `json:"points"`
	Badges     []Badge    `json:"badges"`
	School     string     `json:"-"`
}
