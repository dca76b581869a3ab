package study

import "time"

// Attempt is one answer submission. Attempts are never modified.
type Attempt struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	QuestionID     string    `json:"question_id"`
	SessionID      string    `json:"session_id,omitempty"`
	SelectedAnswer Answer    `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
	Graded         bool      `json:"graded"`
	TimeSpent      int       `json:"time_spent"`
	HintsUsed      int       `json:"hints_used"`
	Timestamp      time.Time `json:"timestamp"`
}

// AttemptStats aggregates every attempt on one question.
type AttemptStats struct {
	AttemptCount   int
	CorrectCount   int
	TotalTimeSpent int
}
