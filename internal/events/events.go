// Package events publishes study-session domain events.
package events

import (
	"context"
	"time"
)

// Routing keys.
const (
	TypeSessionStarted   = "session.started"
	TypeAnswerSubmitted  = "answer.submitted"
	TypeSessionCompleted = "session.completed"
)

// Event is the envelope for every published message.
type Event struct {
	ID        string    `json:"event_id"`
	Type      string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	LessonID  string    `json:"lesson_id"`
	TopicID   string    `json:"topic_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// SessionStarted is the payload of a session.started event.
type SessionStarted struct {
	Kind          string `json:"kind"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"question_count"`
}

// AnswerSubmitted is the payload of an answer.submitted event.
type AnswerSubmitted struct {
	AttemptID  string `json:"attempt_id"`
	QuestionID string `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
	Graded     bool   `json:"graded"`
	TimeSpent  int    `json:"time_spent"`
	HintsUsed  int    `json:"hints_used"`
}

// SessionCompleted is the payload of a session.completed event.
type SessionCompleted struct {
	Duration           int     `json:"duration"`
	QuestionsAttempted int     `json:"questions_attempted"`
	CorrectAnswers     int     `json:"correct_answers"`
	Score              int     `json:"score"`
	AvgTimePerQuestion float64 `json:"avg_time_per_question"`
	Mastery            int     `json:"mastery"`
	StreakDays         int     `json:"streak_days"`
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
