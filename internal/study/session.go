package study

import (
	"fmt"
	"math"
	"time"
)

// SessionKind is the flavour of a study run.
type SessionKind string

const (
	SessionPractice SessionKind = "practice"
	SessionTest     SessionKind = "test"
	SessionReview   SessionKind = "review"
)

// ParseSessionKind converts a string to a SessionKind.
func ParseSessionKind(s string) (SessionKind, error) {
	switch SessionKind(s) {
	case SessionPractice, SessionTest, SessionReview:
		return SessionKind(s), nil
	}
	return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown session kind %q", s)}
}

// Session is one practice, test or review run over a fixed
// (lesson, topic, difficulty).
type Session struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"user_id"`
	LessonID           string      `json:"lesson_id"`
	TopicID            string      `json:"topic_id"`
	Kind               SessionKind `json:"kind"`
	Difficulty         Difficulty  `json:"difficulty"`
	QuestionCount      int         `json:"question_count"`
	StartTime          time.Time   `json:"start_time"`
	EndTime            *time.Time  `json:"end_time,omitempty"`
	QuestionsAttempted int         `json:"questions_attempted"`
	CorrectAnswers     int         `json:"correct_answers"`
	TotalTime          int         `json:"total_time"`
	AvgTimePerQuestion float64     `json:"avg_time_per_question"`
	Score              int         `json:"score"`
	Completed          bool        `json:"completed"`
}

// Record applies one graded submission to the running counters.
func (s *Session) Record(correct bool, timeSpent int) {
	s.QuestionsAttempted++
	if correct {
		s.CorrectAnswers++
	}
	s.TotalTime += timeSpent
	s.Derive()
}

// Derive recomputes the average time and score from the counters.
func (s *Session) Derive() {
	if s.QuestionsAttempted == 0 {
		s.AvgTimePerQuestion = 0
		s.Score = 0
		return
	}
	s.AvgTimePerQuestion = float64(s.TotalTime) / float64(s.QuestionsAttempted)
	s.Score = Percent(s.CorrectAnswers, s.QuestionsAttempted)
}

// Percent returns round(100*part/whole), or 0 when whole is 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}
