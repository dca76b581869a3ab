package study

import "time"

// UserProgress is the durable rollup for one (user, lesson, topic).
type UserProgress struct {
	UserID         string     `json:"user_id"`
	LessonID       string     `json:"lesson_id"`
	TopicID        string     `json:"topic_id"`
	Mastery        int        `json:"mastery"`
	StreakDays     int        `json:"streak_days"`
	LastStudied    time.Time  `json:"last_studied"`
	TotalTimeSpent int        `json:"total_time_spent"`
	TotalQuestions int        `json:"total_questions"`
	CorrectAnswers int        `json:"correct_answers"`
	Difficulty     Difficulty `json:"difficulty"`
	Weaknesses     []string   `json:"weaknesses"`
	Strengths      []string   `json:"strengths"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TagResult is per-tag accuracy within a single session.
type TagResult struct {
	Tag       string
	Attempted int
	Correct   int
}

// SessionStats is what a finished session contributes to UserProgress.
type SessionStats struct {
	QuestionsAttempted int
	CorrectAnswers     int
	TotalTime          int
	Tags               []TagResult
}

// ProgressFilter narrows a progress listing. Empty fields match all.
type ProgressFilter struct {
	UserID   string
	LessonID string
	TopicID  string
}
