package session

import "github.com/abhisek/studyloop/internal/study"

// StartRequest starts a session. Difficulty is optional; when empty it
// is derived from the learner's mastery.
type StartRequest struct {
	UserID        string
	LessonID      string
	TopicID       string
	Kind          study.SessionKind
	QuestionCount int
	Difficulty    study.Difficulty
}

// Progress is the running position within a session.
type Progress struct {
	Attempted int `json:"attempted"`
	Total     int `json:"total"`
	Correct   int `json:"correct"`
	Score     int `json:"score"`
	Elapsed   int `json:"elapsed"`
}

// StartResult is returned by Engine.Start. CurrentQuestion is nil when
// no question is available at the chosen difficulty.
type StartResult struct {
	Session         *study.Session  `json:"session"`
	CurrentQuestion *study.Question `json:"current_question"`
	Progress        Progress        `json:"progress"`
}

// SubmitRequest submits one answer.
type SubmitRequest struct {
	UserID         string
	SessionID      string
	QuestionID     string
	SelectedAnswer study.Answer
	TimeSpent      int
	HintsUsed      int
}

// SubmitResult is the feedback for one answer.
type SubmitResult struct {
	AttemptID     string       `json:"attempt_id"`
	IsCorrect     bool         `json:"is_correct"`
	Graded        bool         `json:"graded"`
	CorrectAnswer study.Answer `json:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty"`
	Progress      Progress     `json:"progress"`
}

func progressOf(s *study.Session) Progress {
	return Progress{
		Attempted: s.QuestionsAttempted,
		Total:     s.QuestionCount,
		Correct:   s.CorrectAnswers,
		Score:     s.Score,
		Elapsed:   s.TotalTime,
	}
}
