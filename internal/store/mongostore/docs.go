package mongostore

import (
	"time"

	"github.com/abhisek/studyloop/internal/study"
)

type answerDoc struct {
	Type  string `bson:"type"`
	Text  string `bson:"text,omitempty"`
	Index int    `bson:"index,omitempty"`
}

func toAnswerDoc(a study.Answer) *answerDoc {
	if a.IsZero() {
		return nil
	}
	return &answerDoc{Type: string(a.Type), Text: a.Text, Index: a.Index}
}

func (d *answerDoc) answer() study.Answer {
	if d == nil {
		return study.Answer{}
	}
	return study.Answer{Type: study.AnswerType(d.Type), Text: d.Text, Index: d.Index}
}

type statsDoc struct {
	UsageCount   int `bson:"usage_count"`
	AvgSolveTime int `bson:"avg_solve_time"`
	SuccessRate  int `bson:"success_rate"`
}

type questionDoc struct {
	ID            string     `bson:"_id"`
	LessonID      string     `bson:"lesson_id"`
	TopicID       string     `bson:"topic_id"`
	Difficulty    string     `bson:"difficulty"`
	Kind          string     `bson:"kind"`
	Prompt        string     `bson:"prompt"`
	Options       []string   `bson:"options,omitempty"`
	CorrectAnswer *answerDoc `bson:"correct_answer,omitempty"`
	Hint          string     `bson:"hint,omitempty"`
	Explanation   string     `bson:"explanation,omitempty"`
	Tags          []string   `bson:"tags,omitempty"`
	Stats         statsDoc   `bson:"stats"`
	Active        bool       `bson:"active"`
}

func (d *questionDoc) question() *study.Question {
	return &study.Question{
		ID:            d.ID,
		LessonID:      d.LessonID,
		TopicID:       d.TopicID,
		Difficulty:    study.Difficulty(d.Difficulty),
		Kind:          study.QuestionKind(d.Kind),
		Prompt:        d.Prompt,
		Options:       d.Options,
		CorrectAnswer: d.CorrectAnswer.answer(),
		Hint:          d.Hint,
		Explanation:   d.Explanation,
		Tags:          d.Tags,
		Stats:         study.QuestionStats(d.Stats),
		Active:        d.Active,
	}
}

type sessionDoc struct {
	ID                 string     `bson:"_id"`
	UserID             string     `bson:"user_id"`
	LessonID           string     `bson:"lesson_id"`
	TopicID            string     `bson:"topic_id"`
	Kind               string     `bson:"kind"`
	Difficulty         string     `bson:"difficulty"`
	QuestionCount      int        `bson:"question_count"`
	StartTime          time.Time  `bson:"start_time"`
	EndTime            *time.Time `bson:"end_time,omitempty"`
	QuestionsAttempted int        `bson:"questions_attempted"`
	CorrectAnswers     int        `bson:"correct_answers"`
	TotalTime          int        `bson:"total_time"`
	AvgTimePerQuestion float64    `bson:"avg_time_per_question"`
	Score              int        `bson:"score"`
	Completed          bool       `bson:"completed"`
}

func toSessionDoc(s *study.Session) sessionDoc {
	return sessionDoc{
		ID:                 s.ID,
		UserID:             s.UserID,
		LessonID:           s.LessonID,
		TopicID:            s.TopicID,
		Kind:               string(s.Kind),
		Difficulty:         string(s.Difficulty),
		QuestionCount:      s.QuestionCount,
		StartTime:          s.StartTime.UTC(),
		EndTime:            s.EndTime,
		QuestionsAttempted: s.QuestionsAttempted,
		CorrectAnswers:     s.CorrectAnswers,
		TotalTime:          s.TotalTime,
		AvgTimePerQuestion: s.AvgTimePerQuestion,
		Score:              s.Score,
		Completed:          s.Completed,
	}
}

func (d *sessionDoc) session() *study.Session {
	s := &study.Session{
		ID:                 d.ID,
		UserID:             d.UserID,
		LessonID:           d.LessonID,
		TopicID:            d.TopicID,
		Kind:               study.SessionKind(d.Kind),
		Difficulty:         study.Difficulty(d.Difficulty),
		QuestionCount:      d.QuestionCount,
		StartTime:          d.StartTime.UTC(),
		QuestionsAttempted: d.QuestionsAttempted,
		CorrectAnswers:     d.CorrectAnswers,
		TotalTime:          d.TotalTime,
		AvgTimePerQuestion: d.AvgTimePerQuestion,
		Score:              d.Score,
		Completed:          d.Completed,
	}
	if d.EndTime != nil {
		t := d.EndTime.UTC()
		s.EndTime = &t
	}
	return s
}

type attemptDoc struct {
	ID             string     `bson:"id"`
	UserID         string     `bson:"user_id"`
	QuestionID     string     `bson:"question_id"`
	SessionID      string     `bson:"session_id,omitempty"`
	SelectedAnswer *answerDoc `bson:"selected_answer,omitempty"`
	IsCorrect      bool       `bson:"is_correct"`
	Graded         bool       `bson:"graded"`
	TimeSpent      int        `bson:"time_spent"`
	HintsUsed      int        `bson:"hints_used"`
	Timestamp      time.Time  `bson:"timestamp"`
}

func (d *attemptDoc) attempt() study.Attempt {
	return study.Attempt{
		ID:             d.ID,
		UserID:         d.UserID,
		QuestionID:     d.QuestionID,
		SessionID:      d.SessionID,
		SelectedAnswer: d.SelectedAnswer.answer(),
		IsCorrect:      d.IsCorrect,
		Graded:         d.Graded,
		TimeSpent:      d.TimeSpent,
		HintsUsed:      d.HintsUsed,
		Timestamp:      d.Timestamp.UTC(),
	}
}

type progressDoc struct {
	UserID         string    `bson:"user_id"`
	LessonID       string    `bson:"lesson_id"`
	TopicID        string    `bson:"topic_id"`
	Mastery        int       `bson:"mastery"`
	StreakDays     int       `bson:"streak_days"`
	LastStudied    time.Time `bson:"last_studied"`
	TotalTimeSpent int       `bson:"total_time_spent"`
	TotalQuestions int       `bson:"total_questions"`
	CorrectAnswers int       `bson:"correct_answers"`
	Difficulty     string    `bson:"difficulty"`
	Weaknesses     []string  `bson:"weaknesses"`
	Strengths      []string  `bson:"strengths"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toProgressDoc(p *study.UserProgress) progressDoc {
	return progressDoc{
		UserID:         p.UserID,
		LessonID:       p.LessonID,
		TopicID:        p.TopicID,
		Mastery:        p.Mastery,
		StreakDays:     p.StreakDays,
		LastStudied:    p.LastStudied.UTC(),
		TotalTimeSpent: p.TotalTimeSpent,
		TotalQuestions: p.TotalQuestions,
		CorrectAnswers: p.CorrectAnswers,
		Difficulty:     string(p.Difficulty),
		Weaknesses:     p.Weaknesses,
		Strengths:      p.Strengths,
		CreatedAt:      p.CreatedAt.UTC(),
		UpdatedAt:      p.UpdatedAt.UTC(),
	}
}

func (d *progressDoc) progress() *study.UserProgress {
	p := &study.UserProgress{
		UserID:         d.UserID,
		LessonID:       d.LessonID,
		TopicID:        d.TopicID,
		Mastery:        d.Mastery,
		StreakDays:     d.StreakDays,
		LastStudied:    d.LastStudied.UTC(),
		TotalTimeSpent: d.TotalTimeSpent,
		TotalQuestions: d.TotalQuestions,
		CorrectAnswers: d.CorrectAnswers,
		Difficulty:     study.Difficulty(d.Difficulty),
		Weaknesses:     d.Weaknesses,
		Strengths:      d.Strengths,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
	if p.Weaknesses == nil {
		p.Weaknesses = []string{}
	}
	if p.Strengths == nil {
		p.Strengths = []string{}
	}
	return p
}
