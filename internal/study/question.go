package study

import "fmt"

// Difficulty is the tier of a question and the preferred tier of a learner.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty converts a string to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), nil
	}
	return "", &ValidationError{Field: "difficulty", Reason: fmt.Sprintf("unknown difficulty %q", s)}
}

// QuestionKind selects how a submission is graded.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindTrueFalse      QuestionKind = "true_false"
	KindFillBlank      QuestionKind = "fill_blank"
	KindEssay          QuestionKind = "essay"
)

// ParseQuestionKind converts a string to a QuestionKind.
func ParseQuestionKind(s string) (QuestionKind, error) {
	switch QuestionKind(s) {
	case KindMultipleChoice, KindTrueFalse, KindFillBlank, KindEssay:
		return QuestionKind(s), nil
	}
	return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown question kind %q", s)}
}

// QuestionStats are the rolling statistics maintained from the attempt log.
type QuestionStats struct {
	UsageCount   int `json:"usage_count"`
	AvgSolveTime int `json:"avg_solve_time"`
	SuccessRate  int `json:"success_rate"`
}

// Question is a single item in the question bank.
type Question struct {
	ID            string        `json:"id"`
	LessonID      string        `json:"lesson_id"`
	TopicID       string        `json:"topic_id"`
	Difficulty    Difficulty    `json:"difficulty"`
	Kind          QuestionKind  `json:"kind"`
	Prompt        string        `json:"prompt"`
	Options       []string      `json:"options,omitempty"`
	CorrectAnswer Answer        `json:"correct_answer"`
	Hint          string        `json:"hint,omitempty"`
	Explanation   string        `json:"explanation,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	Stats         QuestionStats `json:"stats"`
	Active        bool          `json:"active"`
}

// Public returns a copy of q that is safe to show to a learner before
// they answer: the correct answer and explanation are cleared.
func (q Question) Public() Question {
	q.CorrectAnswer = Answer{}
	q.Explanation = ""
	return q
}

// Lesson is a unit of the content catalog.
type Lesson struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Topic belongs to exactly one lesson.
type Topic struct {
	ID       string `json:"id"`
	LessonID string `json:"lesson_id"`
	Title    string `json:"title"`
}
