package session

import (
	"slices"
	"strings"

	"github.com/abhisek/studyloop/internal/study"
)

// Summary is returned when a session ends.
type Summary struct {
	SessionID          string  `json:"session_id"`
	Duration           int     `json:"duration"`
	QuestionsAttempted int     `json:"questions_attempted"`
	CorrectAnswers     int     `json:"correct_answers"`
	Score              int     `json:"score"`
	AvgTimePerQuestion float64 `json:"avg_time_per_question"`

	// Progress is the learner's rollup after this session was folded in.
	Progress *study.UserProgress `json:"progress,omitempty"`
}

// BuildSummary creates a Summary from a sealed session.
func BuildSummary(s *study.Session, p *study.UserProgress) *Summary {
	return &Summary{
		SessionID:          s.ID,
		Duration:           s.TotalTime,
		QuestionsAttempted: s.QuestionsAttempted,
		CorrectAnswers:     s.CorrectAnswers,
		Score:              s.Score,
		AvgTimePerQuestion: s.AvgTimePerQuestion,
		Progress:           p,
	}
}

// tagResults tallies graded attempts per question tag, sorted by tag.
func tagResults(attempts []study.Attempt, questions map[string]*study.Question) []study.TagResult {
	byTag := make(map[string]*study.TagResult)
	for _, a := range attempts {
		q, ok := questions[a.QuestionID]
		if !ok || !a.Graded {
			continue
		}
		for _, tag := range q.Tags {
			r := byTag[tag]
			if r == nil {
				r = &study.TagResult{Tag: tag}
				byTag[tag] = r
			}
			r.Attempted++
			if a.IsCorrect {
				r.Correct++
			}
		}
	}

	out := make([]study.TagResult, 0, len(byTag))
	for _, r := range byTag {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b study.TagResult) int { return strings.Compare(a.Tag, b.Tag) })
	return out
}
