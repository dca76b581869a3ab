package session

import (
	"testing"

	"github.com/abhisek/studyloop/internal/study"
)

func TestTagResults(t *testing.T) {
	questions := map[string]*study.Question{
		"q1": {ID: "q1", Tags: []string{"fractions", "addition"}},
		"q2": {ID: "q2", Tags: []string{"fractions"}},
		"q3": {ID: "q3", Tags: []string{"essay"}},
	}
	attempts := []study.Attempt{
		{QuestionID: "q1", IsCorrect: true, Graded: true},
		{QuestionID: "q2", IsCorrect: false, Graded: true},
		{QuestionID: "q2", IsCorrect: true, Graded: true},
		{QuestionID: "q3", Graded: false},
	}

	got := tagResults(attempts, questions)
	want := []study.TagResult{
		{Tag: "addition", Attempted: 1, Correct: 1},
		{Tag: "fractions", Attempted: 3, Correct: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("tagResults = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tagResults[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildSummary(t *testing.T) {
	s := &study.Session{ID: "s1", QuestionsAttempted: 2, CorrectAnswers: 1, TotalTime: 30, Score: 50, AvgTimePerQuestion: 15}
	sum := BuildSummary(s, nil)
	if sum.Duration != 30 || sum.Score != 50 || sum.AvgTimePerQuestion != 15 || sum.SessionID != "s1" {
		t.Errorf("summary = %+v", sum)
	}
}
