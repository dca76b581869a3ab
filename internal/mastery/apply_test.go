package mastery

import (
	"slices"
	"testing"
	"time"

	"github.com/abhisek/studyloop/internal/study"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestApplySession_FirstSession(t *testing.T) {
	p := ApplySession(nil, "u1", "L", "T", study.SessionStats{
		QuestionsAttempted: 2,
		CorrectAnswers:     1,
		TotalTime:          30,
	}, t0)

	if p.Mastery != 50 {
		t.Errorf("Mastery = %d, want 50", p.Mastery)
	}
	if p.Difficulty != study.DifficultyMedium {
		t.Errorf("Difficulty = %s, want medium", p.Difficulty)
	}
	if p.StreakDays != 1 {
		t.Errorf("StreakDays = %d, want 1", p.StreakDays)
	}
	if !p.LastStudied.Equal(t0) || !p.CreatedAt.Equal(t0) {
		t.Errorf("timestamps = %v/%v, want %v", p.LastStudied, p.CreatedAt, t0)
	}
	if p.TotalTimeSpent != 30 || p.TotalQuestions != 2 || p.CorrectAnswers != 1 {
		t.Errorf("totals = %d/%d/%d, want 30/2/1", p.TotalTimeSpent, p.TotalQuestions, p.CorrectAnswers)
	}
}

func TestApplySession_EmptySessionKeepsZeroMastery(t *testing.T) {
	p := ApplySession(nil, "u1", "L", "T", study.SessionStats{}, t0)
	if p.Mastery != 0 || p.Difficulty != study.DifficultyEasy {
		t.Errorf("got mastery %d tier %s, want 0 easy", p.Mastery, p.Difficulty)
	}
}

func TestApplySession_StreakResetAfter48h(t *testing.T) {
	prev := NewProgress("u1", "L", "T")
	prev.StreakDays = 5
	prev.LastStudied = t0.Add(-48 * time.Hour)

	p := ApplySession(prev, "u1", "L", "T", study.SessionStats{QuestionsAttempted: 1, CorrectAnswers: 1}, t0)
	if p.StreakDays != 1 {
		t.Errorf("StreakDays = %d, want 1", p.StreakDays)
	}
	if prev.StreakDays != 5 {
		t.Error("ApplySession modified its input")
	}
}

func TestApplySession_StreakIncrementsWithinWindow(t *testing.T) {
	prev := NewProgress("u1", "L", "T")
	prev.StreakDays = 2
	prev.LastStudied = t0.Add(-20 * time.Hour)

	p := ApplySession(prev, "u1", "L", "T", study.SessionStats{QuestionsAttempted: 1}, t0)
	if p.StreakDays != 3 {
		t.Errorf("StreakDays = %d, want 3", p.StreakDays)
	}
}

func TestApplySession_MasteryMonotonicUnderPerfectSessions(t *testing.T) {
	p := ApplySession(nil, "u1", "L", "T", study.SessionStats{QuestionsAttempted: 10, CorrectAnswers: 2}, t0)
	last := p.Mastery
	for i := 1; i <= 50; i++ {
		n := 1 + i%4
		p = ApplySession(p, "u1", "L", "T", study.SessionStats{QuestionsAttempted: n, CorrectAnswers: n}, t0.Add(time.Duration(i)*time.Hour))
		if p.Mastery < last {
			t.Fatalf("session %d: mastery decreased %d -> %d", i, last, p.Mastery)
		}
		if p.Mastery > MaxMastery {
			t.Fatalf("session %d: mastery %d exceeds cap", i, p.Mastery)
		}
		last = p.Mastery
	}
	if last < HardThreshold {
		t.Errorf("mastery after 50 perfect sessions = %d, want >= %d", last, HardThreshold)
	}
}

func TestApplySession_Tags(t *testing.T) {
	prev := NewProgress("u1", "L", "T")
	prev.Weaknesses = []string{"fractions"}
	prev.Strengths = []string{"decimals"}

	p := ApplySession(prev, "u1", "L", "T", study.SessionStats{
		QuestionsAttempted: 7,
		CorrectAnswers:     4,
		Tags: []study.TagResult{
			{Tag: "fractions", Attempted: 3, Correct: 3},
			{Tag: "decimals", Attempted: 2, Correct: 0},
			{Tag: "geometry", Attempted: 1, Correct: 0},
			{Tag: "ratios", Attempted: 2, Correct: 1},
		},
	}, t0)

	if want := []string{"fractions"}; !slices.Equal(p.Strengths, want) {
		t.Errorf("Strengths = %v, want %v", p.Strengths, want)
	}
	if want := []string{"decimals"}; !slices.Equal(p.Weaknesses, want) {
		t.Errorf("Weaknesses = %v, want %v", p.Weaknesses, want)
	}
	if !slices.Equal(prev.Weaknesses, []string{"fractions"}) {
		t.Errorf("input Weaknesses modified: %v", prev.Weaknesses)
	}
}
