package mastery

import (
	"slices"
	"time"

	"github.com/abhisek/studyloop/internal/study"
)

const (
	// StrengthAccuracy is the per-session tag accuracy that marks a strength.
	StrengthAccuracy = 80

	// WeaknessAccuracy is the per-session tag accuracy below which a tag
	// is a weakness.
	WeaknessAccuracy = 50

	// MinTagAttempts is the number of attempts on a tag in one session
	// before it is classified at all.
	MinTagAttempts = 2
)

// NewProgress returns the initial record for a (user, lesson, topic)
// that has never finished a session.
func NewProgress(userID, lessonID, topicID string) *study.UserProgress {
	return &study.UserProgress{
		UserID:     userID,
		LessonID:   lessonID,
		TopicID:    topicID,
		Difficulty: study.DifficultyEasy,
		Weaknesses: []string{},
		Strengths:  []string{},
	}
}

// ApplySession folds a finished session into prev and returns the new
// record. prev may be nil; it is never modified.
func ApplySession(prev *study.UserProgress, userID, lessonID, topicID string, s study.SessionStats, now time.Time) *study.UserProgress {
	var p study.UserProgress
	if prev == nil {
		p = *NewProgress(userID, lessonID, topicID)
		p.CreatedAt = now
	} else {
		p = *prev
		p.Weaknesses = slices.Clone(prev.Weaknesses)
		p.Strengths = slices.Clone(prev.Strengths)
	}

	p.TotalQuestions += s.QuestionsAttempted
	p.CorrectAnswers += s.CorrectAnswers
	p.TotalTimeSpent += s.TotalTime
	p.Mastery = Compute(p.CorrectAnswers, p.TotalQuestions)

	p.StreakDays = NextStreak(p.StreakDays, p.LastStudied, now)
	p.LastStudied = now

	p.Difficulty = TierFor(p.Mastery)
	p.Strengths, p.Weaknesses = classifyTags(p.Strengths, p.Weaknesses, s.Tags)
	p.UpdatedAt = now
	return &p
}

// classifyTags moves tags between the strength and weakness lists based
// on this session's accuracy. Tags with too few attempts, or accuracy
// between the two bounds, keep their previous classification.
func classifyTags(strengths, weaknesses []string, results []study.TagResult) ([]string, []string) {
	for _, r := range results {
		if r.Attempted < MinTagAttempts {
			continue
		}
		acc := study.Percent(r.Correct, r.Attempted)
		switch {
		case acc >= StrengthAccuracy:
			weaknesses = remove(weaknesses, r.Tag)
			strengths = add(strengths, r.Tag)
		case acc < WeaknessAccuracy:
			strengths = remove(strengths, r.Tag)
			weaknesses = add(weaknesses, r.Tag)
		}
	}
	if strengths == nil {
		strengths = []string{}
	}
	if weaknesses == nil {
		weaknesses = []string{}
	}
	slices.Sort(strengths)
	slices.Sort(weaknesses)
	return strengths, weaknesses
}

func add(list []string, tag string) []string {
	if slices.Contains(list, tag) {
		return list
	}
	return append(list, tag)
}

func remove(list []string, tag string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == tag })
}
