package mastery

import "github.com/abhisek/studyloop/internal/study"

const (
	// HardThreshold is the minimum mastery that earns hard questions.
	HardThreshold = 80

	// MediumThreshold is the minimum mastery that earns medium questions.
	MediumThreshold = 50

	// MaxMastery caps the mastery score.
	MaxMastery = 100
)

// Compute returns min(100, round(100*correct/total)), or 0 when nothing
// has been answered yet.
func Compute(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return min(MaxMastery, study.Percent(correct, total))
}

// TierFor maps a mastery score to the difficulty tier a learner should
// practise at.
func TierFor(mastery int) study.Difficulty {
	switch {
	case mastery >= HardThreshold:
		return study.DifficultyHard
	case mastery >= MediumThreshold:
		return study.DifficultyMedium
	default:
		return study.DifficultyEasy
	}
}

// TierForProgress is TierFor with a nil record treated as a beginner.
func TierForProgress(p *study.UserProgress) study.Difficulty {
	if p == nil {
		return study.DifficultyEasy
	}
	return TierFor(p.Mastery)
}
