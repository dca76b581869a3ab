package mastery

import "time"

// StreakWindow is how recent the previous study must be for the streak
// to continue. The bound is inclusive.
const StreakWindow = 24 * time.Hour

// NextStreak returns the streak after studying at now, given the
// previous streak and when the learner last studied.
func NextStreak(prev int, lastStudied, now time.Time) int {
	if lastStudied.IsZero() {
		return 1
	}
	if now.Sub(lastStudied) <= StreakWindow {
		return prev + 1
	}
	return 1
}
