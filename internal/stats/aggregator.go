// Package stats keeps per-question rolling statistics in step with the
// attempt log.
package stats

import (
	"context"
	"fmt"
	"math"

	"github.com/abhisek/studyloop/internal/store"
	"github.com/abhisek/studyloop/internal/study"
)

// Aggregator recomputes a question's statistics from its full attempt
// history. Recomputation is idempotent, so concurrent runs for the same
// question converge and the last write wins.
type Aggregator struct {
	attempts  store.AttemptLog
	questions store.QuestionBank
}

// New creates an Aggregator over the given repositories.
func New(attempts store.AttemptLog, questions store.QuestionBank) *Aggregator {
	return &Aggregator{attempts: attempts, questions: questions}
}

// ForRepos binds an Aggregator to a set of repositories, typically the
// ones of an open transaction.
func ForRepos(r store.Repos) *Aggregator {
	return New(r.Attempts, r.Questions)
}

// OnAttempt refreshes the statistics of questionID after an attempt on
// it was appended, and returns the new values.
func (a *Aggregator) OnAttempt(ctx context.Context, questionID string) (study.QuestionStats, error) {
	st, err := a.attempts.StatsFor(ctx, questionID)
	if err != nil {
		return study.QuestionStats{}, fmt.Errorf("load attempt stats: %w", err)
	}
	qs := Compute(st)
	if err := a.questions.UpdateStats(ctx, questionID, qs); err != nil {
		return study.QuestionStats{}, fmt.Errorf("save question stats: %w", err)
	}
	return qs, nil
}

// Compute derives question statistics from aggregated attempts.
func Compute(st study.AttemptStats) study.QuestionStats {
	if st.AttemptCount == 0 {
		return study.QuestionStats{}
	}
	return study.QuestionStats{
		UsageCount:   st.AttemptCount,
		SuccessRate:  study.Percent(st.CorrectCount, st.AttemptCount),
		AvgSolveTime: int(math.Round(float64(st.TotalTimeSpent) / float64(st.AttemptCount))),
	}
}
