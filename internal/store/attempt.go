package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/study"
)

var attemptColumns = []string{
	"id", "user_id", "question_id", "session_id", "selected_answer",
	"is_correct", "graded", "time_spent", "hints_used", "timestamp",
}

// statsQuery aggregates a question's attempts in one pass. It is raw SQL
// because the builder cannot express the conditional sum.
const statsQuery = `SELECT COUNT(*),
	COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(time_spent), 0)
FROM attempts WHERE question_id = ?`

type attemptRepo struct {
	eq dialect.ExecQuerier
}

func (r *attemptRepo) Append(ctx context.Context, a *study.Attempt) (*study.Attempt, error) {
	answer, err := encodeJSON(a.SelectedAnswer)
	if err != nil {
		return nil, fmt.Errorf("encode answer: %w", err)
	}
	var sessionID any
	if a.SessionID != "" {
		sessionID = a.SessionID
	}

	q, args := sqlb.Insert(AttemptsTable.Name).
		Set("id", a.ID).
		Set("user_id", a.UserID).
		Set("question_id", a.QuestionID).
		Set("session_id", sessionID).
		Set("selected_answer", answer).
		Set("is_correct", a.IsCorrect).
		Set("graded", a.Graded).
		Set("time_spent", a.TimeSpent).
		Set("hints_used", a.HintsUsed).
		Set("timestamp", a.Timestamp.UTC()).
		Query()
	if err := r.eq.Exec(ctx, q, args, nil); err != nil {
		return nil, fmt.Errorf("append attempt: %w", err)
	}
	out := *a
	return &out, nil
}

func (r *attemptRepo) StatsFor(ctx context.Context, questionID string) (study.AttemptStats, error) {
	var st study.AttemptStats
	err := rawQuery(ctx, r.eq, statsQuery, []any{questionID}, func(rows *entsql.Rows) error {
		return rows.Scan(&st.AttemptCount, &st.CorrectCount, &st.TotalTimeSpent)
	})
	if err != nil {
		return study.AttemptStats{}, fmt.Errorf("attempt stats: %w", err)
	}
	return st, nil
}

func (r *attemptRepo) QuestionIDsForSession(ctx context.Context, sessionID string) ([]string, error) {
	var ids []string
	err := queryRows(ctx, r.eq, sqlb.Select("question_id").
		Distinct().
		From(sqlb.Table(AttemptsTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("question_id"), func(rows *entsql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("attempted questions: %w", err)
	}
	return ids, nil
}

func (r *attemptRepo) ListBySession(ctx context.Context, sessionID string) ([]study.Attempt, error) {
	var out []study.Attempt
	err := queryRows(ctx, r.eq, sqlb.Select(attemptColumns...).
		From(sqlb.Table(AttemptsTable.Name)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("seq"), func(rows *entsql.Rows) error {
		var (
			a         study.Attempt
			sessionID sql.NullString
			answer    sql.NullString
		)
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.QuestionID, &sessionID, &answer,
			&a.IsCorrect, &a.Graded, &a.TimeSpent, &a.HintsUsed, &a.Timestamp,
		); err != nil {
			return fmt.Errorf("scan attempt: %w", err)
		}
		a.SessionID = sessionID.String
		if err := decodeJSON(answer, &a.SelectedAnswer); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return out, nil
}
