package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/study"
)

var sessionColumns = []string{
	"id", "user_id", "lesson_id", "topic_id", "kind", "difficulty",
	"question_count", "start_time", "end_time", "questions_attempted",
	"correct_answers", "total_time", "avg_time_per_question", "score", "completed",
}

type sessionRepo struct {
	eq dialect.ExecQuerier
}

func (r *sessionRepo) CreateActive(ctx context.Context, s *study.Session) (*study.Session, error) {
	out := *s
	out.Completed = false
	out.EndTime = nil
	out.Derive()

	q, args := sqlb.Insert(SessionsTable.Name).
		Set("id", out.ID).
		Set("user_id", out.UserID).
		Set("lesson_id", out.LessonID).
		Set("topic_id", out.TopicID).
		Set("kind", string(out.Kind)).
		Set("difficulty", string(out.Difficulty)).
		Set("question_count", out.QuestionCount).
		Set("start_time", out.StartTime.UTC()).
		Set("questions_attempted", out.QuestionsAttempted).
		Set("correct_answers", out.CorrectAnswers).
		Set("total_time", out.TotalTime).
		Set("avg_time_per_question", out.AvgTimePerQuestion).
		Set("score", out.Score).
		Set("completed", false).
		Query()
	if err := r.eq.Exec(ctx, q, args, nil); err != nil {
		if isUniqueViolation(err) {
			return nil, &study.ConflictError{Reason: "active session exists"}
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &out, nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*study.Session, error) {
	ss, err := r.query(ctx, sqlb.Select(sessionColumns...).
		From(sqlb.Table(SessionsTable.Name)).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(ss) == 0 {
		return nil, &study.NotFoundError{Resource: "session", ID: id}
	}
	return &ss[0], nil
}

func (r *sessionRepo) GetActive(ctx context.Context, userID string) (*study.Session, error) {
	ss, err := r.query(ctx, sqlb.Select(sessionColumns...).
		From(sqlb.Table(SessionsTable.Name)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("completed", false),
		)).
		Limit(1))
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	if len(ss) == 0 {
		return nil, nil
	}
	return &ss[0], nil
}

func (r *sessionRepo) RecordAttempt(ctx context.Context, id string, correct bool, timeSpent int) (*study.Session, error) {
	inc := 0
	if correct {
		inc = 1
	}
	n, err := execRows(ctx, r.eq, sqlb.Update(SessionsTable.Name).
		Add("questions_attempted", 1).
		Add("correct_answers", inc).
		Add("total_time", timeSpent).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("completed", false),
		)))
	if err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}
	if n == 0 {
		return nil, r.notActive(ctx, id)
	}

	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Derive()
	if _, err := execRows(ctx, r.eq, sqlb.Update(SessionsTable.Name).
		Set("avg_time_per_question", s.AvgTimePerQuestion).
		Set("score", s.Score).
		Where(entsql.EQ("id", id))); err != nil {
		return nil, fmt.Errorf("update session score: %w", err)
	}
	return s, nil
}

func (r *sessionRepo) Seal(ctx context.Context, id string, now time.Time) (*study.Session, error) {
	n, err := execRows(ctx, r.eq, sqlb.Update(SessionsTable.Name).
		Set("completed", true).
		Set("end_time", now.UTC()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("completed", false),
		)))
	if err != nil {
		return nil, fmt.Errorf("seal session: %w", err)
	}
	if n == 0 {
		return nil, r.notActive(ctx, id)
	}
	return r.Get(ctx, id)
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]study.Session, error) {
	sel := sqlb.Select(sessionColumns...).
		From(sqlb.Table(SessionsTable.Name)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("start_time"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	ss, err := r.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ss, nil
}

// notActive explains why a guarded update touched no rows.
func (r *sessionRepo) notActive(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return &study.ConflictError{Reason: "session already completed"}
}

func (r *sessionRepo) query(ctx context.Context, sel *entsql.Selector) ([]study.Session, error) {
	var out []study.Session
	err := queryRows(ctx, r.eq, sel, func(rows *entsql.Rows) error {
		var (
			s                study.Session
			kind, difficulty string
			end              entsql.NullTime
		)
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.LessonID, &s.TopicID, &kind, &difficulty,
			&s.QuestionCount, &s.StartTime, &end, &s.QuestionsAttempted,
			&s.CorrectAnswers, &s.TotalTime, &s.AvgTimePerQuestion, &s.Score, &s.Completed,
		); err != nil {
			return fmt.Errorf("scan session: %w", err)
		}
		s.Kind = study.SessionKind(kind)
		s.Difficulty = study.Difficulty(difficulty)
		if end.Valid {
			t := end.Time
			s.EndTime = &t
		}
		out = append(out, s)
		return nil
	})
	return out, err
}
