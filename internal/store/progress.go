package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/study"
)

var progressColumns = []string{
	"user_id", "lesson_id", "topic_id", "mastery", "streak_days", "last_studied",
	"total_time_spent", "total_questions", "correct_answers", "difficulty",
	"weaknesses", "strengths", "created_at", "updated_at",
}

type progressRepo struct {
	eq dialect.ExecQuerier
}

func (r *progressRepo) Get(ctx context.Context, userID, lessonID, topicID string) (*study.UserProgress, error) {
	ps, err := r.query(ctx, sqlb.Select(progressColumns...).
		From(sqlb.Table(UserProgressTable.Name)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("lesson_id", lessonID),
			entsql.EQ("topic_id", topicID),
		)))
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[0], nil
}

func (r *progressRepo) List(ctx context.Context, f study.ProgressFilter) ([]study.UserProgress, error) {
	preds := []*entsql.Predicate{entsql.EQ("user_id", f.UserID)}
	if f.LessonID != "" {
		preds = append(preds, entsql.EQ("lesson_id", f.LessonID))
	}
	if f.TopicID != "" {
		preds = append(preds, entsql.EQ("topic_id", f.TopicID))
	}
	ps, err := r.query(ctx, sqlb.Select(progressColumns...).
		From(sqlb.Table(UserProgressTable.Name)).
		Where(entsql.And(preds...)).
		OrderBy("lesson_id", "topic_id"))
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return ps, nil
}

func (r *progressRepo) UpsertAfterSession(ctx context.Context, userID, lessonID, topicID string, stats study.SessionStats, now time.Time) (*study.UserProgress, error) {
	prev, err := r.Get(ctx, userID, lessonID, topicID)
	if err != nil {
		return nil, err
	}
	p := mastery.ApplySession(prev, userID, lessonID, topicID, stats, now.UTC())

	weaknesses, err := encodeJSON(p.Weaknesses)
	if err != nil {
		return nil, fmt.Errorf("encode weaknesses: %w", err)
	}
	strengths, err := encodeJSON(p.Strengths)
	if err != nil {
		return nil, fmt.Errorf("encode strengths: %w", err)
	}

	q, args := sqlb.Insert(UserProgressTable.Name).
		Set("user_id", p.UserID).
		Set("lesson_id", p.LessonID).
		Set("topic_id", p.TopicID).
		Set("mastery", p.Mastery).
		Set("streak_days", p.StreakDays).
		Set("last_studied", p.LastStudied).
		Set("total_time_spent", p.TotalTimeSpent).
		Set("total_questions", p.TotalQuestions).
		Set("correct_answers", p.CorrectAnswers).
		Set("difficulty", string(p.Difficulty)).
		Set("weaknesses", weaknesses).
		Set("strengths", strengths).
		Set("created_at", p.CreatedAt.UTC()).
		Set("updated_at", p.UpdatedAt).
		OnConflict(
			entsql.ConflictColumns("user_id", "lesson_id", "topic_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := r.eq.Exec(ctx, q, args, nil); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}
	return p, nil
}

func (r *progressRepo) query(ctx context.Context, sel *entsql.Selector) ([]study.UserProgress, error) {
	var out []study.UserProgress
	err := queryRows(ctx, r.eq, sel, func(rows *entsql.Rows) error {
		var (
			p                     study.UserProgress
			difficulty            string
			last                  entsql.NullTime
			weaknesses, strengths sql.NullString
		)
		if err := rows.Scan(
			&p.UserID, &p.LessonID, &p.TopicID, &p.Mastery, &p.StreakDays, &last,
			&p.TotalTimeSpent, &p.TotalQuestions, &p.CorrectAnswers, &difficulty,
			&weaknesses, &strengths, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return fmt.Errorf("scan progress: %w", err)
		}
		p.Difficulty = study.Difficulty(difficulty)
		if last.Valid {
			p.LastStudied = last.Time
		}
		p.Weaknesses = []string{}
		p.Strengths = []string{}
		if err := decodeJSON(weaknesses, &p.Weaknesses); err != nil {
			return err
		}
		if err := decodeJSON(strengths, &p.Strengths); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}
