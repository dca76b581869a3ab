package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/study"
)

var questionColumns = []string{
	"id", "lesson_id", "topic_id", "difficulty", "kind", "prompt", "options",
	"correct_answer", "hint", "explanation", "tags", "usage_count",
	"avg_solve_time", "success_rate", "active",
}

type questionRepo struct {
	eq dialect.ExecQuerier
}

func (r *questionRepo) Get(ctx context.Context, id string) (*study.Question, error) {
	qs, err := r.query(ctx, sqlb.Select(questionColumns...).
		From(sqlb.Table(QuestionsTable.Name)).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	if len(qs) == 0 {
		return nil, &study.NotFoundError{Resource: "question", ID: id}
	}
	return &qs[0], nil
}

func (r *questionRepo) NextEligible(ctx context.Context, lessonID, topicID string, difficulty study.Difficulty, exclude []string) (*study.Question, error) {
	qs, err := r.query(ctx, sqlb.Select(questionColumns...).
		From(sqlb.Table(QuestionsTable.Name)).
		Where(entsql.And(
			entsql.EQ("lesson_id", lessonID),
			entsql.EQ("topic_id", topicID),
			entsql.EQ("difficulty", string(difficulty)),
			entsql.EQ("active", true),
			entsql.NotIn("id", anySlice(exclude)...),
		)).
		OrderBy("id").
		Limit(1))
	if err != nil {
		return nil, fmt.Errorf("next eligible question: %w", err)
	}
	if len(qs) == 0 {
		return nil, nil
	}
	return &qs[0], nil
}

func (r *questionRepo) ListByTopic(ctx context.Context, lessonID, topicID string) ([]study.Question, error) {
	qs, err := r.query(ctx, sqlb.Select(questionColumns...).
		From(sqlb.Table(QuestionsTable.Name)).
		Where(entsql.And(
			entsql.EQ("lesson_id", lessonID),
			entsql.EQ("topic_id", topicID),
		)).
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return qs, nil
}

func (r *questionRepo) UpdateStats(ctx context.Context, id string, stats study.QuestionStats) error {
	n, err := execRows(ctx, r.eq, sqlb.Update(QuestionsTable.Name).
		Set("usage_count", stats.UsageCount).
		Set("avg_solve_time", stats.AvgSolveTime).
		Set("success_rate", stats.SuccessRate).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("update question stats: %w", err)
	}
	if n == 0 {
		return &study.NotFoundError{Resource: "question", ID: id}
	}
	return nil
}

func (r *questionRepo) query(ctx context.Context, sel *entsql.Selector) ([]study.Question, error) {
	var out []study.Question
	err := queryRows(ctx, r.eq, sel, func(rows *entsql.Rows) error {
		var (
			q                     study.Question
			difficulty, kind      string
			options, answer, tags sql.NullString
		)
		if err := rows.Scan(
			&q.ID, &q.LessonID, &q.TopicID, &difficulty, &kind, &q.Prompt, &options,
			&answer, &q.Hint, &q.Explanation, &tags, &q.Stats.UsageCount,
			&q.Stats.AvgSolveTime, &q.Stats.SuccessRate, &q.Active,
		); err != nil {
			return fmt.Errorf("scan question: %w", err)
		}
		q.Difficulty = study.Difficulty(difficulty)
		q.Kind = study.QuestionKind(kind)
		if err := decodeJSON(options, &q.Options); err != nil {
			return err
		}
		if err := decodeJSON(answer, &q.CorrectAnswer); err != nil {
			return err
		}
		if err := decodeJSON(tags, &q.Tags); err != nil {
			return err
		}
		out = append(out, q)
		return nil
	})
	return out, err
}
