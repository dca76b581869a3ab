package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/study"
)

// catalogRepo serves both Catalog and Seeder over the content tables.
type catalogRepo struct {
	eq dialect.ExecQuerier
}

func (r *catalogRepo) LessonExists(ctx context.Context, lessonID string) (bool, error) {
	return r.exists(ctx, LessonsTable.Name, entsql.EQ("id", lessonID))
}

func (r *catalogRepo) TopicExists(ctx context.Context, lessonID, topicID string) (bool, error) {
	return r.exists(ctx, TopicsTable.Name, entsql.And(
		entsql.EQ("id", topicID),
		entsql.EQ("lesson_id", lessonID),
	))
}

func (r *catalogRepo) exists(ctx context.Context, table string, p *entsql.Predicate) (bool, error) {
	var n int
	err := queryRows(ctx, r.eq, sqlb.Select().Count().From(sqlb.Table(table)).Where(p), func(rows *entsql.Rows) error {
		return rows.Scan(&n)
	})
	if err != nil {
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	return n > 0, nil
}

func (r *catalogRepo) PutLesson(ctx context.Context, l study.Lesson) error {
	q, args := sqlb.Insert(LessonsTable.Name).
		Set("id", l.ID).
		Set("title", l.Title).
		Set("description", l.Description).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if err := r.eq.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("put lesson %s: %w", l.ID, err)
	}
	return nil
}

func (r *catalogRepo) PutTopic(ctx context.Context, t study.Topic) error {
	q, args := sqlb.Insert(TopicsTable.Name).
		Set("id", t.ID).
		Set("lesson_id", t.LessonID).
		Set("title", t.Title).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if err := r.eq.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("put topic %s: %w", t.ID, err)
	}
	return nil
}

// PutQuestion replaces a question's content. Its rolling statistics are
// preserved when it already exists.
func (r *catalogRepo) PutQuestion(ctx context.Context, qn *study.Question) error {
	options, err := encodeJSON(qn.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	answer, err := encodeJSON(qn.CorrectAnswer)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	tags, err := encodeJSON(qn.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	q, args := sqlb.Insert(QuestionsTable.Name).
		Set("id", qn.ID).
		Set("lesson_id", qn.LessonID).
		Set("topic_id", qn.TopicID).
		Set("difficulty", string(qn.Difficulty)).
		Set("kind", string(qn.Kind)).
		Set("prompt", qn.Prompt).
		Set("options", options).
		Set("correct_answer", answer).
		Set("hint", qn.Hint).
		Set("explanation", qn.Explanation).
		Set("tags", tags).
		Set("usage_count", qn.Stats.UsageCount).
		Set("avg_solve_time", qn.Stats.AvgSolveTime).
		Set("success_rate", qn.Stats.SuccessRate).
		Set("active", qn.Active).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range []string{
					"lesson_id", "topic_id", "difficulty", "kind", "prompt", "options",
					"correct_answer", "hint", "explanation", "tags", "active",
				} {
					u.SetExcluded(c)
				}
			}),
		).
		Query()
	if err := r.eq.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("put question %s: %w", qn.ID, err)
	}
	return nil
}
