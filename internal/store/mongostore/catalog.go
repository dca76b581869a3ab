package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhisek/studyloop/internal/study"
)

type catalogRepo struct {
	lessons   *mongo.Collection
	topics    *mongo.Collection
	questions *mongo.Collection
}

func (r *catalogRepo) LessonExists(ctx context.Context, lessonID string) (bool, error) {
	return exists(ctx, r.lessons, bson.M{"_id": lessonID})
}

func (r *catalogRepo) TopicExists(ctx context.Context, lessonID, topicID string) (bool, error) {
	return exists(ctx, r.topics, bson.M{"_id": topicID, "lesson_id": lessonID})
}

func exists(ctx context.Context, coll *mongo.Collection, filter bson.M) (bool, error) {
	n, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check %s: %w", coll.Name(), err)
	}
	return n > 0, nil
}

func (r *catalogRepo) PutLesson(ctx context.Context, l study.Lesson) error {
	_, err := r.lessons.ReplaceOne(ctx, bson.M{"_id": l.ID},
		bson.M{"_id": l.ID, "title": l.Title, "description": l.Description},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put lesson %s: %w", l.ID, err)
	}
	return nil
}

func (r *catalogRepo) PutTopic(ctx context.Context, t study.Topic) error {
	_, err := r.topics.ReplaceOne(ctx, bson.M{"_id": t.ID},
		bson.M{"_id": t.ID, "lesson_id": t.LessonID, "title": t.Title},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put topic %s: %w", t.ID, err)
	}
	return nil
}

// PutQuestion replaces the content of a question. Statistics are only
// written when the question is new.
func (r *catalogRepo) PutQuestion(ctx context.Context, q *study.Question) error {
	_, err := r.questions.UpdateOne(ctx, bson.M{"_id": q.ID}, bson.M{
		"$set": bson.M{
			"lesson_id":      q.LessonID,
			"topic_id":       q.TopicID,
			"difficulty":     string(q.Difficulty),
			"kind":           string(q.Kind),
			"prompt":         q.Prompt,
			"options":        q.Options,
			"correct_answer": toAnswerDoc(q.CorrectAnswer),
			"hint":           q.Hint,
			"explanation":    q.Explanation,
			"tags":           q.Tags,
			"active":         q.Active,
		},
		"$setOnInsert": bson.M{"stats": statsDoc(q.Stats)},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put question %s: %w", q.ID, err)
	}
	return nil
}
