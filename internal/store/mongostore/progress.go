package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/study"
)

type progressRepo struct {
	coll *mongo.Collection
}

func progressKey(userID, lessonID, topicID string) bson.M {
	return bson.M{"user_id": userID, "lesson_id": lessonID, "topic_id": topicID}
}

func (r *progressRepo) Get(ctx context.Context, userID, lessonID, topicID string) (*study.UserProgress, error) {
	var d progressDoc
	err := r.coll.FindOne(ctx, progressKey(userID, lessonID, topicID)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return d.progress(), nil
}

func (r *progressRepo) List(ctx context.Context, f study.ProgressFilter) ([]study.UserProgress, error) {
	filter := bson.M{"user_id": f.UserID}
	if f.LessonID != "" {
		filter["lesson_id"] = f.LessonID
	}
	if f.TopicID != "" {
		filter["topic_id"] = f.TopicID
	}
	cur, err := r.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "lesson_id", Value: 1}, {Key: "topic_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	var docs []progressDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	out := make([]study.UserProgress, len(docs))
	for i := range docs {
		out[i] = *docs[i].progress()
	}
	return out, nil
}

func (r *progressRepo) UpsertAfterSession(ctx context.Context, userID, lessonID, topicID string, stats study.SessionStats, now time.Time) (*study.UserProgress, error) {
	prev, err := r.Get(ctx, userID, lessonID, topicID)
	if err != nil {
		return nil, err
	}
	p := mastery.ApplySession(prev, userID, lessonID, topicID, stats, now.UTC())

	_, err = r.coll.ReplaceOne(ctx, progressKey(userID, lessonID, topicID), toProgressDoc(p),
		options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}
	return p, nil
}
