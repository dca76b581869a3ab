package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhisek/studyloop/internal/study"
)

type questionRepo struct {
	coll *mongo.Collection
}

func (r *questionRepo) Get(ctx context.Context, id string) (*study.Question, error) {
	var d questionDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &study.NotFoundError{Resource: "question", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get question %s: %w", id, err)
	}
	return d.question(), nil
}

func (r *questionRepo) NextEligible(ctx context.Context, lessonID, topicID string, difficulty study.Difficulty, exclude []string) (*study.Question, error) {
	filter := bson.M{
		"lesson_id":  lessonID,
		"topic_id":   topicID,
		"difficulty": string(difficulty),
		"active":     true,
	}
	if len(exclude) > 0 {
		filter["_id"] = bson.M{"$nin": exclude}
	}

	var d questionDoc
	err := r.coll.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next eligible question: %w", err)
	}
	return d.question(), nil
}

func (r *questionRepo) ListByTopic(ctx context.Context, lessonID, topicID string) ([]study.Question, error) {
	cur, err := r.coll.Find(ctx, bson.M{"lesson_id": lessonID, "topic_id": topicID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	var docs []questionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]study.Question, len(docs))
	for i := range docs {
		out[i] = *docs[i].question()
	}
	return out, nil
}

func (r *questionRepo) UpdateStats(ctx context.Context, id string, st study.QuestionStats) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"stats": statsDoc(st)}})
	if err != nil {
		return fmt.Errorf("update stats %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return &study.NotFoundError{Resource: "question", ID: id}
	}
	return nil
}
