package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhisek/studyloop/internal/study"
)

type sessionRepo struct {
	coll *mongo.Collection
}

func (r *sessionRepo) CreateActive(ctx context.Context, s *study.Session) (*study.Session, error) {
	d := toSessionDoc(s)
	d.Completed = false
	d.EndTime = nil
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &study.ConflictError{Reason: "active session exists"}
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return d.session(), nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*study.Session, error) {
	var d sessionDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &study.NotFoundError{Resource: "session", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return d.session(), nil
}

func (r *sessionRepo) GetActive(ctx context.Context, userID string) (*study.Session, error) {
	var d sessionDoc
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "completed": false}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return d.session(), nil
}

func (r *sessionRepo) RecordAttempt(ctx context.Context, id string, correct bool, timeSpent int) (*study.Session, error) {
	inc := bson.M{"questions_attempted": 1, "total_time": timeSpent}
	if correct {
		inc["correct_answers"] = 1
	}

	var d sessionDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "completed": false},
		bson.M{"$inc": inc},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.notActive(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("record attempt on session %s: %w", id, err)
	}

	s := d.session()
	s.Derive()
	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"score":                 s.Score,
		"avg_time_per_question": s.AvgTimePerQuestion,
	}})
	if err != nil {
		return nil, fmt.Errorf("derive session %s: %w", id, err)
	}
	return s, nil
}

func (r *sessionRepo) Seal(ctx context.Context, id string, now time.Time) (*study.Session, error) {
	var d sessionDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "completed": false},
		bson.M{"$set": bson.M{"completed": true, "end_time": now.UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.notActive(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("seal session %s: %w", id, err)
	}
	return d.session(), nil
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]study.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var docs []sessionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]study.Session, len(docs))
	for i := range docs {
		out[i] = *docs[i].session()
	}
	return out, nil
}

// notActive explains why a guarded update matched nothing.
func (r *sessionRepo) notActive(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return &study.ConflictError{Reason: "session already completed"}
}
