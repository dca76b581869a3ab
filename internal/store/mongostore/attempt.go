package mongostore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhisek/studyloop/internal/study"
)

// attemptRepo stores attempts under generated ObjectIDs so that the
// natural _id order is submission order; the attempt ID is a separate
// unique field.
type attemptRepo struct {
	coll *mongo.Collection
}

func (r *attemptRepo) Append(ctx context.Context, a *study.Attempt) (*study.Attempt, error) {
	d := attemptDoc{
		ID:             a.ID,
		UserID:         a.UserID,
		QuestionID:     a.QuestionID,
		SessionID:      a.SessionID,
		SelectedAnswer: toAnswerDoc(a.SelectedAnswer),
		IsCorrect:      a.IsCorrect,
		Graded:         a.Graded,
		TimeSpent:      a.TimeSpent,
		HintsUsed:      a.HintsUsed,
		Timestamp:      a.Timestamp.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &study.ConflictError{Reason: fmt.Sprintf("attempt %s already recorded", a.ID)}
		}
		return nil, fmt.Errorf("append attempt: %w", err)
	}
	out := d.attempt()
	return &out, nil
}

func (r *attemptRepo) StatsFor(ctx context.Context, questionID string) (study.AttemptStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"question_id": questionID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"count":   bson.M{"$sum": 1},
			"correct": bson.M{"$sum": bson.M{"$cond": bson.A{"$is_correct", 1, 0}}},
			"time":    bson.M{"$sum": "$time_spent"},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return study.AttemptStats{}, fmt.Errorf("attempt stats %s: %w", questionID, err)
	}
	var rows []struct {
		Count   int `bson:"count"`
		Correct int `bson:"correct"`
		Time    int `bson:"time"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return study.AttemptStats{}, fmt.Errorf("attempt stats %s: %w", questionID, err)
	}
	if len(rows) == 0 {
		return study.AttemptStats{}, nil
	}
	return study.AttemptStats{
		AttemptCount:   rows[0].Count,
		CorrectCount:   rows[0].Correct,
		TotalTimeSpent: rows[0].Time,
	}, nil
}

func (r *attemptRepo) QuestionIDsForSession(ctx context.Context, sessionID string) ([]string, error) {
	vals, err := r.coll.Distinct(ctx, "question_id", bson.M{"session_id": sessionID})
	if err != nil {
		return nil, fmt.Errorf("session question ids: %w", err)
	}
	ids := make([]string, 0, len(vals))
	for _, v := range vals {
		id, ok := v.(string)
		if !ok {
			return nil, errors.New("session question ids: non-string question_id")
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *attemptRepo) ListBySession(ctx context.Context, sessionID string) ([]study.Attempt, error) {
	cur, err := r.coll.Find(ctx, bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	var docs []attemptDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]study.Attempt, len(docs))
	for i := range docs {
		out[i] = docs[i].attempt()
	}
	return out, nil
}
