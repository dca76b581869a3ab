// Package mongostore is a MongoDB implementation of store.Backend.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/abhisek/studyloop/internal/store"
)

// Collection names.
const (
	LessonsCollection   = "lessons"
	TopicsCollection    = "topics"
	QuestionsCollection = "questions"
	SessionsCollection  = "sessions"
	AttemptsCollection  = "attempts"
	ProgressCollection  = "user_progress"
)

// Store implements store.Backend over a MongoDB database.
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// Option customizes a Store.
type Option func(*Store)

// WithTransactions runs InTx inside a multi-document transaction. It
// requires a replica set; without it InTx runs the steps in order.
func WithTransactions() Option {
	return func(s *Store) { s.transactions = true }
}

// Open connects to uri, selects database and ensures indexes.
func Open(ctx context.Context, uri, database string, opts ...Option) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	s := New(client.Database(database), opts...)
	if err := s.Ping(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. Indexes are not created.
func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{client: db.Client(), db: db}
	for _, o := range opts {
		o(s)
	}
	return s
}

// EnsureIndexes creates the indexes the repositories rely on. The
// partial unique index on sessions is what limits a user to one
// active session.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		TopicsCollection: {
			{Keys: bson.D{{Key: "lesson_id", Value: 1}}},
		},
		QuestionsCollection: {
			{Keys: bson.D{
				{Key: "lesson_id", Value: 1}, {Key: "topic_id", Value: 1},
				{Key: "difficulty", Value: 1}, {Key: "active", Value: 1}, {Key: "_id", Value: 1},
			}},
		},
		SessionsCollection: {
			{
				Keys: bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().
					SetName("session_user_id_active").
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "completed", Value: false}}),
			},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_time", Value: -1}}},
		},
		AttemptsCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "session_id", Value: 1}}},
			{Keys: bson.D{{Key: "question_id", Value: 1}}},
		},
		ProgressCollection: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "lesson_id", Value: 1}, {Key: "topic_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// Database returns the underlying database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

func (s *Store) Repos() store.Repos {
	c := &catalogRepo{lessons: s.db.Collection(LessonsCollection), topics: s.db.Collection(TopicsCollection), questions: s.db.Collection(QuestionsCollection)}
	return store.Repos{
		Questions: &questionRepo{coll: s.db.Collection(QuestionsCollection)},
		Progress:  &progressRepo{coll: s.db.Collection(ProgressCollection)},
		Sessions:  &sessionRepo{coll: s.db.Collection(SessionsCollection)},
		Attempts:  &attemptRepo{coll: s.db.Collection(AttemptsCollection)},
		Catalog:   c,
		Seeder:    c,
	}
}

// InTx runs fn in a transaction when the store was opened with
// WithTransactions. Otherwise the steps of fn run in order and a
// failure leaves the earlier writes in place.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, r store.Repos) error) error {
	if !s.transactions {
		return fn(ctx, s.Repos())
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, s.Repos())
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}
