package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/abhisek/studyloop/internal/store"
	"github.com/abhisek/studyloop/internal/study"
)

func ns(mt *mtest.T, coll string) string {
	return mt.DB.Name() + "." + coll
}

func sessionBSON(id string, completed bool) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "user_id", Value: "u1"},
		{Key: "lesson_id", Value: "L"},
		{Key: "topic_id", Value: "T"},
		{Key: "kind", Value: "practice"},
		{Key: "difficulty", Value: "easy"},
		{Key: "question_count", Value: 10},
		{Key: "start_time", Value: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
		{Key: "questions_attempted", Value: 2},
		{Key: "correct_answers", Value: 1},
		{Key: "total_time", Value: 30},
		{Key: "completed", Value: completed},
	}
}

func TestQuestionRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Questions
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, QuestionsCollection), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "q1"},
			{Key: "lesson_id", Value: "L"},
			{Key: "topic_id", Value: "T"},
			{Key: "difficulty", Value: "easy"},
			{Key: "kind", Value: "multiple_choice"},
			{Key: "prompt", Value: "pick b"},
			{Key: "options", Value: bson.A{"a", "b"}},
			{Key: "correct_answer", Value: bson.D{{Key: "type", Value: "index"}, {Key: "index", Value: 1}}},
			{Key: "stats", Value: bson.D{{Key: "usage_count", Value: 4}, {Key: "success_rate", Value: 75}}},
			{Key: "active", Value: true},
		}))

		q, err := r.Get(context.Background(), "q1")
		require.NoError(mt, err)
		assert.Equal(mt, study.IndexAnswer(1), q.CorrectAnswer)
		assert.Equal(mt, []string{"a", "b"}, q.Options)
		assert.Equal(mt, 4, q.Stats.UsageCount)
		assert.True(mt, q.Active)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Questions
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, QuestionsCollection), mtest.FirstBatch))

		_, err := r.Get(context.Background(), "nope")
		assert.True(mt, study.IsNotFound(err), "err = %v", err)
	})

	mt.Run("next eligible exhausted", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Questions
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, QuestionsCollection), mtest.FirstBatch))

		q, err := r.NextEligible(context.Background(), "L", "T", study.DifficultyEasy, []string{"q1"})
		require.NoError(mt, err)
		assert.Nil(mt, q)
	})

	mt.Run("update stats missing", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Questions
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := r.UpdateStats(context.Background(), "nope", study.QuestionStats{UsageCount: 1})
		assert.True(mt, study.IsNotFound(err), "err = %v", err)
	})
}

func TestSessionRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create active conflict", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Sessions
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: sessions index: session_user_id_active",
		}))

		_, err := r.CreateActive(context.Background(), &study.Session{ID: "s2", UserID: "u1", StartTime: time.Now()})
		var conflict *study.ConflictError
		require.ErrorAs(mt, err, &conflict)
		assert.Equal(mt, "active session exists", conflict.Reason)
	})

	mt.Run("record attempt derives score", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Sessions
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: sessionBSON("s1", false)}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		s, err := r.RecordAttempt(context.Background(), "s1", false, 20)
		require.NoError(mt, err)
		assert.Equal(mt, 50, s.Score)
		assert.Equal(mt, 15.0, s.AvgTimePerQuestion)
	})

	mt.Run("seal twice", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Sessions
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns(mt, SessionsCollection), mtest.FirstBatch, sessionBSON("s1", true)),
		)

		_, err := r.Seal(context.Background(), "s1", time.Now())
		assert.True(mt, study.IsConflict(err), "err = %v", err)
	})

	mt.Run("seal missing", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Sessions
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns(mt, SessionsCollection), mtest.FirstBatch),
		)

		_, err := r.Seal(context.Background(), "nope", time.Now())
		assert.True(mt, study.IsNotFound(err), "err = %v", err)
	})

	mt.Run("get active none", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Sessions
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, SessionsCollection), mtest.FirstBatch))

		s, err := r.GetActive(context.Background(), "u1")
		require.NoError(mt, err)
		assert.Nil(mt, s)
	})
}

func TestAttemptRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stats for", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Attempts
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, AttemptsCollection), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: 3},
			{Key: "correct", Value: 2},
			{Key: "time", Value: 60},
		}))

		st, err := r.StatsFor(context.Background(), "q1")
		require.NoError(mt, err)
		assert.Equal(mt, study.AttemptStats{AttemptCount: 3, CorrectCount: 2, TotalTimeSpent: 60}, st)
	})

	mt.Run("stats for unused question", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Attempts
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, AttemptsCollection), mtest.FirstBatch))

		st, err := r.StatsFor(context.Background(), "q9")
		require.NoError(mt, err)
		assert.Zero(mt, st)
	})

	mt.Run("question ids sorted", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Attempts
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{"q3", "q1"}}))

		ids, err := r.QuestionIDsForSession(context.Background(), "s1")
		require.NoError(mt, err)
		assert.Equal(mt, []string{"q1", "q3"}, ids)
	})

	mt.Run("append", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Attempts
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		a, err := r.Append(context.Background(), &study.Attempt{
			ID: "a1", UserID: "u1", QuestionID: "q1", SessionID: "s1",
			SelectedAnswer: study.TextAnswer("true"), IsCorrect: true, Graded: true, TimeSpent: 5,
		})
		require.NoError(mt, err)
		assert.Equal(mt, study.TextAnswer("true"), a.SelectedAnswer)
	})
}

func TestProgressRepoUpsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("first session", func(mt *mtest.T) {
		r := New(mt.DB).Repos().Progress
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt, ProgressCollection), mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}),
		)

		now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		p, err := r.UpsertAfterSession(context.Background(), "u1", "L", "T",
			study.SessionStats{QuestionsAttempted: 2, CorrectAnswers: 1, TotalTime: 30}, now)
		require.NoError(mt, err)
		assert.Equal(mt, 50, p.Mastery)
		assert.Equal(mt, 1, p.StreakDays)
		assert.Equal(mt, study.DifficultyMedium, p.Difficulty)
		assert.Equal(mt, now, p.LastStudied)
	})
}

func TestInTxTransactions(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("commits", func(mt *mtest.T) {
		s := New(mt.DB, WithTransactions())
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(),
		)
		mt.ClearEvents()

		err := s.InTx(context.Background(), func(ctx context.Context, r store.Repos) error {
			_, err := r.Sessions.CreateActive(ctx, &study.Session{ID: "s1", UserID: "u1", StartTime: time.Now()})
			return err
		})
		require.NoError(mt, err)

		var cmds []string
		for _, ev := range mt.GetAllStartedEvents() {
			cmds = append(cmds, ev.CommandName)
		}
		assert.Equal(mt, []string{"insert", "commitTransaction"}, cmds)
		insert := mt.GetAllStartedEvents()[0].Command
		_, err = insert.LookupErr("txnNumber")
		assert.NoError(mt, err, "insert ran outside a transaction")
	})

	mt.Run("aborts on error", func(mt *mtest.T) {
		s := New(mt.DB, WithTransactions())
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}),
			mtest.CreateSuccessResponse(),
		)
		mt.ClearEvents()

		err := s.InTx(context.Background(), func(ctx context.Context, r store.Repos) error {
			_, err := r.Sessions.CreateActive(ctx, &study.Session{ID: "s2", UserID: "u1", StartTime: time.Now()})
			return err
		})
		assert.True(mt, study.IsConflict(err), "err = %v", err)

		var cmds []string
		for _, ev := range mt.GetAllStartedEvents() {
			cmds = append(cmds, ev.CommandName)
		}
		assert.Equal(mt, []string{"insert", "abortTransaction"}, cmds)
	})
}
