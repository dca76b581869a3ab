package store

import (
	"context"
	"time"

	"github.com/abhisek/studyloop/internal/study"
)

// QuestionBank provides read access to the question pool. The only
// write is UpdateStats, which belongs to the stats aggregator.
type QuestionBank interface {
	// Get returns a question by ID, or a NotFoundError.
	Get(ctx context.Context, id string) (*study.Question, error)

	// NextEligible returns one active question for the lesson, topic and
	// difficulty whose ID is not in exclude, ordered by ID. It returns
	// nil when the pool is exhausted.
	NextEligible(ctx context.Context, lessonID, topicID string, difficulty study.Difficulty, exclude []string) (*study.Question, error)

	// ListByTopic returns every question of a topic, active or not.
	ListByTopic(ctx context.Context, lessonID, topicID string) ([]study.Question, error)

	// UpdateStats overwrites the rolling statistics of a question.
	UpdateStats(ctx context.Context, id string, stats study.QuestionStats) error
}

// ProgressStore holds per-(user, lesson, topic) rollups.
type ProgressStore interface {
	// Get returns the record, or nil if the user never finished a
	// session for the lesson and topic.
	Get(ctx context.Context, userID, lessonID, topicID string) (*study.UserProgress, error)

	// List returns the records matching f, ordered by lesson and topic.
	List(ctx context.Context, f study.ProgressFilter) ([]study.UserProgress, error)

	// UpsertAfterSession folds a finished session into the record,
	// creating it on first use.
	UpsertAfterSession(ctx context.Context, userID, lessonID, topicID string, stats study.SessionStats, now time.Time) (*study.UserProgress, error)
}

// SessionStore holds session records. A user has at most one session
// with Completed=false; the guarantee is enforced by the store itself.
type SessionStore interface {
	// CreateActive inserts s as an active session. It returns a
	// ConflictError if the user already has one.
	CreateActive(ctx context.Context, s *study.Session) (*study.Session, error)

	Get(ctx context.Context, id string) (*study.Session, error)

	// GetActive returns the user's active session, or nil.
	GetActive(ctx context.Context, userID string) (*study.Session, error)

	// RecordAttempt bumps the counters of an active session and
	// recomputes its derived fields.
	RecordAttempt(ctx context.Context, id string, correct bool, timeSpent int) (*study.Session, error)

	// Seal completes a session. Sealing twice is a ConflictError.
	Seal(ctx context.Context, id string, now time.Time) (*study.Session, error)

	// ListByUser returns the user's sessions, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]study.Session, error)
}

// AttemptLog is the append-only record of answer submissions.
type AttemptLog interface {
	Append(ctx context.Context, a *study.Attempt) (*study.Attempt, error)

	// StatsFor aggregates every attempt on a question.
	StatsFor(ctx context.Context, questionID string) (study.AttemptStats, error)

	// QuestionIDsForSession returns the distinct questions already
	// attempted in a session.
	QuestionIDsForSession(ctx context.Context, sessionID string) ([]string, error)

	// ListBySession returns a session's attempts in submission order.
	ListBySession(ctx context.Context, sessionID string) ([]study.Attempt, error)
}

// Catalog answers existence questions about lessons and topics.
type Catalog interface {
	LessonExists(ctx context.Context, lessonID string) (bool, error)
	TopicExists(ctx context.Context, lessonID, topicID string) (bool, error)
}

// Seeder writes content. Existing records with the same ID are replaced.
type Seeder interface {
	PutLesson(ctx context.Context, l study.Lesson) error
	PutTopic(ctx context.Context, t study.Topic) error
	PutQuestion(ctx context.Context, q *study.Question) error
}

// Repos bundles the repositories of one backend. Within InTx every
// repository shares the transaction.
type Repos struct {
	Questions QuestionBank
	Progress  ProgressStore
	Sessions  SessionStore
	Attempts  AttemptLog
	Catalog   Catalog
	Seeder    Seeder
}

// Backend is a storage implementation.
type Backend interface {
	// Repos returns repositories that run outside any transaction.
	Repos() Repos

	// InTx runs fn with repositories bound to a single transaction. The
	// transaction commits if fn returns nil and rolls back otherwise.
	// Repositories from Repos() must not be used inside fn.
	InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}
