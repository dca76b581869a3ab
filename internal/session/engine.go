// Package session implements the study-session engine: starting a
// session, serving non-repeating questions at an adaptive difficulty,
// grading answers and closing a session into a summary.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/studyloop/internal/events"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/metrics"
	"github.com/abhisek/studyloop/internal/stats"
	"github.com/abhisek/studyloop/internal/store"
	"github.com/abhisek/studyloop/internal/study"
)

// Engine owns the session lifecycle. It holds no per-session state;
// everything lives in the backend, so one Engine serves all requests.
type Engine struct {
	backend   store.Backend
	cfg       Config
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithPublisher sets the domain event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides the UUID generator for sessions and attempts.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// NewEngine creates an Engine over backend.
func NewEngine(backend store.Backend, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		backend:   backend,
		cfg:       cfg,
		publisher: events.Nop{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Start begins a session for the user.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	var res *StartResult
	err := e.run(ctx, "start", func(ctx context.Context) error {
		var err error
		res, err = e.start(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s := res.Session
	if e.metrics != nil {
		e.metrics.SessionsStarted.WithLabelValues(string(s.Kind), string(s.Difficulty)).Inc()
	}
	e.logger.Info("session started",
		"session_id", s.ID, "user_id", s.UserID, "kind", s.Kind, "difficulty", s.Difficulty)
	e.publish(ctx, s, events.TypeSessionStarted, events.SessionStarted{
		Kind:          string(s.Kind),
		Difficulty:    string(s.Difficulty),
		QuestionCount: s.QuestionCount,
	})
	return res, nil
}

func (e *Engine) start(ctx context.Context, req StartRequest) (*StartResult, error) {
	req, err := e.normalizeStart(req)
	if err != nil {
		return nil, err
	}

	r := e.backend.Repos()
	if ok, err := r.Catalog.LessonExists(ctx, req.LessonID); err != nil {
		return nil, err
	} else if !ok {
		return nil, &study.NotFoundError{Resource: "lesson", ID: req.LessonID}
	}
	if ok, err := r.Catalog.TopicExists(ctx, req.LessonID, req.TopicID); err != nil {
		return nil, err
	} else if !ok {
		return nil, &study.NotFoundError{Resource: "topic", ID: req.TopicID}
	}

	// Fail fast; CreateActive repeats the check atomically.
	active, err := r.Sessions.GetActive(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, &study.ConflictError{Reason: "active session exists"}
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		p, err := r.Progress.Get(ctx, req.UserID, req.LessonID, req.TopicID)
		if err != nil {
			return nil, err
		}
		difficulty = mastery.TierForProgress(p)
	}

	// Pick the first question before creating the session; a failed
	// lookup must not leave an active session behind.
	first, err := r.Questions.NextEligible(ctx, req.LessonID, req.TopicID, difficulty, nil)
	if err != nil {
		return nil, err
	}

	var res *StartResult
	err = e.backend.InTx(ctx, func(ctx context.Context, r store.Repos) error {
		s, err := r.Sessions.CreateActive(ctx, &study.Session{
			ID:            e.newID(),
			UserID:        req.UserID,
			LessonID:      req.LessonID,
			TopicID:       req.TopicID,
			Kind:          req.Kind,
			Difficulty:    difficulty,
			QuestionCount: req.QuestionCount,
			StartTime:     e.now().UTC(),
		})
		if err != nil {
			return err
		}
		res = &StartResult{Session: s, CurrentQuestion: public(first), Progress: progressOf(s)}
		return nil
	})
	return res, err
}

func (e *Engine) normalizeStart(req StartRequest) (StartRequest, error) {
	if err := requireIDs("user_id", req.UserID, "lesson_id", req.LessonID, "topic_id", req.TopicID); err != nil {
		return req, err
	}
	if req.Kind == "" {
		req.Kind = study.SessionPractice
	}
	if _, err := study.ParseSessionKind(string(req.Kind)); err != nil {
		return req, err
	}
	if req.Difficulty != "" {
		if _, err := study.ParseDifficulty(string(req.Difficulty)); err != nil {
			return req, err
		}
	}
	if req.QuestionCount == 0 {
		req.QuestionCount = e.cfg.DefaultQuestionCount
	}
	if req.QuestionCount < 1 || req.QuestionCount > e.cfg.MaxQuestionCount {
		return req, &study.ValidationError{
			Field:  "question_count",
			Reason: fmt.Sprintf("must be between 1 and %d, got %d", e.cfg.MaxQuestionCount, req.QuestionCount),
		}
	}
	return req, nil
}

// Submit grades one answer and records it. The attempt, the question
// statistics and the session counters are written in one transaction.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	var (
		res  *SubmitResult
		sess *study.Session
		kind study.QuestionKind
	)
	err := e.run(ctx, "submit", func(ctx context.Context) error {
		if err := requireIDs("user_id", req.UserID, "session_id", req.SessionID, "question_id", req.QuestionID); err != nil {
			return err
		}
		if req.TimeSpent < 0 {
			return &study.ValidationError{Field: "time_spent", Reason: "must not be negative"}
		}
		if req.HintsUsed < 0 {
			return &study.ValidationError{Field: "hints_used", Reason: "must not be negative"}
		}

		return e.backend.InTx(ctx, func(ctx context.Context, r store.Repos) error {
			s, err := ownedActive(ctx, r, req.UserID, req.SessionID)
			if err != nil {
				return err
			}
			q, err := r.Questions.Get(ctx, req.QuestionID)
			if err != nil {
				return err
			}
			if q.LessonID != s.LessonID || q.TopicID != s.TopicID {
				return &study.ValidationError{Field: "question_id", Reason: "question is not part of this session's topic"}
			}
			if q.Difficulty != s.Difficulty {
				return &study.ValidationError{
					Field:  "question_id",
					Reason: fmt.Sprintf("question is %s, session is %s", q.Difficulty, s.Difficulty),
				}
			}
			if !q.Active {
				return &study.ValidationError{Field: "question_id", Reason: "question is retired"}
			}
			answered, err := r.Attempts.QuestionIDsForSession(ctx, s.ID)
			if err != nil {
				return err
			}
			if slices.Contains(answered, q.ID) {
				return &study.ConflictError{Reason: "question already answered in this session"}
			}

			verdict := study.Grade(q, req.SelectedAnswer)
			a, err := r.Attempts.Append(ctx, &study.Attempt{
				ID:             e.newID(),
				UserID:         req.UserID,
				QuestionID:     q.ID,
				SessionID:      s.ID,
				SelectedAnswer: req.SelectedAnswer,
				IsCorrect:      verdict.Correct,
				Graded:         verdict.Graded,
				TimeSpent:      req.TimeSpent,
				HintsUsed:      req.HintsUsed,
				Timestamp:      e.now().UTC(),
			})
			if err != nil {
				return err
			}
			if _, err := stats.ForRepos(r).OnAttempt(ctx, q.ID); err != nil {
				return err
			}
			s, err = r.Sessions.RecordAttempt(ctx, s.ID, verdict.Correct, req.TimeSpent)
			if err != nil {
				return err
			}

			sess, kind = s, q.Kind
			res = &SubmitResult{
				AttemptID:     a.ID,
				IsCorrect:     verdict.Correct,
				Graded:        verdict.Graded,
				CorrectAnswer: q.CorrectAnswer,
				Explanation:   q.Explanation,
				Progress:      progressOf(s),
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.Answers.WithLabelValues(string(kind), metrics.Outcome(res.IsCorrect, res.Graded)).Inc()
	}
	e.logger.Debug("answer submitted",
		"session_id", sess.ID, "question_id", req.QuestionID, "correct", res.IsCorrect, "graded", res.Graded)
	e.publish(ctx, sess, events.TypeAnswerSubmitted, events.AnswerSubmitted{
		AttemptID:  res.AttemptID,
		QuestionID: req.QuestionID,
		IsCorrect:  res.IsCorrect,
		Graded:     res.Graded,
		TimeSpent:  req.TimeSpent,
		HintsUsed:  req.HintsUsed,
	})
	return res, nil
}

// Next returns the next question of the session with the answer
// hidden, or nil once the pool is exhausted or the session's question
// count is reached. The caller should then end the session.
func (e *Engine) Next(ctx context.Context, userID, sessionID string) (*study.Question, error) {
	var q *study.Question
	err := e.run(ctx, "next", func(ctx context.Context) error {
		r := e.backend.Repos()
		s, err := ownedActive(ctx, r, userID, sessionID)
		if err != nil {
			return err
		}
		if s.QuestionsAttempted >= s.QuestionCount {
			return nil
		}
		exclude, err := r.Attempts.QuestionIDsForSession(ctx, s.ID)
		if err != nil {
			return err
		}
		next, err := r.Questions.NextEligible(ctx, s.LessonID, s.TopicID, s.Difficulty, exclude)
		if err != nil {
			return err
		}
		q = public(next)
		return nil
	})
	return q, err
}

// End seals the session and folds it into the learner's progress.
func (e *Engine) End(ctx context.Context, userID, sessionID string) (*Summary, error) {
	var (
		sum  *Summary
		sess *study.Session
	)
	err := e.run(ctx, "end", func(ctx context.Context) error {
		if err := requireIDs("user_id", userID, "session_id", sessionID); err != nil {
			return err
		}
		return e.backend.InTx(ctx, func(ctx context.Context, r store.Repos) error {
			if _, err := ownedActive(ctx, r, userID, sessionID); err != nil {
				return err
			}
			now := e.now().UTC()
			s, err := r.Sessions.Seal(ctx, sessionID, now)
			if err != nil {
				return err
			}
			tags, err := sessionTags(ctx, r, s.ID)
			if err != nil {
				return err
			}
			p, err := r.Progress.UpsertAfterSession(ctx, s.UserID, s.LessonID, s.TopicID, study.SessionStats{
				QuestionsAttempted: s.QuestionsAttempted,
				CorrectAnswers:     s.CorrectAnswers,
				TotalTime:          s.TotalTime,
				Tags:               tags,
			}, now)
			if err != nil {
				return err
			}
			sess, sum = s, BuildSummary(s, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.SessionsCompleted.WithLabelValues(string(sess.Kind)).Inc()
		e.metrics.SessionScore.Observe(float64(sum.Score))
	}
	e.logger.Info("session completed",
		"session_id", sess.ID, "user_id", sess.UserID, "score", sum.Score, "attempted", sum.QuestionsAttempted)
	e.publish(ctx, sess, events.TypeSessionCompleted, events.SessionCompleted{
		Duration:           sum.Duration,
		QuestionsAttempted: sum.QuestionsAttempted,
		CorrectAnswers:     sum.CorrectAnswers,
		Score:              sum.Score,
		AvgTimePerQuestion: sum.AvgTimePerQuestion,
		Mastery:            sum.Progress.Mastery,
		StreakDays:         sum.Progress.StreakDays,
	})
	return sum, nil
}

// Active returns the user's active session, or nil.
func (e *Engine) Active(ctx context.Context, userID string) (*study.Session, error) {
	var s *study.Session
	err := e.run(ctx, "active", func(ctx context.Context) error {
		var err error
		s, err = e.backend.Repos().Sessions.GetActive(ctx, userID)
		return err
	})
	return s, err
}

// Progress lists the user's progress records. Empty lessonID or
// topicID match all.
func (e *Engine) Progress(ctx context.Context, userID, lessonID, topicID string) ([]study.UserProgress, error) {
	var ps []study.UserProgress
	err := e.run(ctx, "progress", func(ctx context.Context) error {
		var err error
		ps, err = e.backend.Repos().Progress.List(ctx, study.ProgressFilter{
			UserID: userID, LessonID: lessonID, TopicID: topicID,
		})
		return err
	})
	return ps, err
}

// Attempts lists the attempts of one of the user's sessions.
func (e *Engine) Attempts(ctx context.Context, userID, sessionID string) ([]study.Attempt, error) {
	var as []study.Attempt
	err := e.run(ctx, "attempts", func(ctx context.Context) error {
		r := e.backend.Repos()
		if _, err := owned(ctx, r, userID, sessionID); err != nil {
			return err
		}
		var err error
		as, err = r.Attempts.ListBySession(ctx, sessionID)
		return err
	})
	return as, err
}

// History lists the user's sessions, newest first. A non-positive
// limit returns all of them.
func (e *Engine) History(ctx context.Context, userID string, limit int) ([]study.Session, error) {
	var ss []study.Session
	err := e.run(ctx, "history", func(ctx context.Context) error {
		var err error
		ss, err = e.backend.Repos().Sessions.ListByUser(ctx, userID, limit)
		return err
	})
	return ss, err
}

// Questions lists the active questions of a topic with answers hidden.
func (e *Engine) Questions(ctx context.Context, lessonID, topicID string) ([]study.Question, error) {
	var out []study.Question
	err := e.run(ctx, "questions", func(ctx context.Context) error {
		qs, err := e.backend.Repos().Questions.ListByTopic(ctx, lessonID, topicID)
		if err != nil {
			return err
		}
		out = make([]study.Question, 0, len(qs))
		for _, q := range qs {
			if q.Active {
				out = append(out, q.Public())
			}
		}
		return nil
	})
	return out, err
}

// run applies the call timeout to fn and records its outcome. A
// deadline hit becomes a TimeoutError.
func (e *Engine) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !study.IsTimeout(err) {
		err = &study.TimeoutError{Op: op, Err: err}
	}

	var kind string
	if err != nil {
		kind = string(study.KindOf(err))
		if kind == string(study.KindInternal) || kind == string(study.KindTimeout) {
			e.logger.Error("engine operation failed", "op", op, "error", err)
		} else {
			e.logger.Debug("engine operation rejected", "op", op, "kind", kind, "error", err)
		}
	}
	if e.metrics != nil {
		e.metrics.Observe(op, start, kind)
	}
	return err
}

// publish sends an event. Failures are logged and never fail the
// operation that produced the event.
func (e *Engine) publish(ctx context.Context, s *study.Session, typ string, data any) {
	err := e.publisher.Publish(context.WithoutCancel(ctx), events.Event{
		ID:        e.newID(),
		Type:      typ,
		UserID:    s.UserID,
		SessionID: s.ID,
		LessonID:  s.LessonID,
		TopicID:   s.TopicID,
		Timestamp: e.now().UTC(),
		Data:      data,
	})
	if err != nil {
		e.logger.Warn("publish event failed", "type", typ, "session_id", s.ID, "error", err)
	}
}

// owned loads a session and checks that it belongs to userID.
func owned(ctx context.Context, r store.Repos, userID, sessionID string) (*study.Session, error) {
	s, err := r.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, &study.AuthorizationError{Reason: "session belongs to another user"}
	}
	return s, nil
}

// ownedActive is owned plus a check that the session is not sealed.
func ownedActive(ctx context.Context, r store.Repos, userID, sessionID string) (*study.Session, error) {
	s, err := owned(ctx, r, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Completed {
		return nil, &study.ConflictError{Reason: "session already completed"}
	}
	return s, nil
}

// sessionTags computes per-tag accuracy for a session's attempts.
func sessionTags(ctx context.Context, r store.Repos, sessionID string) ([]study.TagResult, error) {
	attempts, err := r.Attempts.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	questions := make(map[string]*study.Question)
	for _, a := range attempts {
		if _, ok := questions[a.QuestionID]; ok {
			continue
		}
		q, err := r.Questions.Get(ctx, a.QuestionID)
		if err != nil {
			return nil, err
		}
		questions[a.QuestionID] = q
	}
	return tagResults(attempts, questions), nil
}

// requireIDs takes alternating field names and values and rejects the
// first empty value.
func requireIDs(kv ...string) error {
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			return &study.ValidationError{Field: kv[i], Reason: "is required"}
		}
	}
	return nil
}

func public(q *study.Question) *study.Question {
	if q == nil {
		return nil
	}
	p := q.Public()
	return &p
}
