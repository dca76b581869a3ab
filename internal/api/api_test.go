package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyloop/internal/metrics"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/store"
	"github.com/abhisek/studyloop/internal/study"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	seeder := s.Repos().Seeder
	require.NoError(t, seeder.PutLesson(ctx, study.Lesson{ID: "L", Title: "Lesson"}))
	require.NoError(t, seeder.PutTopic(ctx, study.Topic{ID: "T", LessonID: "L", Title: "Topic"}))
	for _, q := range []*study.Question{
		{ID: "q1", LessonID: "L", TopicID: "T", Difficulty: study.DifficultyEasy, Kind: study.KindMultipleChoice,
			Prompt: "pick b", Options: []string{"a", "b"}, CorrectAnswer: study.IndexAnswer(1), Active: true},
		{ID: "q2", LessonID: "L", TopicID: "T", Difficulty: study.DifficultyEasy, Kind: study.KindTrueFalse,
			Prompt: "true?", CorrectAnswer: study.TextAnswer("true"), Active: true},
	} {
		require.NoError(t, seeder.PutQuestion(ctx, q))
	}

	m := metrics.New()
	return NewRouter(Options{
		Engine:  session.NewEngine(s, session.DefaultConfig(), session.WithMetrics(m)),
		Backend: s,
		Metrics: m,
	})
}

func do(t *testing.T, h http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

func TestSessionFlow(t *testing.T) {
	h := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/v1/sessions", "u1", gin.H{"lesson_id": "L", "topic_id": "T", "question_count": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var started struct {
		Session         study.Session    `json:"session"`
		CurrentQuestion map[string]any   `json:"current_question"`
		Progress        session.Progress `json:"progress"`
	}
	decode(t, w, &started)
	sid := started.Session.ID
	assert.Equal(t, "q1", started.CurrentQuestion["id"])
	assert.Nil(t, started.CurrentQuestion["correct_answer"])
	assert.Equal(t, 2, started.Progress.Total)

	w = do(t, h, http.MethodPost, "/v1/sessions", "u1", gin.H{"lesson_id": "L", "topic_id": "T"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/v1/sessions/"+sid+"/answers", "u1", gin.H{"question_id": "q1", "selected_answer": 1, "time_spent": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var submitted session.SubmitResult
	decode(t, w, &submitted)
	assert.True(t, submitted.IsCorrect)
	assert.Equal(t, study.IndexAnswer(1), submitted.CorrectAnswer)

	w = do(t, h, http.MethodPost, "/v1/sessions/"+sid+"/answers", "u1", gin.H{"question_id": "q1", "selected_answer": 1, "time_spent": 1})
	assert.Equal(t, http.StatusConflict, w.Code, "resubmitting an answered question")

	w = do(t, h, http.MethodPost, "/v1/sessions/"+sid+"/answers", "intruder", gin.H{"question_id": "q2", "selected_answer": "true"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, h, http.MethodGet, "/v1/sessions/"+sid+"/next", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var next struct {
		Question *study.Question `json:"question"`
		Done     bool            `json:"done"`
	}
	decode(t, w, &next)
	require.NotNil(t, next.Question)
	assert.Equal(t, "q2", next.Question.ID)

	w = do(t, h, http.MethodPost, "/v1/sessions/"+sid+"/answers", "u1", gin.H{"question_id": "q2", "selected_answer": false, "time_spent": 20})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/v1/sessions/"+sid+"/end", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sum session.Summary
	decode(t, w, &sum)
	assert.Equal(t, 50, sum.Score)
	assert.Equal(t, 30, sum.Duration)
	require.NotNil(t, sum.Progress)
	assert.Equal(t, study.DifficultyMedium, sum.Progress.Difficulty)

	w = do(t, h, http.MethodPost, "/v1/sessions/"+sid+"/end", "u1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodGet, "/v1/sessions/"+sid+"/attempts", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var attempts struct {
		Attempts []study.Attempt `json:"attempts"`
	}
	decode(t, w, &attempts)
	assert.Len(t, attempts.Attempts, 2)

	w = do(t, h, http.MethodGet, "/v1/progress?lesson_id=L", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress struct {
		Progress []study.UserProgress `json:"progress"`
	}
	decode(t, w, &progress)
	require.Len(t, progress.Progress, 1)
	assert.Equal(t, 50, progress.Progress[0].Mastery)

	w = do(t, h, http.MethodGet, "/v1/sessions", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestErrorStatuses(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   any
		want   int
	}{
		{"missing user", http.MethodGet, "/v1/sessions/active", "", nil, http.StatusUnauthorized},
		{"unknown lesson", http.MethodPost, "/v1/sessions", "u1", gin.H{"lesson_id": "nope", "topic_id": "T"}, http.StatusNotFound},
		{"missing topic field", http.MethodPost, "/v1/sessions", "u1", gin.H{"lesson_id": "L"}, http.StatusBadRequest},
		{"bad difficulty", http.MethodPost, "/v1/sessions", "u1", gin.H{"lesson_id": "L", "topic_id": "T", "difficulty": "brutal"}, http.StatusBadRequest},
		{"fractional answer", http.MethodPost, "/v1/sessions/s/answers", "u1", gin.H{"question_id": "q1", "selected_answer": 1.5}, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/v1/sessions/nope/next", "u1", nil, http.StatusNotFound},
		{"bad limit", http.MethodGet, "/v1/sessions?limit=ten", "u1", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestActiveSessionEmpty(t *testing.T) {
	h := newTestRouter(t)
	w := do(t, h, http.MethodGet, "/v1/sessions/active", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session": null}`, w.Body.String())
}

func TestQuestionsHideAnswers(t *testing.T) {
	h := newTestRouter(t)
	w := do(t, h, http.MethodGet, "/v1/lessons/L/topics/T/questions", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Questions []map[string]any `json:"questions"`
	}
	decode(t, w, &body)
	require.Len(t, body.Questions, 2)
	for _, q := range body.Questions {
		assert.Nil(t, q["correct_answer"])
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	do(t, h, http.MethodGet, "/v1/sessions/active", "u1", nil)
	w = do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "studyloop_engine_operation_duration_seconds")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&study.NotFoundError{Resource: "session", ID: "x"}, http.StatusNotFound},
		{&study.ConflictError{Reason: "x"}, http.StatusConflict},
		{&study.AuthorizationError{Reason: "x"}, http.StatusForbidden},
		{&study.ValidationError{Field: "x", Reason: "y"}, http.StatusBadRequest},
		{&study.TimeoutError{Op: "end", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}
