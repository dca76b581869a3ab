package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/study"
)

// Handler adapts HTTP requests to engine calls.
type Handler struct {
	engine *session.Engine
	logger *slog.Logger
}

func NewHandler(engine *session.Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

type startRequest struct {
	LessonID      string `json:"lesson_id" binding:"required"`
	TopicID       string `json:"topic_id" binding:"required"`
	Kind          string `json:"kind"`
	QuestionCount int    `json:"question_count"`
	Difficulty    string `json:"difficulty"`
}

type answerRequest struct {
	QuestionID     string       `json:"question_id" binding:"required"`
	SelectedAnswer study.Answer `json:"selected_answer"`
	TimeSpent      int          `json:"time_spent"`
	HintsUsed      int          `json:"hints_used"`
}

// StartSession handles POST /v1/sessions.
func (h *Handler) StartSession(c *gin.Context) {
	var req startRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.engine.Start(c.Request.Context(), session.StartRequest{
		UserID:        userID(c),
		LessonID:      req.LessonID,
		TopicID:       req.TopicID,
		Kind:          study.SessionKind(req.Kind),
		QuestionCount: req.QuestionCount,
		Difficulty:    study.Difficulty(req.Difficulty),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ActiveSession handles GET /v1/sessions/active.
func (h *Handler) ActiveSession(c *gin.Context) {
	s, err := h.engine.Active(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// History handles GET /v1/sessions.
func (h *Handler) History(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	ss, err := h.engine.History(c.Request.Context(), userID(c), limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": ss})
}

// NextQuestion handles GET /v1/sessions/:id/next. A null question means
// the session should be ended.
func (h *Handler) NextQuestion(c *gin.Context) {
	q, err := h.engine.Next(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": q, "done": q == nil})
}

// SubmitAnswer handles POST /v1/sessions/:id/answers.
func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.engine.Submit(c.Request.Context(), session.SubmitRequest{
		UserID:         userID(c),
		SessionID:      c.Param("id"),
		QuestionID:     req.QuestionID,
		SelectedAnswer: req.SelectedAnswer,
		TimeSpent:      req.TimeSpent,
		HintsUsed:      req.HintsUsed,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// EndSession handles POST /v1/sessions/:id/end.
func (h *Handler) EndSession(c *gin.Context) {
	sum, err := h.engine.End(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Attempts handles GET /v1/sessions/:id/attempts.
func (h *Handler) Attempts(c *gin.Context) {
	as, err := h.engine.Attempts(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": as})
}

// Progress handles GET /v1/progress.
func (h *Handler) Progress(c *gin.Context) {
	ps, err := h.engine.Progress(c.Request.Context(), userID(c), c.Query("lesson_id"), c.Query("topic_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": ps})
}

// Questions handles GET /v1/lessons/:lessonId/topics/:topicId/questions.
func (h *Handler) Questions(c *gin.Context) {
	qs, err := h.engine.Questions(c.Request.Context(), c.Param("lessonId"), c.Param("topicId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": qs})
}

// bind decodes the JSON body into v and writes a 400 on failure.
func (h *Handler) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": study.KindValidation})
		return false
	}
	return true
}

func userID(c *gin.Context) string {
	return c.GetHeader(UserHeader)
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &study.ValidationError{Field: key, Reason: "must be an integer"}
	}
	return n, nil
}
