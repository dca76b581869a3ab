// Package api exposes the session engine over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyloop/internal/metrics"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/store"
)

// UserHeader carries the caller's identity. Authentication happens
// upstream; the API trusts this header.
const UserHeader = "X-User-ID"

// Options configure the router.
type Options struct {
	Engine      *session.Engine
	Backend     store.Backend
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	CORSOrigins []string
}

// NewRouter builds the HTTP handler tree.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	h := NewHandler(opts.Engine, logger)

	r.GET("/healthz", health(opts.Backend))
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	v1 := r.Group("/v1", requireUser())
	{
		v1.POST("/sessions", h.StartSession)
		v1.GET("/sessions", h.History)
		v1.GET("/sessions/active", h.ActiveSession)
		v1.GET("/sessions/:id/next", h.NextQuestion)
		v1.POST("/sessions/:id/answers", h.SubmitAnswer)
		v1.POST("/sessions/:id/end", h.EndSession)
		v1.GET("/sessions/:id/attempts", h.Attempts)
		v1.GET("/progress", h.Progress)
		v1.GET("/lessons/:lessonId/topics/:topicId/questions", h.Questions)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Content-Length", "Accept", "Authorization", UserHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"user_id", c.GetHeader(UserHeader),
		)
	}
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(UserHeader) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": UserHeader + " header is required", "kind": "unauthenticated"})
			return
		}
		c.Next()
	}
}

func health(b store.Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		if b != nil {
			if err := b.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
