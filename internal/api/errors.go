package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyloop/internal/study"
)

// StatusFor maps an engine error to an HTTP status code.
func StatusFor(err error) int {
	switch study.KindOf(err) {
	case study.KindNotFound:
		return http.StatusNotFound
	case study.KindConflict:
		return http.StatusConflict
	case study.KindAuthorization:
		return http.StatusForbidden
	case study.KindValidation:
		return http.StatusBadRequest
	case study.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg, "kind": study.KindOf(err)})
}
