package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/eternal-union/internal/album"
	"github.com/Conceptual-Machines/eternal-union/internal/logger"
	"github.com/Conceptual-Machines/eternal-union/internal/studio"
	"github.com/gin-gonic/gin"
)

// statusFor maps studio failures onto HTTP status codes.
func statusFor(err error) int {
	var (
		validationErr  *studio.ValidationError
		generationErr  *studio.GenerationError
		persistenceErr *studio.PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		if validationErr.LoginRequired {
			return http.StatusUnauthorized
		}
		return http.StatusBadRequest
	case errors.Is(err, album.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &generationErr):
		return http.StatusBadGateway
	case errors.As(err, &persistenceErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server-side failures are
// reported to Sentry through logger.Error.
func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	fields := logger.WithContext(c)
	fields["status_code"] = code

	if code >= http.StatusInternalServerError {
		logger.Error("Studio operation failed", err, fields)
	} else {
		fields["error"] = err.Error()
		logger.Warn("Studio operation rejected", fields)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
