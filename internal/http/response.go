package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/domain"
)

// Envelope is the response wrapper for both success and error payloads.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
	Count   *int   `json:"count,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func respondList(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Count: &count})
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Internal causes are logged, never returned.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(domain.KindOf(err))
	message := "internal server error"

	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Message != "" {
		message = dErr.Message
	}
	if status == http.StatusInternalServerError {
		entry := h.logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		})
		if id, ok := c.Get(requestIDKey); ok {
			entry = entry.WithField("request_id", id)
		}
		entry.Error("request failed")
	}

	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message, Data: nil})
}

func (h *Handler) badRequest(c *gin.Context, message string) {
	h.respondError(c, domain.Validation(message))
}
