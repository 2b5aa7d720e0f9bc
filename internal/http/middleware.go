package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskflow/internal/auth"
	"taskflow/internal/domain"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"

	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	userKey         = "user"
	claimsKey       = "claims"
)

// requestLogger tags every request with an id and logs its outcome.
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)

		c.Next()

		fields := logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		}
		if u, ok := c.Get(userKey); ok {
			fields["user_id"] = u.(*domain.User).ID
		}
		logger.WithFields(fields).Info("request")
	}
}

// authMiddleware resolves the caller from the access token cookie or a bearer header.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, err := h.users.Authenticate(c.Request.Context(), extractToken(c))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if token, err := c.Cookie(accessCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func currentUser(c *gin.Context) *domain.User {
	return c.MustGet(userKey).(*domain.User)
}

func currentClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey)
	typed, _ := claims.(*auth.Claims)
	return typed
}
