package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/service"
)

// Options carries the transport settings the handlers need.
type Options struct {
	AllowOrigin    string
	TempDir        string
	MaxUploadBytes int64
	SecureCookies  bool
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	tasks  service.TaskService
	opts   Options
	logger *logrus.Logger
}

func NewHandler(users service.UserService, tasks service.TaskService, opts Options, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.TempDir == "" {
		opts.TempDir = "public/temp"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	return &Handler{
		users:  users,
		tasks:  tasks,
		opts:   opts,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware(h.opts.AllowOrigin))

	router.GET("/health", func(c *gin.Context) {
		respond(c, http.StatusOK, "ok", nil)
	})

	users := router.Group("/users")
	{
		users.POST("/register", h.register)
		users.POST("/login", h.login)

		authed := users.Group("", h.authMiddleware())
		authed.POST("/logout", h.logout)
		authed.GET("/me", h.me)
	}

	tasks := router.Group("/tasks", h.authMiddleware())
	{
		tasks.POST("", h.createTask)
		tasks.GET("", h.listTasks)
		tasks.GET("/:id", h.getTask)
		tasks.PUT("/:id", h.updateTask)
		tasks.DELETE("/:id", h.deleteTask)
	}
}

// corsMiddleware allows a single browser origin to call the API with cookies.
func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
