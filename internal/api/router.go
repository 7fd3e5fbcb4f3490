// Package api exposes the HTTP surface: auth, task CRUD, work-session
// operations, assignment completion, notifications, and the realtime
// event stream.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nlechev/taskflow/internal/apperr"
	"github.com/nlechev/taskflow/internal/auth"
	"github.com/nlechev/taskflow/internal/realtime"
	"github.com/nlechev/taskflow/internal/store"
	"github.com/nlechev/taskflow/internal/tracker"
)

// Server holds the dependencies shared by all HTTP handlers.
type Server struct {
	store   store.Store
	tracker *tracker.Tracker
	hub     *realtime.Hub
	auth    *auth.Manager
	logger  *slog.Logger
}

// NewServer wires the handler dependencies together.
func NewServer(s store.Store, tr *tracker.Tracker, hub *realtime.Hub, am *auth.Manager, logger *slog.Logger) *Server {
	return &Server{
		store:   s,
		tracker: tr,
		hub:     hub,
		auth:    am,
		logger:  logger,
	}
}

// SetupRouter registers all routes on a new gin engine.
func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/register", s.register)
	r.POST("/login", s.login)

	authed := r.Group("/", s.authMiddleware())
	{
		authed.GET("/users", s.listUsers)
		authed.GET("/users/:userId/work-history", s.workHistory)
		authed.GET("/users/:userId/current-task", s.currentTask)

		authed.POST("/tasks", s.createTask)
		authed.GET("/tasks", s.listTasks)
		authed.GET("/tasks/archive/:userId", s.archivedTasks)
		authed.POST("/tasks/stop", s.stopSession)
		authed.GET("/tasks/:taskId", s.getTask)
		authed.PUT("/tasks/:taskId", s.updateTask)
		authed.DELETE("/tasks/:taskId", s.deleteTask)
		authed.POST("/tasks/:taskId/start", s.startSession)
		authed.POST("/tasks/:taskId/assignment", s.createAssignment)
		authed.PATCH("/tasks/:taskId/assignment/:userId/complete", s.setAssignmentCompletion)

		authed.GET("/notifications", s.listNotifications)
		authed.PATCH("/notifications/read", s.markNotificationsRead)
		authed.DELETE("/notifications/:id", s.deleteNotification)

		authed.GET("/events", s.streamEvents)
	}

	return r
}

// respondError maps a typed error onto its HTTP status and a JSON
// {"error": ...} body. Internal errors are logged and collapsed to a
// generic message.
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": apperr.UserMessage(err)})
}
