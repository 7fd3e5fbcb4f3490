package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// startSession opens a work session on a task for the caller. Any
// session the caller already has open is closed first, so switching
// tasks is a single request.
func (s *Server) startSession(c *gin.Context) {
	sess, err := s.tracker.StartSession(c.Request.Context(), currentUserID(c), c.Param("taskId"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

// stopSession closes the caller's open session. 404 when none is open.
func (s *Server) stopSession(c *gin.Context) {
	sess, err := s.tracker.StopSession(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

// workHistory lists all sessions of a user with computed hours per row.
func (s *Server) workHistory(c *gin.Context) {
	entries, err := s.tracker.WorkHistory(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// currentTask returns the task tied to the user's open session, with an
// overdue flag, or null when the user is idle.
func (s *Server) currentTask(c *gin.Context) {
	task, err := s.tracker.CurrentTask(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if task == nil {
		c.JSON(http.StatusOK, gin.H{"task": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":    task,
		"overdue": task.Overdue(time.Now()),
	})
}
