package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nlechev/taskflow/internal/apperr"
	"github.com/nlechev/taskflow/internal/model"
	"github.com/nlechev/taskflow/internal/realtime"
)

type createAssignmentRequest struct {
	UserID       string     `json:"user_id" binding:"required"`
	Importance   *int       `json:"importance"`
	Urgency      *int       `json:"urgency"`
	StartDate    *time.Time `json:"start_date"`
	TimeEstimate *float64   `json:"time_estimate"`
}

type completionRequest struct {
	IsCompleted *bool `json:"is_completed" binding:"required"`
}

// createAssignment delegates a task to another user and notifies them.
func (s *Server) createAssignment(c *gin.Context) {
	ctx := c.Request.Context()
	taskID := c.Param("taskId")
	assignerID := currentUserID(c)

	var req createAssignmentRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Importance != nil && !validScore(*req.Importance) ||
		req.Urgency != nil && !validScore(*req.Urgency) {
		s.respondError(c, apperr.Validation("importance and urgency must be between 1 and 10"))
		return
	}

	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if task.OwnerID != assignerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can delegate a task"})
		return
	}
	if req.StartDate != nil && req.StartDate.After(task.Deadline) {
		s.respondError(c, apperr.InvalidTransition("start date cannot be after the deadline"))
		return
	}

	assignee, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	assignment := model.Assignment{
		TaskID:       taskID,
		UserID:       assignee.ID,
		AssignerID:   assignerID,
		Importance:   req.Importance,
		Urgency:      req.Urgency,
		StartDate:    req.StartDate,
		TimeEstimate: req.TimeEstimate,
	}

	if err := s.store.CreateAssignment(ctx, assignment); err != nil {
		s.respondError(c, err)
		return
	}

	assigner, err := s.store.GetUserByID(ctx, assignerID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	n := model.Notification{
		UserID:  assignee.ID,
		Type:    model.NotificationTaskAssigned,
		Message: fmt.Sprintf("%s assigned you task %q", assigner.Name, task.Title),
		Metadata: map[string]string{
			"task_id": task.ID,
		},
	}
	inserted, err := s.store.CreateNotification(ctx, n)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if inserted != nil {
		s.hub.Publish(assignee.ID, realtime.NewNotificationEvent(*inserted))
	}

	created, err := s.store.GetAssignment(ctx, taskID, assignee.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, created)
}

// setAssignmentCompletion marks an assignment complete or, illegally,
// tries to unmark it. 400 on un-completing a completed record.
func (s *Server) setAssignmentCompletion(c *gin.Context) {
	var req completionRequest
	if err := c.BindJSON(&req); err != nil || req.IsCompleted == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_completed is required"})
		return
	}

	taskID := c.Param("taskId")
	userID := c.Param("userId")

	// Only the assignee or the task owner may flip completion.
	caller := currentUserID(c)
	if caller != userID {
		task, err := s.store.GetTaskByID(c.Request.Context(), taskID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		if task.OwnerID != caller {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to modify this assignment"})
			return
		}
	}

	assignment, err := s.tracker.SetAssignmentCompletion(c.Request.Context(), taskID, userID, *req.IsCompleted)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}
