package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nlechev/taskflow/internal/apperr"
	"github.com/nlechev/taskflow/internal/model"
	"github.com/nlechev/taskflow/internal/store"
)

type createTaskRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	Deadline     time.Time  `json:"deadline" binding:"required"`
	StartDate    *time.Time `json:"start_date"`
	Importance   int        `json:"importance"`
	Urgency      int        `json:"urgency"`
	Project      string     `json:"project"`
	TimeEstimate *float64   `json:"time_estimate"`
}

type updateTaskRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Deadline     *time.Time `json:"deadline"`
	StartDate    *time.Time `json:"start_date"`
	Importance   *int       `json:"importance"`
	Urgency      *int       `json:"urgency"`
	Project      *string    `json:"project"`
	TimeEstimate *float64   `json:"time_estimate"`
}

// taskView is a task enriched with its assignees and the requesting
// user's time accounting.
type taskView struct {
	model.Task
	EisenhowerCategory string             `json:"eisenhower_category"`
	Overdue            bool               `json:"overdue"`
	Assignees          []model.Assignment `json:"assignees"`

	// TotalHoursSpentForUser and TimeDifferenceForUser reflect the
	// requester's own assignment: frozen values once completed, live
	// numbers while in progress, nil without an assignment.
	TotalHoursSpentForUser *float64 `json:"total_hours_spent_for_user"`
	TimeDifferenceForUser  *float64 `json:"time_difference_for_user"`
}

// validScore reports whether an importance/urgency value is in range.
func validScore(v int) bool {
	return v >= 1 && v <= 10
}

func (s *Server) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Importance == 0 {
		req.Importance = 5
	}
	if req.Urgency == 0 {
		req.Urgency = 5
	}
	if !validScore(req.Importance) || !validScore(req.Urgency) {
		s.respondError(c, apperr.Validation("importance and urgency must be between 1 and 10"))
		return
	}

	startDate := time.Now().UTC()
	if req.StartDate != nil {
		startDate = req.StartDate.UTC()
	}
	if startDate.After(req.Deadline) {
		s.respondError(c, apperr.InvalidTransition("start date cannot be after the deadline"))
		return
	}

	task := model.Task{
		ID:           uuid.New().String(),
		Title:        req.Title,
		Description:  req.Description,
		Deadline:     req.Deadline.UTC(),
		StartDate:    startDate,
		Importance:   req.Importance,
		Urgency:      req.Urgency,
		Status:       model.TaskStatusPending,
		OwnerID:      currentUserID(c),
		Project:      req.Project,
		TimeEstimate: req.TimeEstimate,
	}

	if err := s.store.CreateTask(c.Request.Context(), task); err != nil {
		s.respondError(c, err)
		return
	}

	// Re-read so timestamps come back exactly as stored.
	created, err := s.store.GetTaskByID(c.Request.Context(), task.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, created)
}

func (s *Server) getTask(c *gin.Context) {
	task, err := s.store.GetTaskByID(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	view, err := s.enrichTask(c, *task)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// listTasks returns the requester's board: pending tasks whose deadline
// has not passed, visible as owner or assignee.
func (s *Server) listTasks(c *gin.Context) {
	userID := currentUserID(c)
	status := model.TaskStatusPending
	now := time.Now().UTC()

	tasks, err := s.store.GetTasks(c.Request.Context(), store.TaskFilter{
		Status:    &status,
		VisibleTo: &userID,
		DueAfter:  &now,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	views, err := s.enrichTasks(c, tasks)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// archivedTasks returns completed or past-deadline tasks visible to the
// given user as owner or assignee.
func (s *Server) archivedTasks(c *gin.Context) {
	userID := c.Param("userId")
	now := time.Now().UTC()

	tasks, err := s.store.GetTasks(c.Request.Context(), store.TaskFilter{
		VisibleTo:    &userID,
		ArchivedAsOf: &now,
		SortBy:       "deadline",
		SortDesc:     true,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	views, err := s.enrichTasks(c, tasks)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

func (s *Server) updateTask(c *gin.Context) {
	taskID := c.Param("taskId")

	task, err := s.store.GetTaskByID(c.Request.Context(), taskID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if task.OwnerID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can modify a task"})
		return
	}

	var req updateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Importance != nil && !validScore(*req.Importance) ||
		req.Urgency != nil && !validScore(*req.Urgency) {
		s.respondError(c, apperr.Validation("importance and urgency must be between 1 and 10"))
		return
	}

	// Validate the start/deadline pair as it will be after the update.
	deadline := task.Deadline
	if req.Deadline != nil {
		deadline = req.Deadline.UTC()
	}
	startDate := task.StartDate
	if req.StartDate != nil {
		startDate = req.StartDate.UTC()
	}
	if startDate.After(deadline) {
		s.respondError(c, apperr.InvalidTransition("start date cannot be after the deadline"))
		return
	}

	upd := store.TaskUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Deadline:     req.Deadline,
		StartDate:    req.StartDate,
		Importance:   req.Importance,
		Urgency:      req.Urgency,
		Project:      req.Project,
		TimeEstimate: req.TimeEstimate,
	}

	if err := s.store.UpdateTask(c.Request.Context(), taskID, upd); err != nil {
		s.respondError(c, err)
		return
	}

	updated, err := s.store.GetTaskByID(c.Request.Context(), taskID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteTask(c *gin.Context) {
	taskID := c.Param("taskId")

	task, err := s.store.GetTaskByID(c.Request.Context(), taskID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if task.OwnerID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can delete a task"})
		return
	}

	if err := s.store.DeleteTask(c.Request.Context(), taskID); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}

// enrichTask attaches assignees and the requester's time accounting to
// a task.
func (s *Server) enrichTask(c *gin.Context, task model.Task) (*taskView, error) {
	ctx := c.Request.Context()
	userID := currentUserID(c)
	now := time.Now()

	assignees, err := s.store.GetAssignmentsForTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	view := &taskView{
		Task:               task,
		EisenhowerCategory: task.EisenhowerCategory(),
		Overdue:            task.Overdue(now),
		Assignees:          assignees,
	}
	if view.Assignees == nil {
		view.Assignees = []model.Assignment{}
	}

	for _, a := range assignees {
		if a.UserID != userID {
			continue
		}
		if a.IsCompleted {
			// Frozen at completion time.
			view.TotalHoursSpentForUser = a.TotalHoursSpent
			view.TimeDifferenceForUser = a.TimeDifference
			break
		}

		// Live numbers against a moving now.
		hours, err := s.tracker.HoursSpent(ctx, task.ID, userID)
		if err != nil {
			return nil, err
		}
		view.TotalHoursSpentForUser = &hours
		if est := a.EffectiveTimeEstimate(task); est != nil {
			diff := *est - hours
			view.TimeDifferenceForUser = &diff
		}
		break
	}

	return view, nil
}

func (s *Server) enrichTasks(c *gin.Context, tasks []model.Task) ([]taskView, error) {
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		v, err := s.enrichTask(c, t)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}
