package store

import (
	"context"
	"time"

	"github.com/nlechev/taskflow/internal/model"
)

// TaskFilter controls filtering, sorting, and pagination for task queries.
type TaskFilter struct {
	Status    *string    // "pending", "completed", or nil (all)
	OwnerID   *string    // restrict to tasks created by this user
	VisibleTo *string    // restrict to tasks the user owns or is assigned
	DueAfter  *time.Time // deadline at or after this instant
	// ArchivedAsOf selects completed tasks plus tasks whose deadline has
	// passed as of the given instant.
	ArchivedAsOf *time.Time
	Query        *string // search title + description
	SortBy       string  // "deadline", "importance", "urgency", "created_at", "updated_at", "title"
	SortDesc     bool
	Limit        int
	Offset       int
}

// TaskUpdate is the allow-listed set of task fields a caller may change.
// Nil fields are left untouched; client-supplied field names never reach
// the SQL layer.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Deadline     *time.Time
	StartDate    *time.Time
	Importance   *int
	Urgency      *int
	Project      *string
	TimeEstimate *float64
}

// CompletionResult carries the numbers frozen onto an assignment when it
// is marked complete.
type CompletionResult struct {
	Assignment model.Assignment

	// TaskCompleted is true when this was the last incomplete
	// assignment and the task itself flipped to completed.
	TaskCompleted bool
}

// OverdueAssignment pairs an overdue pending task with one of its
// incomplete assignees, as found by the deadline sweep.
type OverdueAssignment struct {
	Task   model.Task
	UserID string
}

// Store defines the persistence interface for users, tasks, assignments,
// work sessions, and notifications.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, u model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUsers(ctx context.Context) ([]model.User, error)

	// === Tasks ===

	CreateTask(ctx context.Context, t model.Task) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	UpdateTask(ctx context.Context, id string, upd TaskUpdate) error
	DeleteTask(ctx context.Context, id string) error

	// === Assignments ===

	CreateAssignment(ctx context.Context, a model.Assignment) error
	GetAssignment(ctx context.Context, taskID, userID string) (*model.Assignment, error)
	GetAssignmentsForTask(ctx context.Context, taskID string) ([]model.Assignment, error)

	// MarkAssignmentIncomplete persists is_completed = false without
	// touching the frozen totals. Callers enforce the one-way rule.
	MarkAssignmentIncomplete(ctx context.Context, taskID, userID string) error

	// CompleteAssignment atomically closes any open session for the
	// (task, user) pair at now, freezes total_hours_spent and
	// time_difference against the given effective estimate, and flips
	// the task to completed when no incomplete assignments remain.
	CompleteAssignment(ctx context.Context, taskID, userID string, estimate *float64, now time.Time) (*CompletionResult, error)

	// === Work sessions ===

	// StartSession closes any open session for the user at now and
	// inserts a new open session, both inside one transaction.
	StartSession(ctx context.Context, userID, taskID string, now time.Time) (*model.WorkSession, error)

	// CloseOpenSession sets end_time = now on the user's open session
	// and returns it. Returns a NotFound error when none is open.
	CloseOpenSession(ctx context.Context, userID string, now time.Time) (*model.WorkSession, error)

	// GetOpenSession returns the user's open session, or nil when the
	// user is not working anything.
	GetOpenSession(ctx context.Context, userID string) (*model.WorkSession, error)

	GetSessions(ctx context.Context, taskID, userID string) ([]model.WorkSession, error)
	GetSessionsForUser(ctx context.Context, userID string) ([]model.WorkSession, error)

	// === Notifications ===

	// CreateNotification inserts a notification. When the record carries
	// a dedup key that already exists, nothing is inserted and (nil, nil)
	// is returned.
	CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error)
	GetNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, userID, id string) error

	// === Deadline sweep ===

	// GetOverdueAssignments finds pending tasks whose deadline has
	// passed as of now, paired with each assignee that has not yet
	// completed their assignment.
	GetOverdueAssignments(ctx context.Context, now time.Time) ([]OverdueAssignment, error)
}
