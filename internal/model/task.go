package model

import "time"

// Task status constants.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// Eisenhower categories derived from importance/urgency scores.
const (
	CategoryDo        = "do"
	CategorySchedule  = "schedule"
	CategoryDelegate  = "delegate"
	CategoryEliminate = "eliminate"
)

// eisenhowerThreshold splits the 1-10 importance/urgency scale into
// high (>= 6) and low halves.
const eisenhowerThreshold = 6

// Task is a unit of work with a deadline, an importance/urgency score,
// and an owner. It can be delegated to other users via assignments.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id" db:"id"`

	// Title is the human-readable summary of the task.
	Title string `json:"title" db:"title"`

	// Description is the full body/description text.
	Description string `json:"description" db:"description"`

	// Deadline is the instant by which the task must be completed.
	Deadline time.Time `json:"deadline" db:"deadline"`

	// StartDate is the calendar date work is planned to begin.
	StartDate time.Time `json:"start_date" db:"start_date"`

	// Importance is a 1-10 score set by the owner.
	Importance int `json:"importance" db:"importance"`

	// Urgency is a 1-10 score set by the owner.
	Urgency int `json:"urgency" db:"urgency"`

	// Status is either "pending" or "completed".
	Status string `json:"status" db:"status"`

	// OwnerID references the user who created the task.
	OwnerID string `json:"owner_id" db:"owner_id"`

	// Project is an optional project/area label.
	Project string `json:"project,omitempty" db:"project"`

	// TimeEstimate is the estimated effort in fractional hours,
	// or nil when no estimate was given.
	TimeEstimate *float64 `json:"time_estimate" db:"time_estimate"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Overdue reports whether the task's deadline has passed while the task
// is still pending. Overdue is derived, never stored.
func (t Task) Overdue(now time.Time) bool {
	return now.After(t.Deadline) && t.Status == TaskStatusPending
}

// EisenhowerCategory classifies the task by its importance/urgency
// scores: do, schedule, delegate, or eliminate.
func (t Task) EisenhowerCategory() string {
	important := t.Importance >= eisenhowerThreshold
	urgent := t.Urgency >= eisenhowerThreshold

	switch {
	case important && urgent:
		return CategoryDo
	case important:
		return CategorySchedule
	case urgent:
		return CategoryDelegate
	default:
		return CategoryEliminate
	}
}
