package model

import "time"

// Assignment pairs a task with an assignee. Importance, urgency,
// start date, and time estimate may be overridden per assignee and
// fall back to the task's own values when nil.
type Assignment struct {
	TaskID     string `json:"task_id" db:"task_id"`
	UserID     string `json:"user_id" db:"user_id"`
	AssignerID string `json:"assigner_id" db:"assigner_id"`

	Importance *int       `json:"importance" db:"importance"`
	Urgency    *int       `json:"urgency" db:"urgency"`
	StartDate  *time.Time `json:"start_date" db:"start_date"`

	// TimeEstimate is the per-assignee effort estimate in hours.
	TimeEstimate *float64 `json:"time_estimate" db:"time_estimate"`

	// IsCompleted transitions false -> true exactly once; the tracker
	// rejects any attempt to move it back.
	IsCompleted bool `json:"is_completed" db:"is_completed"`

	// TotalHoursSpent and TimeDifference are frozen at completion time
	// and stay nil until then.
	TotalHoursSpent *float64 `json:"total_hours_spent" db:"total_hours_spent"`
	TimeDifference  *float64 `json:"time_difference" db:"time_difference"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EffectiveTimeEstimate resolves the estimate for this assignment:
// the assignment-level override when set, else the task's own estimate,
// else nil. Absence of an estimate is not an error.
func (a Assignment) EffectiveTimeEstimate(task Task) *float64 {
	if a.TimeEstimate != nil {
		return a.TimeEstimate
	}
	return task.TimeEstimate
}
