package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nlechev/taskflow/internal/apperr"
	"github.com/nlechev/taskflow/internal/model"
)

// CreateAssignment inserts a new (task, assignee) pairing.
func (s *SQLiteStore) CreateAssignment(ctx context.Context, a model.Assignment) error {
	if a.TaskID == "" || a.UserID == "" {
		return apperr.Validation("assignment requires a task and an assignee")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_assignments (
			task_id, user_id, assigner_id, importance, urgency,
			start_date, time_estimate, is_completed,
			total_hours_spent, time_difference, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.TaskID, a.UserID, a.AssignerID, a.Importance, a.Urgency,
		utcOrNil(a.StartDate), a.TimeEstimate, boolToInt(a.IsCompleted),
		a.TotalHoursSpent, a.TimeDifference, a.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return apperr.Wrap(err, apperr.KindConflict, "task already assigned to this user")
	}
	if err != nil {
		return internalErr(err, fmt.Sprintf("creating assignment %s/%s", a.TaskID, a.UserID))
	}

	return nil
}

// GetAssignment retrieves the assignment for a (task, user) pair.
func (s *SQLiteStore) GetAssignment(ctx context.Context, taskID, userID string) (*model.Assignment, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM task_assignments WHERE task_id = ? AND user_id = ?",
		taskID, userID,
	)

	a, err := scanAssignment(row)
	if isNoRows(err) {
		return nil, apperr.Newf(apperr.KindNotFound, "assignment %s/%s not found", taskID, userID)
	}
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("getting assignment %s/%s", taskID, userID))
	}

	return &a, nil
}

// GetAssignmentsForTask retrieves all assignments of a task.
func (s *SQLiteStore) GetAssignmentsForTask(ctx context.Context, taskID string) ([]model.Assignment, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM task_assignments WHERE task_id = ? ORDER BY created_at",
		taskID,
	)
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("querying assignments for task %s", taskID))
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignmentRows(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

// MarkAssignmentIncomplete persists is_completed = false with no
// recomputation; the frozen totals keep whatever values they had.
func (s *SQLiteStore) MarkAssignmentIncomplete(ctx context.Context, taskID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE task_assignments SET is_completed = 0 WHERE task_id = ? AND user_id = ?",
		taskID, userID,
	)
	if err != nil {
		return internalErr(err, fmt.Sprintf("updating assignment %s/%s", taskID, userID))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return internalErr(err, fmt.Sprintf("updating assignment %s/%s", taskID, userID))
	}
	if affected == 0 {
		return apperr.Newf(apperr.KindNotFound, "assignment %s/%s not found", taskID, userID)
	}

	return nil
}

// CompleteAssignment freezes the time accounting for an assignment in a
// single transaction: it stops the clock by closing any open session for
// the (task, user) pair, sums hours across all of the pair's sessions,
// derives the difference against the effective estimate, and persists
// the completed record. When this was the last incomplete assignment the
// task itself flips to completed.
func (s *SQLiteStore) CompleteAssignment(
	ctx context.Context,
	taskID, userID string,
	estimate *float64,
	now time.Time,
) (*CompletionResult, error) {
	now = now.UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, internalErr(err, "beginning transaction")
	}
	defer tx.Rollback()

	// Stop the clock for this pair.
	_, err = tx.ExecContext(ctx, `
		UPDATE work_sessions SET end_time = ?
		WHERE task_id = ? AND user_id = ? AND end_time IS NULL`,
		now, taskID, userID,
	)
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("closing sessions for %s/%s", taskID, userID))
	}

	// With no open session left, the sum is stable.
	rows, err := tx.QueryxContext(ctx,
		"SELECT * FROM work_sessions WHERE task_id = ? AND user_id = ?",
		taskID, userID,
	)
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("querying sessions for %s/%s", taskID, userID))
	}

	var totalHours float64
	for rows.Next() {
		sess, err := scanSessionRows(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		totalHours += sess.Hours(now)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, internalErr(err, "iterating sessions")
	}
	rows.Close()

	var timeDiff *float64
	if estimate != nil {
		d := *estimate - totalHours
		timeDiff = &d
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE task_assignments
		SET is_completed = 1, total_hours_spent = ?, time_difference = ?
		WHERE task_id = ? AND user_id = ?`,
		totalHours, timeDiff, taskID, userID,
	)
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("completing assignment %s/%s", taskID, userID))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("completing assignment %s/%s", taskID, userID))
	}
	if affected == 0 {
		return nil, apperr.Newf(apperr.KindNotFound, "assignment %s/%s not found", taskID, userID)
	}

	// The task completes once every assignment has.
	var remaining int
	err = tx.GetContext(ctx, &remaining,
		"SELECT COUNT(*) FROM task_assignments WHERE task_id = ? AND is_completed = 0",
		taskID,
	)
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("counting incomplete assignments for %s", taskID))
	}

	taskCompleted := false
	if remaining == 0 {
		_, err = tx.ExecContext(ctx,
			"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
			model.TaskStatusCompleted, now, taskID, model.TaskStatusPending,
		)
		if err != nil {
			return nil, internalErr(err, fmt.Sprintf("completing task %s", taskID))
		}
		taskCompleted = true
	}

	row := tx.QueryRowxContext(ctx,
		"SELECT * FROM task_assignments WHERE task_id = ? AND user_id = ?",
		taskID, userID,
	)
	a, err := scanAssignment(row)
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("re-reading assignment %s/%s", taskID, userID))
	}

	if err := tx.Commit(); err != nil {
		return nil, internalErr(err, "committing completion")
	}

	return &CompletionResult{Assignment: a, TaskCompleted: taskCompleted}, nil
}

// utcOrNil normalizes an optional timestamp to UTC.
func utcOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// scanAssignment scans an assignment row from a sqlx.Row.
func scanAssignment(row *sqlx.Row) (model.Assignment, error) {
	var (
		a         model.Assignment
		completed int
	)
	err := row.Scan(
		&a.TaskID, &a.UserID, &a.AssignerID, &a.Importance, &a.Urgency,
		&a.StartDate, &a.TimeEstimate, &completed,
		&a.TotalHoursSpent, &a.TimeDifference, &a.CreatedAt,
	)
	if err != nil {
		return model.Assignment{}, err
	}
	a.IsCompleted = completed != 0
	return a, nil
}

// scanAssignmentRows scans an assignment row from a sqlx.Rows result set.
func scanAssignmentRows(rows *sqlx.Rows) (model.Assignment, error) {
	var (
		a         model.Assignment
		completed int
	)
	err := rows.Scan(
		&a.TaskID, &a.UserID, &a.AssignerID, &a.Importance, &a.Urgency,
		&a.StartDate, &a.TimeEstimate, &completed,
		&a.TotalHoursSpent, &a.TimeDifference, &a.CreatedAt,
	)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("scanning assignment row: %w", err)
	}
	a.IsCompleted = completed != 0
	return a, nil
}
