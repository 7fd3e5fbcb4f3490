package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nlechev/taskflow/internal/apperr"
	"github.com/nlechev/taskflow/internal/model"
)

// CreateTask inserts a new task. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return apperr.Validation("task title must not be empty")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = model.TaskStatusPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, description, deadline, start_date,
			importance, urgency, status, owner_id, project,
			time_estimate, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Deadline.UTC(), t.StartDate.UTC(),
		t.Importance, t.Urgency, t.Status, t.OwnerID, t.Project,
		t.TimeEstimate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return internalErr(err, fmt.Sprintf("creating task %s", t.ID))
	}

	return nil
}

// GetTaskByID retrieves a single task by its ID.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM tasks WHERE id = ?", id)

	t, err := scanTask(row)
	if isNoRows(err) {
		return nil, apperr.Newf(apperr.KindNotFound, "task %s not found", id)
	}
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("getting task %s", id))
	}

	return &t, nil
}

// GetTasks retrieves tasks matching the provided filter options.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if filter.VisibleTo != nil {
		conditions = append(conditions,
			"(owner_id = ? OR id IN (SELECT task_id FROM task_assignments WHERE user_id = ?))")
		args = append(args, *filter.VisibleTo, *filter.VisibleTo)
	}
	if filter.DueAfter != nil {
		conditions = append(conditions, "deadline >= ?")
		args = append(args, filter.DueAfter.UTC())
	}
	if filter.ArchivedAsOf != nil {
		conditions = append(conditions, "(status = 'completed' OR deadline < ?)")
		args = append(args, filter.ArchivedAsOf.UTC())
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT * FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Determine sort column.
	sortBy := "deadline"
	if filter.SortBy != "" {
		allowedSorts := map[string]bool{
			"title":      true,
			"deadline":   true,
			"importance": true,
			"urgency":    true,
			"created_at": true,
			"updated_at": true,
		}
		if allowedSorts[filter.SortBy] {
			sortBy = filter.SortBy
		}
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, internalErr(err, "querying tasks")
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// UpdateTask applies the non-nil fields of upd to the task. The SET
// clause is built from the allow-listed update struct only.
func (s *SQLiteStore) UpdateTask(ctx context.Context, id string, upd TaskUpdate) error {
	var sets []string
	var args []interface{}

	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Deadline != nil {
		sets = append(sets, "deadline = ?")
		args = append(args, upd.Deadline.UTC())
	}
	if upd.StartDate != nil {
		sets = append(sets, "start_date = ?")
		args = append(args, upd.StartDate.UTC())
	}
	if upd.Importance != nil {
		sets = append(sets, "importance = ?")
		args = append(args, *upd.Importance)
	}
	if upd.Urgency != nil {
		sets = append(sets, "urgency = ?")
		args = append(args, *upd.Urgency)
	}
	if upd.Project != nil {
		sets = append(sets, "project = ?")
		args = append(args, *upd.Project)
	}
	if upd.TimeEstimate != nil {
		sets = append(sets, "time_estimate = ?")
		args = append(args, *upd.TimeEstimate)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return internalErr(err, fmt.Sprintf("updating task %s", id))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return internalErr(err, fmt.Sprintf("updating task %s", id))
	}
	if affected == 0 {
		return apperr.Newf(apperr.KindNotFound, "task %s not found", id)
	}

	return nil
}

// DeleteTask removes a task; assignments and sessions cascade.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return internalErr(err, fmt.Sprintf("deleting task %s", id))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return internalErr(err, fmt.Sprintf("deleting task %s", id))
	}
	if affected == 0 {
		return apperr.Newf(apperr.KindNotFound, "task %s not found", id)
	}

	return nil
}

// scanTask scans a task row from a sqlx.Row.
func scanTask(row *sqlx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Deadline, &t.StartDate,
		&t.Importance, &t.Urgency, &t.Status, &t.OwnerID, &t.Project,
		&t.TimeEstimate, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// scanTaskRows scans a task row from a sqlx.Rows result set.
func scanTaskRows(rows *sqlx.Rows) (model.Task, error) {
	var t model.Task
	err := rows.Scan(
		&t.ID, &t.Title, &t.Description, &t.Deadline, &t.StartDate,
		&t.Importance, &t.Urgency, &t.Status, &t.OwnerID, &t.Project,
		&t.TimeEstimate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}
	return t, nil
}
