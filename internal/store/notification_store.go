package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nlechev/taskflow/internal/apperr"
	"github.com/nlechev/taskflow/internal/model"
)

// CreateNotification inserts a new notification record and returns it.
// A record carrying a dedup key that is already present is silently
// dropped and (nil, nil) is returned.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	metadata := "{}"
	if len(n.Metadata) > 0 {
		b, err := json.Marshal(n.Metadata)
		if err != nil {
			return nil, internalErr(err, "marshaling notification metadata")
		}
		metadata = string(b)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, message, metadata, dedup_key, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedup_key) WHERE dedup_key != '' DO NOTHING`,
		n.ID, n.UserID, n.Type, n.Message, metadata, n.DedupKey,
		boolToInt(n.Read), n.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, internalErr(err, "creating notification")
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, internalErr(err, "creating notification")
	}
	if inserted == 0 {
		return nil, nil
	}

	return &n, nil
}

// GetNotifications retrieves all notifications for a user, newest first.
func (s *SQLiteStore) GetNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM notifications WHERE user_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("querying notifications for user %s", userID))
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkNotificationsRead marks every notification of a user as read.
func (s *SQLiteStore) MarkNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE user_id = ?", userID,
	)
	if err != nil {
		return internalErr(err, fmt.Sprintf("marking notifications read for user %s", userID))
	}
	return nil
}

// DeleteNotification removes a notification owned by the given user.
func (s *SQLiteStore) DeleteNotification(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return internalErr(err, fmt.Sprintf("deleting notification %s", id))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return internalErr(err, fmt.Sprintf("deleting notification %s", id))
	}
	if affected == 0 {
		return apperr.Newf(apperr.KindNotFound, "notification %s not found", id)
	}

	return nil
}

// GetOverdueAssignments finds (task, assignee) pairs where the deadline
// has passed, the task is still pending, and the assignee has not
// completed their part.
func (s *SQLiteStore) GetOverdueAssignments(ctx context.Context, now time.Time) ([]OverdueAssignment, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT t.id, t.title, t.description, t.deadline, t.start_date,
		       t.importance, t.urgency, t.status, t.owner_id, t.project,
		       t.time_estimate, t.created_at, t.updated_at,
		       a.user_id
		FROM tasks t
		JOIN task_assignments a ON a.task_id = t.id
		WHERE t.deadline < ? AND t.status = 'pending' AND a.is_completed = 0
		ORDER BY t.deadline, a.user_id`,
		now.UTC(),
	)
	if err != nil {
		return nil, internalErr(err, "querying overdue assignments")
	}
	defer rows.Close()

	var overdue []OverdueAssignment
	for rows.Next() {
		var (
			t      model.Task
			userID string
		)
		err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Deadline, &t.StartDate,
			&t.Importance, &t.Urgency, &t.Status, &t.OwnerID, &t.Project,
			&t.TimeEstimate, &t.CreatedAt, &t.UpdatedAt,
			&userID,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning overdue assignment row: %w", err)
		}
		overdue = append(overdue, OverdueAssignment{Task: t, UserID: userID})
	}

	return overdue, rows.Err()
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n        model.Notification
		metadata string
		readInt  int
	)

	err := rows.Scan(
		&n.ID, &n.UserID, &n.Type, &n.Message, &metadata,
		&n.DedupKey, &readInt, &n.CreatedAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Read = readInt != 0
	if metadata != "" && metadata != "{}" {
		if err := json.Unmarshal([]byte(metadata), &n.Metadata); err != nil {
			return model.Notification{}, fmt.Errorf("unmarshaling notification metadata: %w", err)
		}
	}

	return n, nil
}
