package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nlechev/taskflow/internal/apperr"
	"github.com/nlechev/taskflow/internal/model"
)

// StartSession closes any open session for the user and inserts a new
// open session, as one transaction. The close-then-open pair is
// all-or-nothing: if the close fails the start does not proceed. The
// partial unique index on open sessions turns a lost race between two
// concurrent starts into a Conflict error instead of a second open row.
func (s *SQLiteStore) StartSession(ctx context.Context, userID, taskID string, now time.Time) (*model.WorkSession, error) {
	now = now.UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, internalErr(err, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"UPDATE work_sessions SET end_time = ? WHERE user_id = ? AND end_time IS NULL",
		now, userID,
	)
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("closing open session for user %s", userID))
	}

	sess := model.WorkSession{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		UserID:    userID,
		StartTime: now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO work_sessions (id, task_id, user_id, start_time, end_time)
		VALUES (?, ?, ?, ?, NULL)`,
		sess.ID, sess.TaskID, sess.UserID, sess.StartTime,
	)
	if isUniqueViolation(err) {
		return nil, apperr.Wrap(err, apperr.KindConflict, "another session was started concurrently, retry")
	}
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("inserting session for user %s", userID))
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(err, apperr.KindConflict, "another session was started concurrently, retry")
		}
		return nil, internalErr(err, "committing session start")
	}

	return &sess, nil
}

// CloseOpenSession sets end_time = now on the user's open session and
// returns the closed session. NotFound when the user has none open.
func (s *SQLiteStore) CloseOpenSession(ctx context.Context, userID string, now time.Time) (*model.WorkSession, error) {
	now = now.UTC()

	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM work_sessions WHERE user_id = ? AND end_time IS NULL",
		userID,
	)
	sess, err := scanSession(row)
	if isNoRows(err) {
		return nil, apperr.NotFound("no active session")
	}
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("getting open session for user %s", userID))
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE work_sessions SET end_time = ? WHERE id = ?",
		now, sess.ID,
	)
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("closing session %s", sess.ID))
	}

	sess.EndTime = &now
	return &sess, nil
}

// GetOpenSession returns the user's open session, or nil when none.
func (s *SQLiteStore) GetOpenSession(ctx context.Context, userID string) (*model.WorkSession, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM work_sessions WHERE user_id = ? AND end_time IS NULL",
		userID,
	)
	sess, err := scanSession(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("getting open session for user %s", userID))
	}
	return &sess, nil
}

// GetSessions retrieves all sessions for a (task, user) pair, oldest first.
func (s *SQLiteStore) GetSessions(ctx context.Context, taskID, userID string) ([]model.WorkSession, error) {
	return s.querySessions(ctx,
		"SELECT * FROM work_sessions WHERE task_id = ? AND user_id = ? ORDER BY start_time",
		taskID, userID,
	)
}

// GetSessionsForUser retrieves all sessions for a user, newest first.
func (s *SQLiteStore) GetSessionsForUser(ctx context.Context, userID string) ([]model.WorkSession, error) {
	return s.querySessions(ctx,
		"SELECT * FROM work_sessions WHERE user_id = ? ORDER BY start_time DESC",
		userID,
	)
}

func (s *SQLiteStore) querySessions(ctx context.Context, query string, args ...interface{}) ([]model.WorkSession, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, internalErr(err, "querying sessions")
	}
	defer rows.Close()

	var sessions []model.WorkSession
	for rows.Next() {
		sess, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

// scanSession scans a session row from a sqlx.Row.
func scanSession(row *sqlx.Row) (model.WorkSession, error) {
	var sess model.WorkSession
	err := row.Scan(&sess.ID, &sess.TaskID, &sess.UserID, &sess.StartTime, &sess.EndTime)
	return sess, err
}

// scanSessionRows scans a session row from a sqlx.Rows result set.
func scanSessionRows(rows *sqlx.Rows) (model.WorkSession, error) {
	var sess model.WorkSession
	err := rows.Scan(&sess.ID, &sess.TaskID, &sess.UserID, &sess.StartTime, &sess.EndTime)
	if err != nil {
		return model.WorkSession{}, fmt.Errorf("scanning session row: %w", err)
	}
	return sess, nil
}
