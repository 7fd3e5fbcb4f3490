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

// CreateUser inserts a new user. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateUser(ctx context.Context, u model.User) error {
	if strings.TrimSpace(u.Email) == "" {
		return apperr.Validation("user email must not be empty")
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, supervisor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.SupervisorID, u.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return apperr.Wrap(err, apperr.KindConflict, "email already registered")
	}
	if err != nil {
		return internalErr(err, fmt.Sprintf("creating user %s", u.Email))
	}

	return nil
}

// GetUserByID retrieves a single user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM users WHERE id = ?", id)

	u, err := scanUser(row)
	if isNoRows(err) {
		return nil, apperr.Newf(apperr.KindNotFound, "user %s not found", id)
	}
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("getting user %s", id))
	}

	return &u, nil
}

// GetUserByEmail retrieves a single user by email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM users WHERE email = ?", email)

	u, err := scanUser(row)
	if isNoRows(err) {
		return nil, apperr.Newf(apperr.KindNotFound, "user %s not found", email)
	}
	if err != nil {
		return nil, internalErr(err, fmt.Sprintf("getting user %s", email))
	}

	return &u, nil
}

// GetUsers retrieves all users ordered by name.
func (s *SQLiteStore) GetUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM users ORDER BY name")
	if err != nil {
		return nil, internalErr(err, "querying users")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// scanUser scans a user row from a sqlx.Row.
func scanUser(row *sqlx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.SupervisorID, &u.CreatedAt,
	)
	return u, err
}

// scanUserRows scans a user row from a sqlx.Rows result set.
func scanUserRows(rows *sqlx.Rows) (model.User, error) {
	var u model.User
	err := rows.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.SupervisorID, &u.CreatedAt,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("scanning user row: %w", err)
	}
	return u, nil
}
