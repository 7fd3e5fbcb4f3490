package model

import "time"

// User is an account that owns tasks, receives delegations, and tracks
// work sessions.
type User struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`

	// PasswordHash is the bcrypt hash of the user's password. It is
	// never serialized in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// SupervisorID references the user this account reports to, if any.
	// Delegation flows from supervisor to supervisee.
	SupervisorID *string `json:"supervisor_id,omitempty" db:"supervisor_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
