package model

import "time"

// Notification types.
const (
	NotificationTaskAssigned   = "task_assigned"
	NotificationDeadlineMissed = "deadline_missed"
)

// Notification represents an alert surfaced to a single recipient,
// either pushed in realtime or fetched later for catch-up.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// UserID is the recipient.
	UserID string `json:"user_id" db:"user_id"`

	// Type classifies the notification (use Notification* constants).
	Type string `json:"type" db:"type"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Metadata holds structured context, e.g. the originating task id.
	Metadata map[string]string `json:"metadata,omitempty" db:"-"`

	// DedupKey suppresses repeat inserts for the same underlying
	// condition. Empty for notification kinds that are never deduped.
	DedupKey string `json:"-" db:"dedup_key"`

	// Read indicates whether the recipient has seen this notification.
	Read bool `json:"read" db:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
