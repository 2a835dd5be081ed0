package notifications

import "time"

// Notification is an immutable, append-only record addressed to one user.
// The only mutation allowed after insert is setting read_at.
type Notification struct {
	ID          string `json:"id" db:"id"`
	UserID      string `json:"user_id" db:"user_id"`
	ComplaintID string `json:"complaint_id,omitempty" db:"complaint_id"`

	// Kind indicates the business category of the notification.
	Kind Kind `json:"kind" db:"kind"`

	// Message is a short human-readable summary.
	Message string `json:"message" db:"message"`

	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type Kind string

const (
	KindStatusChange Kind = "status_change"
	KindAssignment   Kind = "assignment"
	KindComment      Kind = "comment"
)
