package users

import "time"

// User is an account known to the platform.
//
// Invariants:
// - Email is unique case-insensitively; rows always store the lowercased form.
// - Role decides what the user may do to complaints (see internal/rbac).
// - A user referenced as complaint reporter, status-log actor, or assignment
//   authority cannot be deleted (restrict semantics).
type User struct {
	ID    string `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`

	Role   Role   `json:"role" db:"role"`
	Status Status `json:"status" db:"status"`

	// PasswordHash is a bcrypt hash; never serialized.
	PasswordHash string `json:"-" db:"password_hash"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleAuthority Role = "authority"
	RoleAdmin     Role = "admin"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)
