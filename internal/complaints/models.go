package complaints

import "time"

// Complaint is a citizen-filed report of an urban incident.
//
// Invariants:
// - Status is cached on the row; complaint_status_log is the authoritative
//   history (append-only).
// - ResolvedAt is set the first time the complaint reaches resolved and is
//   never cleared or overwritten afterwards, even if the status later moves
//   away from resolved.
// - At most one active assignment exists per complaint at any time.
type Complaint struct {
	ID         string `json:"id" db:"id"`
	ReporterID string `json:"reporter_id" db:"reporter_id"`
	CategoryID string `json:"category_id" db:"category_id"`

	Status Status `json:"status" db:"status"`

	// Priority is optional; empty means unset.
	Priority Priority `json:"priority,omitempty" db:"priority"`

	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`
	ZoneID    *string  `json:"zone_id,omitempty" db:"zone_id"`

	// Public controls citizen-facing visibility. Non-public complaints are
	// visible only to their reporter and to staff.
	Public bool `json:"public" db:"public"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

type Status string

const (
	StatusCreated     Status = "created"
	StatusValidated   Status = "validated"
	StatusInReview    Status = "in_review"
	StatusInExecution Status = "in_execution"
	StatusResolved    Status = "resolved"
	StatusRejected    Status = "rejected"
	StatusArchived    Status = "archived"
)

// ValidStatus reports whether s is a known complaint status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusCreated, StatusValidated, StatusInReview, StatusInExecution,
		StatusResolved, StatusRejected, StatusArchived:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriority reports whether p is a known priority (empty = unset is valid).
func ValidPriority(p Priority) bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// StatusLogEntry is an immutable append-only record of one status transition.
// FromStatus is nil only for rows that predate status tracking; transitions
// recorded by this service always carry the previous status.
type StatusLogEntry struct {
	ID          string  `json:"id" db:"id"`
	ComplaintID string  `json:"complaint_id" db:"complaint_id"`
	FromStatus  *Status `json:"from_status,omitempty" db:"from_status"`
	ToStatus    Status  `json:"to_status" db:"to_status"`
	ChangedBy   string  `json:"changed_by" db:"changed_by"`
	Comment     string  `json:"comment,omitempty" db:"comment"`

	ChangedAt time.Time `json:"changed_at" db:"changed_at"`
}

// Assignment links a complaint to a handling authority over a time interval
// [AssignedAt, UnassignedAt). The active row is the one with IsActive=true;
// a partial unique index keeps at most one per complaint.
type Assignment struct {
	ID          string `json:"id" db:"id"`
	ComplaintID string `json:"complaint_id" db:"complaint_id"`
	AuthorityID string `json:"authority_id" db:"authority_id"`

	AssignedAt   time.Time  `json:"assigned_at" db:"assigned_at"`
	UnassignedAt *time.Time `json:"unassigned_at,omitempty" db:"unassigned_at"`
	IsActive     bool       `json:"is_active" db:"is_active"`
}

// Evidence is a file attached to a complaint. Cascade-deleted with it.
type Evidence struct {
	ID          string       `json:"id" db:"id"`
	ComplaintID string       `json:"complaint_id" db:"complaint_id"`
	Type        EvidenceType `json:"type" db:"type"`
	URL         string       `json:"url" db:"url"`
	Caption     string       `json:"caption,omitempty" db:"caption"`
	UploadedBy  string       `json:"uploaded_by" db:"uploaded_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EvidenceType string

const (
	EvidenceImage    EvidenceType = "image"
	EvidenceVideo    EvidenceType = "video"
	EvidenceDocument EvidenceType = "document"
)

// ValidEvidenceType reports whether t is a known evidence type.
func ValidEvidenceType(t EvidenceType) bool {
	switch t {
	case EvidenceImage, EvidenceVideo, EvidenceDocument:
		return true
	default:
		return false
	}
}

// Comment is a discussion entry on a complaint. Internal comments are
// staff-only. Cascade-deleted with the complaint.
type Comment struct {
	ID          string `json:"id" db:"id"`
	ComplaintID string `json:"complaint_id" db:"complaint_id"`
	AuthorID    string `json:"author_id" db:"author_id"`
	Body        string `json:"body" db:"body"`
	Internal    bool   `json:"internal" db:"internal"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
