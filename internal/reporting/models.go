package reporting

import (
	"time"

	"civic-platform/internal/complaints"
)

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// StatusCount is one row of the complaints-by-status breakdown.
type StatusCount struct {
	Status complaints.Status `json:"status" db:"status"`
	Count  int               `json:"count" db:"count"`
}

// StatusBreakdownRequest requests complaint counts grouped by status,
// optionally scoped to one category or zone.
type StatusBreakdownRequest struct {
	Range      TimeRange `json:"range"`
	CategoryID string    `json:"category_id,omitempty"`
	ZoneID     string    `json:"zone_id,omitempty"`
}

type StatusBreakdown struct {
	CategoryID string        `json:"category_id,omitempty"`
	ZoneID     string        `json:"zone_id,omitempty"`
	Total      int           `json:"total"`
	ByStatus   []StatusCount `json:"by_status"`
}

// ResolvedDuration is the filing-to-resolution span of one resolved
// complaint. Durations come from immutable fields (created_at, resolved_at)
// so re-resolving never changes a reported number.
type ResolvedDuration struct {
	ComplaintID string  `json:"complaint_id" db:"complaint_id"`
	Hours       float64 `json:"hours" db:"hours"`
}

type ResolutionSummaryRequest struct {
	Range      TimeRange `json:"range"`
	CategoryID string    `json:"category_id,omitempty"`
}

type ResolutionSummary struct {
	CategoryID    string  `json:"category_id,omitempty"`
	ResolvedCount int     `json:"resolved_count"`
	AverageHours  float64 `json:"average_hours"`
	MaxHours      float64 `json:"max_hours"`
}

// AuthorityLoad is the number of complaints currently assigned to one
// authority. Only active assignment rows count.
type AuthorityLoad struct {
	AuthorityID string `json:"authority_id" db:"authority_id"`
	ActiveCount int    `json:"active_count" db:"active_count"`
}
