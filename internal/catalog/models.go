package catalog

import "time"

// Catalog entities are small administrative reference tables: complaint
// categories and city zones. Names are unique (case-insensitively; the
// catalog is tiny and admin-curated).

// Category classifies complaints (e.g., "road damage", "waste").
type Category struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`

	// DefaultPriority seeds the priority of complaints filed without one.
	DefaultPriority string `json:"default_priority,omitempty" db:"default_priority"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Zone is a geographic area of the city used to scope complaints.
type Zone struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	District string `json:"district,omitempty" db:"district"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
