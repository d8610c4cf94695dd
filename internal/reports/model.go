package reports

import (
	"time"

	"incident-backend/internal/geo"
)

const (
	DefaultTitle       = "Untitled Report"
	DefaultDescription = "No description"

	recentTagReports = 5
)

// Report is an incident report owned by a single user.
type Report struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Tags        []string
	Location    *geo.Point
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsDefault reports whether title and description still hold the values a
// new report is created with.
func (r Report) IsDefault() bool {
	return r.Title == DefaultTitle && r.Description == DefaultDescription
}

// UpdateInput replaces the editable fields of a report.
type UpdateInput struct {
	Title       string
	Description string
	Tags        []string
}

// SearchInput filters the caller's reports. Empty fields match everything.
type SearchInput struct {
	Query string
	Tag   string
}
