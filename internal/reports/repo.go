package reports

import (
	"context"
	"time"

	"incident-backend/internal/geo"
)

// Repo persists reports. Lookups of a missing report return
// ownership.ErrNotFound.
type Repo interface {
	Create(ctx context.Context, report Report) error
	GetByID(ctx context.Context, id string) (Report, error)
	OwnerOf(ctx context.Context, id string) (string, error)
	ListByUser(ctx context.Context, userID string) ([]Report, error)
	RecentByUser(ctx context.Context, userID string, limit int) ([]Report, error)
	Search(ctx context.Context, userID string, in SearchInput) ([]Report, error)
	Update(ctx context.Context, id string, in UpdateInput, now time.Time) (Report, error)
	SetLocation(ctx context.Context, id string, loc *geo.Point, now time.Time) (Report, error)
	// Delete removes the report unless it has attachments, in which case it
	// returns ErrHasAttachments.
	Delete(ctx context.Context, id string) error
	// DeleteIfDefault removes the report only while it is in its default
	// state and has no attachments.
	DeleteIfDefault(ctx context.Context, id string) (bool, error)
}

// AttachmentCounter reports how many attachments a report has.
type AttachmentCounter interface {
	CountByReport(ctx context.Context, reportID string) (int, error)
}
