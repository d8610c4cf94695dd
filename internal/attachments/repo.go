package attachments

import (
	"context"
	"time"
)

// Repo persists attachments. Lookups of a missing attachment return
// ownership.ErrNotFound; Create returns it when the report is gone.
type Repo interface {
	Create(ctx context.Context, att Attachment) error
	GetByID(ctx context.Context, id string) (Attachment, error)
	ReportOf(ctx context.Context, id string) (string, error)
	ListByReport(ctx context.Context, reportID string) ([]Attachment, error)
	CountByReport(ctx context.Context, reportID string) (int, error)
	CountsByType(ctx context.Context, reportID string) (map[MediaType]int, error)
	UpdateInfo(ctx context.Context, id string, patch InfoPatch, now time.Time) (Attachment, error)
	SetMedia(ctx context.Context, id string, state MediaState, now time.Time) (Attachment, error)
	Delete(ctx context.Context, id string) error
}
