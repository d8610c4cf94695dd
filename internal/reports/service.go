package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"incident-backend/internal/geo"
	"incident-backend/internal/ownership"
	"incident-backend/internal/shared/metrics"
	"incident-backend/internal/shared/telemetry"
)

const maxTagLength = 64

type Service struct {
	Repo        Repo
	Attachments AttachmentCounter
	Guard       *ownership.Guard
	Now         func() time.Time
	NewID       func() string
}

func NewService(repo Repo, attachments AttachmentCounter, guard *ownership.Guard) *Service {
	return &Service{
		Repo:        repo,
		Attachments: attachments,
		Guard:       guard,
		Now:         func() time.Time { return time.Now().UTC() },
		NewID:       uuid.NewString,
	}
}

// CreateEmptyReport creates a report in its default state and returns its id.
func (s *Service) CreateEmptyReport(ctx context.Context, ownerID string) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", ownership.ErrUnauthorized
	}
	now := s.Now()
	report := Report{
		ID:          s.NewID(),
		UserID:      ownerID,
		Title:       DefaultTitle,
		Description: DefaultDescription,
		Tags:        []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, report); err != nil {
		return "", err
	}
	metrics.ReportsCreatedTotal.Inc()
	return report.ID, nil
}

func (s *Service) GetReport(ctx context.Context, id, callerID string) (Report, error) {
	if err := s.Guard.RequireReportOwner(ctx, id, callerID); err != nil {
		return Report{}, err
	}
	return s.Repo.GetByID(ctx, id)
}

// ListReports returns the caller's reports, most recently updated first.
func (s *Service) ListReports(ctx context.Context, callerID string) ([]Report, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, ownership.ErrUnauthorized
	}
	return s.Repo.ListByUser(ctx, callerID)
}

func (s *Service) SearchReports(ctx context.Context, callerID string, in SearchInput) ([]Report, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, ownership.ErrUnauthorized
	}
	if strings.TrimSpace(in.Query) == "" && strings.TrimSpace(in.Tag) == "" {
		return s.Repo.ListByUser(ctx, callerID)
	}
	return s.Repo.Search(ctx, callerID, in)
}

// UpdateReport replaces title, description and tags.
func (s *Service) UpdateReport(ctx context.Context, id, callerID string, in UpdateInput) (Report, error) {
	if err := s.Guard.RequireReportOwner(ctx, id, callerID); err != nil {
		return Report{}, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return Report{}, err
	}
	in.Tags = tags
	return s.Repo.Update(ctx, id, in, s.Now())
}

// SetLocation sets the report location, or clears it when loc is nil.
func (s *Service) SetLocation(ctx context.Context, id, callerID string, loc *geo.Point) (Report, error) {
	if err := s.Guard.RequireReportOwner(ctx, id, callerID); err != nil {
		return Report{}, err
	}
	if loc != nil {
		if err := loc.Validate(); err != nil {
			return Report{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return s.Repo.SetLocation(ctx, id, loc, s.Now())
}

// DeleteReport removes a report that has no attachments.
func (s *Service) DeleteReport(ctx context.Context, id, callerID string) error {
	if err := s.Guard.RequireReportOwner(ctx, id, callerID); err != nil {
		return err
	}
	if err := s.ensureNoAttachments(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ReportsDeletedTotal.WithLabelValues("delete").Inc()
	return nil
}

// DiscardEmptyReport deletes a report left in its default state. It returns
// false without error when the report has been edited.
func (s *Service) DiscardEmptyReport(ctx context.Context, id, callerID string) (bool, error) {
	if err := s.Guard.RequireReportOwner(ctx, id, callerID); err != nil {
		return false, err
	}
	if err := s.ensureNoAttachments(ctx, id); err != nil {
		return false, err
	}
	discarded, err := s.Repo.DeleteIfDefault(ctx, id)
	if err != nil {
		return false, err
	}
	if discarded {
		metrics.ReportsDeletedTotal.WithLabelValues("discard").Inc()
		telemetry.Info("report.discarded", map[string]any{"report_id": id, "user_id": callerID})
	}
	return discarded, nil
}

// GetRecentTags flattens the tags of the caller's most recently updated
// reports, dropping duplicates and keeping first-seen order.
func (s *Service) GetRecentTags(ctx context.Context, callerID string) ([]string, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, ownership.ErrUnauthorized
	}
	recent, err := s.Repo.RecentByUser(ctx, callerID, recentTagReports)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, report := range recent {
		for _, tag := range report.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func (s *Service) ensureNoAttachments(ctx context.Context, id string) error {
	if s.Attachments == nil {
		return nil
	}
	n, err := s.Attachments.CountByReport(ctx, id)
	if err != nil {
		return fmt.Errorf("count attachments: %w", err)
	}
	if n > 0 {
		return ErrHasAttachments
	}
	return nil
}

func normalizeTags(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if len(tag) > maxTagLength {
			return nil, fmt.Errorf("%w: tag longer than %d characters", ErrInvalidInput, maxTagLength)
		}
		out = append(out, tag)
	}
	return out, nil
}
