package reports

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"incident-backend/internal/geo"
	"incident-backend/internal/ownership"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	reports map[string]Report
	// Attachments backs the has-attachments check of Delete and
	// DeleteIfDefault. Nil means every report is treated as empty.
	Attachments AttachmentCounter
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{reports: make(map[string]Report)}
}

func (r *MemoryRepo) Create(ctx context.Context, report Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.ID] = clone(report)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.reports[id]
	if !ok {
		return Report{}, ownership.ErrNotFound
	}
	return clone(report), nil
}

func (r *MemoryRepo) OwnerOf(ctx context.Context, id string) (string, error) {
	report, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return report.UserID, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Report, error) {
	return r.filter(ctx, userID, func(Report) bool { return true })
}

func (r *MemoryRepo) RecentByUser(ctx context.Context, userID string, limit int) ([]Report, error) {
	list, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *MemoryRepo) Search(ctx context.Context, userID string, in SearchInput) ([]Report, error) {
	query := strings.ToLower(strings.TrimSpace(in.Query))
	tag := strings.TrimSpace(in.Tag)
	return r.filter(ctx, userID, func(report Report) bool {
		if query != "" &&
			!strings.Contains(strings.ToLower(report.Title), query) &&
			!strings.Contains(strings.ToLower(report.Description), query) {
			return false
		}
		if tag != "" && !containsTag(report.Tags, tag) {
			return false
		}
		return true
	})
}

func (r *MemoryRepo) Update(ctx context.Context, id string, in UpdateInput, now time.Time) (Report, error) {
	return r.mutate(ctx, id, func(report *Report) {
		report.Title = in.Title
		report.Description = in.Description
		report.Tags = append([]string(nil), in.Tags...)
		report.UpdatedAt = now
	})
}

func (r *MemoryRepo) SetLocation(ctx context.Context, id string, loc *geo.Point, now time.Time) (Report, error) {
	return r.mutate(ctx, id, func(report *Report) {
		if loc == nil {
			report.Location = nil
		} else {
			p := *loc
			report.Location = &p
		}
		report.UpdatedAt = now
	})
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[id]; !ok {
		return ownership.ErrNotFound
	}
	if err := r.ensureEmpty(ctx, id); err != nil {
		return err
	}
	delete(r.reports, id)
	return nil
}

func (r *MemoryRepo) DeleteIfDefault(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return false, ownership.ErrNotFound
	}
	if err := r.ensureEmpty(ctx, id); err != nil {
		return false, err
	}
	if !report.IsDefault() {
		return false, nil
	}
	delete(r.reports, id)
	return true, nil
}

func (r *MemoryRepo) ensureEmpty(ctx context.Context, id string) error {
	if r.Attachments == nil {
		return nil
	}
	n, err := r.Attachments.CountByReport(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasAttachments
	}
	return nil
}

func (r *MemoryRepo) mutate(ctx context.Context, id string, fn func(*Report)) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return Report{}, ownership.ErrNotFound
	}
	fn(&report)
	r.reports[id] = report
	return clone(report), nil
}

func (r *MemoryRepo) filter(ctx context.Context, userID string, keep func(Report) bool) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Report, 0)
	for _, report := range r.reports {
		if report.UserID == userID && keep(report) {
			out = append(out, clone(report))
		}
	}
	r.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(list []Report) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func clone(report Report) Report {
	report.Tags = append([]string{}, report.Tags...)
	if report.Location != nil {
		p := *report.Location
		report.Location = &p
	}
	return report
}
