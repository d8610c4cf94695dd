package attachments

import (
	"context"
	"sort"
	"sync"
	"time"

	"incident-backend/internal/ownership"
)

type MemoryRepo struct {
	mu          sync.RWMutex
	attachments map[string]Attachment
	// Reports is consulted on Create so attachments cannot reference a
	// missing report. Nil skips the check.
	Reports ownership.ReportOwners
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{attachments: make(map[string]Attachment)}
}

func (r *MemoryRepo) Create(ctx context.Context, att Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Reports != nil {
		if _, err := r.Reports.OwnerOf(ctx, att.ReportID); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attachments[att.ID] = clone(att)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Attachment, error) {
	if err := ctx.Err(); err != nil {
		return Attachment{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	att, ok := r.attachments[id]
	if !ok {
		return Attachment{}, ownership.ErrNotFound
	}
	return clone(att), nil
}

func (r *MemoryRepo) ReportOf(ctx context.Context, id string) (string, error) {
	att, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return att.ReportID, nil
}

func (r *MemoryRepo) ListByReport(ctx context.Context, reportID string) ([]Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Attachment, 0)
	for _, att := range r.attachments {
		if att.ReportID == reportID {
			out = append(out, clone(att))
		}
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) CountByReport(ctx context.Context, reportID string) (int, error) {
	counts, err := r.CountsByType(ctx, reportID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (r *MemoryRepo) CountsByType(ctx context.Context, reportID string) (map[MediaType]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[MediaType]int)
	for _, att := range r.attachments {
		if att.ReportID == reportID {
			counts[att.MediaType]++
		}
	}
	return counts, nil
}

func (r *MemoryRepo) UpdateInfo(ctx context.Context, id string, patch InfoPatch, now time.Time) (Attachment, error) {
	return r.mutate(ctx, id, func(att *Attachment) {
		if patch.Title != nil {
			att.Title = *patch.Title
		}
		if patch.Description != nil {
			att.Description = *patch.Description
		}
		att.UpdatedAt = now
	})
}

func (r *MemoryRepo) SetMedia(ctx context.Context, id string, state MediaState, now time.Time) (Attachment, error) {
	return r.mutate(ctx, id, func(att *Attachment) {
		att.MediaURL = state.URL
		att.Metadata = state.Metadata
		att.Location = state.Location
		att.UpdatedAt = now
	})
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attachments[id]; !ok {
		return ownership.ErrNotFound
	}
	delete(r.attachments, id)
	return nil
}

func (r *MemoryRepo) mutate(ctx context.Context, id string, fn func(*Attachment)) (Attachment, error) {
	if err := ctx.Err(); err != nil {
		return Attachment{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	att, ok := r.attachments[id]
	if !ok {
		return Attachment{}, ownership.ErrNotFound
	}
	fn(&att)
	r.attachments[id] = att
	return clone(att), nil
}

func clone(att Attachment) Attachment {
	if att.Location != nil {
		p := *att.Location
		att.Location = &p
	}
	if att.Metadata != nil {
		meta := make(map[string]any, len(att.Metadata))
		for k, v := range att.Metadata {
			meta[k] = v
		}
		att.Metadata = meta
	}
	return att
}
