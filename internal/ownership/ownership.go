// Package ownership decides whether a caller may act on a report or on an
// attachment through its parent report. Every check re-reads current state.
package ownership

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnauthorized means the caller has no identity or does not own the report.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the report or attachment does not exist.
	ErrNotFound = errors.New("not found")
)

// ReportOwners resolves the owner of a report. Implementations return
// ErrNotFound when the report is absent.
type ReportOwners interface {
	OwnerOf(ctx context.Context, reportID string) (string, error)
}

// AttachmentReports resolves the parent report of an attachment.
// Implementations return ErrNotFound when the attachment is absent.
type AttachmentReports interface {
	ReportOf(ctx context.Context, attachmentID string) (string, error)
}

// Guard performs owner checks.
type Guard struct {
	reports     ReportOwners
	attachments AttachmentReports
}

// NewGuard builds a guard over the given lookups.
func NewGuard(reports ReportOwners, attachments AttachmentReports) *Guard {
	return &Guard{reports: reports, attachments: attachments}
}

// IsReportOwner reports whether callerID owns reportID.
func (g *Guard) IsReportOwner(ctx context.Context, reportID, callerID string) (bool, error) {
	if strings.TrimSpace(callerID) == "" {
		return false, ErrUnauthorized
	}
	owner, err := g.reports.OwnerOf(ctx, reportID)
	if err != nil {
		return false, err
	}
	return owner == callerID, nil
}

// RequireReportOwner returns ErrUnauthorized unless callerID owns reportID.
func (g *Guard) RequireReportOwner(ctx context.Context, reportID, callerID string) error {
	ok, err := g.IsReportOwner(ctx, reportID, callerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// RequireAttachmentOwner checks ownership of the attachment's report and
// returns that report's id.
func (g *Guard) RequireAttachmentOwner(ctx context.Context, attachmentID, callerID string) (string, error) {
	if strings.TrimSpace(callerID) == "" {
		return "", ErrUnauthorized
	}
	reportID, err := g.attachments.ReportOf(ctx, attachmentID)
	if err != nil {
		return "", err
	}
	if err := g.RequireReportOwner(ctx, reportID, callerID); err != nil {
		return "", err
	}
	return reportID, nil
}
