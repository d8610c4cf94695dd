package attachments

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"incident-backend/internal/media"
	"incident-backend/internal/ownership"
	"incident-backend/internal/queue"
	"incident-backend/internal/shared/metrics"
	"incident-backend/internal/shared/storage/object"
	"incident-backend/internal/shared/telemetry"
)

type Service struct {
	Repo  Repo
	Store object.ObjectStore
	Guard *ownership.Guard
	// Cleanup receives blobs whose best-effort delete failed. Optional.
	Cleanup queue.Client
	Now     func() time.Time
	NewID   func() string
}

func NewService(repo Repo, store object.ObjectStore, guard *ownership.Guard, cleanup queue.Client) *Service {
	return &Service{
		Repo:    repo,
		Store:   store,
		Guard:   guard,
		Cleanup: cleanup,
		Now:     func() time.Time { return time.Now().UTC() },
		NewID:   uuid.NewString,
	}
}

// CreateAttachment stores the binary first, then the record. A failed upload
// leaves no record behind.
func (s *Service) CreateAttachment(ctx context.Context, reportID, callerID string, in CreateInput) (Attachment, error) {
	if err := s.Guard.RequireReportOwner(ctx, reportID, callerID); err != nil {
		return Attachment{}, err
	}
	mt, err := ParseMediaType(string(in.MediaType))
	if err != nil {
		return Attachment{}, err
	}

	now := s.Now()
	att := Attachment{
		ID:          s.NewID(),
		ReportID:    reportID,
		MediaType:   mt,
		Title:       orDefault(in.Title, DefaultTitle),
		Description: orDefault(in.Description, DefaultDescription),
		MediaURL:    NoMediaURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if mt.CarriesMedia() && in.File != nil && len(in.File.Data) > 0 {
		state, err := s.storeMedia(ctx, callerID, mt, in.File)
		if err != nil {
			return Attachment{}, err
		}
		att.MediaURL = state.URL
		att.Metadata = state.Metadata
		att.Location = state.Location
	}

	if err := s.Repo.Create(ctx, att); err != nil {
		return Attachment{}, err
	}
	return att, nil
}

func (s *Service) GetAttachment(ctx context.Context, id, callerID string) (Attachment, error) {
	if _, err := s.Guard.RequireAttachmentOwner(ctx, id, callerID); err != nil {
		return Attachment{}, err
	}
	return s.Repo.GetByID(ctx, id)
}

// GetAttachments lists a report's attachments, oldest first.
func (s *Service) GetAttachments(ctx context.Context, reportID, callerID string) ([]Attachment, error) {
	if err := s.Guard.RequireReportOwner(ctx, reportID, callerID); err != nil {
		return nil, err
	}
	return s.Repo.ListByReport(ctx, reportID)
}

// GetAttachmentCountsByType returns a count for every media type, zeros included.
func (s *Service) GetAttachmentCountsByType(ctx context.Context, reportID, callerID string) (map[MediaType]int, error) {
	if err := s.Guard.RequireReportOwner(ctx, reportID, callerID); err != nil {
		return nil, err
	}
	counts, err := s.Repo.CountsByType(ctx, reportID)
	if err != nil {
		return nil, err
	}
	out := make(map[MediaType]int, len(AllMediaTypes))
	for _, mt := range AllMediaTypes {
		out[mt] = counts[mt]
	}
	return out, nil
}

// UpdateAttachmentInfo changes title and description only. Fields left nil
// in the patch keep their stored value; an empty patch returns the record
// unchanged.
func (s *Service) UpdateAttachmentInfo(ctx context.Context, id, callerID string, patch InfoPatch) (Attachment, error) {
	if _, err := s.Guard.RequireAttachmentOwner(ctx, id, callerID); err != nil {
		return Attachment{}, err
	}
	if patch.Empty() {
		return s.Repo.GetByID(ctx, id)
	}
	return s.Repo.UpdateInfo(ctx, id, patch, s.Now())
}

// AddAttachmentMedia replaces the binary of an attachment. The new blob is
// stored before the record changes; the previous blob is then removed on a
// best-effort basis. Documents are left untouched.
func (s *Service) AddAttachmentMedia(ctx context.Context, id, callerID string, file *Upload) (Attachment, error) {
	if _, err := s.Guard.RequireAttachmentOwner(ctx, id, callerID); err != nil {
		return Attachment{}, err
	}
	att, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Attachment{}, err
	}
	if !att.MediaType.CarriesMedia() {
		return att, nil
	}
	if file == nil || len(file.Data) == 0 {
		return Attachment{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}

	state, err := s.storeMedia(ctx, callerID, att.MediaType, file)
	if err != nil {
		return Attachment{}, err
	}
	updated, err := s.Repo.SetMedia(ctx, id, state, s.Now())
	if err != nil {
		return Attachment{}, err
	}
	if att.HasMedia() {
		s.deleteBlob(ctx, att.ID, att.MediaURL)
	}
	return updated, nil
}

// RemoveAttachmentMedia drops the binary and resets the URL to NoMediaURL.
// Metadata and location describe the binary, so they are cleared with it.
func (s *Service) RemoveAttachmentMedia(ctx context.Context, id, callerID string) (Attachment, error) {
	if _, err := s.Guard.RequireAttachmentOwner(ctx, id, callerID); err != nil {
		return Attachment{}, err
	}
	att, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Attachment{}, err
	}
	if !att.MediaType.CarriesMedia() {
		return att, nil
	}
	if att.HasMedia() {
		s.deleteBlob(ctx, att.ID, att.MediaURL)
	}
	return s.Repo.SetMedia(ctx, id, MediaState{URL: NoMediaURL}, s.Now())
}

// DeleteAttachment removes the binary on a best-effort basis, then the record.
func (s *Service) DeleteAttachment(ctx context.Context, id, callerID string) error {
	if _, err := s.Guard.RequireAttachmentOwner(ctx, id, callerID); err != nil {
		return err
	}
	att, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if att.HasMedia() {
		s.deleteBlob(ctx, att.ID, att.MediaURL)
	}
	return s.Repo.Delete(ctx, id)
}

// CountByReport is used by the report service to block deletes.
func (s *Service) CountByReport(ctx context.Context, reportID string) (int, error) {
	return s.Repo.CountByReport(ctx, reportID)
}

// storeMedia uploads the binary and derives the metadata and location that
// travel with it. Only pictures take their location from EXIF.
func (s *Service) storeMedia(ctx context.Context, ownerID string, mt MediaType, file *Upload) (MediaState, error) {
	info := media.Inspect(file.Data, file.ContentType)
	url, err := s.upload(ctx, ownerID, mt, file, info.ContentType)
	if err != nil {
		return MediaState{}, err
	}
	state := MediaState{URL: url, Metadata: info.Metadata()}
	state.Metadata["fileName"] = file.Name
	if mt == MediaPicture && info.Location != nil {
		state.Location = info.Location
	}
	return state, nil
}

func (s *Service) upload(ctx context.Context, ownerID string, mt MediaType, file *Upload, contentType string) (string, error) {
	key, err := object.MediaKey(string(mt), ownerID, file.Name, s.Now())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	url, err := s.Store.Put(ctx, key, contentType, bytes.NewReader(file.Data))
	if err != nil {
		metrics.UploadFailuresTotal.Inc()
		telemetry.Error("attachment.upload_failed", map[string]any{
			"media_type": string(mt),
			"key":        key,
			"error":      err.Error(),
		})
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	metrics.AttachmentsUploadedTotal.WithLabelValues(string(mt)).Inc()
	return url, nil
}

// deleteBlob never fails the caller. Failures are logged, counted and handed
// to the cleanup queue when one is configured.
func (s *Service) deleteBlob(ctx context.Context, attachmentID, url string) {
	err := s.Store.Delete(ctx, url)
	if err == nil {
		return
	}
	metrics.BlobDeleteFailuresTotal.Inc()
	fields := map[string]any{
		"attachment_id": attachmentID,
		"media_url":     url,
		"error":         err.Error(),
	}
	if s.Cleanup == nil {
		telemetry.Warn("attachment.blob_delete_failed", fields)
		return
	}
	msg := queue.Message{
		Kind:         queue.KindBlobDelete,
		MediaURL:     url,
		AttachmentID: attachmentID,
		RequestID:    telemetry.RequestIDFromContext(ctx),
		EnqueuedAt:   s.Now().Format(time.RFC3339),
		Version:      queue.MessageVersion,
	}
	if qerr := s.Cleanup.Send(ctx, msg); qerr != nil {
		fields["queue_error"] = qerr.Error()
		telemetry.Error("attachment.blob_cleanup_enqueue_failed", fields)
		return
	}
	fields["enqueued"] = true
	telemetry.Warn("attachment.blob_delete_failed", fields)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
