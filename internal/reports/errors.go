package reports

import "errors"

var (
	// ErrHasAttachments is returned when deleting or discarding a report that
	// still has attachments.
	ErrHasAttachments = errors.New("report has attachments")
	ErrInvalidInput   = errors.New("invalid input")
)
