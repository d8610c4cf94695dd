package attachments

import "errors"

var (
	// ErrUploadFailed is returned when the blob store rejects a binary. No
	// attachment state is changed.
	ErrUploadFailed     = errors.New("upload failed")
	ErrInvalidMediaType = errors.New("invalid media type")
	ErrInvalidInput     = errors.New("invalid input")
)
