package attachments

import (
	"fmt"
	"strings"
	"time"

	"incident-backend/internal/geo"
)

// MediaType classifies an attachment. It never changes after creation.
type MediaType string

const (
	MediaPicture  MediaType = "picture"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaSketch   MediaType = "sketch"
	MediaDocument MediaType = "document"
)

// AllMediaTypes lists every media type in display order.
var AllMediaTypes = []MediaType{MediaPicture, MediaVideo, MediaAudio, MediaSketch, MediaDocument}

// ParseMediaType validates a media type name.
func ParseMediaType(s string) (MediaType, error) {
	mt := MediaType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllMediaTypes {
		if mt == known {
			return mt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMediaType, s)
}

// CarriesMedia reports whether attachments of this type store a binary.
// Documents are text-only.
func (m MediaType) CarriesMedia() bool {
	return m != MediaDocument
}

// IsImage reports whether the binary is rendered as an image.
func (m MediaType) IsImage() bool {
	return m == MediaPicture || m == MediaSketch
}

const (
	// NoMediaURL is stored in media_url when the attachment has no binary.
	NoMediaURL = "null"

	DefaultTitle       = "Untitled Attachment"
	DefaultDescription = "No description"
)

// Attachment is a piece of media or text belonging to one report.
type Attachment struct {
	ID          string
	ReportID    string
	MediaType   MediaType
	Title       string
	Description string
	MediaURL    string
	Location    *geo.Point
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasMedia reports whether MediaURL references a stored blob.
func (a Attachment) HasMedia() bool {
	return a.MediaURL != "" && a.MediaURL != NoMediaURL
}

// Upload is a binary received from the client.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateInput describes a new attachment.
type CreateInput struct {
	MediaType   MediaType
	Title       string
	Description string
	File        *Upload
}

// InfoPatch carries the fields of an info update. Nil fields keep their
// stored value.
type InfoPatch struct {
	Title       *string
	Description *string
}

// Empty reports whether the patch changes nothing.
func (p InfoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil
}

// MediaState is the blob-derived part of an attachment, replaced as a unit
// whenever the binary changes.
type MediaState struct {
	URL      string
	Metadata map[string]any
	Location *geo.Point
}
