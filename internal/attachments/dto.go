package attachments

import (
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// AttachmentResponse is the outward-facing representation of an attachment.
// MediaURL is null when the attachment has no binary.
type AttachmentResponse struct {
	ID          string            `json:"id"`
	ReportID    string            `json:"reportId"`
	MediaType   MediaType         `json:"mediaType"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	MediaURL    *string           `json:"mediaUrl"`
	Location    *geojson.Geometry `json:"location"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type updateInfoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func toResponse(att Attachment) AttachmentResponse {
	resp := AttachmentResponse{
		ID:          att.ID,
		ReportID:    att.ReportID,
		MediaType:   att.MediaType,
		Title:       att.Title,
		Description: att.Description,
		Metadata:    att.Metadata,
		CreatedAt:   att.CreatedAt,
		UpdatedAt:   att.UpdatedAt,
	}
	if att.HasMedia() {
		url := att.MediaURL
		resp.MediaURL = &url
	}
	if att.Location != nil {
		resp.Location = att.Location.Geometry()
	}
	return resp
}

func toResponses(list []Attachment) []AttachmentResponse {
	out := make([]AttachmentResponse, 0, len(list))
	for _, att := range list {
		out = append(out, toResponse(att))
	}
	return out
}
