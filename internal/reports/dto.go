package reports

import (
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// ReportResponse is the outward-facing representation of a report.
type ReportResponse struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	Location    *geojson.Geometry `json:"location"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type updateReportRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

func toResponse(report Report) ReportResponse {
	resp := ReportResponse{
		ID:          report.ID,
		UserID:      report.UserID,
		Title:       report.Title,
		Description: report.Description,
		Tags:        report.Tags,
		CreatedAt:   report.CreatedAt,
		UpdatedAt:   report.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if report.Location != nil {
		resp.Location = report.Location.Geometry()
	}
	return resp
}

func toResponses(list []Report) []ReportResponse {
	out := make([]ReportResponse, 0, len(list))
	for _, report := range list {
		out = append(out, toResponse(report))
	}
	return out
}
