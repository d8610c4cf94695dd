package reports

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"incident-backend/internal/geo"
	"incident-backend/internal/ownership"
	"incident-backend/internal/shared/server/middleware"
	"incident-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches report routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reports", h.create)
	rg.GET("/reports", h.list)
	rg.GET("/tags/recent", h.recentTags)
	rg.GET("/reports/:id", h.get)
	rg.PUT("/reports/:id", h.update)
	rg.DELETE("/reports/:id", h.delete)
	rg.PUT("/reports/:id/location", h.setLocation)
	rg.POST("/reports/:id/discard", h.discard)
}

func (h *Handler) create(c *gin.Context) {
	id, err := h.Svc.CreateEmptyReport(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to create report")
		return
	}
	c.Set("reportId", id)
	respond.Created(c, gin.H{"id": id})
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.SearchReports(c.Request.Context(), middleware.UserIDFromContext(c), SearchInput{
		Query: c.Query("q"),
		Tag:   c.Query("tag"),
	})
	if err != nil {
		writeError(c, err, "failed to list reports")
		return
	}
	respond.OK(c, gin.H{"items": toResponses(list)})
}

func (h *Handler) recentTags(c *gin.Context) {
	tags, err := h.Svc.GetRecentTags(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to load recent tags")
		return
	}
	respond.OK(c, gin.H{"tags": tags})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("reportId", id)
	report, err := h.Svc.GetReport(c.Request.Context(), id, middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to load report")
		return
	}
	respond.OK(c, toResponse(report))
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	c.Set("reportId", id)

	var req updateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Title == nil || req.Description == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "title and description are required", nil)
		return
	}

	report, err := h.Svc.UpdateReport(c.Request.Context(), id, middleware.UserIDFromContext(c), UpdateInput{
		Title:       *req.Title,
		Description: *req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(c, err, "failed to update report")
		return
	}
	respond.OK(c, toResponse(report))
}

func (h *Handler) setLocation(c *gin.Context) {
	id := c.Param("id")
	c.Set("reportId", id)

	loc, err := readLocation(c.Request.Body)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	report, err := h.Svc.SetLocation(c.Request.Context(), id, middleware.UserIDFromContext(c), loc)
	if err != nil {
		writeError(c, err, "failed to set location")
		return
	}
	respond.OK(c, toResponse(report))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("reportId", id)
	if err := h.Svc.DeleteReport(c.Request.Context(), id, middleware.UserIDFromContext(c)); err != nil {
		writeError(c, err, "failed to delete report")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) discard(c *gin.Context) {
	id := c.Param("id")
	c.Set("reportId", id)
	discarded, err := h.Svc.DiscardEmptyReport(c.Request.Context(), id, middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to discard report")
		return
	}
	respond.OK(c, gin.H{"discarded": discarded})
}

// readLocation decodes a body of the form {"location": <GeoJSON Point|null>}.
func readLocation(body io.Reader) (*geo.Point, error) {
	var req struct {
		Location json.RawMessage `json:"location"`
	}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, errors.New("invalid request body")
	}
	raw := bytes.TrimSpace(req.Location)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, errors.New("location must be a GeoJSON Point")
	}
	p, err := geo.FromGeometry(g)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ownership.ErrUnauthorized):
		if middleware.UserIDFromContext(c) == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
	case errors.Is(err, ownership.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
	case errors.Is(err, ErrHasAttachments):
		respond.Error(c, http.StatusConflict, "has_attachments", "report still has attachments", nil)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, geo.ErrInvalidPoint):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
