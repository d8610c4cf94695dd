package attachments

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"incident-backend/internal/ownership"
	"incident-backend/internal/shared/server/middleware"
	"incident-backend/internal/shared/server/respond"
)

const defaultMaxUploadBytes = 50 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches attachment routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports/:id/attachments", h.list)
	rg.POST("/reports/:id/attachments", h.create)
	rg.GET("/reports/:id/attachments/counts", h.counts)
	rg.GET("/attachments/:id", h.get)
	rg.PATCH("/attachments/:id", h.updateInfo)
	rg.DELETE("/attachments/:id", h.delete)
	rg.PUT("/attachments/:id/media", h.replaceMedia)
	rg.DELETE("/attachments/:id/media", h.removeMedia)
}

func (h *Handler) list(c *gin.Context) {
	reportID := c.Param("id")
	c.Set("reportId", reportID)
	list, err := h.Svc.GetAttachments(c.Request.Context(), reportID, middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to list attachments")
		return
	}
	respond.OK(c, gin.H{"items": toResponses(list)})
}

func (h *Handler) counts(c *gin.Context) {
	reportID := c.Param("id")
	c.Set("reportId", reportID)
	counts, err := h.Svc.GetAttachmentCountsByType(c.Request.Context(), reportID, middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to count attachments")
		return
	}
	respond.OK(c, counts)
}

func (h *Handler) create(c *gin.Context) {
	reportID := c.Param("id")
	c.Set("reportId", reportID)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	mediaType := c.PostForm("mediaType")
	if mediaType == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "mediaType is required", nil)
		return
	}
	file, err := readUpload(c, false)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	att, err := h.Svc.CreateAttachment(c.Request.Context(), reportID, middleware.UserIDFromContext(c), CreateInput{
		MediaType:   MediaType(mediaType),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		File:        file,
	})
	if err != nil {
		writeError(c, err, "failed to create attachment")
		return
	}
	c.Set("attachmentId", att.ID)
	respond.Created(c, toResponse(att))
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("attachmentId", id)
	att, err := h.Svc.GetAttachment(c.Request.Context(), id, middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to load attachment")
		return
	}
	respond.OK(c, toResponse(att))
}

func (h *Handler) updateInfo(c *gin.Context) {
	id := c.Param("id")
	c.Set("attachmentId", id)

	var req updateInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	patch := InfoPatch{Title: req.Title, Description: req.Description}
	if patch.Empty() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "title or description is required", nil)
		return
	}
	att, err := h.Svc.UpdateAttachmentInfo(c.Request.Context(), id, middleware.UserIDFromContext(c), patch)
	if err != nil {
		writeError(c, err, "failed to update attachment")
		return
	}
	respond.OK(c, toResponse(att))
}

func (h *Handler) replaceMedia(c *gin.Context) {
	id := c.Param("id")
	c.Set("attachmentId", id)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	file, err := readUpload(c, true)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	att, err := h.Svc.AddAttachmentMedia(c.Request.Context(), id, middleware.UserIDFromContext(c), file)
	if err != nil {
		writeError(c, err, "failed to replace media")
		return
	}
	respond.OK(c, toResponse(att))
}

func (h *Handler) removeMedia(c *gin.Context) {
	id := c.Param("id")
	c.Set("attachmentId", id)
	att, err := h.Svc.RemoveAttachmentMedia(c.Request.Context(), id, middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to remove media")
		return
	}
	respond.OK(c, toResponse(att))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("attachmentId", id)
	if err := h.Svc.DeleteAttachment(c.Request.Context(), id, middleware.UserIDFromContext(c)); err != nil {
		writeError(c, err, "failed to delete attachment")
		return
	}
	respond.NoContent(c)
}

// readUpload reads the optional "file" form field into memory.
func readUpload(c *gin.Context, required bool) (*Upload, error) {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && !required {
			return nil, nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errors.New("file too large")
		}
		return nil, errors.New("file is required")
	}
	return readFileHeader(header)
}

func readFileHeader(header *multipart.FileHeader) (*Upload, error) {
	f, err := header.Open()
	if err != nil {
		return nil, errors.New("unable to read file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.New("unable to read file")
	}
	return &Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
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
		respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, ErrUploadFailed):
		respond.Error(c, http.StatusBadGateway, "upload_failed", "media upload failed", nil)
	case errors.Is(err, ErrInvalidMediaType), errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
