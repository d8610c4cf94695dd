package export

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"incident-backend/internal/ownership"
	"incident-backend/internal/shared/server/middleware"
	"incident-backend/internal/shared/server/respond"
)

type Handler struct {
	Assembler *Assembler
}

func NewHandler(assembler *Assembler) *Handler {
	return &Handler{Assembler: assembler}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports/:id/export", h.download)
}

func (h *Handler) download(c *gin.Context) {
	reportID := c.Param("id")
	c.Set("reportId", reportID)

	res, err := h.Assembler.Export(c.Request.Context(), reportID, middleware.UserIDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, ownership.ErrUnauthorized):
			if middleware.UserIDFromContext(c) == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
				return
			}
			respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
		case errors.Is(err, ownership.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to export report", nil)
		}
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+res.FileName+"\"")
	c.Header("X-Export-Failed-Media", strconv.Itoa(res.Failed()))
	c.Data(http.StatusOK, "application/zip", res.Data)
}
