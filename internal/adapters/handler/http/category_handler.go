package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/services"
)

type CategoryHandler struct {
	svc *services.CategoryService
}

func NewCategoryHandler(svc *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

func (h *CategoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/categories", h.List)
	r.PUT("/categories", h.Replace)
	r.DELETE("/categories", h.Reset)
}

func (h *CategoryHandler) List(c *gin.Context) {
	presets, err := h.svc.Presets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presets)
}

func (h *CategoryHandler) Replace(c *gin.Context) {
	var presets []domain.CategoryPreset
	if err := c.ShouldBindJSON(&presets); err != nil {
		badRequest(c, err.Error())
		return
	}

	saved, err := h.svc.Replace(c.Request.Context(), presets)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// Reset restores the default presets.
func (h *CategoryHandler) Reset(c *gin.Context) {
	presets, err := h.svc.Reset(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presets)
}
