package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	"fakturo/internal/domain/settings"
	"fakturo/internal/infrastructure/http/v1/dto"
)

// SettingsHandler handles the tenant application settings API.
type SettingsHandler struct {
	*BaseHandler
	service *settings.Service
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(base *BaseHandler, service *settings.Service) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /settings.
func (h *SettingsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := h.service.List(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := make([]dto.SettingResponse, len(items))
	for i, s := range items {
		response[i] = dto.FromSetting(s)
	}

	c.JSON(http.StatusOK, gin.H{"items": response})
}

// Get handles GET /settings/:key.
func (h *SettingsHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	key := c.Param("key")
	value, err := h.service.GetString(ctx, key, "")
	if err != nil {
		h.Error(c, err)
		return
	}
	if value == "" {
		h.Error(c, apperror.NewNotFound("setting", key))
		return
	}

	c.JSON(http.StatusOK, dto.SettingResponse{Key: key, Value: value})
}

// Set handles PUT /settings/:key.
func (h *SettingsHandler) Set(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SetSettingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	key := c.Param("key")
	if err := h.service.Set(ctx, key, req.Value); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SettingResponse{Key: key, Value: req.Value})
}

// Delete handles DELETE /settings/:key.
func (h *SettingsHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.service.Delete(ctx, c.Param("key")); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers settings routes.
func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:key", h.Get)
	rg.PUT("/:key", h.Set)
	rg.DELETE("/:key", h.Delete)
}
