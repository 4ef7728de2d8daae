package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/infrastructure/http/v1/dto"
)

// NumberingHandler handles the numbering configuration admin API.
type NumberingHandler struct {
	*BaseHandler
	configs   numbering.ConfigRepository
	sequences numbering.SequenceStore
	engine    *numbering.Engine
}

// NewNumberingHandler creates a new numbering handler.
func NewNumberingHandler(
	base *BaseHandler,
	configs numbering.ConfigRepository,
	sequences numbering.SequenceStore,
	engine *numbering.Engine,
) *NumberingHandler {
	return &NumberingHandler{
		BaseHandler: base,
		configs:     configs,
		sequences:   sequences,
		engine:      engine,
	}
}

// List handles GET /numbering.
func (h *NumberingHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	configs, err := h.configs.List(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.NumberingConfigResponse, len(configs))
	for i, cfg := range configs {
		items[i] = dto.FromNumberingConfig(cfg)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get handles GET /numbering/:entityType.
func (h *NumberingHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	entityType := c.Param("entityType")
	cfg, err := h.configs.FindByEntityType(ctx, entityType)
	if err != nil {
		h.Error(c, err)
		return
	}
	if cfg == nil {
		h.Error(c, apperror.NewNotFound("numbering_config", entityType))
		return
	}

	c.JSON(http.StatusOK, dto.FromNumberingConfig(cfg))
}

// Upsert handles PUT /numbering/:entityType - create or replace the pattern.
func (h *NumberingHandler) Upsert(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpsertNumberingConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg := &numbering.Config{
		EntityType: c.Param("entityType"),
		Pattern:    req.Pattern,
	}
	if err := cfg.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.configs.Upsert(ctx, cfg); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromNumberingConfig(cfg))
}

// Delete handles DELETE /numbering/:entityType. Documents of the type fall
// back to whatever numbering the caller applies when no pattern exists.
func (h *NumberingHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.configs.Delete(ctx, c.Param("entityType")); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ResetSequences handles POST /numbering/:entityType/reset. All counters of
// the entity type restart at 1 on next use. Administrative operation;
// resetting a live series produces duplicate numbers.
func (h *NumberingHandler) ResetSequences(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.sequences.Reset(ctx, c.Param("entityType")); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "sequences reset")
}

// Preview handles POST /numbering/preview - render a pattern without
// consuming a sequence value.
func (h *NumberingHandler) Preview(c *gin.Context) {
	var req dto.PreviewNumberRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if numbering.CounterSegments(numbering.ParsePattern(req.Pattern)) > 1 {
		h.Error(c, apperror.NewValidation("pattern must contain at most one counter tag").
			WithDetail("value", req.Pattern))
		return
	}

	number := h.engine.Preview(req.Pattern, numbering.Request{
		PartnerCode: req.PartnerCode,
		DocType:     req.DocType,
	})

	c.JSON(http.StatusOK, gin.H{"number": number})
}

// RegisterRoutes registers numbering admin routes.
func (h *NumberingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/preview", h.Preview)
	rg.GET("/:entityType", h.Get)
	rg.PUT("/:entityType", h.Upsert)
	rg.DELETE("/:entityType", h.Delete)
	rg.POST("/:entityType/reset", h.ResetSequences)
}
