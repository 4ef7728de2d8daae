package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/entity"
	"fakturo/internal/core/id"
	"fakturo/internal/domain"
	"fakturo/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler is the set of endpoints every catalog handler exposes.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// RegisterCatalogRoutes registers the standard CRUD routes for a catalog.
// Reads are open to any tenant member; writes require the given permission.
func RegisterCatalogRoutes(rg *gin.RouterGroup, h CatalogRouteHandler, permission string) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)

	write := middleware.RequirePermission(permission)
	rg.POST("", write, h.Create)
	rg.PUT("/:id", write, h.Update)
	rg.DELETE("/:id", write, h.Delete)
	rg.POST("/:id/deletion-mark", write, h.SetDeletionMark)
}

type identifiable interface {
	entity.Validatable
	GetID() id.ID
}

// registerCatalogAudit hooks catalog lifecycle events into the audit trail.
// Hook errors surface as warnings in the service, never as request failures.
func registerCatalogAudit[T identifiable](hooks *domain.HookRegistry[T], auditor domain.Auditor, entityType string) {
	hooks.OnAfterCreate(func(ctx context.Context, e T) error {
		return auditor.LogChange(ctx, entityType, e.GetID(), domain.AuditCreate, nil)
	})
	hooks.OnAfterUpdate(func(ctx context.Context, e T) error {
		return auditor.LogChange(ctx, entityType, e.GetID(), domain.AuditUpdate, nil)
	})
	hooks.OnAfterDelete(func(ctx context.Context, e T) error {
		return auditor.LogChange(ctx, entityType, e.GetID(), domain.AuditDelete, nil)
	})
}
