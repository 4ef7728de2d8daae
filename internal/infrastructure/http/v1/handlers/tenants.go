package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/infrastructure/http/v1/dto"
)

// TenantHandler handles the tenant administration API. Superadmin only;
// these routes sit outside the tenant-scoped group.
type TenantHandler struct {
	*BaseHandler
	service *tenant.Service
}

// NewTenantHandler creates a new tenant handler.
func NewTenantHandler(base *BaseHandler, service *tenant.Service) *TenantHandler {
	return &TenantHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Provision handles POST /tenants - create a new tenant.
func (h *TenantHandler) Provision(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ProvisionTenantRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Provision(ctx, tenant.CreateTenantInput{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		h.Error(c, h.mapErr(err))
		return
	}

	c.JSON(http.StatusCreated, dto.FromTenant(t))
}

// List handles GET /tenants.
func (h *TenantHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	includeInactive := c.Query("includeInactive") == "true"
	tenants, err := h.service.List(ctx, includeInactive)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.TenantResponse, len(tenants))
	for i, t := range tenants {
		items[i] = dto.FromTenant(t)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get handles GET /tenants/:id.
func (h *TenantHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	tid, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	t, err := h.service.Get(ctx, tid)
	if err != nil {
		h.Error(c, h.mapErr(err))
		return
	}

	c.JSON(http.StatusOK, dto.FromTenant(t))
}

// Activate handles POST /tenants/:id/activate.
func (h *TenantHandler) Activate(c *gin.Context) {
	h.setActive(c, true, "tenant activated")
}

// Deactivate handles POST /tenants/:id/deactivate. Requests for an inactive
// tenant are refused at the tenant middleware.
func (h *TenantHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false, "tenant deactivated")
}

func (h *TenantHandler) setActive(c *gin.Context, active bool, message string) {
	ctx := c.Request.Context()

	tid, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if active {
		err = h.service.Activate(ctx, tid)
	} else {
		err = h.service.Deactivate(ctx, tid)
	}
	if err != nil {
		h.Error(c, h.mapErr(err))
		return
	}

	h.Success(c, message)
}

// mapErr translates tenant registry sentinels into transport errors.
func (h *TenantHandler) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case apperror.IsAppError(err):
		return err
	case errors.Is(err, tenant.ErrTenantNotFound):
		return apperror.NewNotFound("tenant", "")
	case errors.Is(err, tenant.ErrNameRequired),
		errors.Is(err, tenant.ErrSlugRequired),
		errors.Is(err, tenant.ErrSlugTooLong):
		return apperror.NewValidation(err.Error())
	}
	return err
}

// RegisterRoutes registers tenant admin routes.
func (h *TenantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Provision)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/activate", h.Activate)
	rg.POST("/:id/deactivate", h.Deactivate)
}
