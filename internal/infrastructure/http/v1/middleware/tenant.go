package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	appctx "fakturo/internal/core/context"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/tx"
)

// HeaderTenantID selects the active tenant for the request. Required on
// every tenant-scoped route.
const HeaderTenantID = "X-Tenant-ID"

// Tenant resolves the X-Tenant-ID header into the active tenant and stores
// it in the request context. Must run after Auth: the requested tenant is
// checked against the authenticated user's memberships before any data
// access happens. The shared TxManager is attached alongside the tenant so
// services can open transactions without plumbing it explicitly.
func Tenant(svc *tenant.Service, txm tx.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderTenantID)
		if raw == "" {
			_ = c.Error(apperror.NewNoTenantSelected())
			c.Abort()
			return
		}

		tid, err := id.Parse(raw)
		if err != nil {
			_ = c.Error(apperror.NewValidation("invalid tenant id").WithDetail("header", HeaderTenantID))
			c.Abort()
			return
		}

		if appctx.GetUser(c.Request.Context()) == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if !appctx.IsMemberOf(c.Request.Context(), tid.String()) {
			_ = c.Error(apperror.NewForbidden("not a member of the requested tenant"))
			c.Abort()
			return
		}

		t, err := svc.Resolve(c.Request.Context(), tid)
		if err != nil {
			switch {
			case errors.Is(err, tenant.ErrTenantNotFound):
				_ = c.Error(apperror.NewNotFound("tenant", tid.String()))
			case errors.Is(err, tenant.ErrTenantNotActive):
				_ = c.Error(apperror.NewForbidden("tenant is not active"))
			default:
				_ = c.Error(err)
			}
			c.Abort()
			return
		}

		ctx := tenant.WithTenant(c.Request.Context(), t)
		ctx = tenant.WithTxManager(ctx, txm)
		c.Request = c.Request.WithContext(ctx)

		c.Set("tenant_id", t.ID.String())

		c.Next()
	}
}
