package middleware

import (
	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	appctx "fakturo/internal/core/context"
)

// RequirePermission guards a route group with a single permission check.
// Superadmins and holders of manage_all pass implicitly via HasPermission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appctx.GetUser(c.Request.Context()) == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}
		if !appctx.HasPermission(c.Request.Context(), permission) {
			_ = c.Error(apperror.NewForbidden("missing permission: " + permission))
			c.Abort()
			return
		}
		c.Next()
	}
}
