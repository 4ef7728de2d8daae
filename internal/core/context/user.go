// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains authenticated user information.
type UserContext struct {
	UserID       string
	Username     string
	Role         string
	Permissions  []string
	TenantIDs    []string // Tenants the user is a member of
	IsSuperadmin bool
	SessionID    string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasPermission checks if the user holds a permission. Superadmins and holders
// of "manage_all" pass every check.
func HasPermission(ctx context.Context, perm string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	if u.IsSuperadmin {
		return true
	}
	for _, p := range u.Permissions {
		if p == perm || p == "manage_all" {
			return true
		}
	}
	return false
}

// IsMemberOf checks if the user belongs to the given tenant.
func IsMemberOf(ctx context.Context, tenantID string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	if u.IsSuperadmin {
		return true
	}
	for _, id := range u.TenantIDs {
		if id == tenantID {
			return true
		}
	}
	return false
}
