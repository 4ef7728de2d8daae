// Package auth provides authentication and authorization domain logic.
// Users are global; tenant access goes through memberships, which may
// override the user's role per tenant. Permissions derive from a fixed
// role map, not from per-user grants.
package auth

import (
	"context"
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
)

// Roles.
const (
	RoleAdmin     = "admin"
	RoleOperator  = "operator"
	RoleCollector = "collector"
	RoleCustomer  = "customer"
)

// Permissions.
const (
	PermManageAll      = "manage_all"
	PermManagePartners = "manage_partners"
	PermManageOrders   = "manage_orders"
	PermManageDelivery = "manage_delivery"
	PermManageInvoices = "manage_invoices"
	PermViewOwn        = "view_own"
)

// RolePermissions maps each role to its permission set.
var RolePermissions = map[string][]string{
	RoleAdmin:     {PermManageAll},
	RoleOperator:  {PermManagePartners, PermManageOrders, PermManageDelivery, PermManageInvoices},
	RoleCollector: {PermManageDelivery},
	RoleCustomer:  {PermViewOwn},
}

// ValidRole reports whether the role is known.
func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// PermissionsFor returns the permission set for a role. Superadmins
// additionally hold manage_all regardless of role.
func PermissionsFor(role string, isSuperadmin bool) []string {
	perms := append([]string(nil), RolePermissions[role]...)
	if isSuperadmin {
		perms = append(perms, PermManageAll)
	}
	return perms
}

// User represents a system user. Users are global rows, not tenant-scoped;
// tenant access is granted through memberships.
type User struct {
	ID                  id.ID      `db:"id" json:"id"`
	Username            string     `db:"username" json:"username"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Role                string     `db:"role" json:"role"`
	MustChangePassword  bool       `db:"must_change_password" json:"mustChangePassword"`
	IsActive            bool       `db:"is_active" json:"isActive"`
	IsSuperadmin        bool       `db:"is_superadmin" json:"isSuperadmin"`
	PartnerID           *id.ID     `db:"partner_id" json:"partnerId,omitempty"`
	PasswordChangedAt   *time.Time `db:"password_changed_at" json:"-"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
	Version             int        `db:"version" json:"version"`

	// Loaded relations
	Memberships []Membership `db:"-" json:"memberships,omitempty"`
}

// NewUser creates a new user with the operator role.
func NewUser(username, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         RoleOperator,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// Validate validates user data.
func (u *User) Validate(_ context.Context) error {
	if u.Username == "" {
		return apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if !ValidRole(u.Role) {
		return apperror.NewValidation("invalid role").
			WithDetail("field", "role").
			WithDetail("value", u.Role)
	}
	return nil
}

// IsLocked returns true if the account is locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks if the user can log in.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments the failed login counter.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets the failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now()
	u.LastLoginAt = &now
}

// EffectiveRole returns the user's role within a tenant, honoring the
// membership's role override.
func (u *User) EffectiveRole(tenantID id.ID) string {
	for _, m := range u.Memberships {
		if m.TenantID == tenantID && m.RoleOverride != nil && *m.RoleOverride != "" {
			return *m.RoleOverride
		}
	}
	return u.Role
}

// TenantIDs returns the tenants the user can act in.
func (u *User) TenantIDs() []string {
	ids := make([]string, 0, len(u.Memberships))
	for _, m := range u.Memberships {
		ids = append(ids, m.TenantID.String())
	}
	return ids
}

// IsMemberOf reports whether the user has a membership in the tenant.
// Superadmins pass regardless.
func (u *User) IsMemberOf(tenantID id.ID) bool {
	if u.IsSuperadmin {
		return true
	}
	for _, m := range u.Memberships {
		if m.TenantID == tenantID {
			return true
		}
	}
	return false
}

// Membership connects a user to a tenant, at most one row per pair.
type Membership struct {
	ID       id.ID `db:"id" json:"id"`
	UserID   id.ID `db:"user_id" json:"userId"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	// RoleOverride replaces the user's global role within this tenant
	RoleOverride *string `db:"role_override" json:"roleOverride,omitempty"`

	// IsDefault marks the tenant preselected after login
	IsDefault bool `db:"is_default" json:"isDefault"`
}

// RefreshToken represents a refresh token for JWT refresh.
type RefreshToken struct {
	ID            id.ID      `db:"id"`
	UserID        id.ID      `db:"user_id"`
	TokenHash     string     `db:"token_hash"`
	ExpiresAt     time.Time  `db:"expires_at"`
	CreatedAt     time.Time  `db:"created_at"`
	RevokedAt     *time.Time `db:"revoked_at"`
	RevokedReason string     `db:"revoked_reason"`
	UserAgent     string     `db:"user_agent"`
	IPAddress     string     `db:"ip_address"`
}

// IsValid checks if the refresh token is valid.
func (t *RefreshToken) IsValid() bool {
	if t.RevokedAt != nil {
		return false
	}
	return time.Now().Before(t.ExpiresAt)
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// Credentials for login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUserRequest for admin user creation.
type CreateUserRequest struct {
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	Role      string  `json:"role"`
	TenantIDs []id.ID `json:"tenantIds,omitempty"`
}
