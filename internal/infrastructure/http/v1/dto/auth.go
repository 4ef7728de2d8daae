package dto

import (
	"time"

	"fakturo/internal/domain/auth"
)

// --- Request DTOs ---

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts DTO to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{
		Username: r.Username,
		Password: r.Password,
	}
}

// RefreshTokenRequest is the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ChangePasswordRequest is the request body for password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// CreateUserRequest is the request body for admin user creation.
type CreateUserRequest struct {
	Username  string   `json:"username" binding:"required"`
	Password  string   `json:"password" binding:"required"`
	Role      string   `json:"role"`
	TenantIDs []string `json:"tenantIds"`
}

// GrantTenantRequest grants a user access to a tenant.
type GrantTenantRequest struct {
	TenantID     string  `json:"tenantId" binding:"required"`
	RoleOverride *string `json:"roleOverride"`
}

// --- Response DTOs ---

// TokenPairResponse carries the issued token pair.
type TokenPairResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// FromTokenPair creates response DTO from domain token pair.
func FromTokenPair(t *auth.TokenPair) TokenPairResponse {
	return TokenPairResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.ExpiresAt,
		TokenType:    t.TokenType,
	}
}

// MembershipResponse is one tenant membership of a user.
type MembershipResponse struct {
	TenantID     string  `json:"tenantId"`
	RoleOverride *string `json:"roleOverride,omitempty"`
	IsDefault    bool    `json:"isDefault"`
}

// UserResponse is the response body for a user.
type UserResponse struct {
	ID           string               `json:"id"`
	Username     string               `json:"username"`
	Role         string               `json:"role"`
	IsActive     bool                 `json:"isActive"`
	IsSuperadmin bool                 `json:"isSuperadmin"`
	LastLoginAt  *time.Time           `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	Memberships  []MembershipResponse `json:"memberships,omitempty"`
}

// FromUser creates response DTO from domain entity.
func FromUser(u *auth.User) *UserResponse {
	memberships := make([]MembershipResponse, len(u.Memberships))
	for i, m := range u.Memberships {
		memberships[i] = MembershipResponse{
			TenantID:     m.TenantID.String(),
			RoleOverride: m.RoleOverride,
			IsDefault:    m.IsDefault,
		}
	}
	return &UserResponse{
		ID:           u.ID.String(),
		Username:     u.Username,
		Role:         u.Role,
		IsActive:     u.IsActive,
		IsSuperadmin: u.IsSuperadmin,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		Memberships:  memberships,
	}
}

// LoginResponse combines tokens and user info.
type LoginResponse struct {
	Tokens TokenPairResponse `json:"tokens"`
	User   *UserResponse     `json:"user"`
}
