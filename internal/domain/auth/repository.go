package auth

import (
	"context"

	"fakturo/internal/core/id"
)

// UserRepository defines user storage operations. Users live in global
// tables, outside tenant scoping.
type UserRepository interface {
	Create(ctx context.Context, user *User) error

	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByUsername retrieves a user by username (globally unique).
	GetByUsername(ctx context.Context, username string) (*User, error)

	Update(ctx context.Context, user *User) error

	// Delete deactivates a user.
	Delete(ctx context.Context, userID id.ID) error

	List(ctx context.Context, filter UserFilter) ([]User, int, error)

	// Exists checks if a username is taken.
	Exists(ctx context.Context, username string) (bool, error)

	// LoadMemberships loads the user's tenant memberships.
	LoadMemberships(ctx context.Context, userID id.ID) ([]Membership, error)

	// AddMembership grants tenant access, one row per (user, tenant).
	AddMembership(ctx context.Context, m *Membership) error

	RemoveMembership(ctx context.Context, userID, tenantID id.ID) error
}

// TokenRepository defines refresh token storage operations.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error

	// GetRefreshToken retrieves a refresh token by hash.
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)

	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error

	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error

	// CleanupExpiredTokens removes expired tokens.
	CleanupExpiredTokens(ctx context.Context) (int, error)
}

// UserFilter for listing users.
type UserFilter struct {
	Search   string
	IsActive *bool
	Role     string
	TenantID *id.ID
	Limit    int
	Offset   int
}
