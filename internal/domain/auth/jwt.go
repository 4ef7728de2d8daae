package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "fakturo/internal/core/context"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "fakturo",
		AccessTokenTTL: 15 * time.Minute,
	}
}

// Claims represents JWT claims. The token carries the user's identity and
// memberships; the active tenant is chosen per request via header, never
// baked into the token.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string   `json:"uid"`
	Username     string   `json:"name"`
	Role         string   `json:"role"`
	Permissions  []string `json:"perms,omitempty"`
	TenantIDs    []string `json:"tenants,omitempty"`
	IsSuperadmin bool     `json:"sadm,omitempty"`
	SessionID    string   `json:"sid,omitempty"`
}

// JWTService handles JWT operations.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// GenerateAccessToken generates a new access token for the user.
func (s *JWTService) GenerateAccessToken(user *User, sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:       user.ID.String(),
		Username:     user.Username,
		Role:         user.Role,
		Permissions:  PermissionsFor(user.Role, user.IsSuperadmin),
		TenantIDs:    user.TenantIDs(),
		IsSuperadmin: user.IsSuperadmin,
		SessionID:    sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT and returns the user context.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &appctx.UserContext{
		UserID:       claims.UserID,
		Username:     claims.Username,
		Role:         claims.Role,
		Permissions:  claims.Permissions,
		TenantIDs:    claims.TenantIDs,
		IsSuperadmin: claims.IsSuperadmin,
		SessionID:    claims.SessionID,
	}, nil
}
