package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakturo/internal/core/id"
)

func TestPermissionsFor(t *testing.T) {
	assert.Equal(t, []string{PermManageAll}, PermissionsFor(RoleAdmin, false))
	assert.Equal(t, []string{PermManageDelivery}, PermissionsFor(RoleCollector, false))
	assert.Contains(t, PermissionsFor(RoleCustomer, true), PermManageAll)
	assert.Empty(t, PermissionsFor("unknown", false))

	// PermissionsFor must not alias the shared role map.
	perms := PermissionsFor(RoleOperator, false)
	perms[0] = "mutated"
	assert.Equal(t, PermManagePartners, RolePermissions[RoleOperator][0])
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleOperator))
	assert.False(t, ValidRole("superuser"))
	assert.False(t, ValidRole(""))
}

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	tenantID := id.New()
	user := NewUser("jana", "hash")
	user.Role = RoleOperator
	user.Memberships = []Membership{{ID: id.New(), UserID: user.ID, TenantID: tenantID}}

	token, expiresAt, err := svc.GenerateAccessToken(user, "sess-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, "jana", uc.Username)
	assert.Equal(t, RoleOperator, uc.Role)
	assert.Equal(t, []string{tenantID.String()}, uc.TenantIDs)
	assert.Equal(t, "sess-1", uc.SessionID)
	assert.False(t, uc.IsSuperadmin)
	assert.Contains(t, uc.Permissions, PermManageOrders)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	user := NewUser("jana", "hash")
	user.Role = RoleAdmin

	token, _, err := NewJWTService(DefaultJWTConfig("secret-a")).GenerateAccessToken(user, "")
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("secret-b")).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	cfg := DefaultJWTConfig("secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	user := NewUser("jana", "hash")
	user.Role = RoleAdmin

	token, _, err := svc.GenerateAccessToken(user, "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestUserLockout(t *testing.T) {
	user := NewUser("jana", "hash")
	require.False(t, user.IsLocked())

	for i := 0; i < 4; i++ {
		user.RecordFailedLogin(5, 15*time.Minute)
	}
	assert.False(t, user.IsLocked())

	user.RecordFailedLogin(5, 15*time.Minute)
	assert.True(t, user.IsLocked())

	user.RecordSuccessfulLogin()
	assert.False(t, user.IsLocked())
	assert.Zero(t, user.FailedLoginAttempts)
}

func TestEffectiveRole(t *testing.T) {
	tenantA := id.New()
	tenantB := id.New()
	override := RoleCollector

	user := NewUser("jana", "hash")
	user.Role = RoleOperator
	user.Memberships = []Membership{
		{TenantID: tenantA, RoleOverride: &override},
		{TenantID: tenantB},
	}

	assert.Equal(t, RoleCollector, user.EffectiveRole(tenantA))
	assert.Equal(t, RoleOperator, user.EffectiveRole(tenantB))
	assert.True(t, user.IsMemberOf(tenantA))
	assert.False(t, user.IsMemberOf(id.New()))
}
