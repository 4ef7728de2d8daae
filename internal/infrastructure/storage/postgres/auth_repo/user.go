// Package auth_repo provides PostgreSQL implementations for auth
// repositories. User rows are global; tenant access lives in the
// user_tenants membership table.
package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/domain/auth"
	"fakturo/internal/infrastructure/storage/postgres"
)

const userColumns = `id, username, password_hash, role, must_change_password,
	is_active, is_superadmin, partner_id, password_changed_at, last_login_at,
	failed_login_attempts, locked_until, created_at, updated_at, version`

// UserRepo implements auth.UserRepository.
type UserRepo struct{}

// NewUserRepo creates a new user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{}
}

func (r *UserRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var user auth.User
	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Role,
		&user.MustChangePassword, &user.IsActive, &user.IsSuperadmin,
		&user.PartnerID, &user.PasswordChangedAt, &user.LastLoginAt,
		&user.FailedLoginAttempts, &user.LockedUntil,
		&user.CreatedAt, &user.UpdatedAt, &user.Version,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `
		INSERT INTO users (
			id, username, password_hash, role, must_change_password,
			is_active, is_superadmin, partner_id, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := q.Exec(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Role,
		user.MustChangePassword, user.IsActive, user.IsSuperadmin,
		user.PartnerID, user.CreatedAt, user.UpdatedAt, user.Version,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", username)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// Update updates user data with optimistic locking.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `
		UPDATE users SET
			role = $2,
			must_change_password = $3,
			is_active = $4,
			is_superadmin = $5,
			partner_id = $6,
			password_hash = $7,
			password_changed_at = $8,
			last_login_at = $9,
			failed_login_attempts = $10,
			locked_until = $11,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $1 AND version = $12
	`

	result, err := q.Exec(ctx, query,
		user.ID, user.Role, user.MustChangePassword, user.IsActive,
		user.IsSuperadmin, user.PartnerID, user.PasswordHash,
		user.PasswordChangedAt, user.LastLoginAt,
		user.FailedLoginAttempts, user.LockedUntil,
		user.Version,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID)
	}

	user.Version++
	return nil
}

// Delete deactivates a user. Rows are kept for audit history.
func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active = TRUE`
	result, err := q.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}

	return nil
}

// List retrieves users with filtering.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, int, error) {
	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE TRUE`
	countQuery := `SELECT COUNT(*) FROM users WHERE TRUE`

	var args []any
	argIdx := 1

	if filter.Search != "" {
		cond := fmt.Sprintf(" AND username ILIKE $%d", argIdx)
		query += cond
		countQuery += cond
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	if filter.IsActive != nil {
		cond := fmt.Sprintf(" AND is_active = $%d", argIdx)
		query += cond
		countQuery += cond
		args = append(args, *filter.IsActive)
		argIdx++
	}

	if filter.Role != "" {
		cond := fmt.Sprintf(" AND role = $%d", argIdx)
		query += cond
		countQuery += cond
		args = append(args, filter.Role)
		argIdx++
	}

	if filter.TenantID != nil {
		cond := fmt.Sprintf(" AND id IN (SELECT user_id FROM user_tenants WHERE tenant_id = $%d)", argIdx)
		query += cond
		countQuery += cond
		args = append(args, *filter.TenantID)
		argIdx++
	}

	var total int
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query += " ORDER BY username ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	return users, total, nil
}

// Exists checks if a username is taken.
func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := q.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}

	return exists, nil
}

// LoadMemberships loads the user's tenant memberships.
func (r *UserRepo) LoadMemberships(ctx context.Context, userID id.ID) ([]auth.Membership, error) {
	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `
		SELECT id, user_id, tenant_id, role_override, is_default
		FROM user_tenants
		WHERE user_id = $1
		ORDER BY is_default DESC, tenant_id
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []auth.Membership
	for rows.Next() {
		var m auth.Membership
		err := rows.Scan(&m.ID, &m.UserID, &m.TenantID, &m.RoleOverride, &m.IsDefault)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	return memberships, nil
}

// AddMembership grants tenant access, one row per (user, tenant).
func (r *UserRepo) AddMembership(ctx context.Context, m *auth.Membership) error {
	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `
		INSERT INTO user_tenants (id, user_id, tenant_id, role_override, is_default)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, tenant_id)
		DO UPDATE SET role_override = EXCLUDED.role_override, is_default = EXCLUDED.is_default
	`

	_, err := q.Exec(ctx, query, m.ID, m.UserID, m.TenantID, m.RoleOverride, m.IsDefault)
	if err != nil {
		return fmt.Errorf("add membership: %w", err)
	}

	return nil
}

// RemoveMembership revokes tenant access.
func (r *UserRepo) RemoveMembership(ctx context.Context, userID, tenantID id.ID) error {
	q := r.getTxManager(ctx).GetQuerier(ctx)

	query := `DELETE FROM user_tenants WHERE user_id = $1 AND tenant_id = $2`
	if _, err := q.Exec(ctx, query, userID, tenantID); err != nil {
		return fmt.Errorf("remove membership: %w", err)
	}

	return nil
}

var _ auth.UserRepository = (*UserRepo)(nil)
