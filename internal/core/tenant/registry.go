package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"fakturo/internal/core/id"
)

// Registry provides access to tenant metadata. Tenant rows are global,
// never tenant-scoped themselves.
type Registry interface {
	// GetByID retrieves a tenant by ID.
	GetByID(ctx context.Context, tenantID id.ID) (*Tenant, error)

	// GetBySlug retrieves a tenant by its URL slug.
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)

	// ListActive returns all active tenants.
	ListActive(ctx context.Context) ([]*Tenant, error)

	// ListAll returns all tenants.
	ListAll(ctx context.Context) ([]*Tenant, error)

	// Create inserts a new tenant row.
	Create(ctx context.Context, t *Tenant) error

	// Update persists tenant profile fields.
	Update(ctx context.Context, t *Tenant) error

	// SetActive activates or deactivates a tenant.
	SetActive(ctx context.Context, tenantID id.ID, active bool) error
}

// PostgresRegistry implements Registry on the shared database.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

const tenantColumns = `id, name, slug, ico, dic, ic_dph, email, billing_email, is_active, created_at, updated_at`

func (r *PostgresRegistry) GetByID(ctx context.Context, tenantID id.ID) (*Tenant, error) {
	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE id = $1
	`, tenantID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by id: %w", err)
	}
	return &t, nil
}

func (r *PostgresRegistry) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE slug = $1
	`, slug)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by slug: %w", err)
	}
	return &t, nil
}

func (r *PostgresRegistry) ListActive(ctx context.Context) ([]*Tenant, error) {
	var tenants []*Tenant
	err := pgxscan.Select(ctx, r.pool, &tenants, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE is_active = true
		ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return tenants, nil
}

func (r *PostgresRegistry) ListAll(ctx context.Context) ([]*Tenant, error) {
	var tenants []*Tenant
	err := pgxscan.Select(ctx, r.pool, &tenants, `
		SELECT `+tenantColumns+`
		FROM tenants
		ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

func (r *PostgresRegistry) Create(ctx context.Context, t *Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is nil")
	}
	if id.IsNil(t.ID) {
		t.ID = id.New()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, slug, ico, dic, ic_dph, email, billing_email, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, t.ID, t.Name, t.Slug, t.ICO, t.DIC, t.ICDPH, t.Email, t.BillingEmail, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) Update(ctx context.Context, t *Tenant) error {
	t.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants
		SET name = $2, ico = $3, dic = $4, ic_dph = $5, email = $6,
		    billing_email = $7, updated_at = $8
		WHERE id = $1
	`, t.ID, t.Name, t.ICO, t.DIC, t.ICDPH, t.Email, t.BillingEmail, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (r *PostgresRegistry) SetActive(ctx context.Context, tenantID id.ID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants
		SET is_active = $2, updated_at = now()
		WHERE id = $1
	`, tenantID, active)
	if err != nil {
		return fmt.Errorf("set tenant active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

var _ Registry = (*PostgresRegistry)(nil)
