// Package tenant provides the active-tenant context for row-level multi-tenancy.
// All tenants share one database; every tenant-scoped row carries a tenant_id
// and every read/write is gated on the tenant resolved for the request.
package tenant

import (
	"strings"
	"time"

	"fakturo/internal/core/id"
)

// Tenant represents an isolated customer organization.
type Tenant struct {
	ID           id.ID     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	ICO          *string   `db:"ico" json:"ico,omitempty"`
	DIC          *string   `db:"dic" json:"dic,omitempty"`
	ICDPH        *string   `db:"ic_dph" json:"icDph,omitempty"`
	Email        *string   `db:"email" json:"email,omitempty"`
	BillingEmail *string   `db:"billing_email" json:"billingEmail,omitempty"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// CreateTenantInput contains data for creating a new tenant.
type CreateTenantInput struct {
	Name string
	Slug string
}

// Validate checks if input is valid.
func (i *CreateTenantInput) Validate() error {
	if i.Name == "" {
		return ErrNameRequired
	}
	i.Slug = strings.ToLower(strings.TrimSpace(i.Slug))
	if i.Slug == "" {
		return ErrSlugRequired
	}
	if len(i.Slug) > 60 {
		return ErrSlugTooLong
	}
	return nil
}
