package dto

import (
	"time"

	"fakturo/internal/core/tenant"
)

// ProvisionTenantRequest creates a new tenant.
type ProvisionTenantRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// TenantResponse is the response body for a tenant.
type TenantResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	ICO          *string   `json:"ico,omitempty"`
	DIC          *string   `json:"dic,omitempty"`
	ICDPH        *string   `json:"icdph,omitempty"`
	Email        *string   `json:"email,omitempty"`
	BillingEmail *string   `json:"billingEmail,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromTenant creates response DTO from domain entity.
func FromTenant(t *tenant.Tenant) *TenantResponse {
	return &TenantResponse{
		ID:           t.ID.String(),
		Name:         t.Name,
		Slug:         t.Slug,
		ICO:          t.ICO,
		DIC:          t.DIC,
		ICDPH:        t.ICDPH,
		Email:        t.Email,
		BillingEmail: t.BillingEmail,
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt,
	}
}
