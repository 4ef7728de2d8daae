package tenant

import "errors"

// Errors for tenant resolution and input validation.
var (
	// ErrNoTenant means a tenant-scoped operation ran without an active
	// tenant in context. Programming error in the calling layer.
	ErrNoTenant = errors.New("no tenant selected")

	ErrNoTxManager = errors.New("transaction manager not found in context")

	ErrTenantNotFound  = errors.New("tenant not found")
	ErrTenantNotActive = errors.New("tenant is not active")

	ErrNameRequired = errors.New("name is required")
	ErrSlugRequired = errors.New("slug is required")
	ErrSlugTooLong  = errors.New("slug must be 60 characters or less")
)
