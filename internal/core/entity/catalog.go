package entity

import (
	"context"
	"strings"

	"fakturo/internal/core/apperror"
)

// Catalog is the base type for reference-data entities (partners, products).
type Catalog struct {
	BaseCatalog

	// Code is a short identifier, unique within the tenant
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// IsActive allows deactivating without deletion
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewCatalog creates a new Catalog entry.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(),
		Code:        code,
		Name:        name,
		IsActive:    true,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
