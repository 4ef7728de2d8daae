// Package partner provides the business partner catalog. Partners are the
// customers that orders, delivery notes and invoices reference. Partners
// sharing a group code are billed together: collective invoicing pulls
// unbilled delivery notes across the whole group.
package partner

import (
	"context"
	"regexp"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/entity"
)

// Pre-compiled regex patterns for validation
var (
	icoRE   = regexp.MustCompile(`^\d{8}$`)
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Partner represents a business partner (customer).
type Partner struct {
	entity.Catalog

	// GroupCode links partners into a billing group. Partners with the
	// same group code are invoiced collectively. Nil means the partner
	// bills alone.
	GroupCode *string `db:"group_code" json:"groupCode,omitempty"`

	// ICO is the company registration number (8 digits)
	ICO *string `db:"ico" json:"ico,omitempty"`

	// DIC is the tax identification number
	DIC *string `db:"dic" json:"dic,omitempty"`

	// ICDPH is the VAT registration number
	ICDPH *string `db:"ic_dph" json:"icdph,omitempty"`

	// BillingAddress is the invoicing address
	BillingAddress *string `db:"billing_address" json:"billingAddress,omitempty"`

	City    *string `db:"city" json:"city,omitempty"`
	Zip     *string `db:"zip" json:"zip,omitempty"`
	Country *string `db:"country" json:"country,omitempty"`

	Email *string `db:"email" json:"email,omitempty"`
	Phone *string `db:"phone" json:"phone,omitempty"`

	// ContactPerson is the primary contact name
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`
}

// NewPartner creates a new Partner with required fields.
func NewPartner(code, name string) *Partner {
	return &Partner{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable interface.
func (p *Partner) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.ICO != nil && *p.ICO != "" && !icoRE.MatchString(*p.ICO) {
		return apperror.NewValidation("invalid ICO format (must be 8 digits)").
			WithDetail("field", "ico").
			WithDetail("value", *p.ICO)
	}

	if p.Email != nil && *p.Email != "" && !emailRE.MatchString(*p.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}

// InGroup reports whether the partner belongs to a billing group.
func (p *Partner) InGroup() bool {
	return p.GroupCode != nil && *p.GroupCode != ""
}
