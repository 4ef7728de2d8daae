package dto

import (
	"fakturo/internal/domain/partner"
)

// --- Request DTOs ---

// CreatePartnerRequest is the request body for creating a partner.
type CreatePartnerRequest struct {
	Code           string  `json:"code"`
	Name           string  `json:"name" binding:"required"`
	GroupCode      *string `json:"groupCode"`
	ICO            *string `json:"ico"`
	DIC            *string `json:"dic"`
	ICDPH          *string `json:"icdph"`
	BillingAddress *string `json:"billingAddress"`
	City           *string `json:"city"`
	Zip            *string `json:"zip"`
	Country        *string `json:"country"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	ContactPerson  *string `json:"contactPerson"`
}

// ToEntity converts DTO to domain entity.
func (r *CreatePartnerRequest) ToEntity() *partner.Partner {
	p := partner.NewPartner(r.Code, r.Name)
	p.GroupCode = r.GroupCode
	p.ICO = r.ICO
	p.DIC = r.DIC
	p.ICDPH = r.ICDPH
	p.BillingAddress = r.BillingAddress
	p.City = r.City
	p.Zip = r.Zip
	p.Country = r.Country
	p.Email = r.Email
	p.Phone = r.Phone
	p.ContactPerson = r.ContactPerson
	return p
}

// UpdatePartnerRequest is the request body for updating a partner.
type UpdatePartnerRequest struct {
	Code           string  `json:"code"`
	Name           string  `json:"name" binding:"required"`
	GroupCode      *string `json:"groupCode"`
	ICO            *string `json:"ico"`
	DIC            *string `json:"dic"`
	ICDPH          *string `json:"icdph"`
	BillingAddress *string `json:"billingAddress"`
	City           *string `json:"city"`
	Zip            *string `json:"zip"`
	Country        *string `json:"country"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	ContactPerson  *string `json:"contactPerson"`
	IsActive       *bool   `json:"isActive"`
	Version        int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdatePartnerRequest) ApplyTo(p *partner.Partner) {
	p.Code = r.Code
	p.Name = r.Name
	p.GroupCode = r.GroupCode
	p.ICO = r.ICO
	p.DIC = r.DIC
	p.ICDPH = r.ICDPH
	p.BillingAddress = r.BillingAddress
	p.City = r.City
	p.Zip = r.Zip
	p.Country = r.Country
	p.Email = r.Email
	p.Phone = r.Phone
	p.ContactPerson = r.ContactPerson
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	p.Version = r.Version
}

// --- Response DTOs ---

// PartnerResponse is the response body for a partner.
type PartnerResponse struct {
	CatalogResponse
	GroupCode      *string `json:"groupCode,omitempty"`
	ICO            *string `json:"ico,omitempty"`
	DIC            *string `json:"dic,omitempty"`
	ICDPH          *string `json:"icdph,omitempty"`
	BillingAddress *string `json:"billingAddress,omitempty"`
	City           *string `json:"city,omitempty"`
	Zip            *string `json:"zip,omitempty"`
	Country        *string `json:"country,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	ContactPerson  *string `json:"contactPerson,omitempty"`
}

// FromPartner creates response DTO from domain entity.
func FromPartner(p *partner.Partner) *PartnerResponse {
	return &PartnerResponse{
		CatalogResponse: FromCatalog(p.Catalog),
		GroupCode:       p.GroupCode,
		ICO:             p.ICO,
		DIC:             p.DIC,
		ICDPH:           p.ICDPH,
		BillingAddress:  p.BillingAddress,
		City:            p.City,
		Zip:             p.Zip,
		Country:         p.Country,
		Email:           p.Email,
		Phone:           p.Phone,
		ContactPerson:   p.ContactPerson,
	}
}
