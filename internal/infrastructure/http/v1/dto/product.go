package dto

import (
	"fakturo/internal/core/entity"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/product"
)

// --- Product ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Code             string       `json:"code"`
	Name             string       `json:"name" binding:"required"`
	Description      *string      `json:"description"`
	LongText         *string      `json:"longText"`
	Price            types.Money  `json:"price"`
	VATRate          *types.Money `json:"vatRate"`
	IsService        *bool        `json:"isService"`
	DiscountExcluded bool         `json:"discountExcluded"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.Code, r.Name, r.Price)
	p.Description = r.Description
	p.LongText = r.LongText
	if r.VATRate != nil {
		p.VATRate = *r.VATRate
	}
	if r.IsService != nil {
		p.IsService = *r.IsService
	}
	p.DiscountExcluded = r.DiscountExcluded
	return p
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Code             string      `json:"code"`
	Name             string      `json:"name" binding:"required"`
	Description      *string     `json:"description"`
	LongText         *string     `json:"longText"`
	Price            types.Money `json:"price"`
	VATRate          types.Money `json:"vatRate"`
	IsService        bool        `json:"isService"`
	DiscountExcluded bool        `json:"discountExcluded"`
	IsActive         *bool       `json:"isActive"`
	Version          int         `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Code = r.Code
	p.Name = r.Name
	p.Description = r.Description
	p.LongText = r.LongText
	p.Price = r.Price
	p.VATRate = r.VATRate
	p.IsService = r.IsService
	p.DiscountExcluded = r.DiscountExcluded
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	p.Version = r.Version
}

// ProductResponse is the response body for a product.
type ProductResponse struct {
	CatalogResponse
	Number           string      `json:"number,omitempty"`
	Description      *string     `json:"description,omitempty"`
	LongText         *string     `json:"longText,omitempty"`
	Price            types.Money `json:"price"`
	VATRate          types.Money `json:"vatRate"`
	IsService        bool        `json:"isService"`
	DiscountExcluded bool        `json:"discountExcluded"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		CatalogResponse:  FromCatalog(p.Catalog),
		Number:           p.Number,
		Description:      p.Description,
		LongText:         p.LongText,
		Price:            p.Price,
		VATRate:          p.VATRate,
		IsService:        p.IsService,
		DiscountExcluded: p.DiscountExcluded,
	}
}

// --- Bundle ---

// BundleItemRequest is one component line in a bundle request.
type BundleItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

// ToEntity converts the component line, reporting a parse failure via ok.
func (r *BundleItemRequest) ToEntity() (product.BundleItem, bool) {
	pid, err := id.Parse(r.ProductID)
	if err != nil {
		return product.BundleItem{}, false
	}
	return product.BundleItem{
		BaseEntity: entity.NewBaseEntity(),
		ProductID:  pid,
		Quantity:   r.Quantity,
	}, true
}

// CreateBundleRequest is the request body for creating a bundle.
type CreateBundleRequest struct {
	Code             string              `json:"code"`
	Name             string              `json:"name" binding:"required"`
	Price            types.Money         `json:"price"`
	DiscountExcluded bool                `json:"discountExcluded"`
	Items            []BundleItemRequest `json:"items"`
}

// ToEntity converts DTO to domain entity. Returns false when an item
// carries an unparseable product id.
func (r *CreateBundleRequest) ToEntity() (*product.Bundle, bool) {
	b := product.NewBundle(r.Code, r.Name, r.Price)
	b.DiscountExcluded = r.DiscountExcluded
	for _, item := range r.Items {
		bi, ok := item.ToEntity()
		if !ok {
			return nil, false
		}
		b.Items = append(b.Items, bi)
	}
	return b, true
}

// UpdateBundleRequest is the request body for updating a bundle.
type UpdateBundleRequest struct {
	Code             string              `json:"code"`
	Name             string              `json:"name" binding:"required"`
	Price            types.Money         `json:"price"`
	DiscountExcluded bool                `json:"discountExcluded"`
	IsActive         *bool               `json:"isActive"`
	Items            []BundleItemRequest `json:"items"`
	Version          int                 `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity. Returns false when an
// item carries an unparseable product id.
func (r *UpdateBundleRequest) ApplyTo(b *product.Bundle) bool {
	b.Code = r.Code
	b.Name = r.Name
	b.Price = r.Price
	b.DiscountExcluded = r.DiscountExcluded
	if r.IsActive != nil {
		b.IsActive = *r.IsActive
	}
	b.Version = r.Version

	b.Items = b.Items[:0]
	for _, item := range r.Items {
		bi, ok := item.ToEntity()
		if !ok {
			return false
		}
		b.Items = append(b.Items, bi)
	}
	return true
}

// BundleItemResponse is one component line in a bundle response.
type BundleItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// BundleResponse is the response body for a bundle.
type BundleResponse struct {
	CatalogResponse
	Number           string               `json:"number,omitempty"`
	Price            types.Money          `json:"price"`
	DiscountExcluded bool                 `json:"discountExcluded"`
	Items            []BundleItemResponse `json:"items"`
}

// FromBundle creates response DTO from domain entity.
func FromBundle(b *product.Bundle) *BundleResponse {
	items := make([]BundleItemResponse, len(b.Items))
	for i, it := range b.Items {
		items[i] = BundleItemResponse{
			ID:        it.ID.String(),
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
		}
	}
	return &BundleResponse{
		CatalogResponse:  FromCatalog(b.Catalog),
		Number:           b.Number,
		Price:            b.Price,
		DiscountExcluded: b.DiscountExcluded,
		Items:            items,
	}
}
