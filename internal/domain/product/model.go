// Package product provides the product and bundle catalogs. Products carry
// the unit price and VAT rate that invoicing falls back to; bundles are
// fixed-price sets of products that delivery notes expand into components.
package product

import (
	"context"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/entity"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
)

// DefaultVATRate applies when a product does not override it.
var DefaultVATRate = types.MustMoney("20")

// Numbering config keys for catalog numbers.
const (
	EntityType       = "product"
	BundleEntityType = "bundle"
)

// Product represents a sellable item or service.
type Product struct {
	entity.Catalog

	// Number is assigned from the tenant's product pattern on create.
	// Empty when numbering is not configured.
	Number string `db:"number" json:"number"`

	Description *string `db:"description" json:"description,omitempty"`
	LongText    *string `db:"long_text" json:"longText,omitempty"`

	// Price is the unit price, net of VAT
	Price types.Money `db:"price" json:"price"`

	// VATRate is the VAT percentage applied to this product
	VATRate types.Money `db:"vat_rate" json:"vatRate"`

	// IsService distinguishes services from goods
	IsService bool `db:"is_service" json:"isService"`

	// DiscountExcluded exempts the product from partner discounts
	DiscountExcluded bool `db:"discount_excluded" json:"discountExcluded"`
}

// NewProduct creates a new Product with the default VAT rate.
func NewProduct(code, name string, price types.Money) *Product {
	return &Product{
		Catalog:   entity.NewCatalog(code, name),
		Price:     price,
		VATRate:   DefaultVATRate,
		IsService: true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").
			WithDetail("field", "price").
			WithDetail("value", p.Price.String())
	}

	if p.VATRate.IsNegative() {
		return apperror.NewValidation("VAT rate must not be negative").
			WithDetail("field", "vatRate").
			WithDetail("value", p.VATRate.String())
	}

	return nil
}

// Bundle is a fixed-price set of products sold as one line.
type Bundle struct {
	entity.Catalog

	// Number is assigned from the tenant's bundle pattern on create.
	Number string `db:"number" json:"number"`

	// Price is the bundle price, net of VAT. It overrides the sum of
	// component prices.
	Price types.Money `db:"price" json:"price"`

	DiscountExcluded bool `db:"discount_excluded" json:"discountExcluded"`

	// Items are the bundle components. Loaded by the repository.
	Items []BundleItem `db:"-" json:"items,omitempty"`
}

// BundleItem is one component of a bundle.
type BundleItem struct {
	entity.BaseEntity

	BundleID  id.ID `db:"bundle_id" json:"bundleId"`
	ProductID id.ID `db:"product_id" json:"productId"`
	Quantity  int64 `db:"quantity" json:"quantity"`
}

// NewBundle creates a new Bundle.
func NewBundle(code, name string, price types.Money) *Bundle {
	return &Bundle{
		Catalog: entity.NewCatalog(code, name),
		Price:   price,
	}
}

// Validate implements entity.Validatable interface.
func (b *Bundle) Validate(ctx context.Context) error {
	if err := b.Catalog.Validate(ctx); err != nil {
		return err
	}

	if b.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").
			WithDetail("field", "price")
	}

	for i, item := range b.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("bundle item product is required").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("bundle item quantity must be positive").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
	}

	return nil
}
