// Package order provides the customer order document. Orders collect the
// requested items; delivery notes are produced from confirmed orders and
// carry the prices forward into invoicing.
package order

import (
	"context"
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/entity"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
)

// Status is computed from the confirmed and locked flags, never stored.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Order represents a customer order.
type Order struct {
	entity.Document

	// PartnerID is the ordering customer
	PartnerID id.ID `db:"partner_id" json:"partnerId"`

	PickupAt   *time.Time `db:"pickup_at" json:"pickupAt,omitempty"`
	DeliveryAt *time.Time `db:"delivery_at" json:"deliveryAt,omitempty"`

	PickupMethod   *string `db:"pickup_method" json:"pickupMethod,omitempty"`
	DeliveryMethod *string `db:"delivery_method" json:"deliveryMethod,omitempty"`
	PaymentMethod  *string `db:"payment_method" json:"paymentMethod,omitempty"`
	PaymentTerms   *string `db:"payment_terms" json:"paymentTerms,omitempty"`

	// ShowPrices controls whether printed documents expose prices
	ShowPrices bool `db:"show_prices" json:"showPrices"`

	// Confirmed orders are eligible for delivery
	Confirmed bool `db:"confirmed" json:"confirmed"`

	// Table part: ordered items
	Items []Item `db:"-" json:"items"`
}

// Item represents a line in the order. Exactly one source applies: a
// product, a bundle, or a manual free-text line.
type Item struct {
	entity.BaseEntity

	OrderID id.ID `db:"order_id" json:"orderId"`

	ProductID *id.ID `db:"product_id" json:"productId,omitempty"`
	BundleID  *id.ID `db:"bundle_id" json:"bundleId,omitempty"`

	IsManual   bool    `db:"is_manual" json:"isManual"`
	ManualName *string `db:"manual_name" json:"manualName,omitempty"`

	Quantity int64 `db:"quantity" json:"quantity"`

	// UnitPrice is captured at order time, net of VAT
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
}

// HasSource reports whether the item references a product, bundle or
// manual line.
func (i *Item) HasSource() bool {
	return i.ProductID != nil || i.BundleID != nil || i.IsManual
}

// NewOrder creates a new order for a partner.
func NewOrder(partnerID id.ID) *Order {
	return &Order{
		Document:   entity.NewDocument(),
		PartnerID:  partnerID,
		ShowPrices: true,
		Items:      make([]Item, 0),
	}
}

// AddItem appends an order line.
func (o *Order) AddItem(item Item) {
	if id.IsNil(item.ID) {
		item.BaseEntity = entity.NewBaseEntity()
	}
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
}

// Status derives the order state from its flags.
func (o *Order) Status() Status {
	switch {
	case o.Locked:
		return StatusCompleted
	case o.Confirmed:
		return StatusProcessing
	default:
		return StatusPending
	}
}

// TotalPrice sums quantity times unit price over all items, net of VAT.
func (o *Order) TotalPrice() types.Money {
	total := types.Zero()
	for _, item := range o.Items {
		total = total.Add(types.LineTotal(item.UnitPrice, item.Quantity))
	}
	return total
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.PartnerID) {
		return apperror.NewValidation("partner is required").
			WithDetail("field", "partnerId")
	}

	for i, item := range o.Items {
		if !item.HasSource() {
			return apperror.NewValidation("item needs a product, bundle or manual name").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.IsManual && (item.ManualName == nil || *item.ManualName == "") {
			return apperror.NewValidation("manual item needs a name").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
