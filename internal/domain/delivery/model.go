// Package delivery provides the delivery note document. Delivery notes are
// produced from confirmed orders (or entered directly), capture the priced
// lines at delivery time, and are the unit of collective invoicing: an
// invoice consumes every unbilled note of a partner's billing group and
// flips its invoiced flag exactly once.
package delivery

import (
	"context"
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/entity"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/product"
)

// Note represents a delivery note.
type Note struct {
	entity.Document

	// PartnerID is the receiving customer. Nil only for notes built purely
	// from orders, where the partner comes through the linked orders.
	PartnerID *id.ID `db:"partner_id" json:"partnerId,omitempty"`

	// PrimaryOrderID is the first linked order, kept for display
	PrimaryOrderID *id.ID `db:"primary_order_id" json:"primaryOrderId,omitempty"`

	ShowPrices bool `db:"show_prices" json:"showPrices"`

	// Confirmed notes have been delivered and accepted
	Confirmed bool `db:"confirmed" json:"confirmed"`

	// Invoiced flips exactly once, when a collective invoice consumes the
	// note. Invoiced notes never appear in later invoice runs.
	Invoiced bool `db:"invoiced" json:"invoiced"`

	PlannedDeliveryAt *time.Time `db:"planned_delivery_at" json:"plannedDeliveryAt,omitempty"`
	ActualDeliveryAt  *time.Time `db:"actual_delivery_at" json:"actualDeliveryAt,omitempty"`

	// OrderIDs are the linked source orders. Loaded by the repository.
	OrderIDs []id.ID `db:"-" json:"orderIds,omitempty"`

	// Table part: delivered items
	Items []Item `db:"-" json:"items"`
}

// Item represents a line in the delivery note. Exactly one source applies:
// a product, a bundle, or a manual free-text line.
type Item struct {
	entity.BaseEntity

	NoteID id.ID `db:"delivery_note_id" json:"noteId"`

	ProductID *id.ID `db:"product_id" json:"productId,omitempty"`
	BundleID  *id.ID `db:"bundle_id" json:"bundleId,omitempty"`

	IsManual   bool    `db:"is_manual" json:"isManual"`
	ManualName *string `db:"manual_name" json:"manualName,omitempty"`

	Quantity int64 `db:"quantity" json:"quantity"`

	// UnitPrice is captured at delivery time, net of VAT
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// LineTotal is quantity times unit price, fixed when the line is written
	LineTotal types.Money `db:"line_total" json:"lineTotal"`

	// Components hold the bundle expansion for bundle lines
	Components []Component `db:"-" json:"components,omitempty"`
}

// Component is one expanded product of a bundle line.
type Component struct {
	entity.BaseEntity

	ItemID    id.ID `db:"delivery_item_id" json:"itemId"`
	ProductID id.ID `db:"product_id" json:"productId"`
	Quantity  int64 `db:"quantity" json:"quantity"`
}

// HasSource reports whether the item references a product, bundle or
// manual line.
func (i *Item) HasSource() bool {
	return i.ProductID != nil || i.BundleID != nil || i.IsManual
}

// Total returns the line total, computing it from unit price and quantity
// when the stored value is zero (legacy rows).
func (i *Item) Total() types.Money {
	if !i.LineTotal.IsZero() {
		return i.LineTotal
	}
	return types.LineTotal(i.UnitPrice, i.Quantity)
}

// NewNote creates a new delivery note for a partner.
func NewNote(partnerID *id.ID) *Note {
	return &Note{
		Document:   entity.NewDocument(),
		PartnerID:  partnerID,
		ShowPrices: true,
		Items:      make([]Item, 0),
	}
}

// AddItem appends a line, fixing its line total.
func (n *Note) AddItem(item Item) {
	if id.IsNil(item.ID) {
		item.BaseEntity = entity.NewBaseEntity()
	}
	item.NoteID = n.ID
	item.LineTotal = types.LineTotal(item.UnitPrice, item.Quantity)
	n.Items = append(n.Items, item)
}

// ExpandBundle produces the component rows for a bundle line: each bundle
// component scaled by the line quantity.
func ExpandBundle(item *Item, b *product.Bundle) {
	item.Components = item.Components[:0]
	for _, bi := range b.Items {
		item.Components = append(item.Components, Component{
			BaseEntity: entity.NewBaseEntity(),
			ItemID:     item.ID,
			ProductID:  bi.ProductID,
			Quantity:   bi.Quantity * item.Quantity,
		})
	}
}

// DisplayNumber returns the document number, or a DL-<id> placeholder for
// notes created before any numbering pattern existed.
func (n *Note) DisplayNumber() string {
	if n.Number != "" {
		return n.Number
	}
	return "DL-" + n.ID.String()
}

// CanModify refuses changes to locked or already invoiced notes.
func (n *Note) CanModify() error {
	if n.Invoiced {
		return apperror.NewDocumentInvoiced("delivery_note", n.ID.String())
	}
	return n.Document.CanModify()
}

// Validate implements entity.Validatable.
func (n *Note) Validate(ctx context.Context) error {
	if err := n.Document.Validate(ctx); err != nil {
		return err
	}

	if n.PartnerID == nil && len(n.OrderIDs) == 0 {
		return apperror.NewValidation("delivery note needs a partner or source orders").
			WithDetail("field", "partnerId")
	}

	for i, item := range n.Items {
		if !item.HasSource() {
			return apperror.NewValidation("item needs a product, bundle or manual name").
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
