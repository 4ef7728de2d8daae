// Package invoice provides the invoice document and collective invoicing.
// A collective invoice consumes every unbilled delivery note of a partner's
// billing group in one atomic run: each delivered line becomes an invoice
// line with VAT computed at the product's rate, and the notes flip to
// invoiced so no later run bills them again.
package invoice

import (
	"context"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/entity"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
	StatusError Status = "error"
)

// ValidStatus reports whether s is a known invoice status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusError:
		return true
	}
	return false
}

// Invoice represents an outgoing invoice. Number is unique within the tenant.
type Invoice struct {
	entity.Document

	// PartnerID is the billed customer. For group billing this is the
	// partner the run was started for; lines may come from sibling
	// partners' delivery notes.
	PartnerID id.ID `db:"partner_id" json:"partnerId"`

	// Total is the sum of line totals, net of VAT
	Total types.Money `db:"total" json:"total"`

	// TotalWithVAT is the sum of line totals including VAT
	TotalWithVAT types.Money `db:"total_with_vat" json:"totalWithVat"`

	Status Status `db:"status" json:"status"`

	// Table part: invoice lines
	Items []Item `db:"-" json:"items"`
}

// Item represents a line in the invoice.
type Item struct {
	entity.BaseEntity

	InvoiceID id.ID `db:"invoice_id" json:"invoiceId"`

	// SourceDeliveryID references the delivery note the line came from.
	// Nil for manual lines.
	SourceDeliveryID *id.ID `db:"source_delivery_id" json:"sourceDeliveryId,omitempty"`

	Description string `db:"description" json:"description"`
	Quantity    int64  `db:"quantity" json:"quantity"`

	// UnitPrice is net of VAT
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// Total is the line total, net of VAT
	Total types.Money `db:"total" json:"total"`

	// VATRate is the VAT percentage applied
	VATRate types.Money `db:"vat_rate" json:"vatRate"`

	// VATAmount is Total times VATRate, rounded to the minor unit
	VATAmount types.Money `db:"vat_amount" json:"vatAmount"`

	// TotalWithVAT is Total plus VATAmount
	TotalWithVAT types.Money `db:"total_with_vat" json:"totalWithVat"`

	IsManual bool `db:"is_manual" json:"isManual"`
}

// NewInvoice creates a draft invoice for a partner.
func NewInvoice(partnerID id.ID) *Invoice {
	return &Invoice{
		Document:  entity.NewDocument(),
		PartnerID: partnerID,
		Status:    StatusDraft,
		Items:     make([]Item, 0),
	}
}

// NewItem builds an invoice line, computing VAT and totals from the net
// line total and rate.
func NewItem(description string, quantity int64, unitPrice, lineTotal, vatRate types.Money) Item {
	vatAmount := types.VATAmount(lineTotal, vatRate)
	return Item{
		BaseEntity:   entity.NewBaseEntity(),
		Description:  description,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Total:        lineTotal,
		VATRate:      vatRate,
		VATAmount:    vatAmount,
		TotalWithVAT: types.RoundMoney(lineTotal.Add(vatAmount)),
	}
}

// AddItem appends a line and rolls its amounts into the totals.
func (inv *Invoice) AddItem(item Item) {
	if id.IsNil(item.ID) {
		item.BaseEntity = entity.NewBaseEntity()
	}
	item.InvoiceID = inv.ID
	inv.Items = append(inv.Items, item)
	inv.Total = types.RoundMoney(inv.Total.Add(item.Total))
	inv.TotalWithVAT = types.RoundMoney(inv.TotalWithVAT.Add(item.TotalWithVAT))
}

// statusRank orders the one-directional draft -> sent -> paid chain.
// StatusError sits outside the chain.
func statusRank(s Status) int {
	switch s {
	case StatusDraft:
		return 0
	case StatusSent:
		return 1
	case StatusPaid:
		return 2
	}
	return -1
}

// ChangeStatus moves the invoice forward along draft -> sent -> paid.
// Error is reachable from draft and sent. Locked invoices keep their
// status; backward moves and leaving error need ForceStatus.
func (inv *Invoice) ChangeStatus(to Status) error {
	if inv.Locked {
		return apperror.NewDocumentLocked("invoice", inv.ID.String())
	}
	if !ValidStatus(to) {
		return apperror.NewInvalidStatusChange("invoice", string(inv.Status), string(to))
	}
	if to == inv.Status {
		return nil
	}
	if to == StatusError {
		if inv.Status == StatusPaid {
			return apperror.NewInvalidStatusChange("invoice", string(inv.Status), string(to))
		}
	} else if statusRank(inv.Status) < 0 || statusRank(to) < statusRank(inv.Status) {
		return apperror.NewInvalidStatusChange("invoice", string(inv.Status), string(to))
	}
	inv.Status = to
	inv.Touch()
	return nil
}

// ForceStatus sets any valid status regardless of direction. Reserved for
// the admin override; locked invoices still refuse.
func (inv *Invoice) ForceStatus(to Status) error {
	if inv.Locked {
		return apperror.NewDocumentLocked("invoice", inv.ID.String())
	}
	if !ValidStatus(to) {
		return apperror.NewInvalidStatusChange("invoice", string(inv.Status), string(to))
	}
	if to != inv.Status {
		inv.Status = to
		inv.Touch()
	}
	return nil
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(inv.PartnerID) {
		return apperror.NewValidation("partner is required").
			WithDetail("field", "partnerId")
	}

	if !ValidStatus(inv.Status) {
		return apperror.NewValidation("invalid invoice status").
			WithDetail("field", "status").
			WithDetail("value", string(inv.Status))
	}

	for i, item := range inv.Items {
		if item.Description == "" {
			return apperror.NewValidation("description is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
