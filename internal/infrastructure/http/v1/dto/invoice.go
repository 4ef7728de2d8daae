package dto

import (
	"fakturo/internal/core/types"
	"fakturo/internal/domain/invoice"
)

// --- Request DTOs ---

// AggregateInvoiceRequest starts a collective invoice run for a partner.
type AggregateInvoiceRequest struct {
	PartnerID string `json:"partnerId" binding:"required"`
}

// AddManualItemRequest appends a free-form line to an invoice.
type AddManualItemRequest struct {
	Description string      `json:"description" binding:"required"`
	Quantity    int64       `json:"quantity" binding:"required,min=1"`
	UnitPrice   types.Money `json:"unitPrice"`
	VATRate     types.Money `json:"vatRate"`
}

// ChangeInvoiceStatusRequest moves an invoice to a new lifecycle state.
type ChangeInvoiceStatusRequest struct {
	Status invoice.Status `json:"status" binding:"required"`
}

// --- Response DTOs ---

// InvoiceItemResponse is one line in an invoice response.
type InvoiceItemResponse struct {
	ID               string      `json:"id"`
	SourceDeliveryID *string     `json:"sourceDeliveryId,omitempty"`
	Description      string      `json:"description"`
	Quantity         int64       `json:"quantity"`
	UnitPrice        types.Money `json:"unitPrice"`
	Total            types.Money `json:"total"`
	VATRate          types.Money `json:"vatRate"`
	VATAmount        types.Money `json:"vatAmount"`
	TotalWithVAT     types.Money `json:"totalWithVat"`
	IsManual         bool        `json:"isManual"`
}

// InvoiceResponse is the response body for an invoice.
type InvoiceResponse struct {
	DocumentResponse
	PartnerID    string                `json:"partnerId"`
	Status       invoice.Status        `json:"status"`
	Total        types.Money           `json:"total"`
	TotalWithVAT types.Money           `json:"totalWithVat"`
	Currency     string                `json:"currency"`
	Items        []InvoiceItemResponse `json:"items"`
}

// FromInvoice creates response DTO from domain entity.
func FromInvoice(inv *invoice.Invoice) *InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = InvoiceItemResponse{
			ID:               it.ID.String(),
			SourceDeliveryID: idString(it.SourceDeliveryID),
			Description:      it.Description,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			Total:            it.Total,
			VATRate:          it.VATRate,
			VATAmount:        it.VATAmount,
			TotalWithVAT:     it.TotalWithVAT,
			IsManual:         it.IsManual,
		}
	}
	return &InvoiceResponse{
		DocumentResponse: FromDocument(inv.Document),
		PartnerID:        inv.PartnerID.String(),
		Status:           inv.Status,
		Total:            inv.Total,
		TotalWithVAT:     inv.TotalWithVAT,
		Items:            items,
	}
}
