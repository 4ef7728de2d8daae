package dto

import (
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/delivery"
)

// --- Request DTOs ---

// DeliveryItemRequest is one line in a delivery note request.
type DeliveryItemRequest struct {
	ProductID  *string     `json:"productId"`
	BundleID   *string     `json:"bundleId"`
	ManualName *string     `json:"manualName"`
	Quantity   int64       `json:"quantity" binding:"required,min=1"`
	UnitPrice  types.Money `json:"unitPrice"`
}

// ToEntity converts the line to a domain item.
func (r *DeliveryItemRequest) ToEntity() (delivery.Item, error) {
	item := delivery.Item{
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
	}
	if r.ProductID != nil && *r.ProductID != "" {
		pid, err := id.Parse(*r.ProductID)
		if err != nil {
			return item, apperror.NewValidation("invalid product id").WithDetail("value", *r.ProductID)
		}
		item.ProductID = &pid
	}
	if r.BundleID != nil && *r.BundleID != "" {
		bid, err := id.Parse(*r.BundleID)
		if err != nil {
			return item, apperror.NewValidation("invalid bundle id").WithDetail("value", *r.BundleID)
		}
		item.BundleID = &bid
	}
	if r.ManualName != nil && *r.ManualName != "" {
		item.IsManual = true
		item.ManualName = r.ManualName
	}
	return item, nil
}

// CreateDeliveryNoteRequest is the request body for creating a delivery note
// directly, without source orders.
type CreateDeliveryNoteRequest struct {
	PartnerID         string                `json:"partnerId" binding:"required"`
	Date              *time.Time            `json:"date"`
	PlannedDeliveryAt *time.Time            `json:"plannedDeliveryAt"`
	ShowPrices        *bool                 `json:"showPrices"`
	Comment           string                `json:"comment"`
	Items             []DeliveryItemRequest `json:"items"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateDeliveryNoteRequest) ToEntity() (*delivery.Note, error) {
	pid, err := id.Parse(r.PartnerID)
	if err != nil {
		return nil, apperror.NewValidation("invalid partner id").WithDetail("value", r.PartnerID)
	}

	doc := delivery.NewNote(&pid)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.PlannedDeliveryAt = r.PlannedDeliveryAt
	if r.ShowPrices != nil {
		doc.ShowPrices = *r.ShowPrices
	}
	doc.Comment = r.Comment

	for _, line := range r.Items {
		item, err := line.ToEntity()
		if err != nil {
			return nil, err
		}
		doc.AddItem(item)
	}
	return doc, nil
}

// CreateFromOrdersRequest builds a delivery note from confirmed orders.
type CreateFromOrdersRequest struct {
	OrderIDs []string `json:"orderIds" binding:"required,min=1"`
}

// ParsedOrderIDs converts the order id strings.
func (r *CreateFromOrdersRequest) ParsedOrderIDs() ([]id.ID, error) {
	ids := make([]id.ID, 0, len(r.OrderIDs))
	for _, s := range r.OrderIDs {
		parsed, err := id.Parse(s)
		if err != nil {
			return nil, apperror.NewValidation("invalid order id").WithDetail("value", s)
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}

// UpdateDeliveryNoteRequest is the request body for updating a delivery note.
type UpdateDeliveryNoteRequest struct {
	Date              *time.Time            `json:"date"`
	PlannedDeliveryAt *time.Time            `json:"plannedDeliveryAt"`
	ShowPrices        *bool                 `json:"showPrices"`
	Comment           *string               `json:"comment"`
	Items             []DeliveryItemRequest `json:"items"`
	Version           int                   `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateDeliveryNoteRequest) ApplyTo(doc *delivery.Note) error {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.PlannedDeliveryAt = r.PlannedDeliveryAt
	if r.ShowPrices != nil {
		doc.ShowPrices = *r.ShowPrices
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}
	doc.Version = r.Version

	if r.Items != nil {
		doc.Items = doc.Items[:0]
		for _, line := range r.Items {
			item, err := line.ToEntity()
			if err != nil {
				return err
			}
			doc.AddItem(item)
		}
	}
	return nil
}

// ConfirmDeliveryRequest marks the note delivered. DeliveredAt defaults to
// the current time when omitted.
type ConfirmDeliveryRequest struct {
	DeliveredAt *time.Time `json:"deliveredAt"`
}

// --- Response DTOs ---

// DeliveryComponentResponse is one expanded bundle component.
type DeliveryComponentResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// DeliveryItemResponse is one line in a delivery note response.
type DeliveryItemResponse struct {
	ID         string                      `json:"id"`
	ProductID  *string                     `json:"productId,omitempty"`
	BundleID   *string                     `json:"bundleId,omitempty"`
	IsManual   bool                        `json:"isManual"`
	ManualName *string                     `json:"manualName,omitempty"`
	Quantity   int64                       `json:"quantity"`
	UnitPrice  types.Money                 `json:"unitPrice"`
	LineTotal  types.Money                 `json:"lineTotal"`
	Components []DeliveryComponentResponse `json:"components,omitempty"`
}

// DeliveryNoteResponse is the response body for a delivery note.
type DeliveryNoteResponse struct {
	DocumentResponse
	DisplayNumber     string                 `json:"displayNumber"`
	PartnerID         *string                `json:"partnerId,omitempty"`
	PrimaryOrderID    *string                `json:"primaryOrderId,omitempty"`
	OrderIDs          []string               `json:"orderIds,omitempty"`
	Confirmed         bool                   `json:"confirmed"`
	Invoiced          bool                   `json:"invoiced"`
	ShowPrices        bool                   `json:"showPrices"`
	PlannedDeliveryAt *time.Time             `json:"plannedDeliveryAt,omitempty"`
	ActualDeliveryAt  *time.Time             `json:"actualDeliveryAt,omitempty"`
	Items             []DeliveryItemResponse `json:"items"`
}

// FromDeliveryNote creates response DTO from domain entity.
func FromDeliveryNote(doc *delivery.Note) *DeliveryNoteResponse {
	items := make([]DeliveryItemResponse, len(doc.Items))
	for i, it := range doc.Items {
		components := make([]DeliveryComponentResponse, len(it.Components))
		for j, comp := range it.Components {
			components[j] = DeliveryComponentResponse{
				ID:        comp.ID.String(),
				ProductID: comp.ProductID.String(),
				Quantity:  comp.Quantity,
			}
		}
		items[i] = DeliveryItemResponse{
			ID:         it.ID.String(),
			ProductID:  idString(it.ProductID),
			BundleID:   idString(it.BundleID),
			IsManual:   it.IsManual,
			ManualName: it.ManualName,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			LineTotal:  it.Total(),
			Components: components,
		}
	}

	orderIDs := make([]string, len(doc.OrderIDs))
	for i, oid := range doc.OrderIDs {
		orderIDs[i] = oid.String()
	}

	return &DeliveryNoteResponse{
		DocumentResponse:  FromDocument(doc.Document),
		DisplayNumber:     doc.DisplayNumber(),
		PartnerID:         idString(doc.PartnerID),
		PrimaryOrderID:    idString(doc.PrimaryOrderID),
		OrderIDs:          orderIDs,
		Confirmed:         doc.Confirmed,
		Invoiced:          doc.Invoiced,
		ShowPrices:        doc.ShowPrices,
		PlannedDeliveryAt: doc.PlannedDeliveryAt,
		ActualDeliveryAt:  doc.ActualDeliveryAt,
		Items:             items,
	}
}
