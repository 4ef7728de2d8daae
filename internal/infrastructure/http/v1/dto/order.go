package dto

import (
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/order"
)

// --- Request DTOs ---

// OrderItemRequest is one line in an order request. Exactly one of
// productId, bundleId or manualName must be set.
type OrderItemRequest struct {
	ProductID  *string     `json:"productId"`
	BundleID   *string     `json:"bundleId"`
	ManualName *string     `json:"manualName"`
	Quantity   int64       `json:"quantity" binding:"required,min=1"`
	UnitPrice  types.Money `json:"unitPrice"`
}

// ToEntity converts the line to a domain item.
func (r *OrderItemRequest) ToEntity() (order.Item, error) {
	item := order.Item{
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

// CreateOrderRequest is the request body for creating an order.
type CreateOrderRequest struct {
	PartnerID      string             `json:"partnerId" binding:"required"`
	Date           *time.Time         `json:"date"`
	PickupAt       *time.Time         `json:"pickupAt"`
	DeliveryAt     *time.Time         `json:"deliveryAt"`
	PickupMethod   *string            `json:"pickupMethod"`
	DeliveryMethod *string            `json:"deliveryMethod"`
	PaymentMethod  *string            `json:"paymentMethod"`
	PaymentTerms   *string            `json:"paymentTerms"`
	ShowPrices     *bool              `json:"showPrices"`
	Comment        string             `json:"comment"`
	Items          []OrderItemRequest `json:"items"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateOrderRequest) ToEntity() (*order.Order, error) {
	pid, err := id.Parse(r.PartnerID)
	if err != nil {
		return nil, apperror.NewValidation("invalid partner id").WithDetail("value", r.PartnerID)
	}

	doc := order.NewOrder(pid)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.PickupAt = r.PickupAt
	doc.DeliveryAt = r.DeliveryAt
	doc.PickupMethod = r.PickupMethod
	doc.DeliveryMethod = r.DeliveryMethod
	doc.PaymentMethod = r.PaymentMethod
	doc.PaymentTerms = r.PaymentTerms
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

// UpdateOrderRequest is the request body for updating an order.
type UpdateOrderRequest struct {
	Date           *time.Time         `json:"date"`
	PickupAt       *time.Time         `json:"pickupAt"`
	DeliveryAt     *time.Time         `json:"deliveryAt"`
	PickupMethod   *string            `json:"pickupMethod"`
	DeliveryMethod *string            `json:"deliveryMethod"`
	PaymentMethod  *string            `json:"paymentMethod"`
	PaymentTerms   *string            `json:"paymentTerms"`
	ShowPrices     *bool              `json:"showPrices"`
	Comment        *string            `json:"comment"`
	Items          []OrderItemRequest `json:"items"`
	Version        int                `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateOrderRequest) ApplyTo(doc *order.Order) error {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.PickupAt = r.PickupAt
	doc.DeliveryAt = r.DeliveryAt
	doc.PickupMethod = r.PickupMethod
	doc.DeliveryMethod = r.DeliveryMethod
	doc.PaymentMethod = r.PaymentMethod
	doc.PaymentTerms = r.PaymentTerms
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

// --- Response DTOs ---

// OrderItemResponse is one line in an order response.
type OrderItemResponse struct {
	ID         string      `json:"id"`
	ProductID  *string     `json:"productId,omitempty"`
	BundleID   *string     `json:"bundleId,omitempty"`
	IsManual   bool        `json:"isManual"`
	ManualName *string     `json:"manualName,omitempty"`
	Quantity   int64       `json:"quantity"`
	UnitPrice  types.Money `json:"unitPrice"`
}

// OrderResponse is the response body for an order.
type OrderResponse struct {
	DocumentResponse
	PartnerID      string              `json:"partnerId"`
	Status         order.Status        `json:"status"`
	Confirmed      bool                `json:"confirmed"`
	PickupAt       *time.Time          `json:"pickupAt,omitempty"`
	DeliveryAt     *time.Time          `json:"deliveryAt,omitempty"`
	PickupMethod   *string             `json:"pickupMethod,omitempty"`
	DeliveryMethod *string             `json:"deliveryMethod,omitempty"`
	PaymentMethod  *string             `json:"paymentMethod,omitempty"`
	PaymentTerms   *string             `json:"paymentTerms,omitempty"`
	ShowPrices     bool                `json:"showPrices"`
	TotalPrice     types.Money         `json:"totalPrice"`
	Items          []OrderItemResponse `json:"items"`
}

// FromOrder creates response DTO from domain entity.
func FromOrder(doc *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(doc.Items))
	for i, it := range doc.Items {
		items[i] = OrderItemResponse{
			ID:         it.ID.String(),
			ProductID:  idString(it.ProductID),
			BundleID:   idString(it.BundleID),
			IsManual:   it.IsManual,
			ManualName: it.ManualName,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		}
	}
	return &OrderResponse{
		DocumentResponse: FromDocument(doc.Document),
		PartnerID:        doc.PartnerID.String(),
		Status:           doc.Status(),
		Confirmed:        doc.Confirmed,
		PickupAt:         doc.PickupAt,
		DeliveryAt:       doc.DeliveryAt,
		PickupMethod:     doc.PickupMethod,
		DeliveryMethod:   doc.DeliveryMethod,
		PaymentMethod:    doc.PaymentMethod,
		PaymentTerms:     doc.PaymentTerms,
		ShowPrices:       doc.ShowPrices,
		TotalPrice:       doc.TotalPrice(),
		Items:            items,
	}
}

func idString(v *id.ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
