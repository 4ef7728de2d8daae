package order

import (
	"context"
	"time"

	"fakturo/internal/core/id"
	"fakturo/internal/domain"
)

// Repository defines operations for order documents.
type Repository interface {
	Create(ctx context.Context, doc *Order) error
	GetByID(ctx context.Context, docID id.ID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	Update(ctx context.Context, doc *Order) error
	Delete(ctx context.Context, docID id.ID) error

	GetItems(ctx context.Context, docID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, docID id.ID, items []Item) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Order, error)
}

// ListFilter for filtering orders.
type ListFilter struct {
	domain.ListFilter

	PartnerID *id.ID
	Confirmed *bool
	Locked    *bool
	DateFrom  *time.Time
	DateTo    *time.Time
}
