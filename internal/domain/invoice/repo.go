package invoice

import (
	"context"
	"time"

	"fakturo/internal/core/id"
	"fakturo/internal/domain"
)

// Repository defines operations for invoice documents.
type Repository interface {
	Create(ctx context.Context, doc *Invoice) error
	GetByID(ctx context.Context, docID id.ID) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	Update(ctx context.Context, doc *Invoice) error
	Delete(ctx context.Context, docID id.ID) error

	GetItems(ctx context.Context, docID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, docID id.ID, items []Item) error

	// LastNumberWithPrefix returns the highest invoice number starting with
	// prefix, or "" when none exists. Used by the fallback number series.
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Invoice, error)
}

// ListFilter for filtering invoices.
type ListFilter struct {
	domain.ListFilter

	PartnerID *id.ID
	Status    *Status
	DateFrom  *time.Time
	DateTo    *time.Time
}
