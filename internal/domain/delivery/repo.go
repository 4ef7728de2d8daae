package delivery

import (
	"context"
	"time"

	"fakturo/internal/core/id"
	"fakturo/internal/domain"
)

// Repository defines operations for delivery note documents.
type Repository interface {
	Create(ctx context.Context, doc *Note) error
	GetByID(ctx context.Context, docID id.ID) (*Note, error)
	GetByNumber(ctx context.Context, number string) (*Note, error)
	Update(ctx context.Context, doc *Note) error
	Delete(ctx context.Context, docID id.ID) error

	GetItems(ctx context.Context, docID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, docID id.ID, items []Item) error

	// LinkOrders records the source orders of a note.
	LinkOrders(ctx context.Context, docID id.ID, orderIDs []id.ID) error
	GetOrderIDs(ctx context.Context, docID id.ID) ([]id.ID, error)

	// SelectUnbilledForUpdate locks and returns every unbilled note whose
	// partner, directly or through a linked order, is in the given set.
	// Must run inside a transaction: the row locks serialize concurrent
	// invoice runs over the same notes.
	SelectUnbilledForUpdate(ctx context.Context, partnerIDs []id.ID) ([]*Note, error)

	// MarkInvoiced flips the invoiced flag on notes that are still
	// unbilled and reports how many rows changed. A count below
	// len(noteIDs) means another invoice run got there first.
	MarkInvoiced(ctx context.Context, noteIDs []id.ID) (int64, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Note], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Note, error)
}

// ListFilter for filtering delivery notes.
type ListFilter struct {
	domain.ListFilter

	PartnerID *id.ID
	OrderID   *id.ID
	Invoiced  *bool
	Confirmed *bool
	DateFrom  *time.Time
	DateTo    *time.Time
}
