package entity

import (
	"context"
	"time"

	"fakturo/internal/core/apperror"
)

// Document is the base type for numbered business documents.
// Examples: Order, DeliveryNote, Invoice.
type Document struct {
	BaseDocument

	// Number is the formatted document number. Empty when no numbering
	// pattern is configured; display layers apply their own fallback.
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Locked prevents any further modification (admin unlock only)
	Locked bool `db:"locked" json:"locked"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID and current date.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// CanModify checks if document can be modified.
// Locked documents require an explicit admin unlock first.
func (d *Document) CanModify() error {
	if d.Locked {
		return apperror.NewDocumentLocked("document", d.ID.String())
	}
	return nil
}

// Lock marks the document immutable.
func (d *Document) Lock() {
	d.Locked = true
	d.Touch()
}

// Unlock clears the lock. Admin override only.
func (d *Document) Unlock() {
	d.Locked = false
	d.Touch()
}
