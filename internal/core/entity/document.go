package entity

import (
	"context"
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/types"
)

// MaxDocumentNoLen is the statutory limit for GST document numbers.
const MaxDocumentNoLen = 16

// DocumentStatus is the payment lifecycle state of a tax document.
// A closed enum, never a free string: invalid states are unrepresentable.
type DocumentStatus string

const (
	StatusDraft         DocumentStatus = "draft"
	StatusSent          DocumentStatus = "sent"
	StatusPartiallyPaid DocumentStatus = "partially_paid"
	StatusPaid          DocumentStatus = "paid"
	StatusOverdue       DocumentStatus = "overdue"
	StatusCancelled     DocumentStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPartiallyPaid, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// IsOutstanding reports whether a document in this status still expects money.
func (s DocumentStatus) IsOutstanding() bool {
	switch s {
	case StatusSent, StatusPartiallyPaid, StatusOverdue:
		return true
	}
	return false
}

// Document is the base type for tax documents (Invoice, Purchase).
// Header fields shared by both sides of the trade.
type Document struct {
	BaseDocument

	// Number is the document number (unique, at most MaxDocumentNoLen chars)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// DueDate is when payment falls due
	DueDate time.Time `db:"due_date" json:"dueDate"`

	// PlaceOfSupply is the state of supply for GST determination
	PlaceOfSupply string `db:"place_of_supply" json:"placeOfSupply"`

	// IntraState selects CGST+SGST (true) vs IGST (false) splitting
	IntraState bool `db:"intra_state" json:"intraState"`

	// Status is derived from the payment state, never set directly by callers
	Status DocumentStatus `db:"status" json:"status"`

	// LedgerVersion tracks which ledger-entry generation belongs to the
	// current document contents. Incremented on every recompute so stale
	// entries can be reversed by version.
	LedgerVersion int `db:"ledger_version" json:"ledgerVersion"`
}

// NewDocument creates a new Document in Draft with generated ID.
func NewDocument(date time.Time) Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         date,
		Status:       StatusDraft,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Number != "" && len(d.Number) > MaxDocumentNoLen {
		return apperror.NewValidation("document number too long").
			WithDetail("field", "number").
			WithDetail("max_len", MaxDocumentNoLen)
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	if !d.DueDate.IsZero() && d.DueDate.Before(d.Date) {
		return apperror.NewValidation("due date before document date").
			WithDetail("field", "dueDate")
	}

	if d.Status != "" && !d.Status.Valid() {
		return apperror.NewValidation("unknown document status").
			WithDetail("field", "status").
			WithDetail("status", string(d.Status))
	}

	return nil
}

// DeriveStatus returns the status implied by grand total and paid amount.
// Payments never move a document back to Draft/Sent: those two are the
// unpaid resting states and are kept as-is.
func DeriveStatus(current DocumentStatus, grandTotal, paidAmount types.Money) DocumentStatus {
	switch {
	case paidAmount.IsZero():
		if current == StatusDraft || current == StatusCancelled {
			return current
		}
		return StatusSent
	case paidAmount.LessThan(grandTotal):
		return StatusPartiallyPaid
	default:
		return StatusPaid
	}
}

// MarkRecomputed bumps the ledger version after a wholesale totals recompute.
func (d *Document) MarkRecomputed() {
	d.LedgerVersion++
	d.Touch()
}
