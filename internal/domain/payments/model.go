// Package payments provides money-movement records against documents:
// customer payments, vendor payments and direct expenses.
package payments

import (
	"context"
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
)

// Method is the settlement instrument.
type Method string

const (
	MethodCash   Method = "cash"
	MethodBank   Method = "bank"
	MethodUPI    Method = "upi"
	MethodCard   Method = "card"
	MethodCheque Method = "cheque"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodBank, MethodUPI, MethodCard, MethodCheque:
		return true
	}
	return false
}

// Payment is money received against an invoice.
// Immutable once created except for deletion, which reverses its effect on
// the parent document's paid/balance/status.
type Payment struct {
	entity.BaseDocument

	InvoiceID id.ID       `db:"invoice_id" json:"invoiceId"`
	Amount    types.Money `db:"amount" json:"amount"`
	Method    Method      `db:"method" json:"method"`
	Date      time.Time   `db:"date" json:"date"`
	Note      string      `db:"note" json:"note,omitempty"`
}

// PurchasePayment is money paid out against a purchase.
type PurchasePayment struct {
	entity.BaseDocument

	PurchaseID id.ID       `db:"purchase_id" json:"purchaseId"`
	Amount     types.Money `db:"amount" json:"amount"`
	Method     Method      `db:"method" json:"method"`
	Date       time.Time   `db:"date" json:"date"`
	Note       string      `db:"note" json:"note,omitempty"`
}

// ExpenseCategory is the fixed operating-expense allowlist used by the
// profit and loss statement.
type ExpenseCategory string

const (
	CategoryRent      ExpenseCategory = "rent"
	CategorySalaries  ExpenseCategory = "salaries"
	CategoryUtilities ExpenseCategory = "utilities"
	CategoryTransport ExpenseCategory = "transport"
	CategoryMarketing ExpenseCategory = "marketing"
	CategoryOther     ExpenseCategory = "other"
)

// Valid reports whether c is a known category.
func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryRent, CategorySalaries, CategoryUtilities,
		CategoryTransport, CategoryMarketing, CategoryOther:
		return true
	}
	return false
}

// Expense is money paid out with no backing purchase document.
// DocumentID is optional and references a purchase when the expense settles one.
type Expense struct {
	entity.BaseDocument

	DocumentID *id.ID          `db:"document_id" json:"documentId,omitempty"`
	Amount     types.Money     `db:"amount" json:"amount"`
	Method     Method          `db:"method" json:"method"`
	Date       time.Time       `db:"date" json:"date"`
	Category   ExpenseCategory `db:"category" json:"category"`
	Note       string          `db:"note" json:"note,omitempty"`
}

// Validate implements entity.Validatable.
func (e *Expense) Validate(ctx context.Context) error {
	if !e.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}
	if !e.Method.Valid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "method")
	}
	if !e.Category.Valid() {
		return apperror.NewValidation("unknown expense category").
			WithDetail("field", "category")
	}
	if e.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}
