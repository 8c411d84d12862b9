// Package invoice provides the sales invoice document.
package invoice

import (
	"context"
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/documents"
)

// Invoice is a sales document issued to a customer.
// Totals are computed once at creation and recomputed wholesale on edit;
// payments only move the payment state and never renegotiate tax.
type Invoice struct {
	entity.Document

	// CustomerID is the invoiced party
	CustomerID id.ID `db:"customer_id" json:"customerId"`

	// Totals (computed, never accepted from callers)
	Totals documents.Totals `db:"-" json:"totals"`

	// Payment state
	PaidAmount    types.Money `db:"paid_amount" json:"paidAmount"`
	BalanceAmount types.Money `db:"balance_amount" json:"balanceAmount"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one computed invoice line.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID     id.ID                  `db:"product_id" json:"productId"`
	Quantity      types.Quantity         `db:"quantity" json:"quantity"`
	UnitRate      types.Money            `db:"unit_rate" json:"unitRate"`
	DiscountKind  documents.DiscountKind `db:"discount_kind" json:"discountKind"`
	DiscountValue types.Money            `db:"discount_value" json:"discountValue"`
	GSTRate       types.Percent          `db:"gst_rate" json:"gstRate"`

	Discount     types.Money `db:"discount" json:"discount"`
	TaxableValue types.Money `db:"taxable_value" json:"taxableValue"`
	CGST         types.Money `db:"cgst" json:"cgst"`
	SGST         types.Money `db:"sgst" json:"sgst"`
	IGST         types.Money `db:"igst" json:"igst"`
	LineTotal    types.Money `db:"line_total" json:"lineTotal"`
}

// NewInvoice creates a draft invoice.
func NewInvoice(customerID id.ID, date time.Time) *Invoice {
	return &Invoice{
		Document:      entity.NewDocument(date),
		CustomerID:    customerID,
		Totals:        documents.ZeroTotals(),
		PaidAmount:    types.Zero(),
		BalanceAmount: types.Zero(),
		Lines:         make([]Line, 0),
	}
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(inv.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if len(inv.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	return nil
}

// ApplyComputed fills lines and totals from the computation result and keeps
// the payment state consistent with the new grand total.
func (inv *Invoice) ApplyComputed(computed []documents.ComputedLine, totals documents.Totals) {
	inv.Lines = make([]Line, 0, len(computed))
	for _, c := range computed {
		inv.Lines = append(inv.Lines, Line{
			LineID:        id.New(),
			LineNo:        c.LineNo,
			ProductID:     c.ProductID,
			Quantity:      c.Quantity,
			UnitRate:      c.UnitRate,
			DiscountKind:  c.DiscountKind,
			DiscountValue: c.DiscountValue,
			GSTRate:       c.GSTRate,
			Discount:      c.Discount,
			TaxableValue:  c.TaxableValue,
			CGST:          c.Tax.CGST,
			SGST:          c.Tax.SGST,
			IGST:          c.Tax.IGST,
			LineTotal:     c.LineTotal,
		})
	}
	inv.Totals = totals
	inv.BalanceAmount = totals.GrandTotal.Sub(inv.PaidAmount)
	inv.Status = entity.DeriveStatus(inv.Status, totals.GrandTotal, inv.PaidAmount)
}

// GenerateStockEntries produces one `out` ledger entry per line for the
// current ledger version.
func (inv *Invoice) GenerateStockEntries() []entity.StockEntry {
	entries := make([]entity.StockEntry, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		entries = append(entries, entity.NewStockEntry(
			inv.ID,
			"Invoice",
			inv.LedgerVersion,
			line.ProductID,
			entity.EntryOut,
			line.Quantity,
			types.Zero(),
			inv.Date,
		))
	}
	return entries
}
