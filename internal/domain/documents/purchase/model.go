// Package purchase provides the purchase (vendor bill) document.
package purchase

import (
	"context"
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/documents"
)

// Purchase is a vendor bill. Tax arithmetic is identical to the sales side;
// the stock effect is inverted (goods come in) and receipts carry the
// acquisition cost that feeds inventory valuation.
type Purchase struct {
	entity.Document

	// VendorID is the supplying party
	VendorID id.ID `db:"vendor_id" json:"vendorId"`

	// VendorBillNo is the number printed on the vendor's own document
	VendorBillNo string `db:"vendor_bill_no" json:"vendorBillNo,omitempty"`

	// Totals (computed, never accepted from callers)
	Totals documents.Totals `db:"-" json:"totals"`

	// Payment state
	PaidAmount    types.Money `db:"paid_amount" json:"paidAmount"`
	BalanceAmount types.Money `db:"balance_amount" json:"balanceAmount"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one computed purchase line.
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

// UnitCost is the effective post-discount acquisition cost per unit.
func (l Line) UnitCost() types.Money {
	if !l.Quantity.IsPositive() {
		return types.Zero()
	}
	return l.TaxableValue.Div(l.Quantity.Decimal())
}

// NewPurchase creates a draft purchase.
func NewPurchase(vendorID id.ID, date time.Time) *Purchase {
	return &Purchase{
		Document:      entity.NewDocument(date),
		VendorID:      vendorID,
		Totals:        documents.ZeroTotals(),
		PaidAmount:    types.Zero(),
		BalanceAmount: types.Zero(),
		Lines:         make([]Line, 0),
	}
}

// Validate implements entity.Validatable.
func (p *Purchase) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.VendorID) {
		return apperror.NewValidation("vendor is required").
			WithDetail("field", "vendorId")
	}

	if len(p.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	return nil
}

// ApplyComputed fills lines and totals from the computation result and keeps
// the payment state consistent with the new grand total.
func (p *Purchase) ApplyComputed(computed []documents.ComputedLine, totals documents.Totals) {
	p.Lines = make([]Line, 0, len(computed))
	for _, c := range computed {
		p.Lines = append(p.Lines, Line{
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
	p.Totals = totals
	p.BalanceAmount = totals.GrandTotal.Sub(p.PaidAmount)
	p.Status = entity.DeriveStatus(p.Status, totals.GrandTotal, p.PaidAmount)
}

// GenerateStockEntries produces one `in` ledger entry per line for the
// current ledger version, costed at the post-discount unit cost.
func (p *Purchase) GenerateStockEntries() []entity.StockEntry {
	entries := make([]entity.StockEntry, 0, len(p.Lines))
	for _, line := range p.Lines {
		entries = append(entries, entity.NewStockEntry(
			p.ID,
			"Purchase",
			p.LedgerVersion,
			line.ProductID,
			entity.EntryIn,
			line.Quantity,
			line.UnitCost(),
			p.Date,
		))
	}
	return entries
}
