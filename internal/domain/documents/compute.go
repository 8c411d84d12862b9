// Package documents computes per-line and per-document totals for tax documents.
// Both Invoice and Purchase delegate their arithmetic here so the two sides of
// a trade can never disagree on how a line is taxed.
package documents

import (
	"fmt"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/tax"
)

// DiscountKind selects how a line discount is interpreted.
type DiscountKind string

const (
	// DiscountNone means no discount on the line
	DiscountNone DiscountKind = "none"
	// DiscountAmount is a fixed currency amount off the line subtotal
	DiscountAmount DiscountKind = "amount"
	// DiscountPercent is a percentage of the line subtotal
	DiscountPercent DiscountKind = "percent"
)

// LineInput is one validated document line as received from the CRUD layer.
type LineInput struct {
	ProductID     id.ID
	Quantity      types.Quantity
	UnitRate      types.Money
	DiscountKind  DiscountKind
	DiscountValue types.Money
	GSTRate       types.Percent
}

// ComputedLine is a line with its derived amounts.
type ComputedLine struct {
	LineInput

	LineNo       int
	Subtotal     types.Money
	Discount     types.Money
	TaxableValue types.Money
	Tax          tax.Breakup
	LineTotal    types.Money
}

// Totals is the document-level totals block.
type Totals struct {
	TaxableValue types.Money `json:"taxableValue"`
	Discount     types.Money `json:"discount"`
	CGST         types.Money `json:"cgst"`
	SGST         types.Money `json:"sgst"`
	IGST         types.Money `json:"igst"`
	UTGST        types.Money `json:"utgst"`
	Cess         types.Money `json:"cess"`
	RoundOff     types.Money `json:"roundOff"`
	GrandTotal   types.Money `json:"grandTotal"`
}

// ZeroTotals returns an all-zero totals block.
func ZeroTotals() Totals {
	z := types.Zero()
	return Totals{
		TaxableValue: z, Discount: z,
		CGST: z, SGST: z, IGST: z, UTGST: z, Cess: z,
		RoundOff: z, GrandTotal: z,
	}
}

// ComputeLine derives the amounts for a single line.
// Discount is applied before tax and is floored at zero: a discount can wipe
// out a line but never turn it into a credit.
func ComputeLine(in LineInput, lineNo int, intraState, gstEnabled bool) (ComputedLine, error) {
	if !in.Quantity.IsPositive() {
		return ComputedLine{}, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("lineNo", lineNo)
	}
	if in.UnitRate.IsNegative() {
		return ComputedLine{}, apperror.NewValidation("unit rate must not be negative").
			WithDetail("field", "unitRate").
			WithDetail("lineNo", lineNo)
	}
	if err := tax.ValidateRate(in.GSTRate); err != nil {
		return ComputedLine{}, err
	}

	subtotal := types.RoundMoney(in.Quantity.Decimal().Mul(in.UnitRate))

	discount := types.Zero()
	switch in.DiscountKind {
	case DiscountNone, "":
	case DiscountAmount:
		if in.DiscountValue.IsNegative() {
			return ComputedLine{}, apperror.NewValidation("discount must not be negative").
				WithDetail("field", "discount").
				WithDetail("lineNo", lineNo)
		}
		discount = types.RoundMoney(in.DiscountValue)
	case DiscountPercent:
		if in.DiscountValue.IsNegative() || in.DiscountValue.GreaterThan(types.NewMoney(100)) {
			return ComputedLine{}, apperror.NewValidation("discount percent must be between 0 and 100").
				WithDetail("field", "discount").
				WithDetail("lineNo", lineNo)
		}
		discount = types.RoundMoney(subtotal.Mul(in.DiscountValue).Div(types.NewMoney(100)))
	default:
		return ComputedLine{}, apperror.NewValidation(fmt.Sprintf("unknown discount kind %q", in.DiscountKind)).
			WithDetail("lineNo", lineNo)
	}

	taxable := subtotal.Sub(discount)
	if taxable.IsNegative() {
		// Fixed discount larger than the line: clamp, the extra is forfeit.
		discount = subtotal
		taxable = types.Zero()
	}

	split, err := tax.Split(taxable, in.GSTRate, intraState, gstEnabled)
	if err != nil {
		return ComputedLine{}, err
	}

	return ComputedLine{
		LineInput:    in,
		LineNo:       lineNo,
		Subtotal:     subtotal,
		Discount:     discount,
		TaxableValue: taxable,
		Tax:          split,
		LineTotal:    taxable.Add(split.Total()),
	}, nil
}

// ComputeTotals computes all lines and folds them into a totals block.
//
// round_off rounds the final payable amount to the nearest whole currency
// unit: round_off = round(payable) - payable, and
// grand_total = taxable + tax + round_off. The invariant
// grand_total == sum(line totals) + round_off holds by construction.
func ComputeTotals(lines []LineInput, intraState, gstEnabled bool) ([]ComputedLine, Totals, error) {
	if len(lines) == 0 {
		return nil, Totals{}, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	computed := make([]ComputedLine, 0, len(lines))
	totals := ZeroTotals()
	taxSum := tax.ZeroBreakup()

	for i, in := range lines {
		line, err := ComputeLine(in, i+1, intraState, gstEnabled)
		if err != nil {
			return nil, Totals{}, err
		}
		computed = append(computed, line)

		totals.TaxableValue = totals.TaxableValue.Add(line.TaxableValue)
		totals.Discount = totals.Discount.Add(line.Discount)
		taxSum = taxSum.Add(line.Tax)
	}

	totals.CGST = taxSum.CGST
	totals.SGST = taxSum.SGST
	totals.IGST = taxSum.IGST
	totals.UTGST = taxSum.UTGST
	totals.Cess = taxSum.Cess

	payable := totals.TaxableValue.Add(taxSum.Total())
	totals.RoundOff = types.RoundRupee(payable).Sub(payable)
	totals.GrandTotal = payable.Add(totals.RoundOff)

	return computed, totals, nil
}
