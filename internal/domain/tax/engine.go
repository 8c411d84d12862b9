// Package tax computes statutory GST splits for taxable amounts.
package tax

import (
	"github.com/shopspring/decimal"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/types"
)

var (
	hundred    = decimal.NewFromInt(100)
	twoHundred = decimal.NewFromInt(200)
)

// Breakup holds the GST components for one taxable amount.
// Exactly one of {CGST+SGST, IGST} is non-zero for a taxed supply.
// UTGST and Cess are reserved: zero unless supplied by the caller upstream.
type Breakup struct {
	CGST  types.Money `json:"cgst"`
	SGST  types.Money `json:"sgst"`
	IGST  types.Money `json:"igst"`
	UTGST types.Money `json:"utgst"`
	Cess  types.Money `json:"cess"`
}

// ZeroBreakup returns an all-zero breakup.
func ZeroBreakup() Breakup {
	return Breakup{
		CGST:  types.Zero(),
		SGST:  types.Zero(),
		IGST:  types.Zero(),
		UTGST: types.Zero(),
		Cess:  types.Zero(),
	}
}

// Total returns the sum of all components.
func (b Breakup) Total() types.Money {
	return b.CGST.Add(b.SGST).Add(b.IGST).Add(b.UTGST).Add(b.Cess)
}

// Add returns the component-wise sum of two breakups.
func (b Breakup) Add(o Breakup) Breakup {
	return Breakup{
		CGST:  b.CGST.Add(o.CGST),
		SGST:  b.SGST.Add(o.SGST),
		IGST:  b.IGST.Add(o.IGST),
		UTGST: b.UTGST.Add(o.UTGST),
		Cess:  b.Cess.Add(o.Cess),
	}
}

// ValidateRate checks that a GST rate is within the statutory 0-100 band.
func ValidateRate(rate types.Percent) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return apperror.NewValidation("gst rate must be between 0 and 100").
			WithDetail("field", "gstRate").
			WithDetail("rate", rate.String())
	}
	return nil
}

// Split computes the GST breakup for a taxable value.
//
// Intra-state supply splits the levy evenly into CGST and SGST; each half is
// rounded half-up to 2 decimals INDEPENDENTLY (taxable*rate/200), not derived
// from a rounded combined amount. CGST and SGST are therefore always
// bit-identical, which is a statutory expectation.
// Inter-state supply carries the whole levy as IGST.
//
// Pure and deterministic: identical inputs always produce identical outputs,
// which recomputation and audit both rely on.
func Split(taxable types.Money, rate types.Percent, intraState, gstEnabled bool) (Breakup, error) {
	if err := ValidateRate(rate); err != nil {
		return Breakup{}, err
	}
	if taxable.IsNegative() {
		return Breakup{}, apperror.NewValidation("taxable value must not be negative").
			WithDetail("field", "taxableValue")
	}

	if !gstEnabled || rate.IsZero() {
		return ZeroBreakup(), nil
	}

	b := ZeroBreakup()
	if intraState {
		half := types.RoundMoney(taxable.Mul(rate).Div(twoHundred))
		b.CGST = half
		b.SGST = half
	} else {
		b.IGST = types.RoundMoney(taxable.Mul(rate).Div(hundred))
	}
	return b, nil
}
