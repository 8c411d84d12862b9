package stockledger

import (
	"context"
	"fmt"
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
)

// ValuationMethod selects how remaining inventory is costed.
type ValuationMethod string

const (
	// FIFO consumes the oldest lots first; remaining stock carries the newest costs
	FIFO ValuationMethod = "fifo"
	// LIFO consumes the newest lots first; remaining stock carries the oldest costs
	LIFO ValuationMethod = "lifo"
	// WeightedAverage costs remaining stock at the quantity-weighted mean of all receipts
	WeightedAverage ValuationMethod = "average"
)

// Valid reports whether m is a known method.
func (m ValuationMethod) Valid() bool {
	switch m {
	case FIFO, LIFO, WeightedAverage:
		return true
	}
	return false
}

// Valuation is the costed remaining inventory of one product.
type Valuation struct {
	ProductID id.ID           `json:"productId"`
	Method    ValuationMethod `json:"method"`
	Quantity  types.Quantity  `json:"quantity"`
	UnitCost  types.Money     `json:"unitCost"`
	Value     types.Money     `json:"value"`
}

// lot is an `in` generation with its remaining quantity.
type lot struct {
	qty  types.Quantity
	cost types.Money
}

// Valuate costs the remaining inventory of a product as of asOf.
//
// True lot costing: FIFO and LIFO walk the `in` lots (receipts and positive
// adjustments) in chronological or reverse-chronological order, netting out
// the total consumed quantity, and value whatever lots survive. Average is
// the quantity-weighted mean of all receipt costs applied to the remaining
// balance.
func (s *Service) Valuate(ctx context.Context, productID id.ID, method ValuationMethod, asOf time.Time) (Valuation, error) {
	if !method.Valid() {
		return Valuation{}, apperror.NewValidation(fmt.Sprintf("unknown valuation method %q", method))
	}

	entries, err := s.repo.GetEntries(ctx, productID, asOf)
	if err != nil {
		return Valuation{}, fmt.Errorf("get entries: %w", err)
	}

	var lots []lot
	var consumed, balance types.Quantity
	for _, e := range entries {
		delta := e.SignedQty()
		balance += delta
		if delta.IsPositive() {
			lots = append(lots, lot{qty: delta, cost: e.UnitCost})
		} else {
			consumed += delta.Neg()
		}
	}

	v := Valuation{
		ProductID: productID,
		Method:    method,
		Quantity:  balance,
		UnitCost:  types.Zero(),
		Value:     types.Zero(),
	}
	if !balance.IsPositive() {
		return v, nil
	}

	switch method {
	case FIFO:
		v.Value = valueRemaining(lots, consumed, false)
	case LIFO:
		v.Value = valueRemaining(lots, consumed, true)
	case WeightedAverage:
		var inQty types.Quantity
		inValue := types.Zero()
		for _, l := range lots {
			inQty += l.qty
			inValue = inValue.Add(l.qty.Decimal().Mul(l.cost))
		}
		if inQty.IsPositive() {
			avg := inValue.Div(inQty.Decimal())
			v.Value = types.RoundMoney(balance.Decimal().Mul(avg))
		}
	}

	v.Value = types.RoundMoney(v.Value)
	v.UnitCost = types.RoundMoney(v.Value.Div(balance.Decimal()))
	return v, nil
}

// valueRemaining nets consumption against lots and values the survivors.
// FIFO consumes from the oldest lot (front); LIFO from the newest (back).
func valueRemaining(lots []lot, consumed types.Quantity, fromNewest bool) types.Money {
	remaining := make([]lot, len(lots))
	copy(remaining, lots)

	if fromNewest {
		for i := len(remaining) - 1; i >= 0 && consumed > 0; i-- {
			take := remaining[i].qty
			if take > consumed {
				take = consumed
			}
			remaining[i].qty -= take
			consumed -= take
		}
	} else {
		for i := 0; i < len(remaining) && consumed > 0; i++ {
			take := remaining[i].qty
			if take > consumed {
				take = consumed
			}
			remaining[i].qty -= take
			consumed -= take
		}
	}

	value := types.Zero()
	for _, l := range remaining {
		if l.qty.IsPositive() {
			value = value.Add(l.qty.Decimal().Mul(l.cost))
		}
	}
	return value
}
