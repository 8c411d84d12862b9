// Package entity provides core domain entities.
package entity

import (
	"time"

	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
)

// EntryType defines movement direction for the stock ledger.
type EntryType string

const (
	// EntryIn increases balance (purchase receipt, opening stock)
	EntryIn EntryType = "in"
	// EntryOut decreases balance (sale, consumption)
	EntryOut EntryType = "out"
	// EntryAdjust corrects balance in either direction (signed quantity);
	// the only type allowed to bypass the stock floor
	EntryAdjust EntryType = "adjust"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryIn, EntryOut, EntryAdjust:
		return true
	}
	return false
}

// StockEntry is one row of the append-only stock ledger.
// Entries are immutable: on document edit they are never updated, only
// superseded by a new RefVersion generation and deleted by version.
type StockEntry struct {
	// LineID is unique identifier for this entry (UUIDv7, insertion-ordered)
	LineID id.ID `db:"line_id" json:"lineId"`

	// RefID is the document (or manual adjustment) that produced this entry
	RefID id.ID `db:"ref_id" json:"refId"`

	// RefType is the source type (e.g. "Invoice", "Purchase", "Adjustment")
	RefType string `db:"ref_type" json:"refType"`

	// RefVersion tracks which recompute generation created this entry.
	// Allows efficient reversal: DELETE WHERE ref_id = X AND ref_version < Y
	RefVersion int `db:"ref_version" json:"refVersion"`

	// ProductID is the product being moved
	ProductID id.ID `db:"product_id" json:"productId"`

	// EntryType: in, out or adjust
	EntryType EntryType `db:"entry_type" json:"entryType"`

	// Qty is positive for in/out; adjust carries a signed quantity
	Qty types.Quantity `db:"qty" json:"qty"`

	// UnitCost is the per-unit acquisition cost; set on `in` entries and
	// positive adjustments, zero otherwise. Feeds FIFO/LIFO/average valuation.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// Period is the business date of the movement
	Period time.Time `db:"period" json:"period"`

	// CreatedAt is when the entry was recorded (tie-break within a period)
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockEntry creates a ledger entry with generated LineID.
func NewStockEntry(
	refID id.ID,
	refType string,
	refVersion int,
	productID id.ID,
	entryType EntryType,
	qty types.Quantity,
	unitCost types.Money,
	period time.Time,
) StockEntry {
	return StockEntry{
		LineID:     id.New(),
		RefID:      refID,
		RefType:    refType,
		RefVersion: refVersion,
		ProductID:  productID,
		EntryType:  entryType,
		Qty:        qty,
		UnitCost:   unitCost,
		Period:     period,
		CreatedAt:  time.Now().UTC(),
	}
}

// SignedQty returns the quantity with the sign implied by the entry type.
// In = positive, out = negative, adjust = as recorded.
func (e *StockEntry) SignedQty() types.Quantity {
	switch e.EntryType {
	case EntryOut:
		return e.Qty.Neg()
	case EntryAdjust:
		return e.Qty
	default:
		return e.Qty
	}
}
