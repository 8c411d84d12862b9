package dto

import (
	"time"
)

// StockAdjustmentRequest records a manual stock correction.
// Quantity may be negative; unit cost prices positive adjustments into
// valuation.
type StockAdjustmentRequest struct {
	ProductID string    `json:"productId" binding:"required,uuid"`
	Quantity  float64   `json:"quantity" binding:"required"`
	UnitCost  string    `json:"unitCost,omitempty" binding:"omitempty,money"`
	Date      time.Time `json:"date" binding:"required"`
}

// ValuationQuery selects the costing method and cut-off for valuation.
type ValuationQuery struct {
	Method string `form:"method" binding:"omitempty,oneof=fifo lifo average"`
	AsOf   string `form:"asOf"`
}

// BalanceQuery bounds a ledger balance read.
type BalanceQuery struct {
	AsOf string `form:"asOf"`
}
