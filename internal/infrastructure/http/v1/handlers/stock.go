package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/stockledger"
	"gstbooks/internal/infrastructure/http/v1/dto"
)

// StockHandler serves stock ledger endpoints.
type StockHandler struct {
	*BaseHandler
	service *stockledger.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stockledger.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// parseAsOf parses an optional YYYY-MM-DD cut-off, defaulting to now.
func (h *StockHandler) parseAsOf(c *gin.Context, value string) (time.Time, bool) {
	if value == "" {
		return time.Now().UTC(), true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid asOf, expected YYYY-MM-DD").
			WithDetail("value", value))
		return time.Time{}, false
	}
	// Cut-off is inclusive of the named day.
	return t.Add(24*time.Hour - time.Nanosecond), true
}

// RecordAdjustment handles POST /stock/adjustments.
func (h *StockHandler) RecordAdjustment(c *gin.Context) {
	var req dto.StockAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := dto.ParseID("productId", req.ProductID)
	if err != nil {
		h.Error(c, err)
		return
	}

	unitCost := types.Zero()
	if req.UnitCost != "" {
		unitCost, err = dto.ParseMoney("unitCost", req.UnitCost)
		if err != nil {
			h.Error(c, err)
			return
		}
	}

	qty := types.NewQuantityFromFloat64(req.Quantity)
	if err := h.service.RecordAdjustment(c.Request.Context(), productID, qty, unitCost, req.Date); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SuccessResponse{Success: true, Message: "adjustment recorded"})
}

// GetBalance handles GET /stock/:id/balance.
func (h *StockHandler) GetBalance(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	var query dto.BalanceQuery
	if !h.BindQuery(c, &query) {
		return
	}
	asOf, ok := h.parseAsOf(c, query.AsOf)
	if !ok {
		return
	}

	balance, err := h.service.BalanceAt(c.Request.Context(), productID, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"productId": productID,
		"asOf":      asOf,
		"quantity":  balance,
	})
}

// GetValuation handles GET /stock/:id/valuation.
func (h *StockHandler) GetValuation(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	var query dto.ValuationQuery
	if !h.BindQuery(c, &query) {
		return
	}

	method := stockledger.ValuationMethod(query.Method)
	if query.Method == "" {
		method = stockledger.FIFO
	}

	asOf, ok := h.parseAsOf(c, query.AsOf)
	if !ok {
		return
	}

	valuation, err := h.service.Valuate(c.Request.Context(), productID, method, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, valuation)
}

// VerifyCache handles POST /stock/:id/verify.
// Recomputes the ledger balance and compares it with the cached product
// stock value.
func (h *StockHandler) VerifyCache(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.VerifyCache(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SuccessResponse{Success: true, Message: "cache consistent with ledger"})
}
