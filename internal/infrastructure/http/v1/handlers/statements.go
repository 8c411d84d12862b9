package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/domain/statements"
	"gstbooks/internal/infrastructure/http/v1/dto"
)

// StatementsHandler serves the financial statement endpoints.
type StatementsHandler struct {
	*BaseHandler
	builder *statements.Builder
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(base *BaseHandler, builder *statements.Builder) *StatementsHandler {
	return &StatementsHandler{BaseHandler: base, builder: builder}
}

// period parses the required fromDate/toDate pair.
func (h *StatementsHandler) period(c *gin.Context) (time.Time, time.Time, bool) {
	fromStr, toStr := c.Query("fromDate"), c.Query("toDate")
	if fromStr == "" || toStr == "" {
		h.Error(c, apperror.NewValidation("fromDate and toDate are required"))
		return time.Time{}, time.Time{}, false
	}

	from, to, err := dto.ParseDateRange(fromStr, toStr)
	if err != nil {
		h.Error(c, err)
		return time.Time{}, time.Time{}, false
	}
	return *from, *to, true
}

// ProfitLoss handles GET /statements/profit-loss.
func (h *StatementsHandler) ProfitLoss(c *gin.Context) {
	from, to, ok := h.period(c)
	if !ok {
		return
	}

	statement, err := h.builder.ProfitLoss(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, statement)
}

// BalanceSheet handles GET /statements/balance-sheet.
func (h *StatementsHandler) BalanceSheet(c *gin.Context) {
	asOf := time.Now().UTC()
	if v := c.Query("asOf"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid asOf, expected YYYY-MM-DD").
				WithDetail("value", v))
			return
		}
		// The sheet is drawn at end of the named day.
		asOf = t.Add(24 * time.Hour)
	}

	statement, err := h.builder.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, statement)
}

// CashFlow handles GET /statements/cash-flow.
func (h *StatementsHandler) CashFlow(c *gin.Context) {
	from, to, ok := h.period(c)
	if !ok {
		return
	}

	statement, err := h.builder.CashFlow(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, statement)
}
