package handlers

import (
	"github.com/gin-gonic/gin"

	"gstbooks/internal/domain/cashflow"
	"gstbooks/internal/domain/payments"
	"gstbooks/internal/infrastructure/http/v1/dto"
)

// CashflowHandler serves the merged money-movement endpoints.
type CashflowHandler struct {
	*BaseHandler
	service *cashflow.Service
}

// NewCashflowHandler creates a new cashflow handler.
func NewCashflowHandler(base *BaseHandler, service *cashflow.Service) *CashflowHandler {
	return &CashflowHandler{BaseHandler: base, service: service}
}

// ListTransactions handles GET /cashflow/transactions.
func (h *CashflowHandler) ListTransactions(c *gin.Context) {
	var query dto.PaymentListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	from, to, err := dto.ParseDateRange(query.FromDate, query.ToDate)
	if err != nil {
		h.Error(c, err)
		return
	}

	in := cashflow.ListInput{
		FromDate: from,
		ToDate:   to,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if query.Method != "" {
		method := payments.Method(query.Method)
		in.Method = &method
	}

	result, err := h.service.ListTransactions(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result))
}

// Summary handles GET /cashflow/summary.
func (h *CashflowHandler) Summary(c *gin.Context) {
	from, to, err := dto.ParseDateRange(c.Query("fromDate"), c.Query("toDate"))
	if err != nil {
		h.Error(c, err)
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// Pending handles GET /cashflow/pending.
func (h *CashflowHandler) Pending(c *gin.Context) {
	pending, err := h.service.PendingPayments(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, pending)
}
