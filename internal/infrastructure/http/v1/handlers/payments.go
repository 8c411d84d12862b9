package handlers

import (
	"github.com/gin-gonic/gin"

	"gstbooks/internal/domain/payments"
	"gstbooks/internal/infrastructure/http/v1/dto"
)

// PaymentsHandler serves payment and expense endpoints.
type PaymentsHandler struct {
	*BaseHandler
	service *payments.Service
}

// NewPaymentsHandler creates a new payments handler.
func NewPaymentsHandler(base *BaseHandler, service *payments.Service) *PaymentsHandler {
	return &PaymentsHandler{BaseHandler: base, service: service}
}

// RecordPayment handles POST /payments.
func (h *PaymentsHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.RecordPayment(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID)
}

// DeletePayment handles DELETE /payments/:id.
func (h *PaymentsHandler) DeletePayment(c *gin.Context) {
	paymentID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.DeletePayment(c.Request.Context(), paymentID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RecordPurchasePayment handles POST /purchase-payments.
func (h *PaymentsHandler) RecordPurchasePayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.RecordPurchasePayment(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID)
}

// DeletePurchasePayment handles DELETE /purchase-payments/:id.
func (h *PaymentsHandler) DeletePurchasePayment(c *gin.Context) {
	paymentID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.DeletePurchasePayment(c.Request.Context(), paymentID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RecordExpense handles POST /expenses.
func (h *PaymentsHandler) RecordExpense(c *gin.Context) {
	var req dto.RecordExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.RecordExpense(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, e.ID)
}

// DeleteExpense handles DELETE /expenses/:id.
func (h *PaymentsHandler) DeleteExpense(c *gin.Context) {
	expenseID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteExpense(c.Request.Context(), expenseID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
