package payments

import (
	"context"
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/tx"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/documents/invoice"
	"gstbooks/internal/domain/documents/purchase"
	"gstbooks/pkg/logger"
)

// RecordInput carries a new payment against a document.
type RecordInput struct {
	DocumentID id.ID
	Amount     types.Money
	Method     Method
	Date       time.Time
	Note       string
}

func (in RecordInput) validate() error {
	if id.IsNil(in.DocumentID) {
		return apperror.NewValidation("document is required").
			WithDetail("field", "documentId")
	}
	if !in.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}
	if !in.Method.Valid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "method")
	}
	if in.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// Service records and deletes payments, keeping each parent document's
// paid/balance/status consistent. Every mutation is a read-modify-write
// under a row lock on the document so concurrent payments serialize instead
// of losing updates. Tax is never renegotiated here.
type Service struct {
	repo      Repository
	invoices  invoice.Repository
	purchases purchase.Repository
	txManager tx.Manager
}

// NewService creates a new payments service.
func NewService(repo Repository, invoices invoice.Repository, purchases purchase.Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		invoices:  invoices,
		purchases: purchases,
		txManager: txManager,
	}
}

// RecordPayment applies a customer payment to an invoice.
// Overpayment is rejected before any mutation.
func (s *Service) RecordPayment(ctx context.Context, in RecordInput) (*Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &Payment{
		BaseDocument: entity.NewBaseDocument(),
		InvoiceID:    in.DocumentID,
		Amount:       types.RoundMoney(in.Amount),
		Method:       in.Method,
		Date:         in.Date,
		Note:         in.Note,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.GetForUpdate(ctx, in.DocumentID)
		if err != nil {
			return err
		}

		if p.Amount.GreaterThan(inv.BalanceAmount) {
			return apperror.NewOverpayment(inv.Number, p.Amount.String(), inv.BalanceAmount.String())
		}

		if err := s.repo.CreatePayment(ctx, p); err != nil {
			return err
		}

		inv.PaidAmount = inv.PaidAmount.Add(p.Amount)
		inv.BalanceAmount = inv.Totals.GrandTotal.Sub(inv.PaidAmount)
		inv.Status = entity.DeriveStatus(inv.Status, inv.Totals.GrandTotal, inv.PaidAmount)
		inv.Touch()
		return s.invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"payment_id", p.ID,
		"invoice_id", in.DocumentID,
		"amount", p.Amount,
	)
	return p, nil
}

// DeletePayment removes a payment and reverses its effect on the invoice.
func (s *Service) DeletePayment(ctx context.Context, paymentID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}

		inv, err := s.invoices.GetForUpdate(ctx, p.InvoiceID)
		if err != nil {
			return err
		}

		if err := s.repo.DeletePayment(ctx, paymentID); err != nil {
			return err
		}

		inv.PaidAmount = inv.PaidAmount.Sub(p.Amount)
		if inv.PaidAmount.IsNegative() {
			return apperror.NewInconsistentState("paid amount below zero after payment reversal").
				WithDetail("invoice_id", inv.ID.String()).
				WithDetail("payment_id", paymentID.String())
		}
		inv.BalanceAmount = inv.Totals.GrandTotal.Sub(inv.PaidAmount)
		inv.Status = entity.DeriveStatus(inv.Status, inv.Totals.GrandTotal, inv.PaidAmount)
		inv.Touch()
		if err := s.invoices.Update(ctx, inv); err != nil {
			return err
		}

		logger.Info(ctx, "payment deleted",
			"payment_id", paymentID,
			"invoice_id", inv.ID,
		)
		return nil
	})
}

// RecordPurchasePayment applies a vendor payment to a purchase.
func (s *Service) RecordPurchasePayment(ctx context.Context, in RecordInput) (*PurchasePayment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &PurchasePayment{
		BaseDocument: entity.NewBaseDocument(),
		PurchaseID:   in.DocumentID,
		Amount:       types.RoundMoney(in.Amount),
		Method:       in.Method,
		Date:         in.Date,
		Note:         in.Note,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.purchases.GetForUpdate(ctx, in.DocumentID)
		if err != nil {
			return err
		}

		if p.Amount.GreaterThan(doc.BalanceAmount) {
			return apperror.NewOverpayment(doc.Number, p.Amount.String(), doc.BalanceAmount.String())
		}

		if err := s.repo.CreatePurchasePayment(ctx, p); err != nil {
			return err
		}

		doc.PaidAmount = doc.PaidAmount.Add(p.Amount)
		doc.BalanceAmount = doc.Totals.GrandTotal.Sub(doc.PaidAmount)
		doc.Status = entity.DeriveStatus(doc.Status, doc.Totals.GrandTotal, doc.PaidAmount)
		doc.Touch()
		return s.purchases.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase payment recorded",
		"payment_id", p.ID,
		"purchase_id", in.DocumentID,
		"amount", p.Amount,
	)
	return p, nil
}

// DeletePurchasePayment removes a vendor payment and reverses its effect.
func (s *Service) DeletePurchasePayment(ctx context.Context, paymentID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPurchasePayment(ctx, paymentID)
		if err != nil {
			return err
		}

		doc, err := s.purchases.GetForUpdate(ctx, p.PurchaseID)
		if err != nil {
			return err
		}

		if err := s.repo.DeletePurchasePayment(ctx, paymentID); err != nil {
			return err
		}

		doc.PaidAmount = doc.PaidAmount.Sub(p.Amount)
		if doc.PaidAmount.IsNegative() {
			return apperror.NewInconsistentState("paid amount below zero after payment reversal").
				WithDetail("purchase_id", doc.ID.String()).
				WithDetail("payment_id", paymentID.String())
		}
		doc.BalanceAmount = doc.Totals.GrandTotal.Sub(doc.PaidAmount)
		doc.Status = entity.DeriveStatus(doc.Status, doc.Totals.GrandTotal, doc.PaidAmount)
		doc.Touch()
		return s.purchases.Update(ctx, doc)
	})
}

// RecordExpense stores a direct expense. No document state to maintain
// unless it references a purchase, which stays untouched: expenses are
// reporting rows, not settlements.
func (s *Service) RecordExpense(ctx context.Context, e *Expense) error {
	if e.ID == id.Nil() {
		e.BaseDocument = entity.NewBaseDocument()
	}
	e.Amount = types.RoundMoney(e.Amount)
	if err := e.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return err
	}
	logger.Info(ctx, "expense recorded",
		"expense_id", e.ID,
		"category", e.Category,
		"amount", e.Amount,
	)
	return nil
}

// DeleteExpense removes an expense row.
func (s *Service) DeleteExpense(ctx context.Context, expenseID id.ID) error {
	return s.repo.DeleteExpense(ctx, expenseID)
}
