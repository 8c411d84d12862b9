// Package payment_repo provides the PostgreSQL implementation of the
// payments repository.
package payment_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/id"
	"gstbooks/internal/domain/payments"
	"gstbooks/internal/infrastructure/storage/postgres"
)

const (
	paymentsTable         = "doc_payments"
	purchasePaymentsTable = "doc_purchase_payments"
	expensesTable         = "doc_expenses"
)

// Compile-time check.
var _ payments.Repository = (*PaymentRepo)(nil)

// PaymentRepo implements payments.Repository. Payment rows are immutable
// once written; only insert, read and delete exist.
type PaymentRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txManager *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PaymentRepo) applyFilter(q squirrel.SelectBuilder, f payments.Filter) squirrel.SelectBuilder {
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.Lt{"date": *f.ToDate})
	}
	if f.Method != nil {
		q = q.Where(squirrel.Eq{"method": *f.Method})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q.OrderBy("date DESC", "created_at DESC")
}

// --- invoice payments ---

func (r *PaymentRepo) CreatePayment(ctx context.Context, p *payments.Payment) error {
	q := r.builder.Insert(paymentsTable).
		Columns("id", "created_at", "updated_at", "invoice_id", "amount", "method", "date", "note").
		Values(p.ID, p.CreatedAt, p.UpdatedAt, p.InvoiceID, p.Amount, p.Method, p.Date, p.Note)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) GetPayment(ctx context.Context, paymentID id.ID) (*payments.Payment, error) {
	sql := `SELECT id, created_at, updated_at, invoice_id, amount, method, date, note
	        FROM doc_payments WHERE id = $1`

	var p payments.Payment
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, paymentID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("payment", paymentID)
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *PaymentRepo) DeletePayment(ctx context.Context, paymentID id.ID) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, "DELETE FROM "+paymentsTable+" WHERE id = $1", paymentID)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("payment", paymentID)
	}
	return nil
}

func (r *PaymentRepo) ListPayments(ctx context.Context, f payments.Filter) ([]*payments.Payment, error) {
	q := r.applyFilter(r.builder.Select(
		"id", "created_at", "updated_at", "invoice_id", "amount", "method", "date", "note",
	).From(paymentsTable), f)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*payments.Payment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	return out, nil
}

// --- purchase payments ---

func (r *PaymentRepo) CreatePurchasePayment(ctx context.Context, p *payments.PurchasePayment) error {
	q := r.builder.Insert(purchasePaymentsTable).
		Columns("id", "created_at", "updated_at", "purchase_id", "amount", "method", "date", "note").
		Values(p.ID, p.CreatedAt, p.UpdatedAt, p.PurchaseID, p.Amount, p.Method, p.Date, p.Note)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) GetPurchasePayment(ctx context.Context, paymentID id.ID) (*payments.PurchasePayment, error) {
	sql := `SELECT id, created_at, updated_at, purchase_id, amount, method, date, note
	        FROM doc_purchase_payments WHERE id = $1`

	var p payments.PurchasePayment
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, paymentID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase payment", paymentID)
		}
		return nil, fmt.Errorf("get purchase payment: %w", err)
	}
	return &p, nil
}

func (r *PaymentRepo) DeletePurchasePayment(ctx context.Context, paymentID id.ID) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, "DELETE FROM "+purchasePaymentsTable+" WHERE id = $1", paymentID)
	if err != nil {
		return fmt.Errorf("delete purchase payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase payment", paymentID)
	}
	return nil
}

func (r *PaymentRepo) ListPurchasePayments(ctx context.Context, f payments.Filter) ([]*payments.PurchasePayment, error) {
	q := r.applyFilter(r.builder.Select(
		"id", "created_at", "updated_at", "purchase_id", "amount", "method", "date", "note",
	).From(purchasePaymentsTable), f)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*payments.PurchasePayment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select purchase payments: %w", err)
	}
	return out, nil
}

// --- expenses ---

func (r *PaymentRepo) CreateExpense(ctx context.Context, e *payments.Expense) error {
	q := r.builder.Insert(expensesTable).
		Columns("id", "created_at", "updated_at", "document_id", "amount", "method", "date", "category", "note").
		Values(e.ID, e.CreatedAt, e.UpdatedAt, e.DocumentID, e.Amount, e.Method, e.Date, e.Category, e.Note)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *PaymentRepo) GetExpense(ctx context.Context, expenseID id.ID) (*payments.Expense, error) {
	sql := `SELECT id, created_at, updated_at, document_id, amount, method, date, category, note
	        FROM doc_expenses WHERE id = $1`

	var e payments.Expense
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &e, sql, expenseID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("expense", expenseID)
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &e, nil
}

func (r *PaymentRepo) DeleteExpense(ctx context.Context, expenseID id.ID) error {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, "DELETE FROM "+expensesTable+" WHERE id = $1", expenseID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("expense", expenseID)
	}
	return nil
}

func (r *PaymentRepo) ListExpenses(ctx context.Context, f payments.Filter) ([]*payments.Expense, error) {
	q := r.applyFilter(r.builder.Select(
		"id", "created_at", "updated_at", "document_id", "amount", "method", "date", "category", "note",
	).From(expensesTable), f)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*payments.Expense
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select expenses: %w", err)
	}
	return out, nil
}
