package payments

import (
	"context"
	"time"

	"gstbooks/internal/core/id"
)

// Filter bounds payment/expense queries.
type Filter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Method   *Method
	Limit    int
	Offset   int
}

// Repository defines storage operations for payment and expense rows.
// Rows are immutable: no Update methods by design.
type Repository interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, paymentID id.ID) (*Payment, error)
	DeletePayment(ctx context.Context, paymentID id.ID) error
	ListPayments(ctx context.Context, f Filter) ([]*Payment, error)

	CreatePurchasePayment(ctx context.Context, p *PurchasePayment) error
	GetPurchasePayment(ctx context.Context, paymentID id.ID) (*PurchasePayment, error)
	DeletePurchasePayment(ctx context.Context, paymentID id.ID) error
	ListPurchasePayments(ctx context.Context, f Filter) ([]*PurchasePayment, error)

	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, expenseID id.ID) (*Expense, error)
	DeleteExpense(ctx context.Context, expenseID id.ID) error
	ListExpenses(ctx context.Context, f Filter) ([]*Expense, error)
}
