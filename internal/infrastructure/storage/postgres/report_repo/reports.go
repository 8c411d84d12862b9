// Package report_repo provides read-only aggregate queries for cashflow
// and statement building.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/cashflow"
	"gstbooks/internal/domain/payments"
	"gstbooks/internal/domain/statements"
	"gstbooks/internal/infrastructure/storage/postgres"
)

// Compile-time checks.
var (
	_ cashflow.PendingSource = (*ReportRepo)(nil)
	_ statements.Source      = (*ReportRepo)(nil)
)

// ReportRepo serves the aggregate projections reports are built from.
// Everything here is read-only; callers wanting one consistent snapshot
// wrap the calls in a read-only transaction.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

// outstandingStatuses are the document states that still owe money.
const outstandingStatuses = "('sent', 'partially_paid', 'overdue')"

// OutstandingReceivables lists invoices still owed by customers.
func (r *ReportRepo) OutstandingReceivables(ctx context.Context) ([]cashflow.PendingPayment, error) {
	sql := `
		SELECT d.id AS document_id, d.number AS document_no, p.name AS party_name,
		       d.status, d.due_date, d.balance_amount AS pending_amount
		FROM doc_invoices d
		JOIN cat_parties p ON p.id = d.customer_id
		WHERE d.balance_amount > 0
		  AND d.status IN ` + outstandingStatuses + `
		  AND NOT d.deletion_mark
		ORDER BY d.due_date, d.number`

	var out []cashflow.PendingPayment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql); err != nil {
		return nil, fmt.Errorf("select receivables: %w", err)
	}
	return out, nil
}

// OutstandingPayables lists purchases still owed to vendors.
func (r *ReportRepo) OutstandingPayables(ctx context.Context) ([]cashflow.PendingPayment, error) {
	sql := `
		SELECT d.id AS document_id, d.number AS document_no, p.name AS party_name,
		       d.status, d.due_date, d.balance_amount AS pending_amount
		FROM doc_purchases d
		JOIN cat_parties p ON p.id = d.vendor_id
		WHERE d.balance_amount > 0
		  AND d.status IN ` + outstandingStatuses + `
		  AND NOT d.deletion_mark
		ORDER BY d.due_date, d.number`

	var out []cashflow.PendingPayment
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql); err != nil {
		return nil, fmt.Errorf("select payables: %w", err)
	}
	return out, nil
}

// sumQuery runs a single-value aggregate, mapping NULL to zero.
func (r *ReportRepo) sumQuery(ctx context.Context, sql string, args ...any) (types.Money, error) {
	var sum decimal.Decimal
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return types.Zero(), fmt.Errorf("aggregate query: %w", err)
	}
	return sum, nil
}

// RevenueInRange sums grand totals of paid and partially paid invoices
// dated in [from, to).
func (r *ReportRepo) RevenueInRange(ctx context.Context, from, to time.Time) (types.Money, error) {
	sql := `
		SELECT COALESCE(SUM(grand_total), 0)
		FROM doc_invoices
		WHERE status IN ('paid', 'partially_paid')
		  AND NOT deletion_mark
		  AND date >= $1 AND date < $2`
	return r.sumQuery(ctx, sql, from, to)
}

// PurchaseSpendInRange sums grand totals of paid and partially paid
// purchases dated in [from, to).
func (r *ReportRepo) PurchaseSpendInRange(ctx context.Context, from, to time.Time) (types.Money, error) {
	sql := `
		SELECT COALESCE(SUM(grand_total), 0)
		FROM doc_purchases
		WHERE status IN ('paid', 'partially_paid')
		  AND NOT deletion_mark
		  AND date >= $1 AND date < $2`
	return r.sumQuery(ctx, sql, from, to)
}

// ExpensesByCategory sums expenses dated in [from, to), keyed by category.
func (r *ReportRepo) ExpensesByCategory(ctx context.Context, from, to time.Time) (map[payments.ExpenseCategory]types.Money, error) {
	sql := `
		SELECT category, COALESCE(SUM(amount), 0) AS total
		FROM doc_expenses
		WHERE date >= $1 AND date < $2
		GROUP BY category`

	type row struct {
		Category payments.ExpenseCategory `db:"category"`
		Total    decimal.Decimal          `db:"total"`
	}
	var rows []row
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, from, to); err != nil {
		return nil, fmt.Errorf("select expenses by category: %w", err)
	}

	out := make(map[payments.ExpenseCategory]types.Money, len(rows))
	for _, rw := range rows {
		out[rw.Category] = rw.Total
	}
	return out, nil
}

// ReceivablesOutstanding sums invoice balance amounts still owed.
func (r *ReportRepo) ReceivablesOutstanding(ctx context.Context) (types.Money, error) {
	sql := `
		SELECT COALESCE(SUM(balance_amount), 0)
		FROM doc_invoices
		WHERE balance_amount > 0
		  AND status IN ` + outstandingStatuses + `
		  AND NOT deletion_mark`
	return r.sumQuery(ctx, sql)
}

// PayablesOutstanding sums purchase balance amounts still owed.
func (r *ReportRepo) PayablesOutstanding(ctx context.Context) (types.Money, error) {
	sql := `
		SELECT COALESCE(SUM(balance_amount), 0)
		FROM doc_purchases
		WHERE balance_amount > 0
		  AND status IN ` + outstandingStatuses + `
		  AND NOT deletion_mark`
	return r.sumQuery(ctx, sql)
}

// InventoryValue sums cached stock times purchase price across products.
// Stock is a fixed-point integer scaled by 1e4.
func (r *ReportRepo) InventoryValue(ctx context.Context) (types.Money, error) {
	sql := `
		SELECT COALESCE(SUM((stock / 10000.0) * purchase_price), 0)
		FROM cat_products
		WHERE NOT deletion_mark`
	return r.sumQuery(ctx, sql)
}
