package statements

import (
	"context"
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/tx"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/cashflow"
	"gstbooks/internal/domain/payments"
)

// Source supplies the document-side figures statements are built from.
// Implemented by the storage layer as aggregate queries; every method is a
// read at whatever snapshot the surrounding transaction provides.
type Source interface {
	// RevenueInRange sums grand totals of paid and partially paid invoices
	// dated in [from, to).
	RevenueInRange(ctx context.Context, from, to time.Time) (types.Money, error)

	// PurchaseSpendInRange sums grand totals of paid and partially paid
	// purchases dated in [from, to).
	PurchaseSpendInRange(ctx context.Context, from, to time.Time) (types.Money, error)

	// ExpensesByCategory sums expenses dated in [from, to), keyed by
	// category.
	ExpensesByCategory(ctx context.Context, from, to time.Time) (map[payments.ExpenseCategory]types.Money, error)

	// ReceivablesOutstanding sums invoice balance amounts still owed.
	ReceivablesOutstanding(ctx context.Context) (types.Money, error)

	// PayablesOutstanding sums purchase balance amounts still owed.
	PayablesOutstanding(ctx context.Context) (types.Money, error)

	// InventoryValue sums product stock times purchase price.
	InventoryValue(ctx context.Context) (types.Money, error)
}

// Builder assembles statements by gathering inputs and handing them to the
// pure compute functions. Dates are always explicit parameters; nothing
// here reads the clock. Each statement gathers its inputs inside one
// read-only transaction so every figure comes from the same snapshot.
type Builder struct {
	source  Source
	flows   *cashflow.Service
	ro      tx.ReadOnlyManager
	taxRate types.Percent
}

// NewBuilder creates a statement builder. A zero taxRate falls back to
// DefaultTaxRate.
func NewBuilder(source Source, flows *cashflow.Service, ro tx.ReadOnlyManager, taxRate types.Percent) *Builder {
	return &Builder{source: source, flows: flows, ro: ro, taxRate: taxRate}
}

func validRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return apperror.NewValidation("statement period is required")
	}
	if to.Before(from) {
		return apperror.NewValidation("statement period end precedes start")
	}
	return nil
}

// ProfitLoss builds the P&L for [from, to).
func (b *Builder) ProfitLoss(ctx context.Context, from, to time.Time) (ProfitLoss, error) {
	if err := validRange(from, to); err != nil {
		return ProfitLoss{}, err
	}

	var (
		revenue, spend types.Money
		expenses       map[payments.ExpenseCategory]types.Money
	)
	err := b.ro.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		if revenue, err = b.source.RevenueInRange(ctx, from, to); err != nil {
			return err
		}
		if spend, err = b.source.PurchaseSpendInRange(ctx, from, to); err != nil {
			return err
		}
		expenses, err = b.source.ExpensesByCategory(ctx, from, to)
		return err
	})
	if err != nil {
		return ProfitLoss{}, err
	}

	return BuildProfitLoss(ProfitLossInputs{
		From:               from,
		To:                 to,
		Revenue:            revenue,
		PurchaseSpend:      spend,
		ExpensesByCategory: expenses,
		OtherIncome:        types.Zero(),
		OtherExpenses:      types.Zero(),
		TaxRate:            b.taxRate,
	}), nil
}

// BalanceSheet builds the position statement at asOf.
func (b *Builder) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	if asOf.IsZero() {
		return BalanceSheet{}, apperror.NewValidation("as-of date is required")
	}

	var (
		cash                             cashflow.Summary
		receivables, payables, inventory types.Money
	)
	err := b.ro.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		if cash, err = b.flows.Summarize(ctx, nil, &asOf); err != nil {
			return err
		}
		if receivables, err = b.source.ReceivablesOutstanding(ctx); err != nil {
			return err
		}
		if payables, err = b.source.PayablesOutstanding(ctx); err != nil {
			return err
		}
		inventory, err = b.source.InventoryValue(ctx)
		return err
	})
	if err != nil {
		return BalanceSheet{}, err
	}

	return BuildBalanceSheet(BalanceSheetInputs{
		AsOf:           asOf,
		CashBalance:    cash.Net,
		Receivables:    receivables,
		Payables:       payables,
		InventoryValue: inventory,
	}), nil
}

// CashFlow builds the movement-of-cash statement for [from, to).
func (b *Builder) CashFlow(ctx context.Context, from, to time.Time) (CashFlowStatement, error) {
	if err := validRange(from, to); err != nil {
		return CashFlowStatement{}, err
	}

	var opening, period cashflow.Summary
	err := b.ro.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		if opening, err = b.flows.Summarize(ctx, nil, &from); err != nil {
			return err
		}
		period, err = b.flows.Summarize(ctx, &from, &to)
		return err
	})
	if err != nil {
		return CashFlowStatement{}, err
	}

	return BuildCashFlow(CashFlowInputs{
		From:           from,
		To:             to,
		OpeningBalance: opening.Net,
		Inflows:        period.TotalIncome,
		Outflows:       period.TotalOutflow,
	}), nil
}
