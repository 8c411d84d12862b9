package statements

import (
	"time"

	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/payments"
)

// DefaultTaxRate is the statutory rate applied to net profit before tax.
var DefaultTaxRate = types.NewPercent(25)

// ProfitLossInputs are the gathered figures a P&L is computed from.
type ProfitLossInputs struct {
	From time.Time
	To   time.Time

	// Revenue is the grand total of paid and partially paid invoices
	// dated in the period.
	Revenue types.Money

	// PurchaseSpend stands in for cost of goods sold.
	PurchaseSpend types.Money

	ExpensesByCategory map[payments.ExpenseCategory]types.Money

	OtherIncome   types.Money
	OtherExpenses types.Money

	// TaxRate overrides DefaultTaxRate when non-zero.
	TaxRate types.Percent
}

// BuildProfitLoss computes a P&L from gathered inputs.
func BuildProfitLoss(in ProfitLossInputs) ProfitLoss {
	rate := in.TaxRate
	if rate.IsZero() {
		rate = DefaultTaxRate
	}

	totalOpex := types.Zero()
	opex := make(map[payments.ExpenseCategory]types.Money, len(in.ExpensesByCategory))
	for cat, amount := range in.ExpensesByCategory {
		opex[cat] = amount
		totalOpex = totalOpex.Add(amount)
	}

	gross := in.Revenue.Sub(in.PurchaseSpend)
	operating := gross.Sub(totalOpex)
	beforeTax := operating.Add(in.OtherIncome).Sub(in.OtherExpenses)

	// No tax on a loss.
	tax := types.Zero()
	if beforeTax.IsPositive() {
		tax = types.RoundMoney(beforeTax.Mul(rate).Div(types.NewMoney(100)))
	}

	return ProfitLoss{
		From:               in.From,
		To:                 in.To,
		Revenue:            in.Revenue,
		COGS:               in.PurchaseSpend,
		GrossProfit:        gross,
		OperatingCost:      opex,
		TotalOpex:          totalOpex,
		OperatingProfit:    operating,
		OtherIncome:        in.OtherIncome,
		OtherExpenses:      in.OtherExpenses,
		NetProfitBeforeTax: beforeTax,
		TaxRate:            rate,
		Tax:                tax,
		NetProfitAfterTax:  beforeTax.Sub(tax),
	}
}

// BalanceSheetInputs are the gathered figures a balance sheet is computed
// from, all measured at AsOf.
type BalanceSheetInputs struct {
	AsOf time.Time

	// CashBalance is net cash movement over all history up to AsOf.
	CashBalance types.Money

	// Receivables is the outstanding balance across invoices.
	Receivables types.Money

	// Payables is the outstanding balance across purchases.
	Payables types.Money

	// InventoryValue is Σ product stock × purchase price.
	InventoryValue types.Money
}

// BuildBalanceSheet computes a balance sheet from gathered inputs.
func BuildBalanceSheet(in BalanceSheetInputs) BalanceSheet {
	currentAssets := in.CashBalance.Add(in.Receivables).Add(in.InventoryValue)
	currentLiabilities := in.Payables

	return BalanceSheet{
		AsOf:               in.AsOf,
		CashBalance:        in.CashBalance,
		Receivables:        in.Receivables,
		InventoryValue:     in.InventoryValue,
		CurrentAssets:      currentAssets,
		TotalAssets:        currentAssets,
		Payables:           in.Payables,
		CurrentLiabilities: currentLiabilities,
		TotalLiabilities:   currentLiabilities,
		Equity:             currentAssets.Sub(currentLiabilities),
	}
}

// CashFlowInputs are the gathered figures a cash flow statement is
// computed from.
type CashFlowInputs struct {
	From time.Time
	To   time.Time

	// OpeningBalance is net cash movement over all history before From.
	OpeningBalance types.Money

	// Inflows and Outflows cover the period itself.
	Inflows  types.Money
	Outflows types.Money
}

// BuildCashFlow computes a cash flow statement from gathered inputs.
func BuildCashFlow(in CashFlowInputs) CashFlowStatement {
	operating := in.Inflows.Sub(in.Outflows)
	net := operating // investing and financing always zero

	return CashFlowStatement{
		From:           in.From,
		To:             in.To,
		OpeningBalance: in.OpeningBalance,
		Operating:      operating,
		Investing:      types.Zero(),
		Financing:      types.Zero(),
		NetCashFlow:    net,
		ClosingBalance: in.OpeningBalance.Add(net),
	}
}
