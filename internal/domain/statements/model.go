// Package statements derives Profit & Loss, Balance Sheet and Cash Flow
// statements from document, payment and stock data. Computation is split
// into pure functions over gathered inputs so the same inputs always
// produce the same statement.
package statements

import (
	"time"

	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/payments"
)

// ProfitLoss is the P&L statement for a period.
//
// COGS is approximated by total purchase spend in the period rather than
// matched cost of units sold. Known limitation, kept deliberately.
type ProfitLoss struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	Revenue       types.Money                              `json:"revenue"`
	COGS          types.Money                              `json:"cogs"`
	GrossProfit   types.Money                              `json:"grossProfit"`
	OperatingCost map[payments.ExpenseCategory]types.Money `json:"operatingCost"`
	TotalOpex     types.Money                              `json:"totalOpex"`

	OperatingProfit    types.Money   `json:"operatingProfit"`
	OtherIncome        types.Money   `json:"otherIncome"`
	OtherExpenses      types.Money   `json:"otherExpenses"`
	NetProfitBeforeTax types.Money   `json:"netProfitBeforeTax"`
	TaxRate            types.Percent `json:"taxRate"`
	Tax                types.Money   `json:"tax"`
	NetProfitAfterTax  types.Money   `json:"netProfitAfterTax"`
}

// BalanceSheet is the position statement at a point in time.
//
// Equity is the residual of assets minus liabilities, not tracked against
// an equity ledger.
type BalanceSheet struct {
	AsOf time.Time `json:"asOf"`

	CashBalance    types.Money `json:"cashBalance"`
	Receivables    types.Money `json:"receivables"`
	InventoryValue types.Money `json:"inventoryValue"`
	CurrentAssets  types.Money `json:"currentAssets"`
	TotalAssets    types.Money `json:"totalAssets"`

	Payables           types.Money `json:"payables"`
	CurrentLiabilities types.Money `json:"currentLiabilities"`
	TotalLiabilities   types.Money `json:"totalLiabilities"`

	Equity types.Money `json:"equity"`
}

// CashFlowStatement is the movement-of-cash statement for a period.
// Investing and financing activities are not categorized yet and always
// report zero.
type CashFlowStatement struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	OpeningBalance types.Money `json:"openingBalance"`
	Operating      types.Money `json:"operating"`
	Investing      types.Money `json:"investing"`
	Financing      types.Money `json:"financing"`
	NetCashFlow    types.Money `json:"netCashFlow"`
	ClosingBalance types.Money `json:"closingBalance"`
}
