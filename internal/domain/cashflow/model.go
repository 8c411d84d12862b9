// Package cashflow consolidates customer payments, vendor payments and
// expenses into one chronological transaction stream with range summaries.
package cashflow

import (
	"fmt"
	"time"

	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/payments"
)

// Source identifies which row type a transaction was projected from.
type Source string

const (
	SourcePayment         Source = "payment"
	SourcePurchasePayment Source = "purchase_payment"
	SourceExpense         Source = "expense"
)

// Direction tags a transaction as money in or money out.
type Direction string

const (
	DirectionInflow  Direction = "inflow"
	DirectionOutflow Direction = "outflow"
)

// Transaction is the read-model union of a payment, purchase payment or
// expense. ID is synthetic ("{source}_{uuid}") and not a stable key.
type Transaction struct {
	ID        string          `json:"id"`
	SourceID  id.ID           `json:"sourceId"`
	Source    Source          `json:"source"`
	Direction Direction       `json:"direction"`
	Date      time.Time       `json:"date"`
	Amount    types.Money     `json:"amount"`
	Method    payments.Method `json:"method"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func syntheticID(source Source, sourceID id.ID) string {
	return fmt.Sprintf("%s_%s", source, sourceID)
}

// Summary is the income/outflow/net rollup for a date range.
// An empty range yields zeros, never an error.
type Summary struct {
	TotalIncome  types.Money `json:"totalIncome"`
	TotalOutflow types.Money `json:"totalOutflow"`
	Net          types.Money `json:"net"`
}

// PendingPayment is one outstanding document in the receivables or
// payables view. Status is the stored document status except for overdue,
// which is derived from DueDate at read time.
type PendingPayment struct {
	DocumentID    id.ID                 `json:"documentId"`
	DocumentNo    string                `json:"documentNo"`
	PartyName     string                `json:"partyName"`
	Status        entity.DocumentStatus `json:"status"`
	DueDate       time.Time             `json:"dueDate"`
	PendingAmount types.Money           `json:"pendingAmount"`
}

// PendingSummary groups outstanding invoices and purchases with totals.
type PendingSummary struct {
	Receivables     []PendingPayment `json:"receivables"`
	Payables        []PendingPayment `json:"payables"`
	TotalReceivable types.Money      `json:"totalReceivable"`
	TotalPayable    types.Money      `json:"totalPayable"`
	TotalPending    types.Money      `json:"totalPending"`
}
