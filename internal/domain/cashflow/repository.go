package cashflow

import "context"

// PendingSource supplies the outstanding-document projections. Implemented
// by the storage layer as direct queries over invoices and purchases with
// balance_amount > 0 and an outstanding status.
type PendingSource interface {
	OutstandingReceivables(ctx context.Context) ([]PendingPayment, error)
	OutstandingPayables(ctx context.Context) ([]PendingPayment, error)
}
