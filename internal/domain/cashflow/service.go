package cashflow

import (
	"context"
	"sort"
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/tx"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain"
	"gstbooks/internal/domain/payments"
)

// ListInput bounds and pages the merged transaction stream.
type ListInput struct {
	FromDate *time.Time
	ToDate   *time.Time
	Method   *payments.Method
	Limit    int
	Offset   int
}

// Service merges the three money-movement sources into one stream.
// All reads, no mutations. Each public read runs in a read-only
// transaction so the three sources are queried at one snapshot; nested
// calls reuse the caller's transaction.
type Service struct {
	payments payments.Repository
	pending  PendingSource
	ro       tx.ReadOnlyManager
}

// NewService creates a new cashflow service.
func NewService(paymentRepo payments.Repository, pending PendingSource, ro tx.ReadOnlyManager) *Service {
	return &Service{payments: paymentRepo, pending: pending, ro: ro}
}

// collect queries each source with the same filter and normalizes into the
// common Transaction shape. The three sources have incompatible schemas, so
// the union happens here rather than in SQL.
func (s *Service) collect(ctx context.Context, in ListInput) ([]Transaction, error) {
	filter := payments.Filter{
		FromDate: in.FromDate,
		ToDate:   in.ToDate,
		Method:   in.Method,
	}

	pays, err := s.payments.ListPayments(ctx, filter)
	if err != nil {
		return nil, err
	}
	purchPays, err := s.payments.ListPurchasePayments(ctx, filter)
	if err != nil {
		return nil, err
	}
	expenses, err := s.payments.ListExpenses(ctx, filter)
	if err != nil {
		return nil, err
	}

	txns := make([]Transaction, 0, len(pays)+len(purchPays)+len(expenses))
	for _, p := range pays {
		txns = append(txns, Transaction{
			ID:        syntheticID(SourcePayment, p.ID),
			SourceID:  p.ID,
			Source:    SourcePayment,
			Direction: DirectionInflow,
			Date:      p.Date,
			Amount:    p.Amount,
			Method:    p.Method,
			Note:      p.Note,
			CreatedAt: p.CreatedAt,
		})
	}
	for _, p := range purchPays {
		txns = append(txns, Transaction{
			ID:        syntheticID(SourcePurchasePayment, p.ID),
			SourceID:  p.ID,
			Source:    SourcePurchasePayment,
			Direction: DirectionOutflow,
			Date:      p.Date,
			Amount:    p.Amount,
			Method:    p.Method,
			Note:      p.Note,
			CreatedAt: p.CreatedAt,
		})
	}
	for _, e := range expenses {
		txns = append(txns, Transaction{
			ID:        syntheticID(SourceExpense, e.ID),
			SourceID:  e.ID,
			Source:    SourceExpense,
			Direction: DirectionOutflow,
			Date:      e.Date,
			Amount:    e.Amount,
			Method:    e.Method,
			Note:      e.Note,
			CreatedAt: e.CreatedAt,
		})
	}

	// Newest first; equal dates fall back to creation time so replays of
	// the same log always produce the same page boundaries.
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.After(txns[j].Date)
		}
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
	return txns, nil
}

// ListTransactions returns one page of the merged, date-descending stream.
func (s *Service) ListTransactions(ctx context.Context, in ListInput) (domain.ListResult[Transaction], error) {
	if in.Limit < 0 || in.Offset < 0 {
		return domain.ListResult[Transaction]{}, apperror.NewValidation("limit and offset must be non-negative")
	}
	if in.Limit == 0 {
		in.Limit = domain.DefaultListFilter().Limit
	}

	var txns []Transaction
	err := s.ro.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		txns, err = s.collect(ctx, in)
		return err
	})
	if err != nil {
		return domain.ListResult[Transaction]{}, err
	}

	total := len(txns)
	result := domain.ListResult[Transaction]{
		Items:      []Transaction{},
		TotalCount: int64(total),
		Limit:      in.Limit,
		Offset:     in.Offset,
	}
	if in.Offset >= total {
		return result, nil
	}
	end := in.Offset + in.Limit
	if end > total {
		end = total
	}
	result.Items = txns[in.Offset:end]
	return result, nil
}

// Summarize folds the full merged stream for the range. Income is the sum
// of inflows, outflow the sum of outflows, net their difference, so the
// figures always reconcile with ListTransactions over the same range.
func (s *Service) Summarize(ctx context.Context, from, to *time.Time) (Summary, error) {
	var txns []Transaction
	err := s.ro.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		txns, err = s.collect(ctx, ListInput{FromDate: from, ToDate: to})
		return err
	})
	if err != nil {
		return Summary{}, err
	}

	income := types.Zero()
	outflow := types.Zero()
	for _, t := range txns {
		switch t.Direction {
		case DirectionInflow:
			income = income.Add(t.Amount)
		case DirectionOutflow:
			outflow = outflow.Add(t.Amount)
		}
	}
	return Summary{
		TotalIncome:  income,
		TotalOutflow: outflow,
		Net:          income.Sub(outflow),
	}, nil
}

// PendingPayments returns outstanding receivables and payables with totals.
func (s *Service) PendingPayments(ctx context.Context) (PendingSummary, error) {
	var receivables, payables []PendingPayment
	err := s.ro.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		if receivables, err = s.pending.OutstandingReceivables(ctx); err != nil {
			return err
		}
		payables, err = s.pending.OutstandingPayables(ctx)
		return err
	})
	if err != nil {
		return PendingSummary{}, err
	}
	now := time.Now().UTC()
	markOverdue(receivables, now)
	markOverdue(payables, now)

	totalReceivable := types.Zero()
	for _, r := range receivables {
		totalReceivable = totalReceivable.Add(r.PendingAmount)
	}
	totalPayable := types.Zero()
	for _, p := range payables {
		totalPayable = totalPayable.Add(p.PendingAmount)
	}

	return PendingSummary{
		Receivables:     receivables,
		Payables:        payables,
		TotalReceivable: totalReceivable,
		TotalPayable:    totalPayable,
		TotalPending:    totalReceivable.Add(totalPayable),
	}, nil
}

// markOverdue rewrites the status of outstanding documents whose due date
// has passed. Overdue is a read-side projection of DueDate, never stored.
func markOverdue(pending []PendingPayment, now time.Time) {
	for i := range pending {
		if !pending[i].DueDate.IsZero() && pending[i].DueDate.Before(now) {
			pending[i].Status = entity.StatusOverdue
		}
	}
}
